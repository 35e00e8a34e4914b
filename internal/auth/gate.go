package auth

import (
	"strings"
)

// Policy decides who may use the canteen. One privileged address is staff,
// everyone else must carry the institutional email domain.
type Policy struct {
	AdminEmail    string
	AllowedDomain string
}

// Evaluate maps an email to (allowed, admin). It is called on every
// authentication event and on every request so a policy change takes
// effect without waiting for sessions to expire.
func (p Policy) Evaluate(email string) (allowed, admin bool) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false, false
	}
	admin = email == strings.ToLower(p.AdminEmail)
	allowed = admin || strings.HasSuffix(email, "@"+strings.ToLower(p.AllowedDomain))
	return allowed, admin
}

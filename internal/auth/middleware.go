package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/campuscanteen/canteen-service/internal/httpx"
	"github.com/campuscanteen/canteen-service/pkg/models"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type contextKey struct{}

var identityKey contextKey

// Authenticator turns a session token into an Identity. The gate policy is
// re-evaluated on every call, so the admin flag always reflects the current
// policy rather than whatever was true when the token was minted.
type Authenticator struct {
	tokens *TokenManager
	policy Policy
}

func NewAuthenticator(tokens *TokenManager, policy Policy) *Authenticator {
	return &Authenticator{tokens: tokens, policy: policy}
}

func (a *Authenticator) Identify(tokenString string) (models.Identity, error) {
	userID, email, err := a.tokens.Parse(tokenString)
	if err != nil {
		return models.Identity{}, err
	}

	allowed, admin := a.policy.Evaluate(email)
	if !allowed {
		return models.Identity{}, ErrAccessDenied
	}

	return models.Identity{UserID: userID, Email: email, Admin: admin}, nil
}

// Middleware authenticates every request on the router it is attached to.
// Tokens arrive as a bearer header, or as a query parameter for the
// websocket endpoint where headers are awkward for browser clients.
func Middleware(a *Authenticator, logger *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := bearerToken(r)
			if tokenString == "" {
				httpx.RespondError(w, http.StatusUnauthorized, "Authentication required")
				return
			}

			identity, err := a.Identify(tokenString)
			if err != nil {
				if err == ErrAccessDenied {
					logger.WithField("path", r.URL.Path).Warn("Access denied by gate policy")
					httpx.RespondError(w, http.StatusForbidden, ErrAccessDenied.Error())
					return
				}
				httpx.RespondError(w, http.StatusUnauthorized, "Invalid or expired session")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// RequireAdmin guards a staff-only handler. The router should only mount
// staff handlers behind it, but handlers still defend themselves.
func RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFrom(r.Context())
		if !ok || !identity.Admin {
			httpx.RespondError(w, http.StatusForbidden, "Staff access required")
			return
		}
		next(w, r)
	}
}

func WithIdentity(ctx context.Context, identity models.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func IdentityFrom(ctx context.Context) (models.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(models.Identity)
	return identity, ok
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/campuscanteen/canteen-service/internal/httpx"
	"github.com/sirupsen/logrus"
)

var ErrAccessDenied = errors.New("access denied: only institute accounts are permitted")

type Handler struct {
	provider IdentityProvider
	tokens   *TokenManager
	policy   Policy
	logger   *logrus.Logger
}

func NewHandler(provider IdentityProvider, tokens *TokenManager, policy Policy, logger *logrus.Logger) *Handler {
	return &Handler{
		provider: provider,
		tokens:   tokens,
		policy:   policy,
		logger:   logger,
	}
}

// Login exchanges an external ID token for a first-party session. Identities
// outside the allow-list get no session at all: the denial is surfaced and
// the sign-in is treated as if it never happened.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDToken string `json:"id_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IDToken == "" {
		httpx.RespondError(w, http.StatusBadRequest, "id_token is required")
		return
	}

	userID, email, err := h.provider.Verify(r.Context(), req.IDToken)
	if err != nil {
		h.logger.WithError(err).Warn("Identity verification failed")
		httpx.RespondError(w, http.StatusUnauthorized, "Could not verify identity")
		return
	}

	allowed, admin := h.policy.Evaluate(email)
	if !allowed {
		h.logger.WithField("email", email).Warn("Sign-in blocked by gate policy")
		httpx.RespondError(w, http.StatusForbidden,
			fmt.Sprintf("Access denied. Only accounts ending with @%s are permitted.", h.policy.AllowedDomain))
		return
	}

	token, err := h.tokens.Issue(userID, email)
	if err != nil {
		h.logger.WithError(err).Error("Failed to issue session token")
		httpx.RespondError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	h.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"admin":   admin,
	}).Info("User signed in")

	httpx.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"token":   token,
		"user": map[string]interface{}{
			"id":    userID,
			"email": email,
			"admin": admin,
		},
	})
}

// Logout is an audit point. Sessions are stateless tokens, so ending one is
// the client discarding it.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if identity, ok := IdentityFrom(r.Context()); ok {
		h.logger.WithField("user_id", identity.UserID).Info("User signed out")
	}
	httpx.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Signed out",
	})
}

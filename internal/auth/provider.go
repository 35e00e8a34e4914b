package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// IdentityProvider verifies an external ID token and returns the
// authenticated identity behind it.
type IdentityProvider interface {
	Verify(ctx context.Context, idToken string) (userID, email string, err error)
}

// GoogleVerifier validates Google ID tokens against the tokeninfo endpoint.
type GoogleVerifier struct {
	endpoint   string
	httpClient *http.Client
}

func NewGoogleVerifier(endpoint string) *GoogleVerifier {
	return &GoogleVerifier{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (v *GoogleVerifier) Verify(ctx context.Context, idToken string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET",
		v.endpoint+"?id_token="+url.QueryEscape(idToken), nil)
	if err != nil {
		return "", "", fmt.Errorf("failed to create tokeninfo request: %w", err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("failed to reach identity provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("identity provider rejected token: status %d", resp.StatusCode)
	}

	var info struct {
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified string `json:"email_verified"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", "", fmt.Errorf("failed to decode tokeninfo response: %w", err)
	}

	if info.Sub == "" || info.Email == "" {
		return "", "", fmt.Errorf("identity provider returned incomplete token info")
	}
	if info.EmailVerified != "true" {
		return "", "", fmt.Errorf("email address is not verified")
	}

	return info.Sub, info.Email, nil
}

package authn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/bloodbridge/bloodbridge/internal/app/system/normalize"
	"golang.org/x/oauth2"
)

// GoogleUserInfoURL is Google's OAuth2 userinfo endpoint.
const GoogleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

var (
	errMissingToken  = errors.New("access token is required")
	errEmailMismatch = errors.New("token email does not match")
	errUnverified    = errors.New("provider has not verified the email")
)

// IdentityVerifier confirms that accessToken belongs to email.
type IdentityVerifier interface {
	Verify(ctx context.Context, email, accessToken string) error
}

// GoogleVerifier checks a Google access token against the userinfo
// endpoint. The zero value talks to Google with the default client.
type GoogleVerifier struct {
	// UserInfoURL overrides GoogleUserInfoURL.
	UserInfoURL string
	// Client is the base HTTP client the oauth2 transport wraps.
	Client *http.Client
}

type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
}

// Verify fetches the token owner's profile and compares emails.
func (g GoogleVerifier) Verify(ctx context.Context, email, accessToken string) error {
	if accessToken == "" {
		return errMissingToken
	}
	if g.Client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, g.Client)
	}
	url := g.UserInfoURL
	if url == "" {
		url = GoogleUserInfoURL
	}

	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return fmt.Errorf("decode user info: %w", err)
	}
	if !info.EmailVerified {
		return errUnverified
	}
	if normalize.Email(info.Email) != normalize.Email(email) {
		return errEmailMismatch
	}
	return nil
}

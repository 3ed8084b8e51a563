// Package gcp holds the outbound collaborators of the dashboard: the Google
// OAuth flow and the REST clients for BigQuery and Cloud Resource Manager.
package gcp

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/timmy/bqlens/internal/domain"
)

// DefaultScopes covers listing projects and reading job metadata.
var DefaultScopes = []string{
	"https://www.googleapis.com/auth/bigquery.readonly",
	"https://www.googleapis.com/auth/cloud-platform.read-only",
}

// OAuth wraps the authorization-code flow against Google's endpoints.
type OAuth struct {
	cfg *oauth2.Config
}

// NewOAuth creates the OAuth helper. Empty scopes fall back to DefaultScopes.
func NewOAuth(clientID, clientSecret, redirectURL string, scopes []string) *OAuth {
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	return &OAuth{cfg: &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       scopes,
		Endpoint:     google.Endpoint,
	}}
}

// AuthURL returns the consent-page URL for the given CSRF state.
func (o *OAuth) AuthURL(state string) string {
	return o.cfg.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for a token.
func (o *OAuth) Exchange(ctx context.Context, code string) (*domain.OAuthToken, error) {
	tok, err := o.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return fromOAuth2(tok), nil
}

// Refresh returns a fresh token for a session, going through the refresh
// token only when the current access token has expired.
func (o *OAuth) Refresh(ctx context.Context, t *domain.OAuthToken) (*domain.OAuthToken, error) {
	src := o.cfg.TokenSource(ctx, toOAuth2(t))
	tok, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}
	return fromOAuth2(tok), nil
}

func fromOAuth2(tok *oauth2.Token) *domain.OAuthToken {
	return &domain.OAuthToken{
		AccessToken:  tok.AccessToken,
		TokenType:    tok.TokenType,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}
}

func toOAuth2(t *domain.OAuthToken) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  t.AccessToken,
		TokenType:    t.TokenType,
		RefreshToken: t.RefreshToken,
		Expiry:       t.Expiry,
	}
}

// Expired reports whether a stored token needs refreshing before use.
func Expired(t *domain.OAuthToken) bool {
	return !t.Expiry.IsZero() && time.Now().After(t.Expiry)
}

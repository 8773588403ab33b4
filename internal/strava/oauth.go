package strava

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
)

// OAuth endpoints for the Strava authorization-code flow.
const (
	authURL  = "https://www.strava.com/oauth/authorize"
	tokenURL = "https://www.strava.com/oauth/token"
)

// OAuthConfig builds the oauth2 configuration for the Strava application.
// Strava expects a single comma-separated scope value.
func OAuthConfig(clientID, clientSecret, redirectURI string) (*oauth2.Config, error) {
	if strings.TrimSpace(clientID) == "" || strings.TrimSpace(clientSecret) == "" {
		return nil, fmt.Errorf("strava: client id and secret are required")
	}
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       []string{"read,activity:read_all,profile:read_all"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  authURL,
			TokenURL: tokenURL,
		},
	}, nil
}

// AuthCodeURL returns the user consent URL for the given state.
func AuthCodeURL(cfg *oauth2.Config, state string) string {
	return cfg.AuthCodeURL(state, oauth2.SetAuthURLParam("approval_prompt", "auto"))
}

// Exchange trades the redirect code for a token and returns an
// auto-refreshing token source.
func Exchange(ctx context.Context, cfg *oauth2.Config, code string) (oauth2.TokenSource, error) {
	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("strava: authorization code is required")
	}
	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("strava: code exchange: %w", err)
	}
	return cfg.TokenSource(ctx, token), nil
}

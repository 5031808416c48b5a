package googleauth

import (
	"context"
	"log"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// TokenUpdateFunc is a callback that persists a refreshed OAuth token.
type TokenUpdateFunc func(token *oauth2.Token) error

// notifyTokenSource wraps an oauth2.TokenSource and fires the callback
// whenever Google rotates the access token, so the stored credential pair
// stays usable for the next sync.
type notifyTokenSource struct {
	src      oauth2.TokenSource
	current  *oauth2.Token
	callback TokenUpdateFunc
}

func (s *notifyTokenSource) Token() (*oauth2.Token, error) {
	t, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	if s.callback != nil && s.current.AccessToken != t.AccessToken {
		s.current = t
		if err := s.callback(t); err != nil {
			log.Printf("[GoogleAuth] Failed to persist refreshed token: %v", err)
		}
	}
	return t, nil
}

// NewClient builds an authenticated HTTP client for the user's credential
// pair. When a refresh token is present the access token is treated as
// already expired so the first call refreshes it if necessary.
func NewClient(ctx context.Context, clientID, clientSecret, accessToken, refreshToken string, onTokenRefresh TokenUpdateFunc) *http.Client {
	token := &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
	}
	if refreshToken != "" {
		token.Expiry = time.Now()
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
	}

	wrapped := &notifyTokenSource{
		src:      config.TokenSource(ctx, token),
		current:  token,
		callback: onTokenRefresh,
	}

	return oauth2.NewClient(ctx, wrapped)
}

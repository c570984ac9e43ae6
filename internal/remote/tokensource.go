package remote

import (
	"context"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// refreshBuffer is how long before expiry a token is refreshed
const refreshBuffer = 60 * time.Second

// TokenSource wraps oauth2.TokenSource with persistence.
// It refreshes tokens ahead of expiry and calls onRefresh with every new token.
type TokenSource struct {
	config    *oauth2.Config
	token     *oauth2.Token
	onRefresh func(*oauth2.Token) error
	mu        sync.Mutex
}

// NewOAuthConfig returns a refresh-only oauth2 config for a token endpoint
func NewOAuthConfig(clientID, tokenURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID: clientID,
		Endpoint: oauth2.Endpoint{
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// NewTokenSource creates a TokenSource that refreshes tokens as needed
// and calls onRefresh to persist new tokens
func NewTokenSource(cfg *oauth2.Config, token *oauth2.Token, onRefresh func(*oauth2.Token) error) *TokenSource {
	return &TokenSource{
		config:    cfg,
		token:     token,
		onRefresh: onRefresh,
	}
}

// Token returns a valid token, refreshing if necessary
func (ts *TokenSource) Token() (*oauth2.Token, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	// A zero expiry means the token never expires
	if ts.token.Expiry.IsZero() || time.Until(ts.token.Expiry) > refreshBuffer {
		return ts.token, nil
	}

	// Force the refresh by handing over a token that is already expired
	stale := *ts.token
	stale.Expiry = time.Now().Add(-time.Second)
	newToken, err := ts.config.TokenSource(context.Background(), &stale).Token()
	if err != nil {
		return nil, err
	}

	if ts.onRefresh != nil {
		if err := ts.onRefresh(newToken); err != nil {
			return nil, err
		}
	}

	ts.token = newToken
	return newToken, nil
}

// CurrentToken returns the current token without refreshing
func (ts *TokenSource) CurrentToken() *oauth2.Token {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.token
}

package auth

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenProvider holds the current bearer credential for the ordering API.
// The token is issued by the remote side; the client never verifies the
// signature, it only attaches the token and inspects the expiry claim so a
// locally-expired credential can be treated like a 401 without a round trip.
type TokenProvider struct {
	mu    sync.RWMutex
	token string
}

// NewTokenProvider starts unauthenticated.
func NewTokenProvider() *TokenProvider {
	return &TokenProvider{}
}

// Set replaces the credential, e.g. after a login or refresh.
func (p *TokenProvider) Set(token string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.token = token
}

// Clear drops the credential; subsequent remote calls go out anonymous.
func (p *TokenProvider) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.token = ""
}

// Token returns the current credential, empty when unauthenticated.
func (p *TokenProvider) Token() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.token
}

// Expired reports whether the held token carries an exp claim in the past.
// Tokens without an exp claim, or that don't parse as JWTs, are not
// considered expired; the server stays the authority on rejecting them.
func (p *TokenProvider) Expired(now time.Time) bool {
	token := p.Token()
	if token == "" {
		return false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return now.After(exp.Time)
}

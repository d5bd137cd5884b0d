package apiclient

import (
	"sync"
	"time"

	"github.com/paulIordache/Architecture-Web/core"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// Session holds the bearer credential used by a Client and the single
// re-authentication policy invoked when that credential is missing or
// rejected.
type Session struct {
	mu        sync.RWMutex
	src       oauth2.TokenSource
	onExpired func(err error)
}

// NewSession builds a session over src. A nil src starts signed out.
func NewSession(src oauth2.TokenSource) *Session {
	return &Session{src: src}
}

// StaticSession wraps a previously issued token.
func StaticSession(accessToken string) *Session {
	if accessToken == "" {
		return NewSession(nil)
	}
	return NewSession(oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))
}

// OnExpired installs the re-authentication entry point.
func (s *Session) OnExpired(fn func(err error)) {
	s.mu.Lock()
	s.onExpired = fn
	s.mu.Unlock()
}

// SetToken replaces the credential, e.g. after a login. A zero expiry
// never expires locally.
func (s *Session) SetToken(accessToken string, expiry time.Time) {
	tok := &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer", Expiry: expiry}
	s.mu.Lock()
	s.src = oauth2.ReuseTokenSource(tok, oauth2.StaticTokenSource(tok))
	s.mu.Unlock()
}

// Token returns a valid credential or an Unauthenticated error.
func (s *Session) Token() (*oauth2.Token, error) {
	s.mu.RLock()
	src := s.src
	s.mu.RUnlock()

	if src == nil {
		return nil, core.Unauthenticated("not signed in", nil)
	}
	tok, err := src.Token()
	if err != nil {
		return nil, core.Unauthenticated("could not obtain credential", err)
	}
	if !tok.Valid() {
		return nil, core.Unauthenticated("credential expired", nil)
	}
	return tok, nil
}

// Expire drops the credential and runs the re-authentication policy.
func (s *Session) Expire(err error) {
	s.mu.Lock()
	s.src = nil
	fn := s.onExpired
	s.mu.Unlock()

	logrus.WithError(err).Warn("Session expired, re-authentication required")
	if fn != nil {
		fn(err)
	}
}

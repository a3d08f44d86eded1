package client

import (
	"errors"
	"fmt"
	"sync"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/jobportal/profile-sync/internal/auth"
	"github.com/jobportal/profile-sync/internal/domain"
)

// ErrIncompleteToken is returned by SetToken for a token without sub, role or exp.
var ErrIncompleteToken = errors.New("token is missing sub, role or exp")

// Session holds the caller's bearer token and an unverified view of its claims. The view
// drives UX decisions only; the server remains the authority on every request.
type Session struct {
	mu       sync.RWMutex
	token    string
	identity domain.Identity
	now      func() time.Time
}

// NewSession returns an empty session.
func NewSession() *Session {
	return &Session{now: time.Now}
}

// WithClock overrides the time source used by Expired.
func (s *Session) WithClock(now func() time.Time) *Session {
	s.now = now
	return s
}

// SetToken stores token and decodes its claims without verifying the signature.
func (s *Session) SetToken(token string) error {
	claims := &auth.Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return fmt.Errorf("decode token: %w", err)
	}

	if claims.Subject == "" || claims.Role == "" || claims.ExpiresAt == nil {
		return ErrIncompleteToken
	}

	identity := domain.Identity{ID: claims.Subject, Role: claims.Role, ExpiresAt: claims.ExpiresAt.Time}
	if claims.IssuedAt != nil {
		identity.IssuedAt = claims.IssuedAt.Time
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.identity = identity
	return nil
}

// Token returns the raw bearer token, or "" when signed out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Identity returns the decoded claims and whether a token is held.
func (s *Session) Identity() (domain.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity, s.token != ""
}

// Expired reports whether the held token's exp has passed. A session without a token is
// not expired.
func (s *Session) Expired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != "" && s.identity.Expired(s.now())
}

// Clear signs the session out.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.identity = domain.Identity{}
}

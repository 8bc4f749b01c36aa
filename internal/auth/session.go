package auth

import "sync"

// Session holds the signed-in user's identity and bearer token. The token may
// be replaced on refresh; reads and writes are safe from multiple goroutines.
type Session struct {
	mu     sync.RWMutex
	userID string
	token  string
}

// NewSession creates a session for the given user.
func NewSession(userID, token string) *Session {
	return &Session{userID: userID, token: token}
}

// UserID returns the signed-in user's id.
func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// Token returns the current bearer token, or ErrUnauthorized when the
// session has none.
func (s *Session) Token() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return "", ErrUnauthorized
	}
	return s.token, nil
}

// SetToken replaces the session's bearer token.
func (s *Session) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

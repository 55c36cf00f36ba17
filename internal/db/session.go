// internal/db/session.go
package db

import (
	"context"
	"sync"
)

// Session binds one connected Backend to one profile for its lifetime. All
// operation contexts derive from the session context, so closing the
// session cancels every in-flight catalog call and query scoped to it.
// A Session has exactly one owner; it is handed over, never shared.
type Session struct {
	backend   Backend
	profileID string

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// NewSession wraps an already connected backend.
func NewSession(backend Backend, profileID string) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		backend:   backend,
		profileID: profileID,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Backend returns the session's backend.
func (s *Session) Backend() Backend { return s.backend }

// ProfileID returns the id of the profile this session was opened for.
func (s *Session) ProfileID() string { return s.profileID }

// Kind returns the backend kind.
func (s *Session) Kind() Kind { return s.backend.Kind() }

// Context is the parent for every operation on this session. It is
// cancelled by Close.
func (s *Session) Context() context.Context { return s.ctx }

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close cancels all in-flight operations and closes the connection. It is
// safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	return s.backend.Close()
}

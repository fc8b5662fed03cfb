package core

import (
	"sync"

	"github.com/orbitalk/relay/internal/domain"
)

// Session is the live per-connection state: configuration meta, the
// transport endpoint, the current recognition stream and the audio gate.
//
// Meta is mutated only by the connection's own event sequence (config
// messages); the gate is the one field other sessions' pipelines touch.
type Session struct {
	conn Conn
	gate *Gate

	mu     sync.Mutex
	meta   domain.Session
	stream RecognitionStream
	closed bool
}

func NewSession(id domain.SessionID, conn Conn) *Session {
	return &Session{
		conn: conn,
		gate: NewGate(),
		meta: domain.Session{ID: id},
	}
}

func (s *Session) ID() domain.SessionID { return s.meta.ID }
func (s *Session) Conn() Conn           { return s.conn }
func (s *Session) Gate() *Gate          { return s.gate }

// Meta returns a copy of the session configuration.
func (s *Session) Meta() domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meta
}

// SetMeta installs a new configuration, keeping the identity.
func (s *Session) SetMeta(meta domain.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	meta.ID = s.meta.ID
	s.meta = meta
}

// ReplaceStream installs a new recognition stream, closing the previous one
// first so at most one subscription is ever live. Returns false when the
// session is already torn down, in which case the caller keeps ownership.
func (s *Session) ReplaceStream(stream RecognitionStream) bool {
	s.mu.Lock()
	old := s.stream
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.stream = stream
	s.mu.Unlock()
	if old != nil {
		old.Close()
	}
	return true
}

// Stream returns the current recognition stream, nil when unconfigured.
func (s *Session) Stream() RecognitionStream {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stream
}

// Teardown releases the recognition stream and the gate timer.
// Idempotent: a second call is a no-op.
func (s *Session) Teardown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	stream := s.stream
	s.stream = nil
	s.mu.Unlock()

	if stream != nil {
		stream.Close()
	}
	s.gate.Stop()
	s.conn.Close()
}

package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/orbitalk/relay/internal/core"
	"github.com/orbitalk/relay/internal/domain"
)

// Registry maps transport-level connections to live sessions.
// It is pure storage; lifecycle decisions live in the orchestrator.
type Registry struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID]*core.Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[domain.SessionID]*core.Session)}
}

// Register creates an empty session for a freshly accepted connection.
func (r *Registry) Register(sid domain.SessionID, conn core.Conn) *core.Session {
	s := core.NewSession(sid, conn)
	r.mu.Lock()
	r.sessions[sid] = s
	r.mu.Unlock()
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("session registered")
	return s
}

func (r *Registry) Get(sid domain.SessionID) (*core.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[sid]
	return s, ok
}

// Deregister removes the session, returning it so the caller can finish
// teardown. Safe to call twice; the second call returns nothing.
func (r *Registry) Deregister(sid domain.SessionID) (*core.Session, bool) {
	r.mu.Lock()
	s, ok := r.sessions[sid]
	delete(r.sessions, sid)
	r.mu.Unlock()
	if ok {
		log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("session deregistered")
	}
	return s, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

package core

import (
	"sync"

	"github.com/orbitalk/relay/internal/domain"
)

// Room is a threadsafe in-memory membership set, keyed by session identity
// so duplicate config messages from the same connection never double-add.
// It never closes session-owned resources.
type Room struct {
	id      domain.RoomID
	mu      sync.RWMutex
	members map[domain.SessionID]*Session
}

func NewRoom(id domain.RoomID) *Room {
	return &Room{
		id:      id,
		members: make(map[domain.SessionID]*Session),
	}
}

func (r *Room) ID() domain.RoomID { return r.id }

func (r *Room) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[s.ID()] = s
}

func (r *Room) Remove(sid domain.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members, sid)
}

func (r *Room) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// Snapshot returns the membership at this instant. Broadcasts iterate the
// snapshot, never the live map, so concurrent joins and leaves cannot be
// observed half-mutated.
func (r *Room) Snapshot() RoomSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(RoomSnapshot, 0, len(r.members))
	for _, s := range r.members {
		out = append(out, s)
	}
	return out
}

package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/orbitalk/relay/internal/core"
	"github.com/orbitalk/relay/internal/domain"
)

// RoomManager groups sessions by room identifier. Rooms are created lazily
// on first join and garbage-collected on last leave.
type RoomManager struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*core.Room
}

func NewRoomManager() *RoomManager {
	return &RoomManager{rooms: make(map[domain.RoomID]*core.Room)}
}

func (m *RoomManager) Join(id domain.RoomID, s *core.Session) {
	m.mu.Lock()
	room, ok := m.rooms[id]
	if !ok {
		room = core.NewRoom(id)
		m.rooms[id] = room
	}
	m.mu.Unlock()
	room.Add(s)
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Str("sid", string(s.ID())).Msg("joined room")
}

func (m *RoomManager) Leave(id domain.RoomID, s *core.Session) {
	m.mu.Lock()
	room, ok := m.rooms[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	room.Remove(s.ID())
	empty := room.Len() == 0
	if empty {
		delete(m.rooms, id)
	}
	m.mu.Unlock()
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Str("sid", string(s.ID())).Bool("deleted", empty).Msg("left room")
}

// Snapshot returns the room's membership at this instant, or nil when the
// room does not exist.
func (m *RoomManager) Snapshot(id domain.RoomID) core.RoomSnapshot {
	m.mu.RLock()
	room, ok := m.rooms[id]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	return room.Snapshot()
}

// Exists reports whether the room currently has any members.
func (m *RoomManager) Exists(id domain.RoomID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.rooms[id]
	return ok
}

func (m *RoomManager) List() []domain.RoomInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.RoomInfo, 0, len(m.rooms))
	for id, r := range m.rooms {
		out = append(out, domain.RoomInfo{Room: id, MemberCount: r.Len()})
	}
	return out
}

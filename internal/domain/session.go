// Package domain contains entity without logic, just meta-data
package domain

import "github.com/google/uuid"

type SessionID string

// NewSessionID generates an opaque identifier for a freshly accepted connection.
func NewSessionID() SessionID {
	return SessionID(uuid.NewString())
}

// Session holds one participant's language configuration. It is empty until
// the first config message arrives and is replaced wholesale on each one.
type Session struct {
	ID           SessionID
	RoomID       RoomID
	SourceLocale string
	TargetLocale string
	SourceBase   string
	TargetBase   string
	Voice        string
}

package domain

type RoomID string

// RoomInfo is a read-only view for the rooms listing API.
type RoomInfo struct {
	Room        RoomID `json:"room"`
	MemberCount int    `json:"member_count"`
}

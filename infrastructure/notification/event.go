package notification

import (
	"time"

	"github.com/hilthontt/trio/infrastructure/contracts"
)

// RoomEvent is the payload consumed by the push worker and websocket clients.
type RoomEvent struct {
	Action    string   `json:"action"`
	RoomID    string   `json:"room_id"`
	Title     string   `json:"title,omitempty"`
	Members   []string `json:"members"`
	Tokens    []string `json:"tokens,omitempty"`
	Timestamp int64    `json:"timestamp"`
}

func newStartedEvent(members []string, roomID string, at time.Time) RoomEvent {
	return RoomEvent{
		Action:    contracts.ActionRoomStarted,
		RoomID:    roomID,
		Members:   members,
		Timestamp: at.Unix(),
	}
}

func newExpiredEvent(roomID, title string, members []string, at time.Time) RoomEvent {
	return RoomEvent{
		Action:    contracts.ActionRoomExpired,
		RoomID:    roomID,
		Title:     title,
		Members:   members,
		Timestamp: at.Unix(),
	}
}

func (e RoomEvent) data() map[string]any {
	return map[string]any{
		"room_id":   e.RoomID,
		"title":     e.Title,
		"members":   e.Members,
		"timestamp": e.Timestamp,
	}
}

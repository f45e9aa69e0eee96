package room

import (
	"time"

	"github.com/hilthontt/trio/application/usecases/match"
	"github.com/hilthontt/trio/domain/model"
)

type CreateRoomRequest struct {
	Title string `json:"title" binding:"omitempty,min=1,max=40"`
}

type ListRoomsQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=200"`
}

type RoomResponse struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Owner        string    `json:"owner,omitempty"`
	Members      []string  `json:"members"`
	MembersLeave []string  `json:"members_leave"`
	State        string    `json:"state"`
	ExpireAt     time.Time `json:"expire_at"`
	CreatedAt    time.Time `json:"created_at"`
}

type JoinAnyResponse struct {
	Outcome string        `json:"outcome"`
	Room    *RoomResponse `json:"room,omitempty"`
}

type QueueStatusResponse struct {
	Size   int  `json:"size"`
	Queued bool `json:"queued"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func toRoomResponse(room *model.Room) *RoomResponse {
	if room == nil {
		return nil
	}
	return &RoomResponse{
		ID:           room.ID,
		Title:        room.Title,
		Owner:        room.Owner,
		Members:      append([]string{}, room.Members...),
		MembersLeave: append([]string{}, room.MembersLeave...),
		State:        room.State.String(),
		ExpireAt:     room.ExpireAt,
		CreatedAt:    room.CreatedAt,
	}
}

func toJoinAnyResponse(d match.Decision) JoinAnyResponse {
	return JoinAnyResponse{
		Outcome: string(d.Outcome),
		Room:    toRoomResponse(d.Room),
	}
}

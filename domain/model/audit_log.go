package model

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type AuditEvent string

const (
	AuditRoomCreated  AuditEvent = "room.created"
	AuditMemberJoined AuditEvent = "member.joined"
	AuditMemberLeft   AuditEvent = "member.left"
	AuditRoomWork     AuditEvent = "room.work"
	AuditRoomFinish   AuditEvent = "room.finish"
	AuditRoomLeave    AuditEvent = "room.leave"
	AuditRoomTimeout  AuditEvent = "room.timeout"
)

type AuditLog struct {
	ID        int       `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"type:TIMESTAMP with time zone;not null;index"`

	EventID   string `gorm:"type:VARCHAR(36);not null;uniqueIndex"`
	EventType string `gorm:"type:VARCHAR(64);not null;index"`

	// Empty for system-driven transitions such as timeouts.
	UserID string         `gorm:"type:VARCHAR(64);not null;index"`
	RoomID sql.NullString `gorm:"type:VARCHAR(36);null;index"`

	// Room snapshot at the time of the event
	Payload []byte `gorm:"type:JSONB;not null"`
}

func NewAuditLog(event AuditEvent, room *Room, userID string, at time.Time) AuditLog {
	a := AuditLog{
		CreatedAt: at,
		EventID:   uuid.NewString(),
		EventType: string(event),
		UserID:    userID,
		Payload:   []byte("{}"),
	}
	if room != nil {
		a.RoomID = sql.NullString{String: room.ID, Valid: true}
		if payload, err := json.Marshal(room); err == nil {
			a.Payload = payload
		}
	}
	return a
}

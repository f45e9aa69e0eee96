package contracts

// AmqpMessage is the envelope published on the rooms exchange.
type AmqpMessage struct {
	OwnerID string `json:"ownerId"`
	Data    []byte `json:"data"`
}

// Routing keys
const (
	EventRoomWork   = "room.work"
	EventRoomFinish = "room.finish"
)

// Push actions carried in the payload.
const (
	ActionRoomStarted = "room_started"
	ActionRoomExpired = "room_expired"
)

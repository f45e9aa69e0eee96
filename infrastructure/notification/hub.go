package notification

import (
	"context"

	"github.com/hilthontt/trio/domain/model"
	"github.com/hilthontt/trio/infrastructure/websocket"
)

// UserNotifier is satisfied by *websocket.NotificationCore.
type UserNotifier interface {
	NotifyUser(userID string, message *websocket.NotificationMessage) bool
}

// HubNotifier pushes room events to members connected over websocket.
// Offline members are skipped.
type HubNotifier struct {
	hub   UserNotifier
	clock model.Clock
}

func NewHubNotifier(hub UserNotifier, clock model.Clock) *HubNotifier {
	return &HubNotifier{hub: hub, clock: clock}
}

func (n *HubNotifier) NotifyWork(ctx context.Context, members []string, roomID string) error {
	n.fanOut(newStartedEvent(members, roomID, n.clock.Now()))
	return nil
}

func (n *HubNotifier) NotifyFinish(ctx context.Context, room *model.Room) error {
	n.fanOut(newExpiredEvent(room.ID, room.Title, room.Recipients(), n.clock.Now()))
	return nil
}

func (n *HubNotifier) fanOut(event RoomEvent) {
	for _, userID := range event.Members {
		n.hub.NotifyUser(userID, websocket.NewNotificationMessage(event.Action, userID, event.data()))
	}
}

package repository

import (
	"context"

	"github.com/hilthontt/trio/domain/model"
)

// Notifier announces room transitions. Implementations are best-effort; callers
// log failures and carry on.
type Notifier interface {
	NotifyWork(ctx context.Context, members []string, roomID string) error
	NotifyFinish(ctx context.Context, room *model.Room) error
}

package notification

import (
	"context"

	"github.com/hilthontt/trio/domain/model"
	"github.com/hilthontt/trio/infrastructure/logger"
	"go.uber.org/zap"
)

// LogNotifier only records events. Used when the broker is disabled.
type LogNotifier struct {
	logger *logger.Logger
}

func NewLogNotifier(logger *logger.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyWork(ctx context.Context, members []string, roomID string) error {
	n.logger.Info("room started",
		zap.String("room_id", roomID),
		zap.Strings("members", members),
	)
	return nil
}

func (n *LogNotifier) NotifyFinish(ctx context.Context, room *model.Room) error {
	n.logger.Info("room finished",
		zap.String("room_id", room.ID),
		zap.String("state", room.State.String()),
		zap.Strings("recipients", room.Recipients()),
	)
	return nil
}

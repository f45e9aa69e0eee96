package notification

import (
	"context"
	"errors"

	"github.com/hilthontt/trio/domain/model"
	"github.com/hilthontt/trio/domain/repository"
)

// MultiNotifier delivers every event to all notifiers, even when one fails.
type MultiNotifier struct {
	notifiers []repository.Notifier
}

func NewMultiNotifier(notifiers ...repository.Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers}
}

func (m *MultiNotifier) NotifyWork(ctx context.Context, members []string, roomID string) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.NotifyWork(ctx, members, roomID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiNotifier) NotifyFinish(ctx context.Context, room *model.Room) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.NotifyFinish(ctx, room); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

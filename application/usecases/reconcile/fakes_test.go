package reconcile_test

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/hilthontt/trio/domain/model"
	"github.com/hilthontt/trio/domain/repository"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingNotifier struct {
	mu     sync.Mutex
	work   [][]string
	finish []string
}

func (n *recordingNotifier) NotifyWork(ctx context.Context, members []string, roomID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.work = append(n.work, slices.Clone(members))
	return nil
}

func (n *recordingNotifier) NotifyFinish(ctx context.Context, room *model.Room) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.finish = append(n.finish, room.ID)
	return errors.New("push gateway down")
}

type nopAuditLog struct{}

func (nopAuditLog) CreateAuditLog(ctx context.Context, a model.AuditLog) (model.AuditLog, error) {
	return a, nil
}

// flakyRooms fails FindEligible while down is set.
type flakyRooms struct {
	repository.RoomRepository
	down bool
}

func (r *flakyRooms) FindEligible(ctx context.Context, now time.Time) ([]*model.Room, error) {
	if r.down {
		return nil, model.ErrStorageUnavailable
	}
	return r.RoomRepository.FindEligible(ctx, now)
}

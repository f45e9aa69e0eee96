package match_test

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/hilthontt/trio/domain/model"
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

type workCall struct {
	Members []string
	RoomID  string
}

type recordingNotifier struct {
	mu      sync.Mutex
	work    []workCall
	finish  []*model.Room
	failing bool
}

func (n *recordingNotifier) NotifyWork(ctx context.Context, members []string, roomID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.work = append(n.work, workCall{Members: slices.Clone(members), RoomID: roomID})
	if n.failing {
		return errors.New("push gateway down")
	}
	return nil
}

func (n *recordingNotifier) NotifyFinish(ctx context.Context, room *model.Room) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.finish = append(n.finish, room.Clone())
	if n.failing {
		return errors.New("push gateway down")
	}
	return nil
}

func (n *recordingNotifier) Work() []workCall {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.work)
}

func (n *recordingNotifier) Finish() []*model.Room {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.finish)
}

type recordingAuditLog struct {
	mu     sync.Mutex
	events []string
}

func (a *recordingAuditLog) CreateAuditLog(ctx context.Context, l model.AuditLog) (model.AuditLog, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, l.EventType)
	return l, nil
}

func (a *recordingAuditLog) Events() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.events)
}

package repository

import (
	"context"
	"slices"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/hilthontt/trio/domain/model"
	"github.com/hilthontt/trio/domain/repository"
)

type memoryWaitQueue struct {
	mu      sync.Mutex
	order   []string
	members mapset.Set[string]
}

func NewMemoryWaitQueue() repository.WaitQueue {
	return &memoryWaitQueue{
		members: mapset.NewThreadUnsafeSet[string](),
	}
}

func (q *memoryWaitQueue) Enqueue(ctx context.Context, userID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.members.Add(userID) {
		return model.ErrAlreadyQueued
	}
	q.order = append(q.order, userID)
	return nil
}

func (q *memoryWaitQueue) DequeueUpTo(ctx context.Context, n int) ([]string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if n <= 0 {
		return []string{}, nil
	}
	n = min(n, len(q.order))
	out := slices.Clone(q.order[:n])
	q.order = slices.Delete(q.order, 0, n)
	q.members.RemoveAll(out...)
	return out, nil
}

func (q *memoryWaitQueue) Peek(ctx context.Context, n int) ([]string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if n <= 0 {
		return []string{}, nil
	}
	return slices.Clone(q.order[:min(n, len(q.order))]), nil
}

func (q *memoryWaitQueue) Size(ctx context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.order), nil
}

func (q *memoryWaitQueue) Remove(ctx context.Context, userID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.members.Contains(userID) {
		return nil
	}
	q.members.Remove(userID)
	if idx := slices.Index(q.order, userID); idx >= 0 {
		q.order = slices.Delete(q.order, idx, idx+1)
	}
	return nil
}

func (q *memoryWaitQueue) Contains(ctx context.Context, userID string) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.members.Contains(userID), nil
}

package repository

import "context"

// WaitQueue is a FIFO of user ids. A user appears at most once.
type WaitQueue interface {
	Enqueue(ctx context.Context, userID string) error
	DequeueUpTo(ctx context.Context, n int) ([]string, error)
	Peek(ctx context.Context, n int) ([]string, error)
	Size(ctx context.Context) (int, error)
	Remove(ctx context.Context, userID string) error
	Contains(ctx context.Context, userID string) (bool, error)
}

package repository

import (
	"context"
	"time"

	"github.com/hilthontt/trio/domain/model"
)

type RoomRepository interface {
	Create(ctx context.Context, room *model.Room) error
	GetByID(ctx context.Context, id string) (*model.Room, error)
	// FindEligible returns filling rooms that have not expired at now, fewest
	// members first and earliest expiry on ties.
	FindEligible(ctx context.Context, now time.Time) ([]*model.Room, error)
	FindExpired(ctx context.Context, now time.Time) ([]*model.Room, error)
	FindActiveByMember(ctx context.Context, userID string) (*model.Room, error)
	// Save persists room if the stored version still equals room.Version and the
	// stored room is not terminal, then bumps room.Version.
	Save(ctx context.Context, room *model.Room) error
	// MarkExpired moves the given rooms to timeout if they are still filling
	// and expired at now. Only the rooms actually transitioned are returned.
	MarkExpired(ctx context.Context, ids []string, now time.Time) ([]*model.Room, error)
	List(ctx context.Context, limit int) ([]*model.Room, error)
}

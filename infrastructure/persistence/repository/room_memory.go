package repository

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/hilthontt/trio/domain/model"
	"github.com/hilthontt/trio/domain/repository"
)

type memoryRoomRepository struct {
	mu    sync.RWMutex
	rooms map[string]*model.Room
}

func NewMemoryRoomRepository() repository.RoomRepository {
	return &memoryRoomRepository{
		rooms: make(map[string]*model.Room),
	}
}

func (r *memoryRoomRepository) Create(ctx context.Context, room *model.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rooms[room.ID]; exists {
		return model.ErrConflict
	}
	room.Version = 1
	r.rooms[room.ID] = room.Clone()
	return nil
}

func (r *memoryRoomRepository) GetByID(ctx context.Context, id string) (*model.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return room.Clone(), nil
}

func (r *memoryRoomRepository) FindEligible(ctx context.Context, now time.Time) ([]*model.Room, error) {
	rooms := r.filter(func(room *model.Room) bool { return room.IsEligible(now) })
	slices.SortStableFunc(rooms, func(a, b *model.Room) int {
		if c := cmp.Compare(len(a.Members), len(b.Members)); c != 0 {
			return c
		}
		return a.ExpireAt.Compare(b.ExpireAt)
	})
	return rooms, nil
}

func (r *memoryRoomRepository) FindExpired(ctx context.Context, now time.Time) ([]*model.Room, error) {
	rooms := r.filter(func(room *model.Room) bool { return room.IsExpired(now) })
	slices.SortFunc(rooms, func(a, b *model.Room) int { return a.ExpireAt.Compare(b.ExpireAt) })
	return rooms, nil
}

func (r *memoryRoomRepository) FindActiveByMember(ctx context.Context, userID string) (*model.Room, error) {
	rooms := r.filter(func(room *model.Room) bool {
		return !room.State.IsTerminal() && room.IsMember(userID)
	})
	if len(rooms) == 0 {
		return nil, model.ErrNotFound
	}
	return rooms[0], nil
}

func (r *memoryRoomRepository) Save(ctx context.Context, room *model.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.rooms[room.ID]
	if !ok {
		return model.ErrNotFound
	}
	if stored.Version != room.Version || stored.State.IsTerminal() {
		return model.ErrConflict
	}

	room.Version++
	r.rooms[room.ID] = room.Clone()
	return nil
}

func (r *memoryRoomRepository) MarkExpired(ctx context.Context, ids []string, now time.Time) ([]*model.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var expired []*model.Room
	for _, id := range ids {
		stored, ok := r.rooms[id]
		if !ok || !stored.IsExpired(now) {
			continue
		}
		stored.State = model.RoomStateTimeout
		stored.Version++
		expired = append(expired, stored.Clone())
	}
	return expired, nil
}

func (r *memoryRoomRepository) List(ctx context.Context, limit int) ([]*model.Room, error) {
	rooms := r.filter(func(*model.Room) bool { return true })
	slices.SortFunc(rooms, func(a, b *model.Room) int { return b.CreatedAt.Compare(a.CreatedAt) })
	if limit > 0 && len(rooms) > limit {
		rooms = rooms[:limit]
	}
	return rooms, nil
}

func (r *memoryRoomRepository) filter(keep func(*model.Room) bool) []*model.Room {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.Room, 0)
	for _, room := range r.rooms {
		if keep(room) {
			out = append(out, room.Clone())
		}
	}
	return out
}

package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/hilthontt/trio/domain/model"
	"github.com/hilthontt/trio/infrastructure/persistence/repository"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newRoom(t *testing.T, id string, members []string, expireIn time.Duration) *model.Room {
	t.Helper()
	r, err := model.NewRoom(id, "title"+id, "", members, epoch, expireIn)
	require.NoError(t, err)
	return r
}

func TestMemoryRoomRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRoomRepository()

	room := newRoom(t, "r1", []string{"a", "b"}, 5*time.Minute)
	room.Owner = "a"
	require.NoError(t, repo.Create(ctx, room))

	room.MembersLeave = []string{"z", "y", "x"}
	require.NoError(t, repo.Save(ctx, room))

	got, err := repo.GetByID(ctx, "r1")
	require.NoError(t, err)
	require.Equal(t, room, got)
	require.Equal(t, []string{"z", "y", "x"}, got.MembersLeave)

	_, err = repo.GetByID(ctx, "missing")
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestMemorySaveDetectsConflicts(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRoomRepository()
	require.NoError(t, repo.Create(ctx, newRoom(t, "r1", nil, time.Minute)))

	first, _ := repo.GetByID(ctx, "r1")
	second, _ := repo.GetByID(ctx, "r1")

	first.Members = append(first.Members, "a")
	require.NoError(t, repo.Save(ctx, first))

	second.Members = append(second.Members, "b")
	require.ErrorIs(t, repo.Save(ctx, second), model.ErrConflict)

	expired, err := repo.MarkExpired(ctx, []string{"r1"}, epoch.Add(2*time.Minute))
	require.NoError(t, err)
	require.Len(t, expired, 1)

	require.ErrorIs(t, repo.Save(ctx, expired[0]), model.ErrConflict)
}

func TestMemoryFindEligibleOrdering(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRoomRepository()

	require.NoError(t, repo.Create(ctx, newRoom(t, "two", []string{"a", "b"}, time.Minute)))
	require.NoError(t, repo.Create(ctx, newRoom(t, "one-late", []string{"c"}, 3*time.Minute)))
	require.NoError(t, repo.Create(ctx, newRoom(t, "one-early", []string{"d"}, 2*time.Minute)))
	require.NoError(t, repo.Create(ctx, newRoom(t, "full", []string{"e", "f", "g"}, time.Minute)))
	require.NoError(t, repo.Create(ctx, newRoom(t, "stale", nil, -time.Minute)))

	rooms, err := repo.FindEligible(ctx, epoch)
	require.NoError(t, err)

	ids := make([]string, 0, len(rooms))
	for _, r := range rooms {
		ids = append(ids, r.ID)
	}
	require.Equal(t, []string{"one-early", "one-late", "two"}, ids)

	expired, err := repo.FindExpired(ctx, epoch)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	require.Equal(t, "stale", expired[0].ID)
}

func TestMemoryMarkExpiredSkipsLiveRooms(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRoomRepository()
	require.NoError(t, repo.Create(ctx, newRoom(t, "live", nil, time.Hour)))
	require.NoError(t, repo.Create(ctx, newRoom(t, "stale", []string{"a"}, -time.Minute)))

	expired, err := repo.MarkExpired(ctx, []string{"live", "stale", "missing"}, epoch)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	require.Equal(t, model.RoomStateTimeout, expired[0].State)

	again, err := repo.MarkExpired(ctx, []string{"stale"}, epoch)
	require.NoError(t, err)
	require.Empty(t, again)

	live, _ := repo.GetByID(ctx, "live")
	require.Equal(t, model.RoomStateInit, live.State)
}

func TestMemoryFindActiveByMember(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRoomRepository()
	require.NoError(t, repo.Create(ctx, newRoom(t, "work", []string{"a", "b", "c"}, time.Minute)))

	room, err := repo.FindActiveByMember(ctx, "b")
	require.NoError(t, err)
	require.Equal(t, "work", room.ID)

	_, err = repo.FindActiveByMember(ctx, "z")
	require.ErrorIs(t, err, model.ErrNotFound)
}

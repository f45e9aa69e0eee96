package match_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/hilthontt/trio/application/usecases/match"
	"github.com/hilthontt/trio/domain/model"
	"github.com/hilthontt/trio/domain/repository"
	"github.com/hilthontt/trio/infrastructure/logger"
	persistence "github.com/hilthontt/trio/infrastructure/persistence/repository"
	"github.com/stretchr/testify/require"
)

type harness struct {
	uc       match.MatchUseCase
	rooms    repository.RoomRepository
	queue    repository.WaitQueue
	notifier *recordingNotifier
	audit    *recordingAuditLog
	clock    *fakeClock
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		rooms:    persistence.NewMemoryRoomRepository(),
		queue:    persistence.NewMemoryWaitQueue(),
		notifier: &recordingNotifier{},
		audit:    &recordingAuditLog{},
		clock:    newFakeClock(),
	}
	h.uc = match.NewMatchUseCase(h.rooms, h.queue, h.notifier, h.audit, logger.NewNop(), match.Options{
		GraceWindow: 5 * time.Minute,
		Clock:       h.clock,
	})
	return h
}

func TestCreateRoom(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	empty, err := h.uc.Create(ctx, "", "")
	require.NoError(t, err)
	require.Equal(t, model.RoomStateInit, empty.State)
	require.Len(t, empty.Title, 10)
	require.Regexp(t, "^[a-z]{10}$", empty.Title)
	require.Equal(t, h.clock.Now().Add(5*time.Minute), empty.ExpireAt)

	owned, err := h.uc.Create(ctx, "alice", "standup")
	require.NoError(t, err)
	require.Equal(t, model.RoomStateWait, owned.State)
	require.Equal(t, []string{"alice"}, owned.Members)
	require.Equal(t, "standup", owned.Title)

	_, err = h.uc.Create(ctx, "alice", "")
	require.ErrorIs(t, err, model.ErrAlreadyMember)
}

func TestJoinLeaveScenario(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	room, err := h.uc.Create(ctx, "", "")
	require.NoError(t, err)
	require.Equal(t, model.RoomStateInit, room.State)

	h.clock.Advance(time.Minute)
	room, err = h.uc.Join(ctx, room.ID, "A")
	require.NoError(t, err)
	require.Equal(t, model.RoomStateWait, room.State)
	require.Equal(t, h.clock.Now().Add(5*time.Minute), room.ExpireAt)

	room, err = h.uc.Join(ctx, room.ID, "B")
	require.NoError(t, err)
	require.Equal(t, model.RoomStateWait, room.State)
	require.Empty(t, h.notifier.Work())

	room, err = h.uc.Join(ctx, room.ID, "C")
	require.NoError(t, err)
	require.Equal(t, model.RoomStateWork, room.State)

	work := h.notifier.Work()
	require.Len(t, work, 1)
	require.Equal(t, []string{"A", "B", "C"}, work[0].Members)
	require.Equal(t, room.ID, work[0].RoomID)

	room, err = h.uc.Leave(ctx, room.ID, "A")
	require.NoError(t, err)
	require.Equal(t, []string{"B", "C"}, room.Members)
	require.Equal(t, model.RoomStateWork, room.State)

	_, err = h.uc.Leave(ctx, room.ID, "B")
	require.NoError(t, err)
	require.Empty(t, h.notifier.Finish())

	room, err = h.uc.Leave(ctx, room.ID, "C")
	require.NoError(t, err)
	require.Equal(t, model.RoomStateFinish, room.State)
	require.Equal(t, []string{"A", "B", "C"}, room.MembersLeave)

	finish := h.notifier.Finish()
	require.Len(t, finish, 1)
	require.Equal(t, room.ID, finish[0].ID)

	stored, err := h.rooms.GetByID(ctx, room.ID)
	require.NoError(t, err)
	require.Equal(t, model.RoomStateFinish, stored.State)

	require.Contains(t, h.audit.Events(), string(model.AuditRoomWork))
	require.Contains(t, h.audit.Events(), string(model.AuditRoomFinish))
}

func TestJoinIsIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	room, err := h.uc.Create(ctx, "", "")
	require.NoError(t, err)

	once, err := h.uc.Join(ctx, room.ID, "A")
	require.NoError(t, err)

	h.clock.Advance(time.Minute)
	twice, err := h.uc.Join(ctx, room.ID, "A")
	require.NoError(t, err)
	require.Equal(t, once, twice)
}

func TestRepeatedJoinClearsStaleQueueEntry(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	room, err := h.uc.Create(ctx, "A", "")
	require.NoError(t, err)
	require.NoError(t, h.queue.Enqueue(ctx, "A"))

	joined, err := h.uc.Join(ctx, room.ID, "A")
	require.NoError(t, err)
	require.Equal(t, []string{"A"}, joined.Members)

	queued, err := h.queue.Contains(ctx, "A")
	require.NoError(t, err)
	require.False(t, queued)
}

func TestJoinErrors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.uc.Join(ctx, "missing", "A")
	require.ErrorIs(t, err, model.ErrNotFound)

	first, err := h.uc.Create(ctx, "", "")
	require.NoError(t, err)
	second, err := h.uc.Create(ctx, "", "")
	require.NoError(t, err)

	_, err = h.uc.Join(ctx, first.ID, "A")
	require.NoError(t, err)
	_, err = h.uc.Join(ctx, second.ID, "A")
	require.ErrorIs(t, err, model.ErrAlreadyMember)

	h.clock.Advance(6 * time.Minute)
	_, err = h.uc.Join(ctx, second.ID, "B")
	require.ErrorIs(t, err, model.ErrRoomClosed)

	_, err = h.uc.Leave(ctx, first.ID, "nobody")
	require.ErrorIs(t, err, model.ErrNotMember)
}

func TestConcurrentJoinsAdmitExactlyThree(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	room, err := h.uc.Create(ctx, "", "")
	require.NoError(t, err)

	const n = 10
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
		full     int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := h.uc.Join(ctx, room.ID, fmt.Sprintf("user-%d", i))

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				admitted++
			case errors.Is(err, model.ErrRoomFull):
				full++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, 3, admitted)
	require.Equal(t, n-3, full)

	stored, err := h.rooms.GetByID(ctx, room.ID)
	require.NoError(t, err)
	require.Len(t, stored.Members, 3)
	require.Equal(t, model.RoomStateWork, stored.State)
	require.Len(t, h.notifier.Work(), 1)
}

func TestJoinAnyPrefersFewestMembers(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	busy, err := h.uc.Create(ctx, "A", "")
	require.NoError(t, err)
	_, err = h.uc.Join(ctx, busy.ID, "B")
	require.NoError(t, err)

	h.clock.Advance(time.Second)
	quiet, err := h.uc.Create(ctx, "C", "")
	require.NoError(t, err)

	decision, err := h.uc.JoinAny(ctx, "D")
	require.NoError(t, err)
	require.Equal(t, match.OutcomeAdded, decision.Outcome)
	require.Equal(t, quiet.ID, decision.Room.ID)
	require.Equal(t, []string{"C", "D"}, decision.Room.Members)

	again, err := h.uc.JoinAny(ctx, "D")
	require.NoError(t, err)
	require.Equal(t, match.OutcomeAttended, again.Outcome)
	require.Equal(t, quiet.ID, again.Room.ID)
	require.Equal(t, decision.Room.Members, again.Room.Members)
}

func TestJoinAnyQueuesWhenNothingIsEligible(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	decision, err := h.uc.JoinAny(ctx, "A")
	require.NoError(t, err)
	require.Equal(t, match.OutcomeWait, decision.Outcome)
	require.Nil(t, decision.Room)

	decision, err = h.uc.JoinAny(ctx, "A")
	require.NoError(t, err)
	require.Equal(t, match.OutcomeWait, decision.Outcome)

	status, err := h.uc.QueueStatus(ctx, "A")
	require.NoError(t, err)
	require.Equal(t, match.QueueStatus{Size: 1, Queued: true}, status)

	require.NoError(t, h.uc.Withdraw(ctx, "A"))
	require.NoError(t, h.uc.Withdraw(ctx, "A"))

	status, err = h.uc.QueueStatus(ctx, "A")
	require.NoError(t, err)
	require.Equal(t, match.QueueStatus{Size: 0, Queued: false}, status)
}

func TestJoiningRemovesUserFromQueue(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	decision, err := h.uc.JoinAny(ctx, "A")
	require.NoError(t, err)
	require.Equal(t, match.OutcomeWait, decision.Outcome)

	room, err := h.uc.Create(ctx, "", "")
	require.NoError(t, err)
	_, err = h.uc.Join(ctx, room.ID, "A")
	require.NoError(t, err)

	queued, err := h.queue.Contains(ctx, "A")
	require.NoError(t, err)
	require.False(t, queued)

	decision, err = h.uc.JoinAny(ctx, "A")
	require.NoError(t, err)
	require.Equal(t, match.OutcomeAttended, decision.Outcome)

	queued, err = h.queue.Contains(ctx, "A")
	require.NoError(t, err)
	require.False(t, queued)
}

func TestNotificationFailureDoesNotBlockTransitions(t *testing.T) {
	h := newHarness(t)
	h.notifier.failing = true
	ctx := context.Background()

	room, err := h.uc.Create(ctx, "A", "")
	require.NoError(t, err)
	_, err = h.uc.Join(ctx, room.ID, "B")
	require.NoError(t, err)
	room, err = h.uc.Join(ctx, room.ID, "C")
	require.NoError(t, err)
	require.Equal(t, model.RoomStateWork, room.State)

	for _, u := range []string{"A", "B", "C"} {
		room, err = h.uc.Leave(ctx, room.ID, u)
		require.NoError(t, err)
	}
	require.Equal(t, model.RoomStateFinish, room.State)
	require.Len(t, h.notifier.Finish(), 1)
}

func TestLeaveTransitionsWhileFilling(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	room, err := h.uc.Create(ctx, "A", "")
	require.NoError(t, err)
	_, err = h.uc.Join(ctx, room.ID, "B")
	require.NoError(t, err)

	room, err = h.uc.Leave(ctx, room.ID, "B")
	require.NoError(t, err)
	require.Equal(t, model.RoomStateInit, room.State)

	room, err = h.uc.Leave(ctx, room.ID, "A")
	require.NoError(t, err)
	require.Equal(t, model.RoomStateLeave, room.State)
	require.Empty(t, h.notifier.Finish())

	_, err = h.uc.Join(ctx, room.ID, "C")
	require.ErrorIs(t, err, model.ErrRoomClosed)
}

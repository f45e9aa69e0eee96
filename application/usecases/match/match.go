package match

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/hilthontt/trio/domain/model"
	"github.com/hilthontt/trio/domain/repository"
	"github.com/hilthontt/trio/infrastructure/logger"
	"go.uber.org/zap"
)

const (
	DefaultGraceWindow  = 5 * time.Minute
	DefaultStoreTimeout = 5 * time.Second

	maxSaveAttempts = 3
)

type Outcome string

const (
	// OutcomeAttended means the user already sits in a live room.
	OutcomeAttended Outcome = "attended"
	OutcomeAdded    Outcome = "added"
	OutcomeWait     Outcome = "wait"
)

type Decision struct {
	Outcome Outcome
	Room    *model.Room
}

type QueueStatus struct {
	Size   int
	Queued bool
}

type MatchUseCase interface {
	JoinAny(ctx context.Context, userID string) (Decision, error)
	Join(ctx context.Context, roomID, userID string) (*model.Room, error)
	Leave(ctx context.Context, roomID, userID string) (*model.Room, error)
	Create(ctx context.Context, owner, title string) (*model.Room, error)
	GetByID(ctx context.Context, id string) (*model.Room, error)
	List(ctx context.Context, limit int) ([]*model.Room, error)
	Withdraw(ctx context.Context, userID string) error
	QueueStatus(ctx context.Context, userID string) (QueueStatus, error)
}

type Options struct {
	GraceWindow  time.Duration
	StoreTimeout time.Duration
	Clock        model.Clock
}

type matchUseCase struct {
	rooms     repository.RoomRepository
	queue     repository.WaitQueue
	notifier  repository.Notifier
	auditLogs repository.AuditLogRepository
	logger    *logger.Logger

	grace        time.Duration
	storeTimeout time.Duration
	clock        model.Clock
	locks        *keyedMutex
}

func NewMatchUseCase(
	rooms repository.RoomRepository,
	queue repository.WaitQueue,
	notifier repository.Notifier,
	auditLogs repository.AuditLogRepository,
	logger *logger.Logger,
	opts Options,
) MatchUseCase {
	if opts.GraceWindow <= 0 {
		opts.GraceWindow = DefaultGraceWindow
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = DefaultStoreTimeout
	}
	if opts.Clock == nil {
		opts.Clock = model.SystemClock{}
	}

	return &matchUseCase{
		rooms:        rooms,
		queue:        queue,
		notifier:     notifier,
		auditLogs:    auditLogs,
		logger:       logger,
		grace:        opts.GraceWindow,
		storeTimeout: opts.StoreTimeout,
		clock:        opts.Clock,
		locks:        newKeyedMutex(),
	}
}

func (uc *matchUseCase) JoinAny(ctx context.Context, userID string) (Decision, error) {
	if userID == "" {
		return Decision{}, fmt.Errorf("user ID cannot be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, uc.storeTimeout)
	defer cancel()

	unlockUser := uc.locks.Lock(userKey(userID))
	defer unlockUser()

	seated, err := uc.seatOf(ctx, userID)
	if err != nil {
		return Decision{}, err
	}
	if seated != nil {
		return Decision{Outcome: OutcomeAttended, Room: seated}, nil
	}

	candidates, err := uc.rooms.FindEligible(ctx, uc.clock.Now())
	if err != nil {
		uc.logger.Error("failed to find eligible rooms", zap.Error(err), zap.String("userID", userID))
		return Decision{}, fmt.Errorf("failed to find eligible rooms: %w", err)
	}

	for _, candidate := range candidates {
		if candidate.SpareSeats() == 0 {
			continue
		}

		room, err := uc.joinRoom(ctx, candidate.ID, userID)
		if err == nil {
			return Decision{Outcome: OutcomeAdded, Room: room}, nil
		}
		if errors.Is(err, model.ErrRoomFull) || errors.Is(err, model.ErrRoomClosed) || errors.Is(err, model.ErrConflict) {
			uc.logger.Debug("candidate room no longer admits users", zap.String("roomID", candidate.ID), zap.Error(err))
			continue
		}
		return Decision{}, err
	}

	if err := uc.queue.Enqueue(ctx, userID); err != nil && !errors.Is(err, model.ErrAlreadyQueued) {
		uc.logger.Error("failed to enqueue user", zap.Error(err), zap.String("userID", userID))
		return Decision{}, fmt.Errorf("failed to enqueue user: %w", err)
	}

	uc.logger.Info("user waiting for a room", zap.String("userID", userID))
	return Decision{Outcome: OutcomeWait}, nil
}

func (uc *matchUseCase) Join(ctx context.Context, roomID, userID string) (*model.Room, error) {
	if roomID == "" || userID == "" {
		return nil, fmt.Errorf("room ID and user ID cannot be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, uc.storeTimeout)
	defer cancel()

	unlockUser := uc.locks.Lock(userKey(userID))
	defer unlockUser()

	return uc.joinRoom(ctx, roomID, userID)
}

// joinRoom expects the caller to hold the user lock.
func (uc *matchUseCase) joinRoom(ctx context.Context, roomID, userID string) (*model.Room, error) {
	unlockRoom := uc.locks.Lock(roomKey(roomID))
	defer unlockRoom()

	notified := false
	for attempt := 1; ; attempt++ {
		room, err := uc.rooms.GetByID(ctx, roomID)
		if err != nil {
			return nil, fmt.Errorf("failed to get room %s: %w", roomID, err)
		}

		if room.IsMember(userID) {
			if err := uc.queue.Remove(ctx, userID); err != nil {
				uc.logger.Warn("failed to remove seated user from queue", zap.Error(err), zap.String("userID", userID))
			}
			return room, nil
		}

		seated, err := uc.seatOf(ctx, userID)
		if err != nil {
			return nil, err
		}
		if seated != nil {
			return nil, fmt.Errorf("user %s sits in room %s: %w", userID, seated.ID, model.ErrAlreadyMember)
		}

		becameWork, err := room.AddMember(userID, uc.clock.Now(), uc.grace)
		if err != nil {
			return nil, fmt.Errorf("cannot join room %s: %w", roomID, err)
		}

		if becameWork && !notified {
			uc.notifyWork(ctx, room)
			notified = true
		}

		err = uc.rooms.Save(ctx, room)
		if errors.Is(err, model.ErrConflict) && attempt < maxSaveAttempts {
			uc.logger.Warn("room changed while joining, retrying", zap.String("roomID", roomID), zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			uc.logger.Error("failed to save room", zap.Error(err), zap.String("roomID", roomID), zap.String("userID", userID))
			return nil, fmt.Errorf("failed to save room: %w", err)
		}

		if err := uc.queue.Remove(ctx, userID); err != nil {
			uc.logger.Warn("failed to remove seated user from queue", zap.Error(err), zap.String("userID", userID))
		}

		uc.audit(ctx, model.AuditMemberJoined, room, userID)
		if becameWork {
			uc.audit(ctx, model.AuditRoomWork, room, userID)
		}

		uc.logger.Info("user joined room",
			zap.String("roomID", room.ID),
			zap.String("userID", userID),
			zap.String("state", room.State.String()),
			zap.Int("members", len(room.Members)),
		)
		return room, nil
	}
}

func (uc *matchUseCase) Leave(ctx context.Context, roomID, userID string) (*model.Room, error) {
	if roomID == "" || userID == "" {
		return nil, fmt.Errorf("room ID and user ID cannot be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, uc.storeTimeout)
	defer cancel()

	unlockRoom := uc.locks.Lock(roomKey(roomID))
	defer unlockRoom()

	for attempt := 1; ; attempt++ {
		room, err := uc.rooms.GetByID(ctx, roomID)
		if err != nil {
			return nil, fmt.Errorf("failed to get room %s: %w", roomID, err)
		}

		prev, err := room.RemoveMember(userID)
		if err != nil {
			return nil, fmt.Errorf("cannot leave room %s: %w", roomID, err)
		}

		err = uc.rooms.Save(ctx, room)
		if errors.Is(err, model.ErrConflict) && attempt < maxSaveAttempts {
			uc.logger.Warn("room changed while leaving, retrying", zap.String("roomID", roomID), zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			uc.logger.Error("failed to save room", zap.Error(err), zap.String("roomID", roomID), zap.String("userID", userID))
			return nil, fmt.Errorf("failed to save room: %w", err)
		}

		uc.audit(ctx, model.AuditMemberLeft, room, userID)

		switch room.State {
		case model.RoomStateFinish:
			uc.notifyFinish(ctx, room)
			uc.audit(ctx, model.AuditRoomFinish, room, userID)
		case model.RoomStateLeave:
			uc.audit(ctx, model.AuditRoomLeave, room, userID)
		}

		uc.logger.Info("user left room",
			zap.String("roomID", room.ID),
			zap.String("userID", userID),
			zap.String("from", prev.String()),
			zap.String("to", room.State.String()),
		)
		return room, nil
	}
}

func (uc *matchUseCase) Create(ctx context.Context, owner, title string) (*model.Room, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.storeTimeout)
	defer cancel()

	if title == "" {
		title = generateTitle()
	}

	var members []string
	if owner != "" {
		unlockUser := uc.locks.Lock(userKey(owner))
		defer unlockUser()

		seated, err := uc.seatOf(ctx, owner)
		if err != nil {
			return nil, err
		}
		if seated != nil {
			return nil, fmt.Errorf("user %s sits in room %s: %w", owner, seated.ID, model.ErrAlreadyMember)
		}
		members = []string{owner}
	}

	room, err := model.NewRoom(uuid.NewString(), title, owner, members, uc.clock.Now(), uc.grace)
	if err != nil {
		return nil, err
	}

	if err := uc.rooms.Create(ctx, room); err != nil {
		uc.logger.Error("failed to create room", zap.Error(err), zap.String("ownerID", owner))
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	if owner != "" {
		if err := uc.queue.Remove(ctx, owner); err != nil {
			uc.logger.Warn("failed to remove owner from queue", zap.Error(err), zap.String("userID", owner))
		}
	}

	uc.audit(ctx, model.AuditRoomCreated, room, owner)
	uc.logger.Info("room created successfully", zap.String("roomID", room.ID), zap.String("state", room.State.String()))
	return room, nil
}

func (uc *matchUseCase) GetByID(ctx context.Context, id string) (*model.Room, error) {
	if id == "" {
		return nil, fmt.Errorf("room ID cannot be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, uc.storeTimeout)
	defer cancel()

	room, err := uc.rooms.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get room %s: %w", id, err)
	}
	return room, nil
}

func (uc *matchUseCase) List(ctx context.Context, limit int) ([]*model.Room, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.storeTimeout)
	defer cancel()

	rooms, err := uc.rooms.List(ctx, limit)
	if err != nil {
		uc.logger.Error("failed to list rooms", zap.Error(err))
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return rooms, nil
}

func (uc *matchUseCase) Withdraw(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, uc.storeTimeout)
	defer cancel()

	unlockUser := uc.locks.Lock(userKey(userID))
	defer unlockUser()

	if err := uc.queue.Remove(ctx, userID); err != nil {
		return fmt.Errorf("failed to withdraw user: %w", err)
	}

	uc.logger.Info("user withdrew from queue", zap.String("userID", userID))
	return nil
}

func (uc *matchUseCase) QueueStatus(ctx context.Context, userID string) (QueueStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.storeTimeout)
	defer cancel()

	size, err := uc.queue.Size(ctx)
	if err != nil {
		return QueueStatus{}, fmt.Errorf("failed to read queue size: %w", err)
	}

	queued, err := uc.queue.Contains(ctx, userID)
	if err != nil {
		return QueueStatus{}, fmt.Errorf("failed to read queue: %w", err)
	}

	return QueueStatus{Size: size, Queued: queued}, nil
}

// seatOf returns the live room the user sits in, or nil.
func (uc *matchUseCase) seatOf(ctx context.Context, userID string) (*model.Room, error) {
	room, err := uc.rooms.FindActiveByMember(ctx, userID)
	if errors.Is(err, model.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up rooms of user %s: %w", userID, err)
	}
	return room, nil
}

func (uc *matchUseCase) notifyWork(ctx context.Context, room *model.Room) {
	if err := uc.notifier.NotifyWork(ctx, slices.Clone(room.Members), room.ID); err != nil {
		uc.logger.Warn("failed to send work notification", zap.Error(err), zap.String("roomID", room.ID))
	}
}

func (uc *matchUseCase) notifyFinish(ctx context.Context, room *model.Room) {
	if err := uc.notifier.NotifyFinish(ctx, room.Clone()); err != nil {
		uc.logger.Warn("failed to send finish notification", zap.Error(err), zap.String("roomID", room.ID))
	}
}

func (uc *matchUseCase) audit(ctx context.Context, event model.AuditEvent, room *model.Room, userID string) {
	if _, err := uc.auditLogs.CreateAuditLog(ctx, model.NewAuditLog(event, room, userID, uc.clock.Now())); err != nil {
		uc.logger.Warn("failed to write audit log", zap.Error(err), zap.String("event", string(event)), zap.String("roomID", room.ID))
	}
}

package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/hilthontt/trio/application/usecases/match"
	"github.com/hilthontt/trio/domain/model"
	"github.com/hilthontt/trio/domain/repository"
	"github.com/hilthontt/trio/infrastructure/logger"
	"go.uber.org/zap"
)

// Report summarises one sweep.
type Report struct {
	Expired     int
	Admitted    int
	CreatedRoom string
	QueueSize   int
}

type ReconcileUseCase interface {
	// Tick runs one sweep: expire stale rooms, top up eligible rooms from the
	// queue, then open at most one overflow room. A store error aborts the sweep.
	Tick(ctx context.Context) (Report, error)
}

type reconcileUseCase struct {
	matchUseCase match.MatchUseCase
	rooms        repository.RoomRepository
	queue        repository.WaitQueue
	notifier     repository.Notifier
	auditLogs    repository.AuditLogRepository
	clock        model.Clock
	logger       *logger.Logger
}

func NewReconcileUseCase(
	matchUseCase match.MatchUseCase,
	rooms repository.RoomRepository,
	queue repository.WaitQueue,
	notifier repository.Notifier,
	auditLogs repository.AuditLogRepository,
	clock model.Clock,
	logger *logger.Logger,
) ReconcileUseCase {
	if clock == nil {
		clock = model.SystemClock{}
	}
	return &reconcileUseCase{
		matchUseCase: matchUseCase,
		rooms:        rooms,
		queue:        queue,
		notifier:     notifier,
		auditLogs:    auditLogs,
		clock:        clock,
		logger:       logger,
	}
}

func (uc *reconcileUseCase) Tick(ctx context.Context) (Report, error) {
	var report Report

	expired, err := uc.expire(ctx)
	report.Expired = expired
	if err != nil {
		return report, err
	}

	size, err := uc.queue.Size(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to read queue size: %w", err)
	}
	if size == 0 {
		return report, nil
	}

	eligible, err := uc.rooms.FindEligible(ctx, uc.clock.Now())
	if err != nil {
		return report, fmt.Errorf("failed to find eligible rooms: %w", err)
	}

	for _, room := range eligible {
		admitted, err := uc.fill(ctx, room)
		report.Admitted += admitted
		if err != nil {
			return report, err
		}
	}

	size, err = uc.queue.Size(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to read queue size: %w", err)
	}

	if size > 0 {
		room, err := uc.matchUseCase.Create(ctx, "", "")
		if err != nil {
			return report, fmt.Errorf("failed to create overflow room: %w", err)
		}
		report.CreatedRoom = room.ID

		admitted, err := uc.fill(ctx, room)
		report.Admitted += admitted
		if err != nil {
			return report, err
		}

		if size, err = uc.queue.Size(ctx); err != nil {
			return report, fmt.Errorf("failed to read queue size: %w", err)
		}
	}

	report.QueueSize = size
	return report, nil
}

func (uc *reconcileUseCase) expire(ctx context.Context) (int, error) {
	now := uc.clock.Now()

	stale, err := uc.rooms.FindExpired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to find expired rooms: %w", err)
	}
	if len(stale) == 0 {
		return 0, nil
	}

	ids := make([]string, 0, len(stale))
	for _, room := range stale {
		ids = append(ids, room.ID)
	}

	expired, err := uc.rooms.MarkExpired(ctx, ids, now)
	if err != nil {
		return 0, fmt.Errorf("failed to mark rooms expired: %w", err)
	}

	for _, room := range expired {
		if err := uc.notifier.NotifyFinish(ctx, room); err != nil {
			uc.logger.Warn("failed to send expiry notification", zap.Error(err), zap.String("roomID", room.ID))
		}
		if _, err := uc.auditLogs.CreateAuditLog(ctx, model.NewAuditLog(model.AuditRoomTimeout, room, "", now)); err != nil {
			uc.logger.Warn("failed to write audit log", zap.Error(err), zap.String("roomID", room.ID))
		}
		uc.logger.Info("room timed out", zap.String("roomID", room.ID), zap.Int("members", len(room.Members)))
	}

	return len(expired), nil
}

// fill seats queued users in room, front of the queue first. Users leave the
// queue only once their seat is persisted. A queued user already seated in
// room is dropped from the queue without taking a seat.
func (uc *reconcileUseCase) fill(ctx context.Context, room *model.Room) (int, error) {
	admitted := 0
	spare := room.SpareSeats()

	for spare > 0 {
		batch, err := uc.queue.Peek(ctx, spare)
		if err != nil {
			return admitted, fmt.Errorf("failed to peek queue: %w", err)
		}
		if len(batch) == 0 {
			return admitted, nil
		}

		for _, userID := range batch {
			if spare == 0 {
				break
			}

			seated := room.IsMember(userID)
			joined, err := uc.matchUseCase.Join(ctx, room.ID, userID)
			switch {
			case err == nil && seated:
				if err := uc.queue.Remove(ctx, userID); err != nil {
					return admitted, fmt.Errorf("failed to drop seated user from queue: %w", err)
				}
				room = joined
				spare = room.SpareSeats()
			case err == nil:
				admitted++
				room = joined
				spare = room.SpareSeats()
			case errors.Is(err, model.ErrAlreadyMember):
				if err := uc.queue.Remove(ctx, userID); err != nil {
					return admitted, fmt.Errorf("failed to drop seated user from queue: %w", err)
				}
			case errors.Is(err, model.ErrRoomFull), errors.Is(err, model.ErrRoomClosed), errors.Is(err, model.ErrConflict):
				uc.logger.Debug("room stopped admitting", zap.String("roomID", room.ID), zap.Error(err))
				return admitted, nil
			default:
				return admitted, fmt.Errorf("failed to admit user %s: %w", userID, err)
			}
		}
	}

	return admitted, nil
}

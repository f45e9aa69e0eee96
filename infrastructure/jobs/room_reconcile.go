package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/hilthontt/trio/application/usecases/reconcile"
	"github.com/hilthontt/trio/infrastructure/logger"
	"github.com/hilthontt/trio/infrastructure/metrics"
	"go.uber.org/zap"
)

// RoomReconcileJob runs the room sweep on a fixed interval. Sweeps never
// overlap and Stop waits for an in-flight sweep.
type RoomReconcileJob struct {
	reconcileUseCase reconcile.ReconcileUseCase
	metrics          metrics.Manager
	logger           *logger.Logger
	interval         time.Duration

	running  sync.Mutex
	stopChan chan struct{}
	stopOnce sync.Once
}

func NewRoomReconcileJob(
	reconcileUseCase reconcile.ReconcileUseCase,
	metrics metrics.Manager,
	logger *logger.Logger,
	interval time.Duration,
) *RoomReconcileJob {
	return &RoomReconcileJob{
		reconcileUseCase: reconcileUseCase,
		metrics:          metrics,
		logger:           logger,
		interval:         interval,
		stopChan:         make(chan struct{}),
	}
}

func (j *RoomReconcileJob) Start(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.logger.Info("Room reconcile job started",
		zap.Duration("interval", j.interval),
	)

	j.RunOnce(ctx)

	for {
		select {
		case <-ticker.C:
			j.RunOnce(ctx)
		case <-j.stopChan:
			j.logger.Info("Room reconcile job stopped")
			return
		case <-ctx.Done():
			j.logger.Info("Room reconcile job context cancelled")
			return
		}
	}
}

// Stop prevents further sweeps and blocks until the current one returns.
func (j *RoomReconcileJob) Stop() {
	j.stopOnce.Do(func() { close(j.stopChan) })
	j.running.Lock()
	defer j.running.Unlock()
}

// RunOnce runs a single sweep unless one is already running or the job was
// stopped. It reports whether a sweep ran.
func (j *RoomReconcileJob) RunOnce(ctx context.Context) bool {
	if !j.running.TryLock() {
		j.logger.Warn("Room reconcile sweep still running, skipping tick")
		return false
	}
	defer j.running.Unlock()

	select {
	case <-j.stopChan:
		return false
	default:
	}

	// An in-flight sweep finishes even when shutdown cancels ctx.
	sweepCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), j.interval)
	defer cancel()

	startTime := time.Now()
	report, err := j.reconcileUseCase.Tick(sweepCtx)
	elapsed := time.Since(startTime)

	j.metrics.RecordHistogram(ctx, "trio_sweep_duration_seconds", elapsed.Seconds())
	j.metrics.AddCounter(ctx, "trio_rooms_expired_total", int64(report.Expired))
	j.metrics.AddCounter(ctx, "trio_users_admitted_total", int64(report.Admitted))
	if report.CreatedRoom != "" {
		j.metrics.IncrementCounter(ctx, "trio_rooms_opened_total")
	}

	if err != nil {
		j.metrics.IncrementCounter(ctx, "trio_sweep_failures_total")
		j.logger.Error("Room reconcile sweep failed",
			zap.Error(err),
			zap.Duration("duration", elapsed),
		)
		return true
	}

	j.metrics.SetGauge("trio_queue_size", float64(report.QueueSize))
	j.logger.Debug("Room reconcile sweep completed",
		zap.Int("expired", report.Expired),
		zap.Int("admitted", report.Admitted),
		zap.String("openedRoom", report.CreatedRoom),
		zap.Int("queueSize", report.QueueSize),
		zap.Duration("duration", elapsed),
	)
	return true
}

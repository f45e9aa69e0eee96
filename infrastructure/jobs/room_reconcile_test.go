package jobs_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hilthontt/trio/application/usecases/reconcile"
	"github.com/hilthontt/trio/infrastructure/jobs"
	"github.com/hilthontt/trio/infrastructure/logger"
	"github.com/hilthontt/trio/infrastructure/metrics"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
)

type blockingReconciler struct {
	calls   atomic.Int32
	release chan struct{}
	started chan struct{}
	err     error
}

func (r *blockingReconciler) Tick(ctx context.Context) (reconcile.Report, error) {
	r.calls.Add(1)
	if r.started != nil {
		r.started <- struct{}{}
	}
	if r.release != nil {
		<-r.release
	}
	return reconcile.Report{Admitted: 1}, r.err
}

func newManager() metrics.Manager {
	m := metrics.NewMetricsManager(noop.NewMeterProvider().Meter("test"), logger.NewNop())
	metrics.RegisterDefaults(m)
	return m
}

func TestRunOnceSkipsOverlappingSweeps(t *testing.T) {
	rec := &blockingReconciler{release: make(chan struct{}), started: make(chan struct{}, 1)}
	job := jobs.NewRoomReconcileJob(rec, newManager(), logger.NewNop(), time.Hour)

	done := make(chan bool)
	go func() { done <- job.RunOnce(context.Background()) }()
	<-rec.started

	require.False(t, job.RunOnce(context.Background()))

	close(rec.release)
	require.True(t, <-done)
	require.EqualValues(t, 1, rec.calls.Load())
}

func TestStopWaitsForInFlightSweep(t *testing.T) {
	rec := &blockingReconciler{release: make(chan struct{}), started: make(chan struct{}, 1)}
	job := jobs.NewRoomReconcileJob(rec, newManager(), logger.NewNop(), time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go job.Start(ctx)
	<-rec.started

	stopped := make(chan struct{})
	go func() {
		job.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a sweep was running")
	case <-time.After(50 * time.Millisecond):
	}

	close(rec.release)
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return after the sweep finished")
	}

	require.False(t, job.RunOnce(ctx))
	require.EqualValues(t, 1, rec.calls.Load())
}

func TestFailedSweepKeepsJobAlive(t *testing.T) {
	rec := &blockingReconciler{err: errors.New("storage unavailable")}
	job := jobs.NewRoomReconcileJob(rec, newManager(), logger.NewNop(), time.Hour)

	require.True(t, job.RunOnce(context.Background()))
	require.True(t, job.RunOnce(context.Background()))
	require.EqualValues(t, 2, rec.calls.Load())
}

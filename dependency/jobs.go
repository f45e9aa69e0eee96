package dependency

import (
	"context"

	"github.com/hilthontt/trio/infrastructure/jobs"
	"go.uber.org/zap"
)

func (c *Container) initBackgroundJobs(ctx context.Context) {
	c.ReconcileJob = jobs.NewRoomReconcileJob(c.ReconcileUC, c.MetricsManager, c.Logger, c.Config.Match.SweepInterval)

	go c.ReconcileJob.Start(ctx)

	c.Logger.Info("Background jobs started", zap.Duration("sweepInterval", c.Config.Match.SweepInterval))
}

package dependency

import (
	deviceUseCase "github.com/hilthontt/trio/application/usecases/device"
	"github.com/hilthontt/trio/application/usecases/match"
	"github.com/hilthontt/trio/application/usecases/reconcile"
)

// initDeviceUseCase runs before the notifier, which resolves push tokens through it.
func (c *Container) initDeviceUseCase() {
	c.DeviceUC = deviceUseCase.NewDeviceUseCase(c.DeviceRepo, c.Clock, c.Logger)
}

func (c *Container) initUseCases() {
	c.MatchUC = match.NewMatchUseCase(
		c.RoomRepo,
		c.QueueRepo,
		c.Notifier,
		c.AuditLogRepo,
		c.Logger,
		match.Options{
			GraceWindow:  c.Config.Match.GraceWindow,
			StoreTimeout: c.Config.Match.StoreTimeout,
			Clock:        c.Clock,
		},
	)
	c.ReconcileUC = reconcile.NewReconcileUseCase(
		c.MatchUC,
		c.RoomRepo,
		c.QueueRepo,
		c.Notifier,
		c.AuditLogRepo,
		c.Clock,
		c.Logger,
	)
	c.Logger.Info("Use cases initialized successfully")
}

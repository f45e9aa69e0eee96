package dependency

import (
	"context"
	"fmt"

	deviceUseCase "github.com/hilthontt/trio/application/usecases/device"
	"github.com/hilthontt/trio/application/usecases/match"
	"github.com/hilthontt/trio/application/usecases/reconcile"
	"github.com/hilthontt/trio/domain/model"
	"github.com/hilthontt/trio/domain/repository"
	"github.com/hilthontt/trio/infrastructure/config"
	"github.com/hilthontt/trio/infrastructure/jobs"
	"github.com/hilthontt/trio/infrastructure/logger"
	"github.com/hilthontt/trio/infrastructure/messaging"
	"github.com/hilthontt/trio/infrastructure/metrics"
	"github.com/hilthontt/trio/infrastructure/websocket"
	"github.com/hilthontt/trio/presentation/controllers/device"
	"github.com/hilthontt/trio/presentation/controllers/room"
	wsCtrl "github.com/hilthontt/trio/presentation/controllers/websocket"
	"go.mongodb.org/mongo-driver/mongo"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

type Container struct {
	Config *config.Config
	Logger *logger.Logger
	Clock  model.Clock

	TracerProvider *sdktrace.TracerProvider
	Tracer         trace.Tracer
	MetricsManager metrics.Manager

	MongoClient      *mongo.Client
	RabbitMQ         *messaging.RabbitMQ
	NotificationCore *websocket.NotificationCore

	RoomRepo     repository.RoomRepository
	QueueRepo    repository.WaitQueue
	DeviceRepo   repository.DeviceRepository
	AuditLogRepo repository.AuditLogRepository
	Notifier     repository.Notifier

	MatchUC     match.MatchUseCase
	ReconcileUC reconcile.ReconcileUseCase
	DeviceUC    deviceUseCase.DeviceUseCase

	RoomController         room.RoomController
	DeviceController       device.DeviceController
	NotificationController wsCtrl.NotificationController

	ReconcileJob *jobs.RoomReconcileJob

	ctx    context.Context
	cancel context.CancelFunc
}

func NewContainer() (*Container, error) {
	c := &Container{
		Clock: model.SystemClock{},
	}

	c.Config = config.GetConfig()

	loggerInstance, err := c.newLogger()
	if err != nil {
		return nil, fmt.Errorf("error initializing logger: %w", err)
	}
	c.Logger = loggerInstance

	c.Logger.Info("Initializing Trio API dependencies")

	c.ctx, c.cancel = context.WithCancel(context.Background())

	if err := c.initInfrastructure(); err != nil {
		return nil, fmt.Errorf("error initializing infrastructure: %w", err)
	}

	if err := c.initRepositories(c.ctx); err != nil {
		return nil, fmt.Errorf("error initializing repositories: %w", err)
	}

	c.initWebSocket()

	c.initDeviceUseCase()

	if err := c.initNotifier(); err != nil {
		return nil, fmt.Errorf("error initializing notifier: %w", err)
	}

	c.initUseCases()

	c.initControllers()

	c.initBackgroundJobs(c.ctx)

	c.Logger.Info("All dependencies initialized successfully")

	return c, nil
}

func (c *Container) newLogger() (*logger.Logger, error) {
	if c.Config.IsDevelopment() {
		return logger.NewDevelopmentLogger()
	}
	return logger.NewLogger(c.Config)
}

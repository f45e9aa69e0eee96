package dependency

import (
	"fmt"

	"github.com/getsentry/sentry-go"
	"github.com/hilthontt/trio/infrastructure/messaging"
	"github.com/hilthontt/trio/infrastructure/metrics"
	"github.com/hilthontt/trio/infrastructure/metrics/exporters"
	"github.com/hilthontt/trio/infrastructure/notification"
	"github.com/hilthontt/trio/infrastructure/websocket"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

const tracerName = "github.com/hilthontt/trio"

func (c *Container) initInfrastructure() error {
	tracerProvider, err := exporters.InitJaegerExporter(c.Config)
	if err != nil {
		c.Logger.Error("failed to initialize Jaeger exporter", zap.Error(err))
		c.Logger.Warn("Using noop tracer provider as fallback")
		c.Tracer = noop.NewTracerProvider().Tracer(tracerName)
	} else {
		c.TracerProvider = tracerProvider
		c.Tracer = tracerProvider.Tracer(tracerName)
		c.Logger.Info("Jaeger exporter initialized successfully",
			zap.String("endpoint", c.Config.Jaeger.Endpoint),
			zap.String("service", c.Config.Jaeger.ServiceName),
		)
	}

	meter, err := exporters.Prometheus(c.Config.Jaeger.ServiceName, c.Config.Jaeger.ServiceVersion)
	if err != nil {
		return fmt.Errorf("failed to initialize Prometheus exporter: %w", err)
	}

	c.MetricsManager = metrics.NewMetricsManager(meter, c.Logger)
	metrics.RegisterDefaults(c.MetricsManager)

	c.Logger.Info("Metrics initialized successfully")

	if c.Config.Sentry.Dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:            c.Config.Sentry.Dsn,
			Debug:          c.Config.Sentry.Debug,
			SendDefaultPII: c.Config.Sentry.SendDefaultPII,
			Environment:    c.Config.Server.RunMode,
			Release:        c.Config.Jaeger.ServiceVersion,
		}); err != nil {
			c.Logger.Error("failed to initialize sentry", zap.Error(err))
		}
	}

	return nil
}

func (c *Container) initWebSocket() {
	c.NotificationCore = websocket.NewNotificationCore(c.Logger)

	go c.NotificationCore.Run(c.ctx)

	c.Logger.Info("WebSocket components initialized successfully")
}

// initNotifier fans room events out to websocket clients and, when enabled, the
// push broker.
func (c *Container) initNotifier() error {
	hub := notification.NewHubNotifier(c.NotificationCore, c.Clock)

	if !c.Config.RabbitMQ.Enabled {
		c.Notifier = notification.NewMultiNotifier(hub, notification.NewLogNotifier(c.Logger))
		c.Logger.Info("RabbitMQ disabled, room events are only logged")
		return nil
	}

	rmq, err := messaging.NewRabbitMQ(c.Config.RabbitMQ.URI, c.Config.RabbitMQ.Exchange)
	if err != nil {
		return err
	}
	c.RabbitMQ = rmq

	broker := notification.NewBrokerNotifier(
		rmq,
		c.DeviceUC,
		c.Config.RabbitMQ.PublishRate,
		c.Config.RabbitMQ.PublishBurst,
		c.Clock,
		c.MetricsManager,
		c.Logger,
	)
	c.Notifier = notification.NewMultiNotifier(hub, broker)

	c.Logger.Info("RabbitMQ publisher initialized successfully", zap.String("exchange", c.Config.RabbitMQ.Exchange))
	return nil
}

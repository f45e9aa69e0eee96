package dependency

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/hilthontt/trio/infrastructure/cache"
	"github.com/hilthontt/trio/infrastructure/metrics"
	"github.com/hilthontt/trio/infrastructure/persistence/database"
	"github.com/hilthontt/trio/presentation/controllers/device"
	"github.com/hilthontt/trio/presentation/controllers/room"
	wsCtrl "github.com/hilthontt/trio/presentation/controllers/websocket"
	"github.com/hilthontt/trio/presentation/middlewares"
	"github.com/hilthontt/trio/presentation/routes"
	"go.uber.org/zap"
)

func (c *Container) initControllers() {
	c.RoomController = room.NewRoomController(c.MatchUC, c.Logger)
	c.DeviceController = device.NewDeviceController(c.DeviceUC)
	c.NotificationController = wsCtrl.NewNotificationController(c.NotificationCore, c.Logger)

	c.Logger.Info("Controllers initialized successfully")
}

func (c *Container) SetupRouter() *gin.Engine {
	switch c.Config.Server.RunMode {
	case "release", "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	binding.Validator = new(middlewares.DefaultValidator)

	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(sentrygin.New(sentrygin.Options{
		Repanic:         true,
		WaitForDelivery: false,
		Timeout:         5 * time.Second,
	}))

	router.Use(middlewares.GinLogger(c.Logger))
	router.Use(middlewares.CorsMiddleware(c.Config))
	router.Use(middlewares.HttpMetrics(c.MetricsManager))

	router.GET("/health", c.healthCheckHandler)

	c.registerObservabilityRoutes(router)

	c.registerAPIRoutes(router)

	c.Logger.Info("Router configured successfully")

	return router
}

func (c *Container) registerAPIRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		v1.Use(middlewares.UserMiddleware(c.Clock, c.Config.IsProduction(), c.Logger))

		if c.Config.UsesRedis() {
			v1.Use(middlewares.RateLimiterMiddleware(cache.GetRedis(), c.Logger, middlewares.ModerateRateLimiterConfig()))
		}

		v1.Use(func(ctx *gin.Context) {
			if hub := sentrygin.GetHubFromContext(ctx); hub != nil {
				if user, exists := middlewares.GetUserFromContext(ctx); exists {
					hub.Scope().SetUser(sentry.User{
						ID:        user.ID,
						IPAddress: ctx.ClientIP(),
					})
					if user.IsGuest {
						hub.Scope().SetTag("user_type", "guest")
					}
				}
			}
			ctx.Next()
		})

		routes.RoomRoutes(v1, c.RoomController)
		routes.DeviceRoutes(v1, c.DeviceController)
		routes.WebsocketRoutes(v1, c.NotificationController)
	}
}

func (c *Container) healthCheckHandler(ctx *gin.Context) {
	ctx.JSON(200, gin.H{
		"status": "healthy",
		"time":   c.Clock.Now().Format(time.RFC3339),
	})
}

func (c *Container) registerObservabilityRoutes(router *gin.Engine) {
	metricsGroup := router.Group("/observability")
	{
		metrics.GetHandler(metricsGroup, c.MetricsManager)
	}
}

// Shutdown stops the sweep after its in-flight tick, then releases every
// connection the container opened.
func (c *Container) Shutdown() error {
	c.Logger.Info("Shutting down dependencies...")

	if c.ReconcileJob != nil {
		c.ReconcileJob.Stop()
	}

	if c.cancel != nil {
		c.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if c.TracerProvider != nil {
		if err := c.TracerProvider.Shutdown(ctx); err != nil {
			c.Logger.Error("failed to shutdown tracer provider", zap.Error(err))
		}
	}

	if c.RabbitMQ != nil {
		c.RabbitMQ.Close()
	}

	if c.MongoClient != nil {
		if err := database.DisconnectMongo(ctx, c.MongoClient); err != nil {
			c.Logger.Error("failed to disconnect mongo", zap.Error(err))
		}
	}

	if c.Config.UsesRedis() {
		cache.CloseRedis()
	}

	if c.Config.Postgres.Enabled {
		database.CloseDb()
	}

	sentry.Flush(2 * time.Second)

	c.Logger.Info("Dependencies shut down successfully")

	if err := c.Logger.Sync(); err != nil {
		c.Logger.Debug("failed to sync logger", zap.Error(err))
	}

	return nil
}

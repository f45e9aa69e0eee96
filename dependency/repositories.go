package dependency

import (
	"context"
	"fmt"

	"github.com/hilthontt/trio/infrastructure/cache"
	"github.com/hilthontt/trio/infrastructure/logger"
	"github.com/hilthontt/trio/infrastructure/persistence/database"
	"github.com/hilthontt/trio/infrastructure/persistence/migration"
	"github.com/hilthontt/trio/infrastructure/persistence/repository"
	"go.uber.org/zap"
)

func (c *Container) initRepositories(ctx context.Context) error {
	switch c.Config.Match.RoomStore {
	case "mongo":
		client, err := database.NewMongoClient(ctx, c.Config)
		if err != nil {
			return err
		}
		c.MongoClient = client

		db := database.GetMongoDatabase(client, c.Config)
		if err := repository.EnsureRoomIndexes(ctx, db); err != nil {
			return err
		}
		if err := repository.EnsureDeviceIndexes(ctx, db); err != nil {
			return err
		}

		c.RoomRepo = repository.NewMongoRoomRepository(db, c.Tracer)
		c.DeviceRepo = repository.NewMongoDeviceRepository(db, c.Tracer)
	default:
		c.RoomRepo = repository.NewMemoryRoomRepository()
		c.DeviceRepo = repository.NewMemoryDeviceRepository()
	}

	if c.Config.UsesRedis() {
		if err := cache.InitRedis(c.Config); err != nil {
			return fmt.Errorf("error initializing cache: %w", err)
		}
		c.QueueRepo = repository.NewRedisWaitQueue(cache.GetRedis(), c.Tracer)
	} else {
		c.QueueRepo = repository.NewMemoryWaitQueue()
	}

	if c.Config.Postgres.Enabled {
		if err := database.InitDb(c.Config, logger.NewGormLogger(c.Logger.Log)); err != nil {
			return err
		}
		if err := migration.Up1(database.GetDb()); err != nil {
			return err
		}
		c.AuditLogRepo = repository.NewAuditLogRepository(database.GetDb(), c.Logger)
	} else {
		c.AuditLogRepo = repository.NewNoopAuditLogRepository()
	}

	c.Logger.Info("Repositories initialized successfully",
		zap.String("roomStore", c.Config.Match.RoomStore),
		zap.String("queueStore", c.Config.Match.QueueStore),
		zap.Bool("auditLog", c.Config.Postgres.Enabled),
	)
	return nil
}

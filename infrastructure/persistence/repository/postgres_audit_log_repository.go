package repository

import (
	"context"

	"github.com/hilthontt/trio/domain/model"
	"github.com/hilthontt/trio/domain/repository"
	"github.com/hilthontt/trio/infrastructure/logger"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresAuditLogRepository struct {
	database *gorm.DB
	logger   *logger.Logger
}

func NewAuditLogRepository(database *gorm.DB, logger *logger.Logger) repository.AuditLogRepository {
	return &PostgresAuditLogRepository{
		database: database,
		logger:   logger,
	}
}

func (r *PostgresAuditLogRepository) CreateAuditLog(ctx context.Context, a model.AuditLog) (model.AuditLog, error) {
	result := r.database.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoNothing: true,
		}).
		Create(&a)

	if result.Error != nil {
		r.logger.Error("failed to write audit log", zap.Error(result.Error), zap.String("eventType", a.EventType))
		return a, errors.Wrap(result.Error, "failed to write audit log")
	}

	return a, nil
}

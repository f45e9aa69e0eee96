package repository

import (
	"context"

	"github.com/hilthontt/trio/domain/model"
	"github.com/hilthontt/trio/domain/repository"
)

// noopAuditLogRepository is used when postgres is disabled.
type noopAuditLogRepository struct{}

func NewNoopAuditLogRepository() repository.AuditLogRepository {
	return noopAuditLogRepository{}
}

func (noopAuditLogRepository) CreateAuditLog(ctx context.Context, a model.AuditLog) (model.AuditLog, error) {
	return a, nil
}

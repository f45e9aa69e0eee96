package repository

import (
	"context"

	"github.com/hilthontt/trio/domain/model"
)

type DeviceRepository interface {
	Upsert(ctx context.Context, device *model.Device) error
	Delete(ctx context.Context, token string) error
	TokensFor(ctx context.Context, userIDs []string) ([]string, error)
}

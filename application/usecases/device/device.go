package device

import (
	"context"
	"fmt"
	"strings"

	"github.com/hilthontt/trio/domain/model"
	"github.com/hilthontt/trio/domain/repository"
	"github.com/hilthontt/trio/infrastructure/logger"
	"go.uber.org/zap"
)

type DeviceUseCase interface {
	Register(ctx context.Context, userID, token, platform string) (*model.Device, error)
	Unregister(ctx context.Context, token string) error
	TokensFor(ctx context.Context, userIDs []string) ([]string, error)
}

type deviceUseCase struct {
	repository repository.DeviceRepository
	clock      model.Clock
	logger     *logger.Logger
}

func NewDeviceUseCase(repository repository.DeviceRepository, clock model.Clock, logger *logger.Logger) DeviceUseCase {
	return &deviceUseCase{
		repository: repository,
		clock:      clock,
		logger:     logger,
	}
}

// Register binds token to userID, moving it away from any previous owner.
func (uc *deviceUseCase) Register(ctx context.Context, userID, token, platform string) (*model.Device, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, model.ErrInvalidToken
	}
	if userID == "" {
		return nil, fmt.Errorf("user ID cannot be empty")
	}

	p, err := model.ParsePlatform(platform)
	if err != nil {
		return nil, err
	}

	now := uc.clock.Now()
	device := &model.Device{
		Token:     token,
		UserID:    userID,
		Platform:  p,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.repository.Upsert(ctx, device); err != nil {
		uc.logger.Error("failed to register device", zap.Error(err), zap.String("userID", userID))
		return nil, fmt.Errorf("failed to register device: %w", err)
	}

	uc.logger.Info("device registered", zap.String("userID", userID), zap.String("platform", string(p)))
	return device, nil
}

func (uc *deviceUseCase) Unregister(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return model.ErrInvalidToken
	}

	if err := uc.repository.Delete(ctx, token); err != nil {
		return fmt.Errorf("failed to unregister device: %w", err)
	}
	return nil
}

func (uc *deviceUseCase) TokensFor(ctx context.Context, userIDs []string) ([]string, error) {
	if len(userIDs) == 0 {
		return []string{}, nil
	}

	tokens, err := uc.repository.TokensFor(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get device tokens: %w", err)
	}
	return tokens, nil
}

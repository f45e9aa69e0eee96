package repository

import (
	"context"
	"slices"
	"sync"

	"github.com/hilthontt/trio/domain/model"
	"github.com/hilthontt/trio/domain/repository"
)

type memoryDeviceRepository struct {
	mu      sync.RWMutex
	devices map[string]model.Device
}

func NewMemoryDeviceRepository() repository.DeviceRepository {
	return &memoryDeviceRepository{
		devices: make(map[string]model.Device),
	}
}

func (r *memoryDeviceRepository) Upsert(ctx context.Context, device *model.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.devices[device.Token]; ok {
		device.CreatedAt = existing.CreatedAt
	}
	r.devices[device.Token] = *device
	return nil
}

func (r *memoryDeviceRepository) Delete(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.devices[token]; !ok {
		return model.ErrTokenNotFound
	}
	delete(r.devices, token)
	return nil
}

func (r *memoryDeviceRepository) TokensFor(ctx context.Context, userIDs []string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tokens := make([]string, 0)
	for token, d := range r.devices {
		if slices.Contains(userIDs, d.UserID) {
			tokens = append(tokens, token)
		}
	}
	slices.Sort(tokens)
	return tokens, nil
}

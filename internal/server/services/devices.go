package services

import (
	"context"

	"github.com/edmarkov/savesync/internal/server/auth"
	"github.com/edmarkov/savesync/internal/server/config"
	"github.com/edmarkov/savesync/internal/server/models"
	"github.com/edmarkov/savesync/internal/server/repositories/devices"
)

// DeviceService registers devices and issues their tokens.
type DeviceService struct {
	repo   devices.Repository
	config *config.Config
}

// NewDeviceService constructs the service over the devices repository.
func NewDeviceService(repo devices.Repository, config *config.Config) *DeviceService {
	return &DeviceService{repo: repo, config: config}
}

// Register upserts the device and returns a signed device token.
// Re-registering an existing id refreshes its name and issues a new token.
func (s *DeviceService) Register(ctx context.Context, id, name string) (string, error) {
	if err := s.repo.Upsert(ctx, &models.Device{ID: id, Name: name}); err != nil {
		return "", err
	}
	return auth.GenerateToken(id, []byte(s.config.SecretKey), s.config.DeviceTokenValidityDuration)
}

// Authenticate validates a device token and returns the device id.
func (s *DeviceService) Authenticate(tokenString string) (string, error) {
	return auth.GetDeviceIDFromToken(tokenString, []byte(s.config.SecretKey))
}

// Touch bumps the device's last-seen time; failures are not fatal to the
// calling request.
func (s *DeviceService) Touch(ctx context.Context, id string) error {
	return s.repo.Touch(ctx, id)
}

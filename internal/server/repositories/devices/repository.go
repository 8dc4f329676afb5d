package devices

import (
	"context"

	"github.com/edmarkov/savesync/internal/server/models"
)

// Repository stores registered devices.
type Repository interface {
	// Upsert registers a device or refreshes its name and last-seen time.
	Upsert(ctx context.Context, d *models.Device) error

	// Get returns one device, or common.ErrorNotFound.
	Get(ctx context.Context, id string) (*models.Device, error)

	// Touch bumps the device's last-seen time.
	Touch(ctx context.Context, id string) error
}

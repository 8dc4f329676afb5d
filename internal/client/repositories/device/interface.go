package device

import (
	"context"

	"github.com/edmarkov/savesync/internal/client/models"
)

// Repository stores the single device identity row. The identity is created
// once on first enablement of sync and never regenerated.
type Repository interface {
	// Get returns the stored identity, or common.ErrorNotFound before the
	// first registration.
	Get(ctx context.Context) (*models.Device, error)

	// Save inserts or replaces the identity row.
	Save(ctx context.Context, d *models.Device) error
}

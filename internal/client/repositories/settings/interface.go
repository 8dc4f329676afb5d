package settings

import (
	"context"

	"github.com/edmarkov/savesync/internal/client/models"
)

// Repository stores the single global settings row. The row is seeded by the
// schema migration, so Get never reports not-found on a healthy database.
type Repository interface {
	Get(ctx context.Context) (*models.SaveSyncSettings, error)
	Update(ctx context.Context, s *models.SaveSyncSettings) error
}

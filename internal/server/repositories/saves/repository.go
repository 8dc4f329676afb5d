package saves

import (
	"context"

	"github.com/edmarkov/savesync/internal/server/models"
)

// Repository stores the current save version per (game, filename). Only the
// latest version is kept; a commit replaces the previous row.
type Repository interface {
	// Upsert inserts or replaces the save for its (game, filename) key.
	Upsert(ctx context.Context, s *models.Save) error

	// Get returns the save for one file, or common.ErrorNotFound.
	Get(ctx context.Context, gameID int64, filename string) (*models.Save, error)

	// ListByGame returns all saves for one game.
	ListByGame(ctx context.Context, gameID int64) ([]models.Save, error)
}

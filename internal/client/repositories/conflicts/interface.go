package conflicts

import (
	"context"

	"github.com/edmarkov/savesync/internal/client/models"
)

// Repository stores pending conflicts. A conflict stays until explicitly
// resolved; later sync passes never overwrite or re-decide one.
type Repository interface {
	// Upsert records a conflict snapshot for its (game, filename) key.
	Upsert(ctx context.Context, c *models.PendingConflict) error

	// Get returns the conflict for one file, or common.ErrorNotFound.
	Get(ctx context.Context, gameID int64, filename string) (*models.PendingConflict, error)

	// List returns all pending conflicts across games.
	List(ctx context.Context) ([]models.PendingConflict, error)

	// ListByGame returns pending conflicts for one game.
	ListByGame(ctx context.Context, gameID int64) ([]models.PendingConflict, error)

	// Delete removes a conflict. Deleting a missing conflict is a no-op.
	Delete(ctx context.Context, gameID int64, filename string) error
}

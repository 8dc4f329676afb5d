package saves

import (
	"context"
	"time"

	"github.com/edmarkov/savesync/internal/client/models"
)

// Repository stores per-file sync bookkeeping, keyed by (game, filename).
type Repository interface {
	// Upsert inserts or replaces the record for its key.
	Upsert(ctx context.Context, rec *models.SaveFileRecord) error

	// Get returns the record for one file, or common.ErrorNotFound.
	Get(ctx context.Context, gameID int64, filename string) (*models.SaveFileRecord, error)

	// ListByGame returns all records tracked under one game.
	ListByGame(ctx context.Context, gameID int64) ([]models.SaveFileRecord, error)

	// ListGames returns the distinct game ids that have records.
	ListGames(ctx context.Context) ([]int64, error)

	// SetStatus updates only the status column for one file.
	SetStatus(ctx context.Context, gameID int64, filename string, status models.SyncStatus) error

	// MarkSynced sets status to synced and advances last_sync_at. last_sync_at
	// only ever moves forward.
	MarkSynced(ctx context.Context, gameID int64, filename string, at time.Time) error
}

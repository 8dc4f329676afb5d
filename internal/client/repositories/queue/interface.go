package queue

import (
	"context"

	"github.com/edmarkov/savesync/internal/client/models"
)

// Repository stores the offline retry queue. One item per (game, filename);
// re-queuing a key replaces the previous failure rather than duplicating it.
type Repository interface {
	// Upsert records or replaces the failure for its key.
	Upsert(ctx context.Context, item *models.OfflineQueueItem) error

	// Get returns the queued item for one file, or common.ErrorNotFound.
	Get(ctx context.Context, gameID int64, filename string) (*models.OfflineQueueItem, error)

	// List returns all queued items, oldest failure first.
	List(ctx context.Context) ([]models.OfflineQueueItem, error)

	// Delete removes one item. Missing items are a no-op.
	Delete(ctx context.Context, gameID int64, filename string) error

	// Clear drops the whole queue without attempting any transfers.
	Clear(ctx context.Context) error
}

package playtime

import (
	"context"

	"github.com/edmarkov/savesync/internal/client/models"
)

// Repository stores accumulated play sessions, one row per game.
type Repository interface {
	// Get returns the playtime row for a game, or common.ErrorNotFound if the
	// game has never been played on this device.
	Get(ctx context.Context, gameID int64) (*models.Playtime, error)

	// Upsert inserts or replaces the playtime row for its game.
	Upsert(ctx context.Context, p *models.Playtime) error
}

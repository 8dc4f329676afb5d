// Package saves provides the PostgreSQL-backed repository for server-side
// save metadata.
package saves

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/edmarkov/savesync/internal/common"
	"github.com/edmarkov/savesync/internal/dbx"
	"github.com/edmarkov/savesync/internal/server/models"
)

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, s *models.Save) error {
	query := `
		INSERT INTO saves (id, game_id, filename, hash, size, storage_key, updated_at, device_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (game_id, filename)
		DO UPDATE SET
			id = EXCLUDED.id,
			hash = EXCLUDED.hash,
			size = EXCLUDED.size,
			storage_key = EXCLUDED.storage_key,
			updated_at = EXCLUDED.updated_at,
			device_id = EXCLUDED.device_id;
	`
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.GameID, s.Filename, s.Hash, s.Size, s.StorageKey, s.UpdatedAt, s.DeviceID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

const selectClause = `SELECT id, game_id, filename, hash, size, storage_key, updated_at, device_id, created_at FROM saves`

func (r *PostgresRepository) Get(ctx context.Context, gameID int64, filename string) (*models.Save, error) {
	row := r.db.QueryRowContext(ctx, selectClause+` WHERE game_id = $1 AND filename = $2`, gameID, filename)

	s := &models.Save{}
	err := row.Scan(&s.ID, &s.GameID, &s.Filename, &s.Hash, &s.Size, &s.StorageKey, &s.UpdatedAt, &s.DeviceID, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) ListByGame(ctx context.Context, gameID int64) ([]models.Save, error) {
	rows, err := r.db.QueryContext(ctx, selectClause+` WHERE game_id = $1 ORDER BY filename`, gameID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.Save
	for rows.Next() {
		var s models.Save
		if err := rows.Scan(&s.ID, &s.GameID, &s.Filename, &s.Hash, &s.Size, &s.StorageKey, &s.UpdatedAt, &s.DeviceID, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("row scan failed: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}

// Package conflicts provides the SQLite-backed store for pending conflicts.
package conflicts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/edmarkov/savesync/internal/client/models"
	"github.com/edmarkov/savesync/internal/common"
	"github.com/edmarkov/savesync/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (*sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a repository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func ts(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromTS(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

func (r *SQLiteRepository) Upsert(ctx context.Context, c *models.PendingConflict) error {
	query := `INSERT INTO pending_conflicts (game_id, filename, local_hash, local_mtime, local_size,
			server_save_id, server_updated_at, server_size, detected_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(game_id, filename) DO UPDATE SET
			local_hash = excluded.local_hash,
			local_mtime = excluded.local_mtime,
			local_size = excluded.local_size,
			server_save_id = excluded.server_save_id,
			server_updated_at = excluded.server_updated_at,
			server_size = excluded.server_size,
			detected_at = excluded.detected_at
	`
	_, err := r.db.ExecContext(ctx, query,
		c.GameID, c.Filename, c.LocalHash, ts(c.LocalMTime), c.LocalSize,
		c.ServerSaveID, ts(c.ServerUpdatedAt), c.ServerSize, ts(c.DetectedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert conflict: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, gameID int64, filename string) (*models.PendingConflict, error) {
	row := r.db.QueryRowContext(ctx, selectClause+` WHERE game_id=? AND filename=?`, gameID, filename)

	c, err := scanConflict(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	return c, nil
}

const selectClause = `SELECT game_id, filename, local_hash, local_mtime, local_size,
	server_save_id, server_updated_at, server_size, detected_at FROM pending_conflicts`

func (r *SQLiteRepository) List(ctx context.Context) ([]models.PendingConflict, error) {
	return r.list(ctx, selectClause+` ORDER BY detected_at`)
}

func (r *SQLiteRepository) ListByGame(ctx context.Context, gameID int64) ([]models.PendingConflict, error) {
	return r.list(ctx, selectClause+` WHERE game_id=? ORDER BY filename`, gameID)
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]models.PendingConflict, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select conflicts: %w", err)
	}
	defer rows.Close()

	var result []models.PendingConflict
	for rows.Next() {
		c, err := scanConflict(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, gameID int64, filename string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM pending_conflicts WHERE game_id=? AND filename=?`, gameID, filename)
	if err != nil {
		return fmt.Errorf("failed to delete conflict: %w", err)
	}
	return nil
}

func scanConflict(scan func(dest ...any) error) (*models.PendingConflict, error) {
	c := &models.PendingConflict{}
	var localMTime, serverUpdatedAt, detectedAt int64
	if err := scan(&c.GameID, &c.Filename, &c.LocalHash, &localMTime, &c.LocalSize,
		&c.ServerSaveID, &serverUpdatedAt, &c.ServerSize, &detectedAt); err != nil {
		return nil, err
	}
	c.LocalMTime = fromTS(localMTime)
	c.ServerUpdatedAt = fromTS(serverUpdatedAt)
	c.DetectedAt = fromTS(detectedAt)
	return c, nil
}

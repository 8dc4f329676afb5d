// Package saves provides the SQLite-backed store for SaveFileRecord rows.
package saves

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

// Timestamps are stored as unix nanoseconds; 0 means "never"/absent.
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

func (r *SQLiteRepository) Upsert(ctx context.Context, rec *models.SaveFileRecord) error {
	query := `INSERT INTO save_files (game_id, filename, local_hash, local_mtime, local_size,
			server_save_id, server_updated_at, server_size, last_sync_at, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(game_id, filename) DO UPDATE SET
			local_hash = excluded.local_hash,
			local_mtime = excluded.local_mtime,
			local_size = excluded.local_size,
			server_save_id = excluded.server_save_id,
			server_updated_at = excluded.server_updated_at,
			server_size = excluded.server_size,
			last_sync_at = max(save_files.last_sync_at, excluded.last_sync_at),
			status = excluded.status
	`
	_, err := r.db.ExecContext(ctx, query,
		rec.GameID, rec.Filename, rec.LocalHash, ts(rec.LocalMTime), rec.LocalSize,
		rec.ServerSaveID, ts(rec.ServerUpdatedAt), rec.ServerSize, ts(rec.LastSyncAt), string(rec.Status))
	if err != nil {
		return fmt.Errorf("failed to upsert save record: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, gameID int64, filename string) (*models.SaveFileRecord, error) {
	query := `SELECT game_id, filename, local_hash, local_mtime, local_size,
			server_save_id, server_updated_at, server_size, last_sync_at, status
		FROM save_files WHERE game_id=? AND filename=?`
	row := r.db.QueryRowContext(ctx, query, gameID, filename)

	rec, err := scanRecord(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	return rec, nil
}

func (r *SQLiteRepository) ListByGame(ctx context.Context, gameID int64) ([]models.SaveFileRecord, error) {
	query := `SELECT game_id, filename, local_hash, local_mtime, local_size,
			server_save_id, server_updated_at, server_size, last_sync_at, status
		FROM save_files WHERE game_id=? ORDER BY filename`
	rows, err := r.db.QueryContext(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to select save records: %w", err)
	}
	defer rows.Close()

	var result []models.SaveFileRecord
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) ListGames(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT game_id FROM save_files ORDER BY game_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to select games: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *SQLiteRepository) SetStatus(ctx context.Context, gameID int64, filename string, status models.SyncStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE save_files SET status=? WHERE game_id=? AND filename=?`,
		string(status), gameID, filename)
	if err != nil {
		return fmt.Errorf("failed to set status: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, gameID int64, filename string, at time.Time) error {
	// last_sync_at only advances forward
	_, err := r.db.ExecContext(ctx,
		`UPDATE save_files SET status=?, last_sync_at=max(last_sync_at, ?) WHERE game_id=? AND filename=?`,
		string(models.StatusSynced), ts(at), gameID, filename)
	if err != nil {
		return fmt.Errorf("failed to mark synced: %w", err)
	}
	return nil
}

func scanRecord(scan func(dest ...any) error) (*models.SaveFileRecord, error) {
	rec := &models.SaveFileRecord{}
	var localMTime, serverUpdatedAt, lastSyncAt int64
	var status string
	if err := scan(&rec.GameID, &rec.Filename, &rec.LocalHash, &localMTime, &rec.LocalSize,
		&rec.ServerSaveID, &serverUpdatedAt, &rec.ServerSize, &lastSyncAt, &status); err != nil {
		return nil, err
	}
	rec.LocalMTime = fromTS(localMTime)
	rec.ServerUpdatedAt = fromTS(serverUpdatedAt)
	rec.LastSyncAt = fromTS(lastSyncAt)
	rec.Status = models.SyncStatus(status)
	return rec, nil
}

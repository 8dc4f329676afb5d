// Package queue provides the SQLite-backed offline retry queue.
package queue

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

func (r *SQLiteRepository) Upsert(ctx context.Context, item *models.OfflineQueueItem) error {
	query := `INSERT INTO offline_queue (game_id, filename, op, reason, failed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(game_id, filename) DO UPDATE SET
			op = excluded.op,
			reason = excluded.reason,
			failed_at = excluded.failed_at
	`
	_, err := r.db.ExecContext(ctx, query,
		item.GameID, item.Filename, string(item.Op), item.Reason, item.FailedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to upsert queue item: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, gameID int64, filename string) (*models.OfflineQueueItem, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT game_id, filename, op, reason, failed_at FROM offline_queue WHERE game_id=? AND filename=?`,
		gameID, filename)

	item, err := scanItem(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	return item, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.OfflineQueueItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT game_id, filename, op, reason, failed_at FROM offline_queue ORDER BY failed_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to select queue: %w", err)
	}
	defer rows.Close()

	var result []models.OfflineQueueItem
	for rows.Next() {
		item, err := scanItem(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, gameID int64, filename string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM offline_queue WHERE game_id=? AND filename=?`, gameID, filename)
	if err != nil {
		return fmt.Errorf("failed to delete queue item: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM offline_queue`)
	if err != nil {
		return fmt.Errorf("failed to clear queue: %w", err)
	}
	return nil
}

func scanItem(scan func(dest ...any) error) (*models.OfflineQueueItem, error) {
	item := &models.OfflineQueueItem{}
	var op string
	var failedAt int64
	if err := scan(&item.GameID, &item.Filename, &op, &item.Reason, &failedAt); err != nil {
		return nil, err
	}
	item.Op = models.TransferOp(op)
	item.FailedAt = time.Unix(0, failedAt)
	return item, nil
}

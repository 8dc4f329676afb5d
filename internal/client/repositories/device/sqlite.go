// Package device provides the SQLite-backed store for the device identity.
package device

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

func (r *SQLiteRepository) Get(ctx context.Context) (*models.Device, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT device_id, device_name, token, registered_at FROM device WHERE id=1`)

	d := &models.Device{}
	var registeredAt int64
	err := row.Scan(&d.ID, &d.Name, &d.Token, &registeredAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	d.RegisteredAt = time.Unix(0, registeredAt)
	return d, nil
}

func (r *SQLiteRepository) Save(ctx context.Context, d *models.Device) error {
	query := `INSERT INTO device (id, device_id, device_name, token, registered_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			device_id = excluded.device_id,
			device_name = excluded.device_name,
			token = excluded.token,
			registered_at = excluded.registered_at
	`
	_, err := r.db.ExecContext(ctx, query, d.ID, d.Name, d.Token, d.RegisteredAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to save device: %w", err)
	}
	return nil
}

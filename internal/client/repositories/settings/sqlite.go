// Package settings provides the SQLite-backed store for sync settings.
package settings

import (
	"context"
	"fmt"
	"time"

	"github.com/edmarkov/savesync/internal/client/models"
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

func (r *SQLiteRepository) Get(ctx context.Context) (*models.SaveSyncSettings, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT enabled, conflict_mode, sync_before_launch, sync_after_exit, clock_skew_tolerance_sec
		 FROM settings WHERE id=1`)

	var enabled, beforeLaunch, afterExit int
	var mode string
	var skewSec int64
	if err := row.Scan(&enabled, &mode, &beforeLaunch, &afterExit, &skewSec); err != nil {
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}

	parsedMode, err := models.ParseConflictMode(mode)
	if err != nil {
		// reject unknown modes at load time rather than silently defaulting
		return nil, err
	}

	return &models.SaveSyncSettings{
		Enabled:            enabled == 1,
		ConflictMode:       parsedMode,
		SyncBeforeLaunch:   beforeLaunch == 1,
		SyncAfterExit:      afterExit == 1,
		ClockSkewTolerance: time.Duration(skewSec) * time.Second,
	}, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, s *models.SaveSyncSettings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	b2i := func(b bool) int {
		if b {
			return 1
		}
		return 0
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE settings SET enabled=?, conflict_mode=?, sync_before_launch=?, sync_after_exit=?, clock_skew_tolerance_sec=?
		 WHERE id=1`,
		b2i(s.Enabled), string(s.ConflictMode), b2i(s.SyncBeforeLaunch), b2i(s.SyncAfterExit),
		int64(s.ClockSkewTolerance/time.Second))
	if err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}
	return nil
}

// Package store opens the local SQLite database, applies migrations, and
// bundles the repositories the engine works against.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/edmarkov/savesync/internal/client/repositories/conflicts"
	"github.com/edmarkov/savesync/internal/client/repositories/device"
	"github.com/edmarkov/savesync/internal/client/repositories/playtime"
	"github.com/edmarkov/savesync/internal/client/repositories/queue"
	"github.com/edmarkov/savesync/internal/client/repositories/saves"
	"github.com/edmarkov/savesync/internal/client/repositories/settings"
	"github.com/edmarkov/savesync/internal/client/store/migrations"
	"github.com/edmarkov/savesync/internal/dbx"

	_ "modernc.org/sqlite"
)

// Store bundles the local repositories plus the underlying handle for
// transactional use via dbx.WithTx.
type Store struct {
	DB        *sql.DB
	Saves     saves.Repository
	Conflicts conflicts.Repository
	Queue     queue.Repository
	Playtime  playtime.Repository
	Settings  settings.Repository
	Device    device.Repository
}

// RunMigrations applies the embedded schema migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// Open opens (creating if needed) the database at dsn, migrates it, and
// returns the repository bundle.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{
		DB:        db,
		Saves:     saves.NewSQLiteRepository(db),
		Conflicts: conflicts.NewSQLiteRepository(db),
		Queue:     queue.NewSQLiteRepository(db),
		Playtime:  playtime.NewSQLiteRepository(db),
		Settings:  settings.NewSQLiteRepository(db),
		Device:    device.NewSQLiteRepository(db),
	}, nil
}

// WithTx runs fn against a transactional view of the repositories: every
// write fn makes commits or rolls back as one unit.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, st *Store) error) error {
	return dbx.WithTx(ctx, s.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, &Store{
			DB:        s.DB,
			Saves:     saves.NewSQLiteRepository(tx),
			Conflicts: conflicts.NewSQLiteRepository(tx),
			Queue:     queue.NewSQLiteRepository(tx),
			Playtime:  playtime.NewSQLiteRepository(tx),
			Settings:  settings.NewSQLiteRepository(tx),
			Device:    device.NewSQLiteRepository(tx),
		})
	})
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.DB.Close()
}

package conflicts

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edmarkov/savesync/internal/client/models"
	"github.com/edmarkov/savesync/internal/common"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE pending_conflicts (
  game_id INTEGER NOT NULL,
  filename TEXT NOT NULL,
  local_hash TEXT NOT NULL DEFAULT '',
  local_mtime INTEGER NOT NULL DEFAULT 0,
  local_size INTEGER NOT NULL DEFAULT 0,
  server_save_id TEXT NOT NULL DEFAULT '',
  server_updated_at INTEGER NOT NULL DEFAULT 0,
  server_size INTEGER NOT NULL DEFAULT 0,
  detected_at INTEGER NOT NULL,
  PRIMARY KEY (game_id, filename)
);
`)
	require.NoError(t, err)
	return db
}

func TestUpsertGetDelete(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	now := time.Now()
	c := &models.PendingConflict{
		GameID:          42,
		Filename:        "game.srm",
		LocalHash:       "h-local",
		LocalMTime:      now,
		LocalSize:       100,
		ServerSaveID:    "sv-1",
		ServerUpdatedAt: now.Add(time.Minute),
		ServerSize:      120,
		DetectedAt:      now,
	}
	require.NoError(t, r.Upsert(ctx, c))

	got, err := r.Get(ctx, 42, "game.srm")
	require.NoError(t, err)
	assert.Equal(t, "h-local", got.LocalHash)
	assert.Equal(t, int64(120), got.ServerSize)

	require.NoError(t, r.Delete(ctx, 42, "game.srm"))
	_, err = r.Get(ctx, 42, "game.srm")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	// deleting again is a no-op
	require.NoError(t, r.Delete(ctx, 42, "game.srm"))
}

func TestListByGame(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, r.Upsert(ctx, &models.PendingConflict{GameID: 1, Filename: "a", DetectedAt: now}))
	require.NoError(t, r.Upsert(ctx, &models.PendingConflict{GameID: 2, Filename: "b", DetectedAt: now}))

	all, err := r.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	one, err := r.ListByGame(ctx, 2)
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "b", one[0].Filename)
}

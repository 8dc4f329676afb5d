package saves

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
CREATE TABLE save_files (
  game_id INTEGER NOT NULL,
  filename TEXT NOT NULL,
  local_hash TEXT NOT NULL DEFAULT '',
  local_mtime INTEGER NOT NULL DEFAULT 0,
  local_size INTEGER NOT NULL DEFAULT 0,
  server_save_id TEXT NOT NULL DEFAULT '',
  server_updated_at INTEGER NOT NULL DEFAULT 0,
  server_size INTEGER NOT NULL DEFAULT 0,
  last_sync_at INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'unknown',
  PRIMARY KEY (game_id, filename)
);
`)
	require.NoError(t, err)

	return db
}

func TestUpsert_InsertAndUpdate(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	now := time.Now().Truncate(time.Millisecond)
	rec := &models.SaveFileRecord{
		GameID:     42,
		Filename:   "game.srm",
		LocalHash:  "h1",
		LocalMTime: now,
		LocalSize:  1024,
		Status:     models.StatusUnknown,
	}
	require.NoError(t, r.Upsert(ctx, rec))

	got, err := r.Get(ctx, 42, "game.srm")
	require.NoError(t, err)
	assert.Equal(t, "h1", got.LocalHash)
	assert.True(t, got.LocalMTime.Equal(now))
	assert.False(t, got.ServerPresent())

	rec.ServerSaveID = "sv-1"
	rec.ServerUpdatedAt = now.Add(time.Minute)
	rec.Status = models.StatusSynced
	require.NoError(t, r.Upsert(ctx, rec))

	got, err = r.Get(ctx, 42, "game.srm")
	require.NoError(t, err)
	assert.Equal(t, "sv-1", got.ServerSaveID)
	assert.Equal(t, models.StatusSynced, got.Status)
}

func TestGet_NotFound(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)

	_, err := r.Get(context.Background(), 1, "missing.srm")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestMarkSynced_LastSyncOnlyAdvances(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	later := time.Now()
	earlier := later.Add(-time.Hour)

	require.NoError(t, r.Upsert(ctx, &models.SaveFileRecord{GameID: 1, Filename: "f"}))
	require.NoError(t, r.MarkSynced(ctx, 1, "f", later))
	require.NoError(t, r.MarkSynced(ctx, 1, "f", earlier)) // must not move backwards

	got, err := r.Get(ctx, 1, "f")
	require.NoError(t, err)
	assert.True(t, got.LastSyncAt.Equal(later))
	assert.Equal(t, models.StatusSynced, got.Status)
}

func TestListByGameAndListGames(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	for _, rec := range []*models.SaveFileRecord{
		{GameID: 1, Filename: "a.srm"},
		{GameID: 1, Filename: "b.srm"},
		{GameID: 2, Filename: "c.srm"},
	} {
		require.NoError(t, r.Upsert(ctx, rec))
	}

	recs, err := r.ListByGame(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "a.srm", recs[0].Filename)

	games, err := r.ListGames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, games)
}

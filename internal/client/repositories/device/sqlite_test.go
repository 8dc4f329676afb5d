package device

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
CREATE TABLE device (
  id INTEGER PRIMARY KEY CHECK (id = 1),
  device_id TEXT NOT NULL,
  device_name TEXT NOT NULL,
  token TEXT NOT NULL DEFAULT '',
  registered_at INTEGER NOT NULL
);
`)
	require.NoError(t, err)
	return db
}

func TestGet_NotRegistered(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)

	_, err := r.Get(context.Background())
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestSaveAndGet(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	now := time.Now().Truncate(time.Millisecond)
	d := &models.Device{ID: "dev-1", Name: "living-room", Token: "tok", RegisteredAt: now}
	require.NoError(t, r.Save(ctx, d))

	got, err := r.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "dev-1", got.ID)
	assert.Equal(t, "living-room", got.Name)
	assert.True(t, got.RegisteredAt.Equal(now))

	// token refresh keeps the identity
	d.Token = "tok2"
	require.NoError(t, r.Save(ctx, d))
	got, err = r.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok2", got.Token)
	assert.Equal(t, "dev-1", got.ID)
}

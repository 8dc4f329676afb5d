package launch

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edmarkov/savesync/internal/client/repositories/playtime"
	"github.com/edmarkov/savesync/internal/logging"

	_ "modernc.org/sqlite"
)

func setupTracker(t *testing.T) (*SessionTracker, playtime.Repository) {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE playtime (
  game_id INTEGER PRIMARY KEY,
  total_seconds INTEGER NOT NULL DEFAULT 0,
  session_count INTEGER NOT NULL DEFAULT 0,
  last_session_start INTEGER NOT NULL DEFAULT 0,
  last_session_duration INTEGER NOT NULL DEFAULT 0,
  session_open INTEGER NOT NULL DEFAULT 0
);
`)
	require.NoError(t, err)

	repo := playtime.NewSQLiteRepository(db)
	tracker := NewSessionTracker(repo, logging.NewTextLogger(io.Discard, slog.LevelError))
	return tracker, repo
}

func TestSession_StartEndCreditsTime(t *testing.T) {
	ctx := context.Background()
	tracker, repo := setupTracker(t)

	now := time.Date(2025, 5, 1, 20, 0, 0, 0, time.UTC)
	tracker.clock = func() time.Time { return now }

	require.NoError(t, tracker.StartSession(ctx, 1))
	now = now.Add(45 * time.Minute)
	ended, err := tracker.EndSession(ctx, 1)
	require.NoError(t, err)

	// the returned playtime reflects the just-recorded session
	require.NotNil(t, ended)
	assert.Equal(t, int64(45*60), ended.LastSessionDuration)
	assert.Equal(t, int64(1), ended.SessionCount)

	pt, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(45*60), pt.TotalSeconds)
	assert.Equal(t, int64(1), pt.SessionCount)
	assert.Equal(t, int64(45*60), pt.LastSessionDuration)
	assert.False(t, pt.SessionOpen)
}

func TestSession_SuspendPausesClock(t *testing.T) {
	ctx := context.Background()
	tracker, repo := setupTracker(t)

	now := time.Date(2025, 5, 1, 20, 0, 0, 0, time.UTC)
	tracker.clock = func() time.Time { return now }

	require.NoError(t, tracker.StartSession(ctx, 1))
	now = now.Add(10 * time.Minute)
	tracker.Suspend(1)
	now = now.Add(2 * time.Hour) // suspended time is not credited
	tracker.Resume(1)
	now = now.Add(5 * time.Minute)
	_, err := tracker.EndSession(ctx, 1)
	require.NoError(t, err)

	pt, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(15*60), pt.TotalSeconds)
}

func TestSession_EndWhileSuspended(t *testing.T) {
	ctx := context.Background()
	tracker, repo := setupTracker(t)

	now := time.Date(2025, 5, 1, 20, 0, 0, 0, time.UTC)
	tracker.clock = func() time.Time { return now }

	require.NoError(t, tracker.StartSession(ctx, 1))
	now = now.Add(10 * time.Minute)
	tracker.Suspend(1)
	now = now.Add(time.Hour)
	_, err := tracker.EndSession(ctx, 1)
	require.NoError(t, err)

	pt, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(10*60), pt.TotalSeconds)
}

func TestSession_OrphanFinalizedWithoutCredit(t *testing.T) {
	ctx := context.Background()
	tracker, repo := setupTracker(t)

	now := time.Date(2025, 5, 1, 20, 0, 0, 0, time.UTC)
	tracker.clock = func() time.Time { return now }

	// simulate a crash: session opened, process gone, tracker state lost
	require.NoError(t, tracker.StartSession(ctx, 1))
	tracker.sessions = make(map[int64]*openSession)

	now = now.Add(3 * time.Hour)
	require.NoError(t, tracker.StartSession(ctx, 1))
	now = now.Add(20 * time.Minute)
	_, err := tracker.EndSession(ctx, 1)
	require.NoError(t, err)

	pt, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	// orphan counted as a session, credited nothing
	assert.Equal(t, int64(2), pt.SessionCount)
	assert.Equal(t, int64(20*60), pt.TotalSeconds)
}

func TestSession_DoubleStartRejected(t *testing.T) {
	ctx := context.Background()
	tracker, _ := setupTracker(t)

	require.NoError(t, tracker.StartSession(ctx, 1))
	assert.Error(t, tracker.StartSession(ctx, 1))
}

func TestSession_EndAbsentIsNoop(t *testing.T) {
	ctx := context.Background()
	tracker, _ := setupTracker(t)
	pt, err := tracker.EndSession(ctx, 99)
	require.NoError(t, err)
	assert.Nil(t, pt)
}

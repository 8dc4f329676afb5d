package syncer

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edmarkov/savesync/internal/client/models"
	"github.com/edmarkov/savesync/internal/common"
	"github.com/edmarkov/savesync/internal/filex"
)

func TestSyncOne_UploadsNewLocalFile(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)

	env.writeLocal(t, 1, "slot1.sav", []byte("fresh run"), time.Now())

	sum, err := env.orch.SyncOne(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Synced)
	assert.Zero(t, sum.Conflicts)
	assert.Empty(t, sum.Errors)

	saves, err := env.remote.ListSaves(ctx, 1)
	require.NoError(t, err)
	require.Len(t, saves, 1)
}

func TestSyncOne_DownloadsServerOnlyFile(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)

	env.remote.putSave(1, "slot1.sav", []byte("from another device"), time.Now())

	sum, err := env.orch.SyncOne(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Synced)

	data, err := os.ReadFile(env.exec.SavePath(1, "slot1.sav"))
	require.NoError(t, err)
	assert.Equal(t, []byte("from another device"), data)
}

func TestSyncOne_Idempotent(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)

	env.writeLocal(t, 1, "a.sav", []byte("aaa"), time.Now())
	env.remote.putSave(1, "b.sav", []byte("bbb"), time.Now())

	first, err := env.orch.SyncOne(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Synced)

	// second pass observes the converged state and transfers nothing
	second, err := env.orch.SyncOne(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Synced) // both files verify as in sync
	assert.Zero(t, second.Conflicts)
	assert.Empty(t, second.Errors)
}

func TestSyncOne_OfflineShortCircuit(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)

	env.writeLocal(t, 1, "a.sav", []byte("aaa"), time.Now())
	env.remote.pingErr = errors.New("dial tcp: connection refused")

	_, err := env.orch.SyncOne(ctx, 1)
	assert.True(t, errors.Is(err, ErrOffline))

	// nothing was recorded or transferred
	_, err = env.st.Saves.Get(ctx, 1, "a.sav")
	assert.True(t, errors.Is(err, common.ErrorNotFound))
}

func TestSyncOne_DisabledRefuses(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)

	cfg, err := env.st.Settings.Get(ctx)
	require.NoError(t, err)
	cfg.Enabled = false
	require.NoError(t, env.st.Settings.Update(ctx, cfg))

	_, err = env.orch.SyncOne(ctx, 1)
	assert.True(t, errors.Is(err, ErrDisabled))
}

func TestSyncOne_SingleFlightPerGame(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)

	require.True(t, env.orch.acquireGame(1))

	_, err := env.orch.SyncOne(ctx, 1)
	assert.True(t, errors.Is(err, ErrSyncInProgress))

	// a different game is unaffected
	_, err = env.orch.SyncOne(ctx, 2)
	require.NoError(t, err)

	env.orch.releaseGame(1)
	_, err = env.orch.SyncOne(ctx, 1)
	require.NoError(t, err)
}

func TestSyncOne_ConflictRecordedAndFileUntouched(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)

	// both sides changed since a last sync in the past
	lastSync := time.Now().Add(-time.Hour)
	env.writeLocal(t, 1, "slot1.sav", []byte("local progress"), time.Now())
	env.remote.putSave(1, "slot1.sav", []byte("other device progress"), time.Now())
	require.NoError(t, env.st.Saves.Upsert(ctx, &models.SaveFileRecord{
		GameID: 1, Filename: "slot1.sav",
		LocalHash: "stale", ServerSaveID: "stale",
		LastSyncAt: lastSync, Status: models.StatusSynced,
	}))

	sum, err := env.orch.SyncOne(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Conflicts)
	assert.Zero(t, sum.Synced)

	// local bytes untouched
	data, err := os.ReadFile(env.exec.SavePath(1, "slot1.sav"))
	require.NoError(t, err)
	assert.Equal(t, []byte("local progress"), data)

	c, err := env.st.Conflicts.Get(ctx, 1, "slot1.sav")
	require.NoError(t, err)
	assert.Equal(t, filex.HashBytes([]byte("local progress")), c.LocalHash)

	rec, err := env.st.Saves.Get(ctx, 1, "slot1.sav")
	require.NoError(t, err)
	assert.Equal(t, models.StatusConflict, rec.Status)
}

func TestSyncOne_PendingConflictSkippedOnLaterPass(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)

	env.writeLocal(t, 1, "slot1.sav", []byte("local"), time.Now())
	require.NoError(t, env.st.Conflicts.Upsert(ctx, &models.PendingConflict{
		GameID: 1, Filename: "slot1.sav", DetectedAt: time.Now(),
	}))

	sum, err := env.orch.SyncOne(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Conflicts)
	assert.Zero(t, sum.Synced)

	// still exactly one conflict, not re-recorded with new snapshots
	list, err := env.st.Conflicts.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSyncOne_NewestWinsResolvesWithoutConflict(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)

	cfg, err := env.st.Settings.Get(ctx)
	require.NoError(t, err)
	cfg.ConflictMode = models.ModeNewestWins
	require.NoError(t, env.st.Settings.Update(ctx, cfg))

	lastSync := time.Now().Add(-time.Hour)
	env.writeLocal(t, 1, "slot1.sav", []byte("newer local"), time.Now())
	env.remote.putSave(1, "slot1.sav", []byte("older server"), time.Now().Add(-30*time.Minute))
	require.NoError(t, env.st.Saves.Upsert(ctx, &models.SaveFileRecord{
		GameID: 1, Filename: "slot1.sav",
		LocalHash: "stale", ServerSaveID: "stale",
		LastSyncAt: lastSync, Status: models.StatusSynced,
	}))

	sum, err := env.orch.SyncOne(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Synced)
	assert.Zero(t, sum.Conflicts)

	saves, err := env.remote.ListSaves(ctx, 1)
	require.NoError(t, err)
	require.Len(t, saves, 1)
	assert.Equal(t, filex.HashBytes([]byte("newer local")), saves[0].Hash)
}

func TestSyncAll_CoversEveryGame(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)

	env.writeLocal(t, 1, "a.sav", []byte("g1"), time.Now())
	env.writeLocal(t, 2, "b.sav", []byte("g2"), time.Now())
	env.remote.putSave(3, "c.sav", []byte("g3"), time.Now())
	require.NoError(t, env.st.Saves.Upsert(ctx, &models.SaveFileRecord{
		GameID: 3, Filename: "c.sav", ServerSaveID: "seen-before",
	}))

	sum, err := env.orch.SyncAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Synced)
	assert.Empty(t, sum.Errors)
}

func TestSyncAll_OneGameFailureDoesNotAbortOthers(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)

	env.writeLocal(t, 1, "a.sav", []byte("g1"), time.Now())
	env.writeLocal(t, 2, "b.sav", []byte("g2"), time.Now())

	// hold game 1 so its pass reports in-progress and is skipped
	require.True(t, env.orch.acquireGame(1))
	defer env.orch.releaseGame(1)

	sum, err := env.orch.SyncAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Synced)
	assert.Empty(t, sum.Errors)
}

func TestEvents_EmittedDuringPass(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)

	events := env.orch.Events()
	env.writeLocal(t, 1, "a.sav", []byte("g1"), time.Now())

	_, err := env.orch.SyncOne(ctx, 1)
	require.NoError(t, err)

	var types []EventType
	for {
		select {
		case ev := <-events:
			types = append(types, ev.Type)
			if ev.Type == EventPassFinished {
				assert.Contains(t, types, EventFileSynced)
				return
			}
		default:
			t.Fatalf("pass finished without emitting events, got %v", types)
		}
	}
}

func TestKeyMutex_SerializesSameKey(t *testing.T) {
	km := newKeyMutex()
	var active, maxActive int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock("1/slot1.sav")
			defer unlock()
			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxActive)
}

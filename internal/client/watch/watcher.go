// Package watch triggers background sync passes when save files change on
// disk.
package watch

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/edmarkov/savesync/internal/client/syncer"
	"github.com/edmarkov/savesync/internal/logging"
)

// DefaultDebounce is how long a game must stay quiet after its last write
// before a pass starts. Games write saves in bursts; syncing mid-burst
// would race the writer.
const DefaultDebounce = 5 * time.Second

// Watcher observes the save root and schedules a sync pass per game after
// its files settle.
type Watcher struct {
	orch *syncer.Orchestrator
	log  logging.Logger

	saveRoot string
	debounce time.Duration

	mu     sync.Mutex
	dirty  map[int64]*time.Timer
	closed bool
}

// NewWatcher builds a watcher over saveRoot driving orch.
func NewWatcher(orch *syncer.Orchestrator, log logging.Logger, saveRoot string, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		orch:     orch,
		log:      log,
		saveRoot: saveRoot,
		debounce: debounce,
		dirty:    make(map[int64]*time.Timer),
	}
}

// Run watches until ctx is cancelled. Per-game directories that appear
// while running are picked up automatically.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()
	defer w.stopTimers()

	if err := fsw.Add(w.saveRoot); err != nil {
		return err
	}
	// watch existing game directories; fsnotify is not recursive
	games, err := filepath.Glob(filepath.Join(w.saveRoot, "*"))
	if err == nil {
		for _, dir := range games {
			if _, perr := strconv.ParseInt(filepath.Base(dir), 10, 64); perr == nil {
				_ = fsw.Add(dir)
			}
		}
	}

	w.log.Info(ctx, "watching save root", "path", w.saveRoot)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, fsw, ev)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn(ctx, "watch error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, fsw *fsnotify.Watcher, ev fsnotify.Event) {
	if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Rename) {
		return
	}

	rel, err := filepath.Rel(w.saveRoot, ev.Name)
	if err != nil {
		return
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")

	// a new game directory under the root: start watching it
	if len(parts) == 1 && ev.Op.Has(fsnotify.Create) {
		if _, perr := strconv.ParseInt(parts[0], 10, 64); perr == nil {
			_ = fsw.Add(ev.Name)
		}
		return
	}

	if len(parts) != 2 {
		return
	}
	gameID, perr := strconv.ParseInt(parts[0], 10, 64)
	if perr != nil {
		return
	}
	// ignore in-progress download temp files and other hidden files
	if strings.HasPrefix(parts[1], ".") {
		return
	}

	w.markDirty(ctx, gameID)
}

// markDirty (re)arms the game's debounce timer.
func (w *Watcher) markDirty(ctx context.Context, gameID int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}

	if timer, ok := w.dirty[gameID]; ok {
		timer.Reset(w.debounce)
		return
	}

	w.dirty[gameID] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.dirty, gameID)
		w.mu.Unlock()

		_, err := w.orch.SyncOne(ctx, gameID)
		switch {
		case err == nil:
		case errors.Is(err, syncer.ErrOffline),
			errors.Is(err, syncer.ErrSyncInProgress),
			errors.Is(err, syncer.ErrDisabled):
			w.log.Debug(ctx, "background sync skipped", "game", gameID, "reason", err)
		default:
			w.log.Warn(ctx, "background sync failed", "game", gameID, "error", err)
		}
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	for id, timer := range w.dirty {
		timer.Stop()
		delete(w.dirty, id)
	}
}

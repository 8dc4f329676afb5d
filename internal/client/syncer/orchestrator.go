package syncer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/edmarkov/savesync/internal/client/models"
	"github.com/edmarkov/savesync/internal/client/remote"
	"github.com/edmarkov/savesync/internal/client/store"
	"github.com/edmarkov/savesync/internal/common"
	"github.com/edmarkov/savesync/internal/filex"
	"github.com/edmarkov/savesync/internal/logging"
)

// maxConcurrentGames bounds how many games sync in parallel during SyncAll
// so neither the server nor the local disk gets saturated.
const maxConcurrentGames = 3

// Orchestrator drives full sync passes: per file it runs compare → policy →
// transfer and aggregates a summary. At most one pass runs per game at a
// time; independent games may run concurrently.
type Orchestrator struct {
	st     *store.Store
	remote remote.Client
	exec   *Executor
	log    logging.Logger
	clock  func() time.Time

	saveRoot string

	mu        sync.Mutex
	inflight  map[int64]struct{}
	lastCheck map[int64]time.Time

	keys *keyMutex

	eventsMu sync.Mutex
	events   chan Event
}

// NewOrchestrator wires the orchestrator over an opened store, a remote
// client, and the executor that will move the bytes.
func NewOrchestrator(st *store.Store, rc remote.Client, exec *Executor, log logging.Logger) *Orchestrator {
	return &Orchestrator{
		st:        st,
		remote:    rc,
		exec:      exec,
		log:       log,
		clock:     time.Now,
		saveRoot:  exec.saveRoot,
		inflight:  make(map[int64]struct{}),
		lastCheck: make(map[int64]time.Time),
		keys:      newKeyMutex(),
	}
}

// Events returns a channel of progress events. Call once; events posted
// while nobody listens are dropped.
func (o *Orchestrator) Events() <-chan Event {
	o.eventsMu.Lock()
	defer o.eventsMu.Unlock()
	if o.events == nil {
		o.events = make(chan Event, 64)
	}
	return o.events
}

func (o *Orchestrator) emit(ev Event) {
	o.eventsMu.Lock()
	ch := o.events
	o.eventsMu.Unlock()
	if ch == nil {
		return
	}
	select {
	case ch <- ev:
	default:
	}
}

// LastSyncCheck reports when a game's pass last started (zero if never in
// this process).
func (o *Orchestrator) LastSyncCheck(gameID int64) time.Time {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastCheck[gameID]
}

func (o *Orchestrator) acquireGame(gameID int64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, busy := o.inflight[gameID]; busy {
		return false
	}
	o.inflight[gameID] = struct{}{}
	o.lastCheck[gameID] = o.clock()
	return true
}

func (o *Orchestrator) releaseGame(gameID int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.inflight, gameID)
}

// SyncOne runs one pass over a single game. A pass that cannot reach the
// server returns ErrOffline without touching any file; a second concurrent
// call for the same game returns ErrSyncInProgress.
func (o *Orchestrator) SyncOne(ctx context.Context, gameID int64) (*models.Summary, error) {
	cfg, err := o.st.Settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	if !o.acquireGame(gameID) {
		return nil, ErrSyncInProgress
	}
	defer o.releaseGame(gameID)

	return o.runPass(ctx, gameID, cfg)
}

// SyncAll runs passes for every known game on a small worker pool and
// returns an aggregate summary. Games already syncing are skipped.
func (o *Orchestrator) SyncAll(ctx context.Context) (*models.Summary, error) {
	cfg, err := o.st.Settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	games, err := o.knownGames(ctx)
	if err != nil {
		return nil, err
	}

	total := &models.Summary{}
	var totalMu sync.Mutex

	sem := make(chan struct{}, maxConcurrentGames)
	var wg sync.WaitGroup

	for _, gameID := range games {
		wg.Add(1)
		go func(gameID int64) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			s, err := o.SyncOne(ctx, gameID)
			totalMu.Lock()
			defer totalMu.Unlock()
			switch {
			case errors.Is(err, ErrSyncInProgress):
				// another caller owns this game's pass; its results are theirs
			case err != nil:
				total.Errors = append(total.Errors, models.FileError{GameID: gameID, Err: err.Error()})
			default:
				total.Synced += s.Synced
				total.Conflicts += s.Conflicts
				total.Skipped += s.Skipped
				total.Errors = append(total.Errors, s.Errors...)
			}
		}(gameID)
	}
	wg.Wait()

	return total, nil
}

// RetryFile re-runs the decision for one file with current connectivity,
// used by the offline queue. A file that is no longer divergent succeeds
// trivially and clears its queue entry.
func (o *Orchestrator) RetryFile(ctx context.Context, gameID int64, filename string) error {
	cfg, err := o.st.Settings.Get(ctx)
	if err != nil {
		return err
	}

	remoteSaves, err := o.remote.ListSaves(ctx, gameID)
	if err != nil {
		return err
	}
	byName := make(map[string]models.RemoteSave, len(remoteSaves))
	for _, s := range remoteSaves {
		byName[s.Filename] = s
	}

	res := o.processFile(ctx, gameID, filename, byName, cfg)
	if res.err != nil {
		return res.err
	}

	// a trivially clean retry still removes the stale queue entry
	if err := o.st.Queue.Delete(ctx, gameID, filename); err != nil {
		return err
	}
	return nil
}

func (o *Orchestrator) runPass(ctx context.Context, gameID int64, cfg *models.SaveSyncSettings) (*models.Summary, error) {
	log := o.log.With("game", gameID)

	if err := o.remote.Ping(ctx); err != nil {
		log.Info(ctx, "server unreachable, skipping pass")
		return nil, ErrOffline
	}

	remoteSaves, err := o.remote.ListSaves(ctx, gameID)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]models.RemoteSave, len(remoteSaves))
	for _, s := range remoteSaves {
		byName[s.Filename] = s
	}

	filenames, err := o.trackedFilenames(ctx, gameID, byName)
	if err != nil {
		return nil, err
	}

	summary := &models.Summary{GameID: gameID}

	for _, filename := range filenames {
		if err := ctx.Err(); err != nil {
			// stop taking on new files; what was committed stays committed
			break
		}

		res := o.processFile(ctx, gameID, filename, byName, cfg)
		switch {
		case res.err != nil:
			summary.Errors = append(summary.Errors, models.FileError{
				GameID: gameID, Filename: filename, Err: res.err.Error(),
			})
			o.emit(Event{Type: EventFileFailed, GameID: gameID, Filename: filename, Err: res.err.Error()})
		case res.conflicted:
			summary.Conflicts++
			o.emit(Event{Type: EventFileConflicted, GameID: gameID, Filename: filename})
		case res.synced:
			summary.Synced++
			o.emit(Event{Type: EventFileSynced, GameID: gameID, Filename: filename})
		default:
			summary.Skipped++
		}
	}

	log.Info(ctx, "sync pass finished",
		"synced", summary.Synced, "conflicts", summary.Conflicts,
		"skipped", summary.Skipped, "errors", len(summary.Errors))
	o.emit(Event{Type: EventPassFinished, GameID: gameID})

	return summary, nil
}

type fileResult struct {
	synced     bool
	conflicted bool
	err        error
}

// processFile runs compare → policy → transfer for one file under its key
// lock. A file with a pending conflict is left untouched.
func (o *Orchestrator) processFile(ctx context.Context, gameID int64, filename string,
	remoteByName map[string]models.RemoteSave, cfg *models.SaveSyncSettings) fileResult {

	unlock := o.keys.Lock(fileKey(gameID, filename))
	defer unlock()

	log := o.log.With("game", gameID, "file", filename)

	// an unresolved conflict is never re-decided by a later pass
	if _, err := o.st.Conflicts.Get(ctx, gameID, filename); err == nil {
		return fileResult{conflicted: true}
	} else if !errors.Is(err, common.ErrorNotFound) {
		return fileResult{err: err}
	}

	local, err := o.observeLocal(gameID, filename)
	if err != nil {
		log.Warn(ctx, "cannot observe local save, skipping file", "error", err)
		return fileResult{}
	}

	server := Side{}
	if rs, ok := remoteByName[filename]; ok {
		server = Side{Present: true, Hash: rs.Hash, ModTime: rs.UpdatedAt, Size: rs.Size}
	}

	rec, err := o.st.Saves.Get(ctx, gameID, filename)
	if errors.Is(err, common.ErrorNotFound) {
		rec = &models.SaveFileRecord{GameID: gameID, Filename: filename, Status: models.StatusUnknown}
	} else if err != nil {
		return fileResult{err: err}
	}

	decision := Compare(local, server, rec.LastSyncAt, cfg.ClockSkewTolerance)
	log.Debug(ctx, "compared", "decision", decision.String())

	switch decision {
	case DecisionSkip:
		rec.Status = models.StatusSkip
		return fileResult{err: o.st.Saves.Upsert(ctx, rec)}

	case DecisionInSync:
		o.refreshSides(rec, local, remoteByName[filename])
		rec.Status = models.StatusSynced
		rec.LastSyncAt = o.clock()
		if err := o.st.Saves.Upsert(ctx, rec); err != nil {
			return fileResult{err: err}
		}
		return fileResult{synced: true}

	case DecisionUpload:
		return o.execute(ctx, gameID, filename, models.OpUpload)

	case DecisionDownload:
		return o.execute(ctx, gameID, filename, models.OpDownload)
	}

	// conflict candidate: let the policy decide
	action := ResolvePolicy(cfg.ConflictMode, local.ModTime, server.ModTime, cfg.ClockSkewTolerance)
	switch action {
	case ActionUpload:
		return o.execute(ctx, gameID, filename, models.OpUpload)
	case ActionDownload:
		return o.execute(ctx, gameID, filename, models.OpDownload)
	}

	// record the conflict and touch nothing
	rs := remoteByName[filename]
	conflict := &models.PendingConflict{
		GameID:          gameID,
		Filename:        filename,
		LocalHash:       local.Hash,
		LocalMTime:      local.ModTime,
		LocalSize:       local.Size,
		ServerSaveID:    rs.SaveID,
		ServerUpdatedAt: rs.UpdatedAt,
		ServerSize:      rs.Size,
		DetectedAt:      o.clock(),
	}
	err = o.st.WithTx(ctx, func(ctx context.Context, st *store.Store) error {
		if err := st.Conflicts.Upsert(ctx, conflict); err != nil {
			return err
		}
		return st.Saves.SetStatus(ctx, gameID, filename, models.StatusConflict)
	})
	if err != nil {
		return fileResult{err: err}
	}
	log.Info(ctx, "conflict recorded, awaiting resolution")
	return fileResult{conflicted: true}
}

func (o *Orchestrator) execute(ctx context.Context, gameID int64, filename string, op models.TransferOp) fileResult {
	var err error
	if op == models.OpUpload {
		err = o.exec.Upload(ctx, gameID, filename)
	} else {
		err = o.exec.Download(ctx, gameID, filename)
	}
	if err != nil {
		if Classify(err) == ClassNotFound {
			o.log.Warn(ctx, "save vanished during pass, skipping",
				"game", gameID, "file", filename, "error", err)
			return fileResult{}
		}
		return fileResult{err: err}
	}
	return fileResult{synced: true}
}

func (o *Orchestrator) observeLocal(gameID int64, filename string) (Side, error) {
	path := o.exec.SavePath(gameID, filename)
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return Side{}, nil
	}
	if err != nil {
		return Side{}, err
	}
	hash, err := filex.HashFile(path)
	if err != nil {
		return Side{}, err
	}
	return Side{Present: true, Hash: hash, ModTime: info.ModTime(), Size: info.Size()}, nil
}

func (o *Orchestrator) refreshSides(rec *models.SaveFileRecord, local Side, rs models.RemoteSave) {
	rec.LocalHash = local.Hash
	rec.LocalMTime = local.ModTime
	rec.LocalSize = local.Size
	rec.ServerSaveID = rs.SaveID
	rec.ServerUpdatedAt = rs.UpdatedAt
	rec.ServerSize = rs.Size
}

// trackedFilenames unions what is on disk, what the server lists, and what
// the record store already tracks.
func (o *Orchestrator) trackedFilenames(ctx context.Context, gameID int64,
	remoteByName map[string]models.RemoteSave) ([]string, error) {

	seen := make(map[string]struct{})

	dir := filepath.Join(o.saveRoot, strconv.FormatInt(gameID, 10))
	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		seen[e.Name()] = struct{}{}
	}

	for name := range remoteByName {
		seen[name] = struct{}{}
	}

	recs, err := o.st.Saves.ListByGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	for _, r := range recs {
		seen[r.Filename] = struct{}{}
	}

	filenames := make([]string, 0, len(seen))
	for name := range seen {
		filenames = append(filenames, name)
	}
	sort.Strings(filenames)
	return filenames, nil
}

// knownGames unions games present in the record store with game directories
// under the save root.
func (o *Orchestrator) knownGames(ctx context.Context) ([]int64, error) {
	seen := make(map[int64]struct{})

	ids, err := o.st.Saves.ListGames(ctx)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		seen[id] = struct{}{}
	}

	entries, err := os.ReadDir(o.saveRoot)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if id, err := strconv.ParseInt(e.Name(), 10, 64); err == nil {
			seen[id] = struct{}{}
		}
	}

	games := make([]int64, 0, len(seen))
	for id := range seen {
		games = append(games, id)
	}
	sort.Slice(games, func(i, j int) bool { return games[i] < games[j] })
	return games, nil
}

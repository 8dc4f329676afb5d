// Package launch gates game launches on save synchronization and tracks
// playtime sessions around the child process.
package launch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/edmarkov/savesync/internal/client/models"
	"github.com/edmarkov/savesync/internal/client/syncer"
	"github.com/edmarkov/savesync/internal/logging"
)

// ErrConflictsPending blocks a launch while unresolved conflicts exist for
// the game. Launching anyway requires an explicit override.
var ErrConflictsPending = errors.New("unresolved save conflicts, launch blocked")

// DefaultPreLaunchTimeout caps how long a launch waits on the pre-launch
// pass before letting the game start while the pass finishes in background.
const DefaultPreLaunchTimeout = 15 * time.Second

// Gate runs sync passes around game launches.
type Gate struct {
	svc      *syncer.Service
	sessions *SessionTracker
	log      logging.Logger

	// PreLaunchTimeout bounds the pre-launch wait. Zero means the default.
	PreLaunchTimeout time.Duration
}

// NewGate wires a launch gate over the sync service and session tracker.
func NewGate(svc *syncer.Service, sessions *SessionTracker, log logging.Logger) *Gate {
	return &Gate{svc: svc, sessions: sessions, log: log}
}

func (g *Gate) timeout() time.Duration {
	if g.PreLaunchTimeout > 0 {
		return g.PreLaunchTimeout
	}
	return DefaultPreLaunchTimeout
}

// PreLaunch runs the pre-launch sync pass for gameID. The pass is bounded by
// the gate's timeout: if it runs longer, the caller proceeds and the pass
// finishes in the background. Unresolved conflicts block the launch unless
// force is set; an unreachable server never blocks a launch.
func (g *Gate) PreLaunch(ctx context.Context, gameID int64, force bool) error {
	cfg, err := g.svc.GetSettings(ctx)
	if err != nil {
		return err
	}
	if !cfg.Enabled || !cfg.SyncBeforeLaunch {
		return g.checkConflicts(ctx, gameID, force)
	}

	type result struct {
		err error
	}
	done := make(chan result, 1)

	// the pass itself must not be cancelled when the caller stops waiting
	passCtx := context.WithoutCancel(ctx)
	go func() {
		_, err := g.svc.Orchestrator().SyncOne(passCtx, gameID)
		done <- result{err}
	}()

	select {
	case r := <-done:
		switch {
		case errors.Is(r.err, syncer.ErrOffline):
			g.log.Warn(ctx, "launching without sync, server unreachable", "game", gameID)
		case errors.Is(r.err, syncer.ErrSyncInProgress):
			g.log.Info(ctx, "sync already running, not waiting", "game", gameID)
		case r.err != nil:
			g.log.Warn(ctx, "pre-launch sync failed", "game", gameID, "error", r.err)
		}
	case <-time.After(g.timeout()):
		g.log.Warn(ctx, "pre-launch sync still running, launching anyway", "game", gameID)
	case <-ctx.Done():
		return ctx.Err()
	}

	return g.checkConflicts(ctx, gameID, force)
}

func (g *Gate) checkConflicts(ctx context.Context, gameID int64, force bool) error {
	conflicts, err := g.svc.GetPendingConflicts(ctx)
	if err != nil {
		return err
	}
	n := 0
	for _, c := range conflicts {
		if c.GameID == gameID {
			n++
		}
	}
	if n == 0 {
		return nil
	}
	if force {
		g.log.Warn(ctx, "launching despite unresolved conflicts", "game", gameID, "conflicts", n)
		return nil
	}
	return fmt.Errorf("%w: %d conflict(s) for game %d", ErrConflictsPending, n, gameID)
}

// PostExit runs the after-exit sync pass. Best effort: failures are logged,
// never returned, since the game has already exited.
func (g *Gate) PostExit(ctx context.Context, gameID int64) {
	cfg, err := g.svc.GetSettings(ctx)
	if err != nil {
		g.log.Warn(ctx, "post-exit sync skipped", "game", gameID, "error", err)
		return
	}
	if !cfg.Enabled || !cfg.SyncAfterExit {
		return
	}
	if _, err := g.svc.Orchestrator().SyncOne(ctx, gameID); err != nil {
		g.log.Warn(ctx, "post-exit sync failed", "game", gameID, "error", err)
	}
}

// Run launches the game binary wrapped in the full gate: pre-launch sync,
// session start, the child process, session end, post-exit sync. The
// recorded session is returned so the caller can report it.
func (g *Gate) Run(ctx context.Context, gameID int64, force bool, bin string, args ...string) (*models.Playtime, error) {
	if err := g.PreLaunch(ctx, gameID, force); err != nil {
		return nil, err
	}

	if err := g.sessions.StartSession(ctx, gameID); err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	runErr := cmd.Run()

	// the game exited; session end and post-exit sync must still happen
	tail := context.WithoutCancel(ctx)
	pt, err := g.sessions.EndSession(tail, gameID)
	if err != nil {
		g.log.Warn(tail, "failed to record session", "game", gameID, "error", err)
	}
	g.PostExit(tail, gameID)

	return pt, runErr
}

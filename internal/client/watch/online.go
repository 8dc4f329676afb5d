package watch

import (
	"context"
	"errors"
	"time"

	"github.com/edmarkov/savesync/internal/client/syncer"
	"github.com/edmarkov/savesync/internal/logging"
)

// DefaultOnlineCheckInterval is how often the server is probed while
// watching.
const DefaultOnlineCheckInterval = 3 * time.Second

type pinger interface {
	Ping(ctx context.Context) error
}

type queueRetrier interface {
	RetryFailed(ctx context.Context) error
}

// ConnectivityWatcher probes the server on an interval and drains the
// offline queue when the server comes back within reach. Failures to drain
// are logged and retried on the next reachable probe after an outage.
type ConnectivityWatcher struct {
	remote   pinger
	queue    queueRetrier
	log      logging.Logger
	interval time.Duration

	online bool
}

// NewConnectivityWatcher builds a watcher probing remote every interval.
func NewConnectivityWatcher(remote pinger, queue queueRetrier, log logging.Logger, interval time.Duration) *ConnectivityWatcher {
	if interval <= 0 {
		interval = DefaultOnlineCheckInterval
	}
	return &ConnectivityWatcher{remote: remote, queue: queue, log: log, interval: interval}
}

// Run probes until ctx is cancelled.
func (w *ConnectivityWatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.check(ctx)
		}
	}
}

func (w *ConnectivityWatcher) check(ctx context.Context) {
	reachable := w.remote.Ping(ctx) == nil
	switch {
	case reachable && !w.online:
		w.online = true
		w.log.Info(ctx, "server reachable, retrying queued transfers")
		if err := w.queue.RetryFailed(ctx); err != nil && !errors.Is(err, syncer.ErrOffline) {
			w.log.Warn(ctx, "queued retry failed", "error", err)
		}
	case !reachable && w.online:
		w.online = false
		w.log.Info(ctx, "server unreachable, queued transfers will wait")
	}
}

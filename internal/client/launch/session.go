package launch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/edmarkov/savesync/internal/client/models"
	"github.com/edmarkov/savesync/internal/client/repositories/playtime"
	"github.com/edmarkov/savesync/internal/common"
	"github.com/edmarkov/savesync/internal/logging"
)

// SessionTracker accumulates playtime per game. A session spans launch to
// exit; suspend pauses the clock without ending the session. Open sessions
// are persisted so a crash can be detected on the next start.
type SessionTracker struct {
	repo  playtime.Repository
	log   logging.Logger
	clock func() time.Time

	mu       sync.Mutex
	sessions map[int64]*openSession
}

type openSession struct {
	startedAt   time.Time
	accumulated time.Duration
	suspendedAt time.Time // zero while running
}

// NewSessionTracker wires the tracker over the playtime repository.
func NewSessionTracker(repo playtime.Repository, log logging.Logger) *SessionTracker {
	return &SessionTracker{
		repo:     repo,
		log:      log,
		clock:    time.Now,
		sessions: make(map[int64]*openSession),
	}
}

// StartSession opens a session for gameID. A session left open by a crash is
// finalized first: it counts as a session but credits no time, since the
// elapsed wall clock includes however long the machine sat crashed.
func (t *SessionTracker) StartSession(ctx context.Context, gameID int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, open := t.sessions[gameID]; open {
		return errors.New("session already open for this game")
	}

	pt, err := t.repo.Get(ctx, gameID)
	if errors.Is(err, common.ErrorNotFound) {
		pt = &models.Playtime{GameID: gameID}
	} else if err != nil {
		return err
	}

	if pt.SessionOpen {
		pt.SessionCount++
		pt.LastSessionDuration = 0
		t.log.Warn(ctx, "found orphaned session, finalizing with no credited time",
			"game", gameID, "started", pt.LastSessionStart)
	}

	now := t.clock()
	pt.SessionOpen = true
	pt.LastSessionStart = now
	if err := t.repo.Upsert(ctx, pt); err != nil {
		return err
	}

	t.sessions[gameID] = &openSession{startedAt: now}
	return nil
}

// Suspend pauses the session clock. Suspending a suspended or absent
// session is a no-op.
func (t *SessionTracker) Suspend(gameID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[gameID]
	if !ok || !s.suspendedAt.IsZero() {
		return
	}
	now := t.clock()
	s.accumulated += now.Sub(s.startedAt)
	s.suspendedAt = now
}

// Resume restarts the clock after a suspend.
func (t *SessionTracker) Resume(gameID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[gameID]
	if !ok || s.suspendedAt.IsZero() {
		return
	}
	s.startedAt = t.clock()
	s.suspendedAt = time.Time{}
}

// EndSession closes the session, credits its active time, and returns the
// updated playtime. Ending an absent session is a no-op returning nil.
func (t *SessionTracker) EndSession(ctx context.Context, gameID int64) (*models.Playtime, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[gameID]
	if !ok {
		return nil, nil
	}
	delete(t.sessions, gameID)

	active := s.accumulated
	if s.suspendedAt.IsZero() {
		active += t.clock().Sub(s.startedAt)
	}

	pt, err := t.repo.Get(ctx, gameID)
	if errors.Is(err, common.ErrorNotFound) {
		pt = &models.Playtime{GameID: gameID}
	} else if err != nil {
		return nil, err
	}

	seconds := int64(active / time.Second)
	pt.TotalSeconds += seconds
	pt.SessionCount++
	pt.LastSessionDuration = seconds
	pt.SessionOpen = false

	if err := t.repo.Upsert(ctx, pt); err != nil {
		return nil, err
	}
	return pt, nil
}

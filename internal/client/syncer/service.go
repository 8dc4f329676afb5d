package syncer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/edmarkov/savesync/internal/client/models"
	"github.com/edmarkov/savesync/internal/client/remote"
	"github.com/edmarkov/savesync/internal/client/store"
	"github.com/edmarkov/savesync/internal/common"
	"github.com/edmarkov/savesync/internal/logging"
)

// Service is the operation surface over the sync engine: device identity,
// per-game status, conflict resolution, the offline queue, and settings.
type Service struct {
	st     *store.Store
	remote remote.Client
	orch   *Orchestrator
	log    logging.Logger
}

// NewService wires the service over an opened store and the orchestrator.
func NewService(st *store.Store, rc remote.Client, orch *Orchestrator, log logging.Logger) *Service {
	return &Service{st: st, remote: rc, orch: orch, log: log}
}

// Orchestrator exposes the underlying pass driver for callers that sync
// directly (CLI sync command, launch gate, watcher).
func (s *Service) Orchestrator() *Orchestrator { return s.orch }

// EnsureDeviceRegistered returns the stable device identity, creating and
// registering it on first call. Idempotent: an already registered device is
// returned as is. If the server is unreachable the identity is still created
// locally and registration is retried on a later call.
func (s *Service) EnsureDeviceRegistered(ctx context.Context) (*models.Device, error) {
	dev, err := s.st.Device.Get(ctx)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	if dev == nil {
		hostname, herr := os.Hostname()
		if herr != nil {
			hostname = "unknown-host"
		}
		dev = &models.Device{
			ID:           uuid.NewString(),
			Name:         hostname,
			RegisteredAt: time.Now(),
		}
		if err := s.st.Device.Save(ctx, dev); err != nil {
			return nil, err
		}
	}

	if dev.Token != "" {
		return dev, nil
	}

	token, err := s.remote.RegisterDevice(ctx, dev.ID, dev.Name)
	if err != nil {
		if errors.Is(err, remote.ErrUnavailable) {
			s.log.Warn(ctx, "device registration deferred, server unreachable", "device", dev.ID)
			return dev, nil
		}
		return nil, err
	}

	dev.Token = token
	if err := s.st.Device.Save(ctx, dev); err != nil {
		return nil, err
	}
	s.log.Info(ctx, "device registered", "device", dev.ID, "name", dev.Name)
	return dev, nil
}

// GetSaveStatus returns the tracked files, playtime, and device identity for
// one game. Purely local; it never contacts the server.
func (s *Service) GetSaveStatus(ctx context.Context, gameID int64) (*models.SaveStatus, error) {
	files, err := s.st.Saves.ListByGame(ctx, gameID)
	if err != nil {
		return nil, err
	}

	var pt models.Playtime
	if p, err := s.st.Playtime.Get(ctx, gameID); err == nil {
		pt = *p
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	deviceID := ""
	if dev, err := s.st.Device.Get(ctx); err == nil {
		deviceID = dev.ID
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	return &models.SaveStatus{
		GameID:          gameID,
		Files:           files,
		Playtime:        pt,
		DeviceID:        deviceID,
		LastSyncCheckAt: s.orch.LastSyncCheck(gameID),
	}, nil
}

// GetPendingConflicts lists conflicts awaiting resolution across all games.
func (s *Service) GetPendingConflicts(ctx context.Context) ([]models.PendingConflict, error) {
	return s.st.Conflicts.List(ctx)
}

// ResolveConflict applies the user's answer to a pending conflict and
// removes it. Resolving an already resolved (absent) conflict is a no-op.
// Skip removes the conflict without moving any bytes; the next pass will
// re-detect the divergence if it still exists.
func (s *Service) ResolveConflict(ctx context.Context, gameID int64, filename string, res models.Resolution) error {
	_, err := s.st.Conflicts.Get(ctx, gameID, filename)
	if errors.Is(err, common.ErrorNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	switch res {
	case models.ResolutionUpload:
		if err := s.orch.exec.Upload(ctx, gameID, filename); err != nil {
			return err
		}
	case models.ResolutionDownload:
		if err := s.orch.exec.Download(ctx, gameID, filename); err != nil {
			return err
		}
	case models.ResolutionSkip:
		// resolution without transfer: drop the conflict only
	default:
		return fmt.Errorf("%w: unknown resolution %q", common.ErrorValidation, res)
	}

	if res == models.ResolutionSkip {
		// the conflict row and the record status must change together
		err = s.st.WithTx(ctx, func(ctx context.Context, st *store.Store) error {
			if err := st.Conflicts.Delete(ctx, gameID, filename); err != nil {
				return err
			}
			return st.Saves.SetStatus(ctx, gameID, filename, models.StatusSkip)
		})
	} else {
		err = s.st.Conflicts.Delete(ctx, gameID, filename)
	}
	if err != nil {
		return err
	}
	s.log.Info(ctx, "conflict resolved", "game", gameID, "file", filename, "resolution", res)
	return nil
}

// GetOfflineQueue lists transfers waiting for connectivity, oldest first.
func (s *Service) GetOfflineQueue(ctx context.Context) ([]models.OfflineQueueItem, error) {
	return s.st.Queue.List(ctx)
}

// RetryFailed re-attempts every queued transfer with current connectivity.
// Items that succeed (or are no longer divergent) leave the queue; items
// that fail transiently again stay queued. Returns the first hard error.
func (s *Service) RetryFailed(ctx context.Context) error {
	items, err := s.st.Queue.List(ctx)
	if err != nil {
		return err
	}

	if err := s.remote.Ping(ctx); err != nil {
		return ErrOffline
	}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.orch.RetryFile(ctx, item.GameID, item.Filename)
		switch Classify(err) {
		case ClassTransient:
			s.log.Info(ctx, "retry still failing, keeping queued",
				"game", item.GameID, "file", item.Filename, "error", err)
		default:
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// RetryFailedSync re-attempts the queued transfer for one file. The entry
// leaves the queue when the retry succeeds or the file is no longer
// divergent; a key that is not queued is a no-op.
func (s *Service) RetryFailedSync(ctx context.Context, gameID int64, filename string) error {
	if _, err := s.st.Queue.Get(ctx, gameID, filename); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return err
	}
	if err := s.remote.Ping(ctx); err != nil {
		return ErrOffline
	}
	return s.orch.RetryFile(ctx, gameID, filename)
}

// ClearOfflineQueue drops every queued item without attempting transfers.
func (s *Service) ClearOfflineQueue(ctx context.Context) error {
	return s.st.Queue.Clear(ctx)
}

// GetSettings returns the current sync settings.
func (s *Service) GetSettings(ctx context.Context) (*models.SaveSyncSettings, error) {
	return s.st.Settings.Get(ctx)
}

// UpdateSettings validates and persists new settings. They take effect on
// the next sync pass.
func (s *Service) UpdateSettings(ctx context.Context, cfg *models.SaveSyncSettings) error {
	return s.st.Settings.Update(ctx, cfg)
}

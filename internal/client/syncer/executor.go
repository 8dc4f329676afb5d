package syncer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/edmarkov/savesync/internal/client/models"
	"github.com/edmarkov/savesync/internal/client/remote"
	"github.com/edmarkov/savesync/internal/client/repositories/queue"
	"github.com/edmarkov/savesync/internal/client/repositories/saves"
	"github.com/edmarkov/savesync/internal/filex"
	"github.com/edmarkov/savesync/internal/logging"
	"github.com/edmarkov/savesync/internal/netx"
)

// Executor performs the uploads and downloads the decision layer asked for.
// Writes are atomic from the caller's perspective: a download lands in a
// temp file next to its destination and is renamed over it only after the
// hash checks out, so a partially written save is never observable.
type Executor struct {
	remote   remote.Client
	saves    saves.Repository
	queue    queue.Repository
	log      logging.Logger
	saveRoot string
	deviceID string
	clock    func() time.Time

	transferAttempts uint64
	transferBackoff  time.Duration
}

// NewExecutor builds an executor rooted at saveRoot, attributing uploads to
// deviceID.
func NewExecutor(rc remote.Client, savesRepo saves.Repository, queueRepo queue.Repository,
	log logging.Logger, saveRoot, deviceID string) *Executor {
	return &Executor{
		remote:           rc,
		saves:            savesRepo,
		queue:            queueRepo,
		log:              log,
		saveRoot:         saveRoot,
		deviceID:         deviceID,
		clock:            time.Now,
		transferAttempts: 3,
		transferBackoff:  2 * time.Second,
	}
}

// SavePath returns where gameID/filename lives on disk.
func (e *Executor) SavePath(gameID int64, filename string) string {
	return filepath.Join(e.saveRoot, strconv.FormatInt(gameID, 10), filename)
}

// Upload pushes the local copy to the server and marks the record synced.
// Transient failures are queued (deduplicated by key) and returned; the
// record's status is left unchanged in that case.
func (e *Executor) Upload(ctx context.Context, gameID int64, filename string) error {
	path := e.SavePath(gameID, filename)

	payload, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read save: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat save: %w", err)
	}
	hash := filex.HashBytes(payload)

	ticket, err := e.remote.BeginUpload(ctx, gameID, filename)
	if err != nil {
		return e.fail(ctx, gameID, filename, models.OpUpload, err)
	}

	err = e.withRetry(ctx, func(ctx context.Context) error {
		return netx.UploadToPresignedURL(ctx, ticket.URL, payload)
	})
	if err != nil {
		return e.fail(ctx, gameID, filename, models.OpUpload, err)
	}

	if err := ctx.Err(); err != nil {
		// aborting here is safe: nothing has been committed yet
		return err
	}

	// Commit point. From here on the operation must finish even if the
	// caller stopped waiting.
	ctx = context.WithoutCancel(ctx)

	save, err := e.remote.CommitUpload(ctx, gameID, filename, remote.UploadCommit{
		SaveID:     ticket.SaveID,
		StorageKey: ticket.StorageKey,
		Hash:       hash,
		Size:       info.Size(),
		MTime:      info.ModTime(),
		DeviceID:   e.deviceID,
	})
	if err != nil {
		return e.fail(ctx, gameID, filename, models.OpUpload, err)
	}

	if save.Hash != hash {
		return fmt.Errorf("%w: sent %s, server recorded %s", ErrIntegrity, hash, save.Hash)
	}

	return e.finish(ctx, &models.SaveFileRecord{
		GameID:          gameID,
		Filename:        filename,
		LocalHash:       hash,
		LocalMTime:      info.ModTime(),
		LocalSize:       info.Size(),
		ServerSaveID:    save.SaveID,
		ServerUpdatedAt: save.UpdatedAt,
		ServerSize:      save.Size,
	})
}

// Download pulls the server copy over the local file. The temp file is
// discarded on any failure; the destination is replaced only after the
// downloaded content matches the server's hash.
func (e *Executor) Download(ctx context.Context, gameID int64, filename string) error {
	ticket, err := e.remote.BeginDownload(ctx, gameID, filename)
	if err != nil {
		return e.fail(ctx, gameID, filename, models.OpDownload, err)
	}

	dst := e.SavePath(gameID, filename)
	tmp, err := filex.TempFileNear(dst)
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	discard := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	err = e.withRetry(ctx, func(ctx context.Context) error {
		if err := tmp.Truncate(0); err != nil {
			return err
		}
		if _, err := tmp.Seek(0, 0); err != nil {
			return err
		}
		_, err := netx.DownloadFromPresignedURL(ctx, ticket.URL, tmp)
		return err
	})
	if err != nil {
		discard()
		return e.fail(ctx, gameID, filename, models.OpDownload, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}

	gotHash, err := filex.HashFile(tmpName)
	if err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if gotHash != ticket.Save.Hash {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: expected %s, downloaded %s", ErrIntegrity, ticket.Save.Hash, gotHash)
	}

	if err := ctx.Err(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}

	// Commit point: replace the save, then bookkeeping.
	ctx = context.WithoutCancel(ctx)

	if err := filex.ReplaceFile(tmpName, dst); err != nil {
		return err
	}

	info, err := os.Stat(dst)
	if err != nil {
		return fmt.Errorf("stat save: %w", err)
	}

	return e.finish(ctx, &models.SaveFileRecord{
		GameID:          gameID,
		Filename:        filename,
		LocalHash:       gotHash,
		LocalMTime:      info.ModTime(),
		LocalSize:       info.Size(),
		ServerSaveID:    ticket.Save.SaveID,
		ServerUpdatedAt: ticket.Save.UpdatedAt,
		ServerSize:      ticket.Save.Size,
	})
}

// finish records a completed transfer: record updated, status synced,
// last_sync_at advanced, any stale queue entry dropped.
func (e *Executor) finish(ctx context.Context, rec *models.SaveFileRecord) error {
	rec.Status = models.StatusSynced
	if err := e.saves.Upsert(ctx, rec); err != nil {
		return err
	}
	// the forward-only advance lives in MarkSynced
	if err := e.saves.MarkSynced(ctx, rec.GameID, rec.Filename, e.clock()); err != nil {
		return err
	}
	if err := e.queue.Delete(ctx, rec.GameID, rec.Filename); err != nil {
		e.log.Warn(ctx, "failed to clear queue entry after sync",
			"game", rec.GameID, "file", rec.Filename, "error", err)
	}
	return nil
}

// fail classifies a transfer error. Transient failures are recorded in the
// offline queue (replacing any earlier entry for the key) and the record's
// status stays as it was; everything else is surfaced untouched.
func (e *Executor) fail(ctx context.Context, gameID int64, filename string, op models.TransferOp, err error) error {
	if Classify(err) != ClassTransient {
		return err
	}

	item := &models.OfflineQueueItem{
		GameID:   gameID,
		Filename: filename,
		Op:       op,
		Reason:   err.Error(),
		FailedAt: e.clock(),
	}
	if qerr := e.queue.Upsert(context.WithoutCancel(ctx), item); qerr != nil {
		e.log.Error(ctx, "failed to enqueue offline retry",
			"game", gameID, "file", filename, "error", qerr)
	} else {
		e.log.Info(ctx, "transfer queued for retry",
			"game", gameID, "file", filename, "op", string(op))
	}
	return err
}

func (e *Executor) withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(e.transferAttempts, retry.NewConstant(e.transferBackoff))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if Classify(err) == ClassTransient {
			return retry.RetryableError(err)
		}
		return err
	})
}

// SetDeviceID sets the device identity attributed to uploads. Called once
// after the identity is resolved, before any transfers run.
func (e *Executor) SetDeviceID(id string) {
	e.deviceID = id
}

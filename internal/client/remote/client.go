// Package remote talks to the save library server. The server is the
// authority for save metadata; payload bytes move through presigned
// object-storage URLs handed out per transfer.
package remote

import (
	"context"
	"time"

	"github.com/edmarkov/savesync/internal/client/models"
)

// UploadTicket is the server's grant for one upload: a fresh save id plus a
// presigned PUT URL for the payload.
type UploadTicket struct {
	SaveID     string
	StorageKey string
	URL        string
}

// UploadCommit finalizes an upload after the payload landed in storage.
type UploadCommit struct {
	SaveID     string
	StorageKey string
	Hash       string
	Size       int64
	MTime      time.Time
	DeviceID   string
}

// DownloadTicket pairs a presigned GET URL with the authoritative metadata
// for integrity checking after the transfer.
type DownloadTicket struct {
	URL  string
	Save models.RemoteSave
}

// Client is the operation surface of the save library server.
type Client interface {
	Close() error

	// Ping probes reachability with a short deadline. Unreachable maps to
	// ErrUnavailable.
	Ping(ctx context.Context) error

	// RegisterDevice registers (idempotently) this device and returns the
	// device token to carry on subsequent calls.
	RegisterDevice(ctx context.Context, deviceID, deviceName string) (string, error)

	// ListSaves returns the server's save metadata for one game.
	ListSaves(ctx context.Context, gameID int64) ([]models.RemoteSave, error)

	// BeginUpload asks for an upload grant for one file.
	BeginUpload(ctx context.Context, gameID int64, filename string) (*UploadTicket, error)

	// CommitUpload records the uploaded payload's metadata, making it the
	// current server copy.
	CommitUpload(ctx context.Context, gameID int64, filename string, commit UploadCommit) (*models.RemoteSave, error)

	// BeginDownload returns a download grant for the current server copy.
	BeginDownload(ctx context.Context, gameID int64, filename string) (*DownloadTicket, error)
}

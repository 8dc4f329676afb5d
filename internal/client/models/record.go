// Package models defines the device-side data model of the save sync engine:
// per-file sync records, pending conflicts, the offline queue, settings,
// playtime, and the device identity.
package models

import "time"

// SyncStatus is the engine's last verdict for one tracked file.
type SyncStatus string

const (
	StatusUnknown  SyncStatus = "unknown"
	StatusSkip     SyncStatus = "skip"
	StatusUpload   SyncStatus = "upload"
	StatusDownload SyncStatus = "download"
	StatusConflict SyncStatus = "conflict"
	StatusSynced   SyncStatus = "synced"
)

// SaveFileRecord is the local bookkeeping for one save file, keyed by
// (GameID, Filename). Absence is encoded by empty LocalHash (no local copy)
// and empty ServerSaveID (no server copy). LastSyncAt is zero until the file
// has been reconciled once on this device.
//
// Only the transfer executor and the conflict policy mutate records.
type SaveFileRecord struct {
	GameID   int64
	Filename string

	LocalHash  string
	LocalMTime time.Time
	LocalSize  int64

	ServerSaveID    string
	ServerUpdatedAt time.Time
	ServerSize      int64

	LastSyncAt time.Time
	Status     SyncStatus
}

// LocalPresent reports whether the file existed locally at last observation.
func (r *SaveFileRecord) LocalPresent() bool { return r.LocalHash != "" }

// ServerPresent reports whether the server holds a copy of the file.
func (r *SaveFileRecord) ServerPresent() bool { return r.ServerSaveID != "" }

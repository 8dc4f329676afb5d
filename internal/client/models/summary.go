package models

import "time"

// Summary aggregates one sync pass. A single file's failure never aborts a
// pass, so Errors carries per-file problems alongside the counts.
type Summary struct {
	GameID    int64
	Synced    int
	Conflicts int
	Skipped   int
	Errors    []FileError
}

// FileError is one file's failure inside an otherwise completed pass.
type FileError struct {
	GameID   int64
	Filename string
	Err      string
}

// SaveStatus is the per-game view returned to callers: file records plus
// playtime and the reporting device.
type SaveStatus struct {
	GameID          int64
	Files           []SaveFileRecord
	Playtime        Playtime
	DeviceID        string
	LastSyncCheckAt time.Time
}

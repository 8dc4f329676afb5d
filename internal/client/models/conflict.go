package models

import "time"

// PendingConflict snapshots both sides of a file that changed independently
// on two devices since the last reconciliation. It is created by the conflict
// policy and destroyed only by an explicit resolution.
type PendingConflict struct {
	GameID   int64
	Filename string

	LocalHash  string
	LocalMTime time.Time
	LocalSize  int64

	ServerSaveID    string
	ServerUpdatedAt time.Time
	ServerSize      int64

	DetectedAt time.Time
}

// Resolution is the user's answer to a pending conflict.
type Resolution string

const (
	ResolutionUpload   Resolution = "upload"
	ResolutionDownload Resolution = "download"
	ResolutionSkip     Resolution = "skip"
)

// ParseResolution validates a resolution string.
func ParseResolution(s string) (Resolution, bool) {
	switch Resolution(s) {
	case ResolutionUpload, ResolutionDownload, ResolutionSkip:
		return Resolution(s), true
	}
	return "", false
}

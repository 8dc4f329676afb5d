package models

import (
	"fmt"
	"time"
)

// ConflictMode selects how the engine treats files changed on both sides.
type ConflictMode string

const (
	ModeAskMe          ConflictMode = "ask_me"
	ModeNewestWins     ConflictMode = "newest_wins"
	ModeAlwaysUpload   ConflictMode = "always_upload"
	ModeAlwaysDownload ConflictMode = "always_download"
)

// ParseConflictMode rejects unknown modes instead of silently defaulting.
func ParseConflictMode(s string) (ConflictMode, error) {
	switch ConflictMode(s) {
	case ModeAskMe, ModeNewestWins, ModeAlwaysUpload, ModeAlwaysDownload:
		return ConflictMode(s), nil
	}
	return "", fmt.Errorf("unknown conflict mode %q", s)
}

// SaveSyncSettings is global configuration, read once at the start of every
// sync pass; changes take effect on the next pass.
type SaveSyncSettings struct {
	Enabled            bool
	ConflictMode       ConflictMode
	SyncBeforeLaunch   bool
	SyncAfterExit      bool
	ClockSkewTolerance time.Duration
}

// DefaultSettings mirrors what a fresh install starts with.
func DefaultSettings() SaveSyncSettings {
	return SaveSyncSettings{
		Enabled:            true,
		ConflictMode:       ModeAskMe,
		SyncBeforeLaunch:   true,
		SyncAfterExit:      true,
		ClockSkewTolerance: 60 * time.Second,
	}
}

// Validate checks mode and tolerance bounds.
func (s SaveSyncSettings) Validate() error {
	if _, err := ParseConflictMode(string(s.ConflictMode)); err != nil {
		return err
	}
	if s.ClockSkewTolerance < 0 {
		return fmt.Errorf("clock skew tolerance must not be negative")
	}
	return nil
}

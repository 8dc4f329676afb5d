package syncer

import (
	"time"

	"github.com/edmarkov/savesync/internal/client/models"
)

// Action is the conflict policy's decision for a conflict candidate.
type Action int

const (
	// ActionAsk records a PendingConflict and performs no transfer.
	ActionAsk Action = iota
	ActionUpload
	ActionDownload
)

// ResolvePolicy maps a conflict candidate onto an action under the
// configured mode. Pure, like Compare.
//
// newest_wins falls back to ask-me when the two timestamps are within skew
// of each other: the ordering is then meaningless and picking a side would
// silently lose data.
func ResolvePolicy(mode models.ConflictMode, localMTime, serverMTime time.Time, skew time.Duration) Action {
	switch mode {
	case models.ModeAlwaysUpload:
		return ActionUpload
	case models.ModeAlwaysDownload:
		return ActionDownload
	case models.ModeNewestWins:
		gap := localMTime.Sub(serverMTime)
		if gap < 0 {
			gap = -gap
		}
		if gap <= skew {
			return ActionAsk
		}
		if localMTime.After(serverMTime) {
			return ActionUpload
		}
		return ActionDownload
	default: // ask_me
		return ActionAsk
	}
}

// Package syncer implements the save synchronization engine: the per-file
// decision algorithm, the conflict policy, the transfer executor with its
// offline queue, and the orchestrator that drives passes over games.
package syncer

import "time"

// Decision is the comparator's verdict for one file.
type Decision int

const (
	// DecisionSkip: neither side has the file.
	DecisionSkip Decision = iota
	// DecisionInSync: both sides carry identical content.
	DecisionInSync
	// DecisionUpload: the local copy should become the server copy.
	DecisionUpload
	// DecisionDownload: the server copy should become the local copy.
	DecisionDownload
	// DecisionConflict: both sides changed independently (or the timestamps
	// are unusable); the conflict policy decides what happens.
	DecisionConflict
)

func (d Decision) String() string {
	switch d {
	case DecisionSkip:
		return "skip"
	case DecisionInSync:
		return "in_sync"
	case DecisionUpload:
		return "upload"
	case DecisionDownload:
		return "download"
	case DecisionConflict:
		return "conflict"
	}
	return "unknown"
}

// Side is one side's observed state for a file.
type Side struct {
	Present bool
	Hash    string
	ModTime time.Time
	Size    int64
}

// Compare classifies the divergence between the local and server copies of
// one file. lastSync is when this device last reconciled the file (zero if
// never); skew widens the "unchanged" window symmetrically on both
// timestamps to absorb clock drift between devices and the server.
//
// Compare is pure: it never touches the filesystem or the network.
func Compare(local, server Side, lastSync time.Time, skew time.Duration) Decision {
	switch {
	case !local.Present && !server.Present:
		return DecisionSkip
	case local.Present && !server.Present:
		return DecisionUpload
	case !local.Present && server.Present:
		return DecisionDownload
	}

	if local.Hash == server.Hash {
		return DecisionInSync
	}

	threshold := lastSync.Add(skew)
	localChanged := local.ModTime.After(threshold)
	serverChanged := server.ModTime.After(threshold)

	switch {
	case localChanged && !serverChanged:
		return DecisionUpload
	case serverChanged && !localChanged:
		return DecisionDownload
	}

	// Both changed, or hashes differ while neither timestamp moved past the
	// tolerance window (clock anomaly). Fail safe toward asking rather than
	// silently picking a side.
	return DecisionConflict
}

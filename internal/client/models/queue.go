package models

import "time"

// TransferOp is the direction of a queued transfer.
type TransferOp string

const (
	OpUpload   TransferOp = "upload"
	OpDownload TransferOp = "download"
)

// OfflineQueueItem records a transfer that failed for a transient reason and
// is waiting for connectivity. Keyed by (GameID, Filename); re-queuing the
// same key replaces the previous item. Distinct from PendingConflict: a queue
// item is an operational failure, not a policy decision.
type OfflineQueueItem struct {
	GameID   int64
	Filename string
	Op       TransferOp
	Reason   string
	FailedAt time.Time
}

package syncer

import (
	"errors"
	"io/fs"

	"github.com/edmarkov/savesync/internal/client/remote"
	"github.com/edmarkov/savesync/internal/netx"
)

var (
	// ErrSyncInProgress rejects a second concurrent pass for the same game.
	ErrSyncInProgress = errors.New("sync already in progress for this game")

	// ErrOffline marks a pass that was skipped because the server was
	// unreachable; distinguishable from a pass that ran and found conflicts.
	ErrOffline = errors.New("server unreachable, sync skipped")

	// ErrIntegrity marks a post-transfer hash mismatch. Not retried
	// automatically: it signals a deeper problem than lost connectivity.
	ErrIntegrity = errors.New("integrity check failed after transfer")

	// ErrDisabled marks an operation refused because sync is turned off.
	ErrDisabled = errors.New("save sync is disabled")
)

// ErrorClass buckets a transfer failure per the engine's taxonomy.
type ErrorClass int

const (
	ClassOther ErrorClass = iota
	ClassTransient
	ClassIntegrity
	ClassAuth
	ClassNotFound
)

// Classify buckets err for queueing/surfacing decisions.
func Classify(err error) ErrorClass {
	switch {
	case errors.Is(err, remote.ErrUnavailable), errors.Is(err, netx.ErrObjectUnavailable):
		return ClassTransient
	case errors.Is(err, ErrIntegrity):
		return ClassIntegrity
	case errors.Is(err, remote.ErrUnauthorized):
		return ClassAuth
	case errors.Is(err, remote.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return ClassNotFound
	}
	return ClassOther
}

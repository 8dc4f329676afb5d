package models

import "time"

// Playtime accumulates play sessions for one game on this device.
// SessionOpen marks a started session that has not ended yet; it survives a
// crash and is finalized conservatively on the next start.
type Playtime struct {
	GameID              int64
	TotalSeconds        int64
	SessionCount        int64
	LastSessionStart    time.Time
	LastSessionDuration int64
	SessionOpen         bool
}

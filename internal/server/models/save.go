// Package models defines the server-side data model: stored saves and
// registered devices.
package models

import "time"

// Save is the server's record of one save file's current version. The row is
// authoritative for hash, size, and the storage key of the payload object.
type Save struct {
	ID         string
	GameID     int64
	Filename   string
	Hash       string
	Size       int64
	StorageKey string
	UpdatedAt  time.Time
	DeviceID   string
	CreatedAt  time.Time
}

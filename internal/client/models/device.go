package models

import "time"

// Device is the stable identity of this install, created lazily on first
// enablement of sync and never regenerated afterwards.
type Device struct {
	ID           string
	Name         string
	Token        string
	RegisteredAt time.Time
}

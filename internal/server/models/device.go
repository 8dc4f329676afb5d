package models

import "time"

// Device is a registered client install.
type Device struct {
	ID           string
	Name         string
	RegisteredAt time.Time
	LastSeenAt   time.Time
}

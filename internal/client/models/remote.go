package models

import "time"

// RemoteSave is the server's metadata for one save file. The server is the
// authority for all of these fields.
type RemoteSave struct {
	SaveID    string
	GameID    int64
	Filename  string
	Hash      string
	Size      int64
	UpdatedAt time.Time
	DeviceID  string
}

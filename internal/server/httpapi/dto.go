// Package httpapi exposes the server's JSON API: device registration, save
// listings, and presigned transfer grants.
package httpapi

import (
	"time"

	"github.com/edmarkov/savesync/internal/server/models"
	"github.com/edmarkov/savesync/internal/server/services"
)

type registerRequest struct {
	DeviceID   string `json:"device_id"`
	DeviceName string `json:"device_name"`
}

type registerResponse struct {
	Token string `json:"token"`
}

type saveDTO struct {
	SaveID    string    `json:"save_id"`
	GameID    int64     `json:"game_id"`
	Filename  string    `json:"filename"`
	Hash      string    `json:"hash"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
	DeviceID  string    `json:"device_id"`
}

func toSaveDTO(s models.Save) saveDTO {
	return saveDTO{
		SaveID:    s.ID,
		GameID:    s.GameID,
		Filename:  s.Filename,
		Hash:      s.Hash,
		Size:      s.Size,
		UpdatedAt: s.UpdatedAt,
		DeviceID:  s.DeviceID,
	}
}

type uploadTicketDTO struct {
	SaveID     string `json:"save_id"`
	StorageKey string `json:"storage_key"`
	URL        string `json:"url"`
}

type commitRequest struct {
	SaveID     string    `json:"save_id"`
	StorageKey string    `json:"storage_key"`
	Hash       string    `json:"hash"`
	Size       int64     `json:"size"`
	MTime      time.Time `json:"mtime"`
	DeviceID   string    `json:"device_id"`
}

func (r commitRequest) toCommit() services.CommitRequest {
	return services.CommitRequest{
		SaveID:     r.SaveID,
		StorageKey: r.StorageKey,
		Hash:       r.Hash,
		Size:       r.Size,
		MTime:      r.MTime,
		DeviceID:   r.DeviceID,
	}
}

type downloadTicketDTO struct {
	URL  string  `json:"url"`
	Save saveDTO `json:"save"`
}

type errorResponse struct {
	Error string `json:"error"`
}

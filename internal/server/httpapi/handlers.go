package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
)

func (s *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.DeviceID == "" {
		writeError(w, http.StatusBadRequest, "device_id is required")
		return
	}

	token, err := s.devices.Register(r.Context(), req.DeviceID, req.DeviceName)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.log.Info(r.Context(), "device registered", "device", req.DeviceID, "name", req.DeviceName)
	writeJSON(w, http.StatusOK, registerResponse{Token: token})
}

// gameIDPath extracts the {game} path segment.
func gameIDPath(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("game"), 10, 64)
}

func (s *Server) handleListSaves(w http.ResponseWriter, r *http.Request) {
	gameID, err := gameIDPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid game id")
		return
	}

	saves, err := s.saves.List(r.Context(), gameID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	dtos := make([]saveDTO, 0, len(saves))
	for _, sv := range saves {
		dtos = append(dtos, toSaveDTO(sv))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (s *Server) handleBeginUpload(w http.ResponseWriter, r *http.Request) {
	gameID, err := gameIDPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid game id")
		return
	}

	grant, err := s.saves.BeginUpload(r.Context(), gameID, r.PathValue("filename"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, uploadTicketDTO{
		SaveID:     grant.SaveID,
		StorageKey: grant.StorageKey,
		URL:        grant.URL,
	})
}

func (s *Server) handleCommitUpload(w http.ResponseWriter, r *http.Request) {
	gameID, err := gameIDPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid game id")
		return
	}

	var req commitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.SaveID == "" || req.StorageKey == "" || req.Hash == "" {
		writeError(w, http.StatusBadRequest, "save_id, storage_key and hash are required")
		return
	}

	// commits are attributed to the authenticated device, whatever the
	// request body claims
	commit := req.toCommit()
	commit.DeviceID = deviceID(r)

	save, err := s.saves.CommitUpload(r.Context(), gameID, r.PathValue("filename"), commit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toSaveDTO(*save))
}

func (s *Server) handleBeginDownload(w http.ResponseWriter, r *http.Request) {
	gameID, err := gameIDPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid game id")
		return
	}

	grant, err := s.saves.BeginDownload(r.Context(), gameID, r.PathValue("filename"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, downloadTicketDTO{
		URL:  grant.URL,
		Save: toSaveDTO(grant.Save),
	})
}

package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/edmarkov/savesync/internal/common"
	"github.com/edmarkov/savesync/internal/logging"
	"github.com/edmarkov/savesync/internal/server/services"
)

// Server serves the JSON API over net/http.
type Server struct {
	saves   *services.SaveService
	devices *services.DeviceService
	log     logging.Logger
	addr    string
}

// NewServer wires the API over the application services.
func NewServer(addr string, saves *services.SaveService, devices *services.DeviceService, log logging.Logger) *Server {
	return &Server{saves: saves, devices: devices, log: log, addr: addr}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/ping", s.handlePing)
	mux.HandleFunc("POST /api/v1/devices/register", s.handleRegister)

	mux.HandleFunc("GET /api/v1/games/{game}/saves", s.withAuth(s.handleListSaves))
	mux.HandleFunc("POST /api/v1/games/{game}/saves/{filename}/upload", s.withAuth(s.handleBeginUpload))
	mux.HandleFunc("POST /api/v1/games/{game}/saves/{filename}/commit", s.withAuth(s.handleCommitUpload))
	mux.HandleFunc("GET /api/v1/games/{game}/saves/{filename}/download", s.withAuth(s.handleBeginDownload))

	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.log.Info(ctx, "http api listening", "addr", s.addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError maps domain errors onto HTTP statuses.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, common.ErrorValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.log.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/edmarkov/savesync/internal/common"
)

type ctxKey int

const deviceIDKey ctxKey = iota

// deviceID returns the authenticated device id for a request.
func deviceID(r *http.Request) string {
	id, _ := r.Context().Value(deviceIDKey).(string)
	return id
}

// withAuth validates the bearer device token and stores the device id in the
// request context.
func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(common.AuthHeaderName)
		if !strings.HasPrefix(header, common.AuthSchemePrefix) {
			writeError(w, http.StatusUnauthorized, "missing device token")
			return
		}
		token := strings.TrimPrefix(header, common.AuthSchemePrefix)

		id, err := s.devices.Authenticate(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid device token")
			return
		}

		if err := s.devices.Touch(r.Context(), id); err != nil {
			s.log.Warn(r.Context(), "failed to bump device last-seen", "device", id, "error", err)
		}

		ctx := context.WithValue(r.Context(), deviceIDKey, id)
		next(w, r.WithContext(ctx))
	}
}

package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterDevice_StoresToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/devices/register", r.URL.Path)
		var req registerRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "dev-1", req.DeviceID)
		_ = json.NewEncoder(w).Encode(registerResponse{Token: "tok-123"})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	token, err := c.RegisterDevice(context.Background(), "dev-1", "den")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)
	assert.Equal(t, "tok-123", c.token)
}

func TestListSaves_SendsBearerToken(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.Equal(t, "/api/v1/games/42/saves", r.URL.Path)
		_ = json.NewEncoder(w).Encode([]saveDTO{
			{SaveID: "sv-1", GameID: 42, Filename: "game.srm", Hash: "h", Size: 10, UpdatedAt: now, DeviceID: "other"},
		})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	c.SetToken("tok")
	saves, err := c.ListSaves(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, saves, 1)
	assert.Equal(t, "sv-1", saves[0].SaveID)
	assert.True(t, saves[0].UpdatedAt.Equal(now))
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrUnauthorized},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusServiceUnavailable, ErrUnavailable},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))
		c := NewHTTPClient(srv.URL)
		err := c.Ping(context.Background())
		assert.ErrorIs(t, err, tt.want, "status %d", tt.status)
		srv.Close()
	}
}

func TestPing_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from now on

	c := NewHTTPClient(srv.URL)
	err := c.Ping(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestBeginUploadAndCommit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/games/42/saves/game.srm/upload":
			_ = json.NewEncoder(w).Encode(uploadTicketDTO{SaveID: "sv-9", StorageKey: "k", URL: "http://storage/put"})
		case "/api/v1/games/42/saves/game.srm/commit":
			var req commitRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "sv-9", req.SaveID)
			_ = json.NewEncoder(w).Encode(saveDTO{SaveID: req.SaveID, GameID: 42, Filename: "game.srm", Hash: req.Hash, Size: req.Size})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	ctx := context.Background()

	ticket, err := c.BeginUpload(ctx, 42, "game.srm")
	require.NoError(t, err)
	assert.Equal(t, "sv-9", ticket.SaveID)

	save, err := c.CommitUpload(ctx, 42, "game.srm", UploadCommit{
		SaveID: ticket.SaveID, StorageKey: ticket.StorageKey, Hash: "h1", Size: 1024,
	})
	require.NoError(t, err)
	assert.Equal(t, "h1", save.Hash)
}

package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/edmarkov/savesync/internal/client/models"
	"github.com/edmarkov/savesync/internal/common"
)

// HTTPClient implements Client over the server's JSON API.
type HTTPClient struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewHTTPClient builds a client for the given base URL, e.g.
// "http://127.0.0.1:8080".
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// SetToken installs the device token carried on subsequent requests.
func (c *HTTPClient) SetToken(token string) {
	c.token = token
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

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

func (d saveDTO) toModel() models.RemoteSave {
	return models.RemoteSave{
		SaveID:    d.SaveID,
		GameID:    d.GameID,
		Filename:  d.Filename,
		Hash:      d.Hash,
		Size:      d.Size,
		UpdatedAt: d.UpdatedAt,
		DeviceID:  d.DeviceID,
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

type downloadTicketDTO struct {
	URL  string  `json:"url"`
	Save saveDTO `json:"save"`
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return c.do(ctx, http.MethodGet, "/api/v1/ping", nil, nil)
}

func (c *HTTPClient) RegisterDevice(ctx context.Context, deviceID, deviceName string) (string, error) {
	var resp registerResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/devices/register",
		registerRequest{DeviceID: deviceID, DeviceName: deviceName}, &resp)
	if err != nil {
		return "", err
	}
	c.token = resp.Token
	return resp.Token, nil
}

func (c *HTTPClient) ListSaves(ctx context.Context, gameID int64) ([]models.RemoteSave, error) {
	var dtos []saveDTO
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/games/%d/saves", gameID), nil, &dtos)
	if err != nil {
		return nil, err
	}
	result := make([]models.RemoteSave, 0, len(dtos))
	for _, d := range dtos {
		result = append(result, d.toModel())
	}
	return result, nil
}

func (c *HTTPClient) BeginUpload(ctx context.Context, gameID int64, filename string) (*UploadTicket, error) {
	var dto uploadTicketDTO
	path := fmt.Sprintf("/api/v1/games/%d/saves/%s/upload", gameID, url.PathEscape(filename))
	if err := c.do(ctx, http.MethodPost, path, nil, &dto); err != nil {
		return nil, err
	}
	return &UploadTicket{SaveID: dto.SaveID, StorageKey: dto.StorageKey, URL: dto.URL}, nil
}

func (c *HTTPClient) CommitUpload(ctx context.Context, gameID int64, filename string, commit UploadCommit) (*models.RemoteSave, error) {
	var dto saveDTO
	path := fmt.Sprintf("/api/v1/games/%d/saves/%s/commit", gameID, url.PathEscape(filename))
	req := commitRequest{
		SaveID:     commit.SaveID,
		StorageKey: commit.StorageKey,
		Hash:       commit.Hash,
		Size:       commit.Size,
		MTime:      commit.MTime,
		DeviceID:   commit.DeviceID,
	}
	if err := c.do(ctx, http.MethodPost, path, req, &dto); err != nil {
		return nil, err
	}
	save := dto.toModel()
	return &save, nil
}

func (c *HTTPClient) BeginDownload(ctx context.Context, gameID int64, filename string) (*DownloadTicket, error) {
	var dto downloadTicketDTO
	path := fmt.Sprintf("/api/v1/games/%d/saves/%s/download", gameID, url.PathEscape(filename))
	if err := c.do(ctx, http.MethodGet, path, nil, &dto); err != nil {
		return nil, err
	}
	return &DownloadTicket{URL: dto.URL, Save: dto.Save.toModel()}, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set(common.AuthHeaderName, common.AuthSchemePrefix+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return c.mapTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return mapStatus(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *HTTPClient) mapTransportError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

func mapStatus(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return ErrUnavailable
	default:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("api error: %s: %s", resp.Status, string(b))
	}
}

// Package netx moves save payloads through presigned object-storage URLs.
// The server hands out the URLs; the client only ever does plain HTTP here.
package netx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
)

// ErrObjectUnavailable indicates the storage endpoint could not be reached
// or answered with a retryable server-side status.
var ErrObjectUnavailable = errors.New("object storage unavailable")

var httpClient = &http.Client{}

// UploadToPresignedURL PUTs the given bytes to a presigned URL.
func UploadToPresignedURL(ctx context.Context, url string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := httpClient.Do(req)
	if err != nil {
		if isConnectivity(err) {
			return fmt.Errorf("%w: %v", ErrObjectUnavailable, err)
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: %s", ErrObjectUnavailable, resp.Status)
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("upload failed: %s; body: %s", resp.Status, string(b))
	}
	return nil
}

// DownloadFromPresignedURL GETs a presigned URL into an already-open file.
// The caller owns the file and decides whether the result is kept.
func DownloadFromPresignedURL(ctx context.Context, url string, dst *os.File) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		if isConnectivity(err) {
			return 0, fmt.Errorf("%w: %v", ErrObjectUnavailable, err)
		}
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return 0, fmt.Errorf("%w: %s", ErrObjectUnavailable, resp.Status)
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("download failed: %s; body: %s", resp.Status, string(b))
	}

	n, err := io.Copy(dst, resp.Body)
	if err != nil {
		return n, fmt.Errorf("%w: %v", ErrObjectUnavailable, err)
	}
	return n, nil
}

func isConnectivity(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

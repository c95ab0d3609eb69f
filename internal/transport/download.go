package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const downloadUserAgent = "Reelpress-Go/0.1.0"

// Downloader fetches transport file references to local paths. The workflow
// resolves a PhotoEvent's FileRef via Transport.FileURL, then pulls the bytes
// into the run directory with Fetch.
type Downloader struct {
	client *http.Client
}

// NewDownloader builds a downloader with the given per-request timeout.
func NewDownloader(timeout time.Duration) *Downloader {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Downloader{client: &http.Client{Timeout: timeout}}
}

// Fetch downloads url into dest, creating parent directories as needed. The
// destination is written atomically via a temp file so a failed download
// never leaves a partial image behind.
func (d *Downloader) Fetch(ctx context.Context, url, dest string) error {
	if d == nil || d.client == nil {
		return fmt.Errorf("downloader not initialized")
	}
	url = strings.TrimSpace(url)
	if url == "" {
		return fmt.Errorf("download url is empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build download request: %w", err)
	}
	req.Header.Set("User-Agent", downloadUserAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("download returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create download directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write download: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close download: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("finalize download: %w", err)
	}
	return nil
}

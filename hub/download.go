// MODUL: hub/download
// ZWECK: Download von Modell-Dateien von HuggingFace mit Retry
// INPUT: ModelSpec, Cache-Basisverzeichnis, Context
// OUTPUT: Vollstaendiger lokaler Modell-Cache
// NEBENEFFEKTE: Netzwerk-Zugriffe, schreibt Dateien in den Cache
// ABHAENGIGKEITEN: net/http
// HINWEISE: Downloads landen in einer .download-Datei und werden erst
//           nach Erfolg atomar umbenannt; Range-Header setzt
//           abgebrochene Downloads fort

package hub

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Download-Konstanten
const (
	DefaultChunkSize   = 1024 * 1024 // 1 MB
	MaxDownloadRetries = 3
	DownloadRetryDelay = 2 * time.Second
	DefaultBaseURL     = "https://huggingface.co"
)

// Client laedt Modell-Dateien von einem HuggingFace-kompatiblen Host
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// ClientOption konfiguriert einen Client
type ClientOption func(*Client)

// WithBaseURL setzt einen alternativen Host (z.B. einen Mirror)
func WithBaseURL(url string) ClientOption {
	return func(c *Client) { c.baseURL = url }
}

// WithToken setzt ein HuggingFace Access-Token fuer gated Repos
func WithToken(token string) ClientOption {
	return func(c *Client) { c.token = token }
}

// NewClient erstellt einen Download-Client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		// Kein Gesamt-Timeout: grosse Modell-Dateien duerfen lange
		// laufen, Abbruch passiert ueber den Context
		httpClient: &http.Client{},
		token:      os.Getenv("HF_TOKEN"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EnsureModel stellt sicher dass alle Dateien eines Modells lokal
// vorliegen und gibt deren Pfade zurueck. Bereits vollstaendige
// Dateien werden nicht erneut geladen.
func (c *Client) EnsureModel(ctx context.Context, spec ModelSpec, baseDir string) (ModelFiles, error) {
	files := CachedFiles(baseDir, spec.Name)

	if err := os.MkdirAll(CacheDir(baseDir, spec.Name), 0o755); err != nil {
		return ModelFiles{}, fmt.Errorf("cache dir: %w", err)
	}

	for local, remote := range spec.RemoteFiles {
		target := filepath.Join(CacheDir(baseDir, spec.Name), local)
		if fileComplete(target) {
			continue
		}

		url := fmt.Sprintf("%s/%s/resolve/main/%s", c.baseURL, spec.Repo, remote)
		slog.Info("downloading model file", "model", spec.Name, "file", local, "url", url)

		if err := c.downloadWithRetry(ctx, url, target); err != nil {
			return ModelFiles{}, fmt.Errorf("download %s: %w", local, err)
		}
	}

	return files, nil
}

// downloadWithRetry versucht den Download mehrfach mit fester Pause
func (c *Client) downloadWithRetry(ctx context.Context, url, targetPath string) error {
	var lastErr error
	for attempt := 0; attempt < MaxDownloadRetries; attempt++ {
		if attempt > 0 {
			slog.Warn("retrying download", "url", url, "attempt", attempt+1, "error", lastErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(DownloadRetryDelay):
			}
		}
		if err := c.doDownload(ctx, url, targetPath); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("download nach %d versuchen fehlgeschlagen: %w", MaxDownloadRetries, lastErr)
}

func (c *Client) doDownload(ctx context.Context, url, targetPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	// Teilweise geladene Datei fortsetzen
	var existingSize int64
	tmpPath := targetPath + ".download"
	if stat, err := os.Stat(tmpPath); err == nil {
		existingSize = stat.Size()
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", existingSize))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK && existingSize > 0:
		// Server ignoriert Range: von vorne beginnen
		existingSize = 0
		os.Remove(tmpPath)
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusPartialContent:
	default:
		return fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url)
	}

	flags := os.O_WRONLY | os.O_CREATE
	if existingSize > 0 {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	file, err := os.OpenFile(tmpPath, flags, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	buf := make([]byte, DefaultChunkSize)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := file.Write(buf[:n]); writeErr != nil {
				return writeErr
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
	}

	if err := file.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, targetPath)
}

package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/soundlens/soundlens/internal/logging"
)

// Downloader fetches remote audio via yt-dlp into the cache.
type Downloader struct {
	store   *Store
	logger  logging.Logger
	binary  string
	timeout time.Duration
}

// DownloaderConfig contains configuration for the downloader
type DownloaderConfig struct {
	Store   *Store
	Logger  logging.Logger
	Binary  string // yt-dlp binary, defaults to "yt-dlp" on PATH
	Timeout time.Duration
}

// NewDownloader creates a new media downloader
func NewDownloader(config *DownloaderConfig) (*Downloader, error) {
	if config.Store == nil {
		return nil, fmt.Errorf("media: store is required")
	}

	logger := config.Logger
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	binary := config.Binary
	if binary == "" {
		binary = "yt-dlp"
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	return &Downloader{
		store:   config.Store,
		logger:  logger,
		binary:  binary,
		timeout: timeout,
	}, nil
}

// Fetch returns the cache entry for url, downloading it on a cache miss.
// The audio track is extracted to WAV so the analysis pipeline can read
// it without a codec stage.
func (d *Downloader) Fetch(ctx context.Context, url string) (*Entry, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("media: empty url")
	}

	if cached, err := d.store.GetByURL(ctx, url); err == nil {
		d.logger.Debug("Media cache hit", logging.Fields{"url": url, "id": cached.ID})
		return cached, nil
	}

	id := uuid.NewString()
	outPath := filepath.Join(d.store.Dir(), id+".wav")

	d.logger.Info("Downloading media", logging.Fields{"url": url, "id": id})

	dlCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	title, err := d.download(dlCtx, url, outPath)
	if err != nil {
		return nil, err
	}

	entry := Entry{
		ID:        id,
		URL:       url,
		Title:     title,
		Path:      outPath,
		CreatedAt: time.Now(),
	}
	if err := d.store.Put(ctx, entry); err != nil {
		return nil, err
	}

	return &entry, nil
}

// download runs yt-dlp and returns the media title.
func (d *Downloader) download(ctx context.Context, url, outPath string) (string, error) {
	args := []string{
		"--no-playlist",
		"--extract-audio",
		"--audio-format", "wav",
		"--print", "after_move:title",
		"--output", strings.TrimSuffix(outPath, ".wav") + ".%(ext)s",
		url,
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, d.binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return "", fmt.Errorf("media: yt-dlp failed: %s: %w", detail, err)
		}
		return "", fmt.Errorf("media: yt-dlp failed: %w", err)
	}

	return strings.TrimSpace(stdout.String()), nil
}

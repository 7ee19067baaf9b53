package handler

import (
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// previewMaxAge is how long a preview frame stays on disk before the
// next clean sweep removes it.
const previewMaxAge = 15 * time.Minute

const previewJPEGQuality = 85

// PreviewStore writes verification preview frames as JPEG files with
// uuid names. Stale files are swept before each session so the tmp dir
// never grows unbounded.
type PreviewStore struct {
	dir    string
	maxAge time.Duration
	logger *slog.Logger
}

// NewPreviewStore creates the preview directory if needed.
func NewPreviewStore(dir string, logger *slog.Logger) (*PreviewStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create preview dir: %w", err)
	}
	return &PreviewStore{dir: dir, maxAge: previewMaxAge, logger: logger}, nil
}

// Dir returns the directory previews are written to.
func (p *PreviewStore) Dir() string {
	return p.dir
}

// Save writes the frame and returns its file name.
func (p *PreviewStore) Save(frame image.Image) (string, error) {
	name := uuid.New().String() + ".jpg"

	f, err := os.Create(filepath.Join(p.dir, name))
	if err != nil {
		return "", fmt.Errorf("create preview file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	if err := jpeg.Encode(f, frame, &jpeg.Options{Quality: previewJPEGQuality}); err != nil {
		return "", fmt.Errorf("encode preview: %w", err)
	}

	return name, nil
}

// CleanStale removes preview files older than the retention window.
// Best effort; a failed removal is logged and skipped.
func (p *PreviewStore) CleanStale() {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		p.logger.Warn("preview sweep failed", slog.String("error", err.Error()))
		return
	}

	cutoff := time.Now().Add(-p.maxAge)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".jpg") {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(p.dir, entry.Name())); err != nil {
			p.logger.Warn("stale preview not removed",
				slog.String("file", entry.Name()),
				slog.String("error", err.Error()))
		}
	}
}

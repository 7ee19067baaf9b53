package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"sync"
	"time"
)

// ErrNotOpen is returned when Capture is called outside an Open/Close cycle.
// That is a caller bug, not a transient condition.
var ErrNotOpen = errors.New("capture source not open")

// maxFrameBytes bounds a single snapshot read.
const maxFrameBytes = 20 * 1024 * 1024

// SnapshotSource pulls frames from an IP-camera style snapshot endpoint:
// every Capture is one GET returning a JPEG. Network hiccups and undecodable
// payloads are transient misses, not errors.
type SnapshotSource struct {
	url        string
	httpClient *http.Client

	mu   sync.Mutex
	open bool
}

// NewSnapshotSource creates a snapshot source for the given URL.
func NewSnapshotSource(url string, timeout time.Duration) *SnapshotSource {
	return &SnapshotSource{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Open marks the source as held. The HTTP transport needs no warm-up, but
// the open/close cycle still guards against interleaved sessions.
func (s *SnapshotSource) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open {
		return errors.New("capture source already open")
	}
	s.open = true
	return nil
}

// Close releases the source. Safe to call after a failed session.
func (s *SnapshotSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = false
	return nil
}

// Capture fetches and decodes one frame.
func (s *SnapshotSource) Capture(ctx context.Context) (image.Image, error) {
	s.mu.Lock()
	open := s.open
	s.mu.Unlock()
	if !open {
		return nil, ErrNotOpen
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create snapshot request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, nil // transient: camera unreachable
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, nil // transient: no signal
	}

	frame, _, err := image.Decode(io.LimitReader(resp.Body, maxFrameBytes))
	if err != nil {
		return nil, nil // transient: truncated or corrupt frame
	}

	return frame, nil
}

package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Config holds the configuration for the vision service client
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	RetryCount int
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		BaseURL:    "http://localhost:5005",
		Timeout:    30 * time.Second,
		RetryCount: 2,
	}
}

// Client talks to the face engine over HTTP. It implements Provider.
type Client struct {
	httpClient *http.Client
	config     Config
}

// NewClient creates a new vision client
func NewClient(config Config) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		config: config,
	}
}

type locateRequest struct {
	Img string `json:"img"`
}

type locateResponse struct {
	Regions []Region `json:"regions"`
}

type embedRequest struct {
	Img     string   `json:"img"`
	Regions []Region `json:"regions"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

type landmarksRequest struct {
	Img string `json:"img"`
}

type landmarksResponse struct {
	Found bool         `json:"found"`
	Eyes  *EyeContours `json:"eyes,omitempty"`
}

// LocateFaces calls POST /locate to find face regions in the image
func (c *Client) LocateFaces(ctx context.Context, image []byte) ([]Region, error) {
	req := locateRequest{Img: base64.StdEncoding.EncodeToString(image)}

	var resp locateResponse
	if err := c.doRequestWithRetry(ctx, "/locate", req, &resp); err != nil {
		return nil, err
	}

	return resp.Regions, nil
}

// Embed calls POST /embed to compute embeddings for the given regions
func (c *Client) Embed(ctx context.Context, image []byte, regions []Region) ([][]float32, error) {
	req := embedRequest{
		Img:     base64.StdEncoding.EncodeToString(image),
		Regions: regions,
	}

	var resp embedResponse
	if err := c.doRequestWithRetry(ctx, "/embed", req, &resp); err != nil {
		return nil, err
	}

	if len(resp.Embeddings) != len(regions) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d regions",
			ErrInvalidResponse, len(resp.Embeddings), len(regions))
	}

	return resp.Embeddings, nil
}

// EyeContours calls POST /landmarks to fetch eye-contour geometry.
// A frame with no detectable face yields (nil, nil).
func (c *Client) EyeContours(ctx context.Context, image []byte) (*EyeContours, error) {
	req := landmarksRequest{Img: base64.StdEncoding.EncodeToString(image)}

	var resp landmarksResponse
	if err := c.doRequestWithRetry(ctx, "/landmarks", req, &resp); err != nil {
		return nil, err
	}

	if !resp.Found || resp.Eyes == nil {
		return nil, nil
	}

	return resp.Eyes, nil
}

// maxBackoff is the maximum backoff duration for retries
const maxBackoff = 10 * time.Second

// calculateBackoff returns the exponential backoff for a given attempt:
// 500ms, 1s, 2s, ... capped at maxBackoff.
func calculateBackoff(attempt int) time.Duration {
	backoff := 500 * time.Millisecond
	for i := 1; i < attempt && backoff < maxBackoff; i++ {
		backoff *= 2
	}
	if backoff > maxBackoff {
		backoff = maxBackoff
	}
	return backoff
}

// doRequestWithRetry executes an HTTP request, retrying server-side failures
func (c *Client) doRequestWithRetry(ctx context.Context, path string, body interface{}, result interface{}) error {
	var lastErr error

	for attempt := 0; attempt <= c.config.RetryCount; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(calculateBackoff(attempt)):
			}
		}

		lastErr = c.doRequest(ctx, path, body, result)
		if lastErr == nil {
			return nil
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		// Client errors (4xx) will not improve on retry
		if isClientError(lastErr) {
			return lastErr
		}
	}

	return fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

// isClientError checks if the error is a 4xx client error
func isClientError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	for status := 400; status < 500; status++ {
		if strings.Contains(errStr, fmt.Sprintf("status %d", status)) {
			return true
		}
	}
	return false
}

// doRequest executes a single HTTP request
func (c *Client) doRequest(ctx context.Context, path string, body interface{}, result interface{}) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	url := c.config.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("vision service returned status %d: %s", resp.StatusCode, string(respBody))
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
	}

	return nil
}

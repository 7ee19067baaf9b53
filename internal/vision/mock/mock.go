// Package mock provides a deterministic vision provider for tests and
// local development without a running face service.
package mock

import (
	"context"
	"crypto/sha256"
	"math"
	"sync"

	"github.com/veriface/punchclock/internal/vision"
)

const embeddingDimension = 128

// minImageBytes rejects obviously truncated payloads, mirroring the
// real service's behavior on unreadable images.
const minImageBytes = 100

// Provider implements vision.Provider with hash-derived results: the
// same image always produces the same embedding, and every third
// landmark lookup reports closed eyes so liveness gates can pass.
type Provider struct {
	mu       sync.Mutex
	eyeCalls int
}

// New creates a mock provider.
func New() *Provider {
	return &Provider{}
}

// LocateFaces reports one face covering most of the frame.
func (p *Provider) LocateFaces(_ context.Context, image []byte) ([]vision.Region, error) {
	if len(image) < minImageBytes {
		return nil, nil
	}
	return []vision.Region{{Top: 10, Right: 90, Bottom: 90, Left: 10}}, nil
}

// Embed derives a unit-length embedding from the image hash, one per
// region.
func (p *Provider) Embed(_ context.Context, image []byte, regions []vision.Region) ([][]float32, error) {
	embedding := deriveEmbedding(image)
	out := make([][]float32, len(regions))
	for i := range regions {
		out[i] = embedding
	}
	return out, nil
}

// EyeContours alternates between open and closed eyes: calls 3, 6, 9…
// report a blink.
func (p *Provider) EyeContours(_ context.Context, image []byte) (*vision.EyeContours, error) {
	if len(image) < minImageBytes {
		return nil, nil
	}

	p.mu.Lock()
	p.eyeCalls++
	blink := p.eyeCalls%3 == 0
	p.mu.Unlock()

	ear := 0.30
	if blink {
		ear = 0.10
	}

	eye := [6]vision.Point{
		{X: 0, Y: 0},
		{X: 10, Y: 0},
		{X: 20, Y: 0},
		{X: 30, Y: 0},
		{X: 20, Y: ear * 30},
		{X: 10, Y: ear * 30},
	}
	return &vision.EyeContours{Left: eye, Right: eye}, nil
}

// deriveEmbedding expands the image hash into a normalized vector.
func deriveEmbedding(image []byte) []float32 {
	seed := sha256.Sum256(image)

	embedding := make([]float32, embeddingDimension)
	var norm float64
	for i := range embedding {
		b := seed[i%len(seed)]
		v := float64(b)/255.0 - 0.5
		// Spread repeated hash bytes apart so the vector is not periodic.
		v *= 1 + float64(i)/embeddingDimension
		embedding[i] = float32(v)
		norm += v * v
	}

	norm = math.Sqrt(norm)
	if norm == 0 {
		return embedding
	}
	for i := range embedding {
		embedding[i] = float32(float64(embedding[i]) / norm)
	}
	return embedding
}

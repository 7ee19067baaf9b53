package recognition

import (
	"context"
	"image"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/veriface/punchclock/internal/domain"
	"github.com/veriface/punchclock/internal/metrics"
	"github.com/veriface/punchclock/internal/repository"
	"github.com/veriface/punchclock/internal/vision"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMetrics() *metrics.Metrics {
	return metrics.New(prometheus.NewRegistry())
}

func testFrame() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 16, 16))
}

// fakeTemplateRepo is an in-memory TemplateRepositoryInterface.
type fakeTemplateRepo struct {
	records []repository.TemplateRecord
	listErr error
	scans   int
}

func (f *fakeTemplateRepo) Create(_ context.Context, employeeID uuid.UUID, embedding []float32) (*domain.FaceTemplate, error) {
	template := &domain.FaceTemplate{
		ID:         uuid.New(),
		EmployeeID: employeeID,
		Embedding:  embedding,
		CreatedAt:  time.Now(),
	}
	f.records = append(f.records, repository.TemplateRecord{
		ID:         template.ID,
		EmployeeID: employeeID,
		Embedding:  domain.EncodeEmbedding(embedding),
		CreatedAt:  template.CreatedAt,
	})
	return template, nil
}

func (f *fakeTemplateRepo) ListAll(_ context.Context) ([]repository.TemplateRecord, error) {
	f.scans++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.records, nil
}

func (f *fakeTemplateRepo) Delete(_ context.Context, _ uuid.UUID) error {
	return nil
}

func templateRecord(employeeID uuid.UUID, embedding []float32) repository.TemplateRecord {
	return repository.TemplateRecord{
		ID:         uuid.New(),
		EmployeeID: employeeID,
		Embedding:  domain.EncodeEmbedding(embedding),
		CreatedAt:  time.Now(),
	}
}

// fakeProvider scripts the vision collaborator. Embeddings and eye
// contours are consumed one entry per call; an exhausted queue repeats
// the last entry.
type fakeProvider struct {
	mu sync.Mutex

	regions   []vision.Region
	locateErr error

	embeddings [][]float32
	embedCalls int

	eyes     []*vision.EyeContours
	eyeCalls int
}

func (f *fakeProvider) LocateFaces(_ context.Context, _ []byte) ([]vision.Region, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.locateErr != nil {
		return nil, f.locateErr
	}
	return f.regions, nil
}

func (f *fakeProvider) Embed(_ context.Context, _ []byte, regions []vision.Region) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.embeddings) == 0 {
		return nil, nil
	}
	i := f.embedCalls
	if i >= len(f.embeddings) {
		i = len(f.embeddings) - 1
	}
	f.embedCalls++
	out := make([][]float32, 0, len(regions))
	for range regions {
		out = append(out, f.embeddings[i])
	}
	return out, nil
}

func (f *fakeProvider) EyeContours(_ context.Context, _ []byte) (*vision.EyeContours, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.eyes) == 0 {
		return nil, nil
	}
	i := f.eyeCalls
	if i >= len(f.eyes) {
		i = len(f.eyes) - 1
	}
	f.eyeCalls++
	return f.eyes[i], nil
}

// contoursWithEAR builds eye contours whose averaged eye-aspect-ratio
// equals the given value: horizontal span 1, both vertical pairs at
// the target distance.
func contoursWithEAR(ear float64) *vision.EyeContours {
	eye := [6]vision.Point{
		{X: 0, Y: 0},
		{X: 0.3, Y: 0},
		{X: 0.7, Y: 0},
		{X: 1, Y: 0},
		{X: 0.7, Y: ear},
		{X: 0.3, Y: ear},
	}
	return &vision.EyeContours{Left: eye, Right: eye}
}

// fakeSource is a scripted capture device. Captures indexed in missOn
// return a transient miss; everything else yields a fresh frame.
type fakeSource struct {
	mu       sync.Mutex
	open     bool
	opens    int
	closes   int
	captures int
	missOn   map[int]bool
	openErr  error
}

func (f *fakeSource) Open() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return f.openErr
	}
	f.open = true
	f.opens++
	return nil
}

func (f *fakeSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = false
	f.closes++
	return nil
}

func (f *fakeSource) Capture(_ context.Context) (image.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	index := f.captures
	f.captures++
	if f.missOn[index] {
		return nil, nil
	}
	return testFrame(), nil
}

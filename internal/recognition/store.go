package recognition

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/coder/hnsw"
	"github.com/google/uuid"

	"github.com/veriface/punchclock/internal/domain"
	"github.com/veriface/punchclock/internal/metrics"
	"github.com/veriface/punchclock/internal/repository"
)

// hnswMaxNeighbors is the M parameter of the graph. The enrolled
// population is small, so a modest fan-out is plenty.
const hnswMaxNeighbors = 16

// storedTemplate is one decoded (embedding, owner) pair.
type storedTemplate struct {
	EmployeeID uuid.UUID
	Vector     []float32
}

// indexSnapshot is an immutable view of the loaded templates. Readers
// grab the current snapshot atomically; a reload builds a fresh one and
// swaps it in, so a concurrent matcher never observes a half-populated
// index.
type indexSnapshot struct {
	templates []storedTemplate
	graph     *hnsw.Graph[int]
}

// TemplateStore caches all enrolled face templates in memory behind an
// approximate nearest-neighbor index. Load is idempotent: one
// persistence scan per process lifetime until Invalidate.
//
// Load fails soft. If the persistence layer is unreachable the store
// stays empty and every probe is denied; that is logged and counted
// rather than surfaced to the caller.
type TemplateStore struct {
	repo    repository.TemplateRepositoryInterface
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu       sync.Mutex
	loaded   bool
	snapshot atomic.Pointer[indexSnapshot]
}

// NewTemplateStore creates an unloaded template store.
func NewTemplateStore(repo repository.TemplateRepositoryInterface, logger *slog.Logger, m *metrics.Metrics) *TemplateStore {
	s := &TemplateStore{
		repo:    repo,
		logger:  logger,
		metrics: m,
	}
	s.snapshot.Store(&indexSnapshot{})
	return s
}

// Load populates the in-memory index from the persistent store. A no-op
// after the first successful call until Invalidate. Never returns an
// error for storage failures; callers treat an empty store as deny-all.
func (s *TemplateStore) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return
	}

	records, err := s.repo.ListAll(ctx)
	if err != nil {
		s.logger.Error("template store load failed, denying all probes",
			slog.String("error", err.Error()))
		s.metrics.TemplateLoadFailures.Inc()
		s.swap(nil)
		s.loaded = true
		return
	}

	templates := make([]storedTemplate, 0, len(records))
	for _, rec := range records {
		vector, err := domain.DecodeEmbedding(rec.Embedding)
		if err != nil {
			s.logger.Warn("skipping undecodable template",
				slog.String("template_id", rec.ID.String()),
				slog.String("employee_id", rec.EmployeeID.String()),
				slog.String("error", err.Error()))
			s.metrics.TemplateDecodeSkips.Inc()
			continue
		}
		templates = append(templates, storedTemplate{
			EmployeeID: rec.EmployeeID,
			Vector:     vector,
		})
	}

	s.swap(templates)
	s.loaded = true

	s.logger.Info("template store loaded",
		slog.Int("templates", len(templates)),
		slog.Int("skipped", len(records)-len(templates)))
}

// swap builds a fresh snapshot and publishes it atomically.
func (s *TemplateStore) swap(templates []storedTemplate) {
	snap := &indexSnapshot{templates: templates}

	if len(templates) > 0 {
		g := hnsw.NewGraph[int]()
		g.M = hnswMaxNeighbors
		g.Ml = 1.0 / float64(hnswMaxNeighbors)
		g.Distance = hnsw.EuclideanDistance
		for i := range templates {
			g.Add(hnsw.MakeNode(i, templates[i].Vector))
		}
		snap.graph = g
	}

	s.snapshot.Store(snap)
	s.metrics.TemplateStoreSize.Set(float64(len(templates)))
}

// Invalidate forces the next Load to rescan the persistent store.
// Matching against the stale snapshot continues until that load lands.
func (s *TemplateStore) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = false
}

// Size reports the number of usable templates in the current snapshot.
func (s *TemplateStore) Size() int {
	return len(s.snapshot.Load().templates)
}

// nearestCandidates is how many approximate neighbors we pull before
// re-ranking with exact distances.
const nearestCandidates = 3

// Nearest returns the owner and exact Euclidean distance of the
// globally closest template to the probe. ok is false when the store
// is empty.
func (s *TemplateStore) Nearest(probe []float32) (uuid.UUID, float64, bool) {
	snap := s.snapshot.Load()
	if snap.graph == nil {
		return uuid.Nil, 0, false
	}

	neighbors := snap.graph.Search(probe, nearestCandidates)
	if len(neighbors) == 0 {
		return uuid.Nil, 0, false
	}

	// Re-rank the approximate candidates by exact distance; first-seen
	// wins on an exact tie.
	best := -1
	bestDist := 0.0
	for _, n := range neighbors {
		dist := euclideanDistance(probe, snap.templates[n.Key].Vector)
		if best == -1 || dist < bestDist {
			best = n.Key
			bestDist = dist
		}
	}

	return snap.templates[best].EmployeeID, bestDist, true
}

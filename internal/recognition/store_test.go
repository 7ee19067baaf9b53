package recognition

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateStore_LoadIsIdempotent(t *testing.T) {
	employeeID := uuid.New()
	repo := &fakeTemplateRepo{}
	repo.records = append(repo.records,
		templateRecord(employeeID, []float32{1, 0, 0}),
		templateRecord(employeeID, []float32{0, 1, 0}),
	)

	store := NewTemplateStore(repo, testLogger(), testMetrics())

	store.Load(context.Background())
	store.Load(context.Background())
	store.Load(context.Background())

	assert.Equal(t, 1, repo.scans, "repeated loads must hit the store once")
	assert.Equal(t, 2, store.Size())

	store.Invalidate()
	store.Load(context.Background())

	assert.Equal(t, 2, repo.scans, "invalidate forces a rescan")
}

func TestTemplateStore_LoadFailsSoft(t *testing.T) {
	repo := &fakeTemplateRepo{listErr: errors.New("connection refused")}
	store := NewTemplateStore(repo, testLogger(), testMetrics())

	store.Load(context.Background())

	assert.Equal(t, 0, store.Size())
	_, _, found := store.Nearest([]float32{1, 2, 3})
	assert.False(t, found, "an empty store denies every probe")

	// The failed load is cached like a successful one; recovery needs
	// an explicit invalidate.
	store.Load(context.Background())
	assert.Equal(t, 1, repo.scans)
}

func TestTemplateStore_SkipsUndecodableRecords(t *testing.T) {
	good := uuid.New()
	repo := &fakeTemplateRepo{}
	repo.records = append(repo.records, templateRecord(good, []float32{1, 0, 0}))
	corrupt := templateRecord(uuid.New(), []float32{0, 1, 0})
	corrupt.Embedding = "not-base64!"
	repo.records = append(repo.records, corrupt)
	repo.records = append(repo.records, templateRecord(good, []float32{0, 0, 1}))

	store := NewTemplateStore(repo, testLogger(), testMetrics())
	store.Load(context.Background())

	assert.Equal(t, 2, store.Size(), "corrupt record is skipped, not fatal")

	owner, distance, found := store.Nearest([]float32{1, 0, 0})
	require.True(t, found)
	assert.Equal(t, good, owner)
	assert.InDelta(t, 0, distance, 1e-6)
}

func TestTemplateStore_NearestPicksGlobalMinimum(t *testing.T) {
	near := uuid.New()
	far := uuid.New()
	repo := &fakeTemplateRepo{}
	repo.records = append(repo.records,
		templateRecord(far, []float32{5, 5, 5, 5}),
		templateRecord(near, []float32{1, 0, 0, 0}),
		templateRecord(far, []float32{3, 3, 3, 3}),
	)

	store := NewTemplateStore(repo, testLogger(), testMetrics())
	store.Load(context.Background())

	owner, distance, found := store.Nearest([]float32{1.1, 0, 0, 0})
	require.True(t, found)
	assert.Equal(t, near, owner)
	assert.InDelta(t, 0.1, distance, 1e-6)
}

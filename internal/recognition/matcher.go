package recognition

import (
	"math"

	"github.com/google/uuid"
)

// DefaultTolerance is the maximum accepted Euclidean distance between a
// probe embedding and an enrolled template.
const DefaultTolerance = 0.45

// Matcher answers "whose face is this" against the template store.
type Matcher struct {
	store     *TemplateStore
	tolerance float64
}

// NewMatcher creates a matcher over the given store. A tolerance of
// zero or less falls back to DefaultTolerance.
func NewMatcher(store *TemplateStore, tolerance float64) *Matcher {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Matcher{store: store, tolerance: tolerance}
}

// BestMatch returns the employee owning the globally nearest template,
// but only when that distance is strictly below the tolerance. The
// returned distance is the nearest one regardless of acceptance; an
// empty store reports ok=false with distance 0.
func (m *Matcher) BestMatch(probe []float32) (uuid.UUID, float64, bool) {
	employeeID, distance, found := m.store.Nearest(probe)
	if !found {
		return uuid.Nil, 0, false
	}
	if distance >= m.tolerance {
		return uuid.Nil, distance, false
	}
	return employeeID, distance, true
}

// euclideanDistance computes the L2 distance between two vectors.
// Mismatched lengths compare only the common prefix; enrollment and
// probing go through the same embedding collaborator so lengths agree
// in practice.
func euclideanDistance(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

package capture

import (
	"context"
	"image"
)

// Source is the capture collaborator: a serially-reusable frame source.
// Capture reports (nil, nil) on a transient miss so callers can treat a
// dropped frame as a consumed attempt rather than a failure. At most one
// open/read/close cycle is active at a time; a verification session holds
// the source for its whole run.
type Source interface {
	Open() error
	Close() error
	Capture(ctx context.Context) (image.Image, error)
}

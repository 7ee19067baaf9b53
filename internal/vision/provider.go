package vision

import "context"

// Provider is the embedding collaborator: it locates faces, turns face
// regions into embeddings, and exposes eye-contour geometry for the blink
// check. Implementations wrap an external face engine; the core never
// depends on a concrete one.
type Provider interface {
	// LocateFaces returns the face regions found in the JPEG image, in the
	// image's own coordinate space.
	LocateFaces(ctx context.Context, image []byte) ([]Region, error)

	// Embed computes one embedding per region.
	Embed(ctx context.Context, image []byte, regions []Region) ([][]float32, error)

	// EyeContours returns the six-point contour of each eye for the most
	// prominent face, or nil when no face (or no usable landmarks) is found.
	EyeContours(ctx context.Context, image []byte) (*EyeContours, error)
}

// Region is a face bounding box as top/right/bottom/left pixel offsets,
// expressed in the coordinate space of the image it was detected in.
type Region struct {
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}

// Scale maps the region into an image scaled by the given factor. Detection
// runs on downscaled frames; overlays need the original coordinate space.
func (r Region) Scale(factor float64) Region {
	return Region{
		Top:    int(float64(r.Top) * factor),
		Right:  int(float64(r.Right) * factor),
		Bottom: int(float64(r.Bottom) * factor),
		Left:   int(float64(r.Left) * factor),
	}
}

// Point is a landmark coordinate in pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// EyeContours holds the six-point contour of each eye, ordered p1..p6
// around the eye as the aspect-ratio formula expects.
type EyeContours struct {
	Left  [6]Point `json:"left_eye"`
	Right [6]Point `json:"right_eye"`
}

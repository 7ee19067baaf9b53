package recognition

import (
	"context"
	"image"
	"log/slog"
	"math"
	"time"

	"github.com/veriface/punchclock/internal/capture"
	"github.com/veriface/punchclock/internal/vision"
)

// Liveness defaults. The threshold marks a frame as "eyes closed"; a
// single closed-eye sample within the budget counts as a blink.
const (
	DefaultBlinkThreshold  = 0.19
	DefaultLivenessSamples = 6
	DefaultLivenessDelay   = 150 * time.Millisecond
)

// LivenessConfig tunes the blink gate.
type LivenessConfig struct {
	BlinkThreshold float64
	Samples        int
	SampleDelay    time.Duration
}

// DefaultLivenessConfig returns the reference gate parameters.
func DefaultLivenessConfig() LivenessConfig {
	return LivenessConfig{
		BlinkThreshold: DefaultBlinkThreshold,
		Samples:        DefaultLivenessSamples,
		SampleDelay:    DefaultLivenessDelay,
	}
}

// LivenessGate checks a short sequence of live frames for an eye
// closure. A photo held up to the camera never closes its eyes, so
// requiring one closed-eye sample filters the cheap spoofs. False
// negatives on a real person are accepted as the safety margin.
type LivenessGate struct {
	provider vision.Provider
	config   LivenessConfig
	logger   *slog.Logger
}

// NewLivenessGate creates a blink gate.
func NewLivenessGate(provider vision.Provider, config LivenessConfig, logger *slog.Logger) *LivenessGate {
	if config.Samples <= 0 {
		config.Samples = DefaultLivenessSamples
	}
	if config.BlinkThreshold <= 0 {
		config.BlinkThreshold = DefaultBlinkThreshold
	}
	return &LivenessGate{provider: provider, config: config, logger: logger}
}

// Check samples frames from the source until one shows closed eyes or
// the budget runs out. Frames without a detectable face consume a
// sample and move on. The last captured frame is returned either way
// so the caller has something to show.
func (g *LivenessGate) Check(ctx context.Context, source capture.Source) (bool, image.Image) {
	var lastFrame image.Image

	for sample := 0; sample < g.config.Samples; sample++ {
		if sample > 0 && !sleepCtx(ctx, g.config.SampleDelay) {
			return false, lastFrame
		}

		frame, err := source.Capture(ctx)
		if err != nil || frame == nil {
			continue
		}
		lastFrame = frame

		frameBytes, err := encodeFrame(frame)
		if err != nil {
			continue
		}

		eyes, err := g.provider.EyeContours(ctx, frameBytes)
		if err != nil {
			g.logger.Debug("liveness landmark lookup failed",
				slog.Int("sample", sample),
				slog.String("error", err.Error()))
			continue
		}
		if eyes == nil {
			continue
		}

		ear := averageEAR(eyes)
		if ear < g.config.BlinkThreshold {
			g.logger.Debug("blink detected",
				slog.Int("sample", sample),
				slog.Float64("ear", ear))
			return true, lastFrame
		}
	}

	return false, lastFrame
}

// averageEAR averages the eye-aspect-ratio of both eyes.
func averageEAR(eyes *vision.EyeContours) float64 {
	return (eyeAspectRatio(eyes.Left) + eyeAspectRatio(eyes.Right)) / 2
}

// eyeAspectRatio computes (|p2-p6| + |p3-p5|) / (2*|p1-p4|) over the
// six-point eye contour. The ratio collapses toward zero as the eyelid
// closes and the vertical distances vanish.
func eyeAspectRatio(eye [6]vision.Point) float64 {
	vertical := pointDistance(eye[1], eye[5]) + pointDistance(eye[2], eye[4])
	horizontal := pointDistance(eye[0], eye[3])
	if horizontal == 0 {
		return 1 // degenerate contour, treat as wide open
	}
	return vertical / (2 * horizontal)
}

func pointDistance(a, b vision.Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// sleepCtx waits for d or until the context is done. Reports false on
// cancellation.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

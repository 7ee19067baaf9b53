package recognition

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"log/slog"
	"time"

	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"

	"github.com/veriface/punchclock/internal/capture"
	"github.com/veriface/punchclock/internal/metrics"
	"github.com/veriface/punchclock/internal/vision"
)

// Session defaults: three attempts, two of which must agree.
const (
	DefaultRequiredAttempts = 3
	DefaultMinMatches       = 2
	DefaultAttemptDelay     = 200 * time.Millisecond
	DefaultDownscaleFactor  = 0.5
)

// jpegQuality for frames sent to the vision service.
const jpegQuality = 85

// SessionConfig tunes a verification session.
type SessionConfig struct {
	// RequiredAttempts is the capture budget. Every attempt is consumed
	// whether or not it produces a usable frame.
	RequiredAttempts int
	// MinMatches is how many attempts must agree on the same employee.
	// A plurality below this is "unknown", not a match.
	MinMatches int
	// AttemptDelay spaces attempts out so the sensor is not hammered.
	AttemptDelay time.Duration
	// DownscaleFactor shrinks frames before detection. Smaller frames
	// detect faster at some cost in embedding precision.
	DownscaleFactor float64
}

// DefaultSessionConfig returns the reference session parameters.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		RequiredAttempts: DefaultRequiredAttempts,
		MinMatches:       DefaultMinMatches,
		AttemptDelay:     DefaultAttemptDelay,
		DownscaleFactor:  DefaultDownscaleFactor,
	}
}

// Result is the outcome of one verification session. EmployeeID is
// uuid.Nil unless Matched. Preview is the representative frame for the
// caller to display, Region (if set) is the detected face's bounding
// box in the preview's original coordinate space.
type Result struct {
	EmployeeID     uuid.UUID
	Matched        bool
	LivenessPassed bool
	Preview        image.Image
	Region         *vision.Region
}

// Session runs the full verification pipeline: liveness gate first,
// then a bounded number of capture/detect/embed/match attempts with
// majority voting over the per-attempt matches.
type Session struct {
	store    *TemplateStore
	matcher  *Matcher
	gate     *LivenessGate
	provider vision.Provider
	source   capture.Source
	config   SessionConfig
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewSession wires a verification session. Zero config fields fall
// back to the defaults.
func NewSession(
	store *TemplateStore,
	matcher *Matcher,
	gate *LivenessGate,
	provider vision.Provider,
	source capture.Source,
	config SessionConfig,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Session {
	if config.RequiredAttempts <= 0 {
		config.RequiredAttempts = DefaultRequiredAttempts
	}
	if config.MinMatches <= 0 {
		config.MinMatches = DefaultMinMatches
	}
	if config.DownscaleFactor <= 0 || config.DownscaleFactor > 1 {
		config.DownscaleFactor = DefaultDownscaleFactor
	}
	return &Session{
		store:    store,
		matcher:  matcher,
		gate:     gate,
		provider: provider,
		source:   source,
		config:   config,
		logger:   logger,
		metrics:  m,
	}
}

// Run executes one verification session. It never fails hard: device
// and detection hiccups consume attempts, and an exhausted budget is a
// normal negative outcome.
func (s *Session) Run(ctx context.Context) Result {
	start := time.Now()
	defer func() {
		s.metrics.VerificationDuration.Observe(time.Since(start).Seconds())
	}()

	s.store.Load(ctx)

	if err := s.source.Open(); err != nil {
		s.logger.Error("capture source unavailable", slog.String("error", err.Error()))
		s.metrics.Verifications.WithLabelValues(metrics.OutcomeNoMatch).Inc()
		return Result{}
	}
	defer func() {
		_ = s.source.Close()
	}()

	passed, lastFrame := s.gate.Check(ctx, s.source)
	if !passed {
		s.logger.Info("liveness gate failed, skipping identity matching")
		s.metrics.Verifications.WithLabelValues(metrics.OutcomeLivenessFailed).Inc()
		return Result{Preview: s.previewFrame(ctx, lastFrame)}
	}

	votes := make(map[uuid.UUID]int)
	var region *vision.Region

	for attempt := 0; attempt < s.config.RequiredAttempts; attempt++ {
		if attempt > 0 && !sleepCtx(ctx, s.config.AttemptDelay) {
			break
		}

		frame, err := s.source.Capture(ctx)
		if err != nil || frame == nil {
			continue
		}
		lastFrame = frame

		employeeID, attemptRegion, ok := s.matchFrame(ctx, frame, attempt)
		if !ok {
			continue
		}

		votes[employeeID]++
		region = attemptRegion
	}

	winner, count := topVote(votes)
	result := Result{
		LivenessPassed: true,
		Preview:        s.previewFrame(ctx, lastFrame),
	}

	if count >= s.config.MinMatches {
		result.EmployeeID = winner
		result.Matched = true
		result.Region = region
		s.logger.Info("verification matched",
			slog.String("employee_id", winner.String()),
			slog.Int("votes", count),
			slog.Int("attempts", s.config.RequiredAttempts))
		s.metrics.Verifications.WithLabelValues(metrics.OutcomeMatched).Inc()
		return result
	}

	s.logger.Info("verification below match threshold",
		slog.Int("best_votes", count),
		slog.Int("min_matches", s.config.MinMatches))
	s.metrics.Verifications.WithLabelValues(metrics.OutcomeNoMatch).Inc()
	return result
}

// matchFrame runs one attempt: downscale, detect, embed the first
// detected face, and query the matcher. The returned region is scaled
// back to the original frame's coordinate space.
func (s *Session) matchFrame(ctx context.Context, frame image.Image, attempt int) (uuid.UUID, *vision.Region, bool) {
	scaled := downscale(frame, s.config.DownscaleFactor)

	frameBytes, err := encodeFrame(scaled)
	if err != nil {
		return uuid.Nil, nil, false
	}

	regions, err := s.provider.LocateFaces(ctx, frameBytes)
	if err != nil {
		s.logger.Debug("face detection failed",
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()))
		return uuid.Nil, nil, false
	}
	if len(regions) == 0 {
		return uuid.Nil, nil, false
	}

	embeddings, err := s.provider.Embed(ctx, frameBytes, regions[:1])
	if err != nil || len(embeddings) == 0 {
		return uuid.Nil, nil, false
	}

	employeeID, distance, ok := s.matcher.BestMatch(embeddings[0])
	if !ok {
		return uuid.Nil, nil, false
	}

	s.logger.Debug("attempt matched",
		slog.Int("attempt", attempt),
		slog.String("employee_id", employeeID.String()),
		slog.Float64("distance", distance))

	original := regions[0].Scale(1 / s.config.DownscaleFactor)
	return employeeID, &original, true
}

// previewFrame captures one more frame for display, falling back to
// the last frame seen during the session.
func (s *Session) previewFrame(ctx context.Context, fallback image.Image) image.Image {
	frame, err := s.source.Capture(ctx)
	if err != nil || frame == nil {
		return fallback
	}
	return frame
}

// topVote returns the identity with the most attempt-matches.
func topVote(votes map[uuid.UUID]int) (uuid.UUID, int) {
	var winner uuid.UUID
	best := 0
	for id, count := range votes {
		if count > best {
			winner = id
			best = count
		}
	}
	return winner, best
}

// downscale resizes the frame by the given factor using bilinear
// interpolation. Factors outside (0,1) leave the frame untouched.
func downscale(frame image.Image, factor float64) image.Image {
	if factor <= 0 || factor >= 1 {
		return frame
	}

	bounds := frame.Bounds()
	width := int(float64(bounds.Dx()) * factor)
	height := int(float64(bounds.Dy()) * factor)
	if width < 1 || height < 1 {
		return frame
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), frame, bounds, xdraw.Over, nil)
	return dst
}

// encodeFrame serializes a frame as JPEG for the vision service.
func encodeFrame(frame image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/veriface/punchclock/internal/admin"
	"github.com/veriface/punchclock/internal/api"
	"github.com/veriface/punchclock/internal/api/handler"
	"github.com/veriface/punchclock/internal/capture"
	"github.com/veriface/punchclock/internal/config"
	"github.com/veriface/punchclock/internal/metrics"
	"github.com/veriface/punchclock/internal/recognition"
	"github.com/veriface/punchclock/internal/repository"
	"github.com/veriface/punchclock/internal/timesheet"
	"github.com/veriface/punchclock/internal/vision"
	visionmock "github.com/veriface/punchclock/internal/vision/mock"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	logger.Info("starting punchclock",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	employeeRepo := repository.NewEmployeeRepository(pool)
	templateRepo := repository.NewTemplateRepository(pool)
	attendanceRepo := repository.NewAttendanceRepository(pool)

	m := metrics.New(prometheus.DefaultRegisterer)

	var provider vision.Provider
	if cfg.VisionURL == "mock" {
		logger.Warn("using the deterministic mock vision provider")
		provider = visionmock.New()
	} else {
		provider = vision.NewClient(vision.Config{
			BaseURL:    cfg.VisionURL,
			Timeout:    30 * time.Second,
			RetryCount: 2,
		})
	}

	source := capture.NewSnapshotSource(cfg.CameraURL, cfg.CameraTimeout)

	store := recognition.NewTemplateStore(templateRepo, logger, m)
	matcher := recognition.NewMatcher(store, cfg.MatchTolerance)
	gate := recognition.NewLivenessGate(provider, recognition.LivenessConfig{
		BlinkThreshold: cfg.BlinkThreshold,
		Samples:        cfg.LivenessSamples,
		SampleDelay:    cfg.LivenessDelay,
	}, logger)
	session := recognition.NewSession(store, matcher, gate, provider, source, recognition.SessionConfig{
		RequiredAttempts: cfg.RequiredAttempts,
		MinMatches:       cfg.MinMatches,
		AttemptDelay:     cfg.AttemptDelay,
		DownscaleFactor:  cfg.DownscaleFactor,
	}, logger, m)

	timesheetService := timesheet.NewService(attendanceRepo, employeeRepo, logger, m)

	jwtService := admin.NewJWTService(cfg.AdminJWTSecret, "punchclock", cfg.AdminTokenTTL)
	adminService := admin.NewService(cfg.AdminUser, cfg.AdminPassword, jwtService, logger)

	previews, err := handler.NewPreviewStore(cfg.PreviewDir, logger)
	if err != nil {
		return fmt.Errorf("init preview store: %w", err)
	}

	// Warm the template cache; a failure degrades to deny-all and is
	// already logged and counted inside Load.
	store.Load(ctx)

	router := api.NewRouter(logger, &api.Dependencies{
		DB:         pool,
		Employees:  employeeRepo,
		Templates:  templateRepo,
		Attendance: attendanceRepo,
		Timesheet:  timesheetService,
		Session:    session,
		Store:      store,
		Admin:      adminService,
		Provider:   provider,
		Previews:   previews,
	})
	router.Setup()

	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down server...")
	if err := router.Shutdown(); err != nil {
		logger.Error("shutdown error", slog.Any("error", err))
	}

	<-shutdownCtx.Done()
	logger.Info("server stopped")

	return nil
}

package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"ENV" default:"development"`

	// Database
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// Collaborators
	VisionURL     string        `envconfig:"VISION_URL" default:"http://localhost:5005"`
	CameraURL     string        `envconfig:"CAMERA_URL" default:"http://localhost:8080/snapshot"`
	CameraTimeout time.Duration `envconfig:"CAMERA_TIMEOUT" default:"5s"`

	// Verification
	MatchTolerance   float64       `envconfig:"MATCH_TOLERANCE" default:"0.45"`
	RequiredAttempts int           `envconfig:"REQUIRED_ATTEMPTS" default:"3"`
	MinMatches       int           `envconfig:"MIN_MATCHES" default:"2"`
	AttemptDelay     time.Duration `envconfig:"ATTEMPT_DELAY" default:"200ms"`
	DownscaleFactor  float64       `envconfig:"DOWNSCALE_FACTOR" default:"0.5"`

	// Liveness
	BlinkThreshold  float64       `envconfig:"BLINK_THRESHOLD" default:"0.19"`
	LivenessSamples int           `envconfig:"LIVENESS_SAMPLES" default:"6"`
	LivenessDelay   time.Duration `envconfig:"LIVENESS_DELAY" default:"150ms"`

	// Previews
	PreviewDir string `envconfig:"PREVIEW_DIR" default:"./tmp/previews"`

	// Admin
	AdminUser      string        `envconfig:"ADMIN_USER" default:"admin"`
	AdminPassword  string        `envconfig:"ADMIN_PASSWORD" required:"true"`
	AdminJWTSecret string        `envconfig:"ADMIN_JWT_SECRET" required:"true"`
	AdminTokenTTL  time.Duration `envconfig:"ADMIN_TOKEN_TTL" default:"24h"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.MinMatches > c.RequiredAttempts {
		return fmt.Errorf("MIN_MATCHES (%d) must not exceed REQUIRED_ATTEMPTS (%d)", c.MinMatches, c.RequiredAttempts)
	}
	if c.DownscaleFactor <= 0 || c.DownscaleFactor > 1 {
		return fmt.Errorf("DOWNSCALE_FACTOR must be in (0, 1], got %g", c.DownscaleFactor)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

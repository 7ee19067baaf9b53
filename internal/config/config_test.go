package config

import (
	"os"
	"testing"
)

func TestLoad(t *testing.T) {
	required := map[string]string{
		"DATABASE_URL":     "postgres://localhost/punchclock",
		"ADMIN_PASSWORD":   "hunter2",
		"ADMIN_JWT_SECRET": "secret123",
	}

	tests := []struct {
		name    string
		envVars map[string]string
		wantErr bool
		check   func(*Config) bool
	}{
		{
			name: "loads with all required vars",
			envVars: map[string]string{
				"PORT":             "8080",
				"ENV":              "production",
				"DATABASE_URL":     "postgres://localhost/punchclock",
				"ADMIN_PASSWORD":   "hunter2",
				"ADMIN_JWT_SECRET": "secret123",
				"MATCH_TOLERANCE":  "0.4",
			},
			wantErr: false,
			check: func(c *Config) bool {
				return c.Port == 8080 &&
					c.Environment == "production" &&
					c.DatabaseURL == "postgres://localhost/punchclock" &&
					c.MatchTolerance == 0.4
			},
		},
		{
			name:    "uses defaults when optional vars missing",
			envVars: required,
			wantErr: false,
			check: func(c *Config) bool {
				return c.Port == 3000 &&
					c.Environment == "development" &&
					c.MatchTolerance == 0.45 &&
					c.RequiredAttempts == 3 &&
					c.MinMatches == 2 &&
					c.BlinkThreshold == 0.19
			},
		},
		{
			name: "fails when DATABASE_URL missing",
			envVars: map[string]string{
				"ADMIN_PASSWORD":   "hunter2",
				"ADMIN_JWT_SECRET": "secret123",
			},
			wantErr: true,
		},
		{
			name: "fails when ADMIN_JWT_SECRET missing",
			envVars: map[string]string{
				"DATABASE_URL":   "postgres://localhost/punchclock",
				"ADMIN_PASSWORD": "hunter2",
			},
			wantErr: true,
		},
		{
			name: "fails when MIN_MATCHES exceeds REQUIRED_ATTEMPTS",
			envVars: map[string]string{
				"DATABASE_URL":      "postgres://localhost/punchclock",
				"ADMIN_PASSWORD":    "hunter2",
				"ADMIN_JWT_SECRET":  "secret123",
				"REQUIRED_ATTEMPTS": "3",
				"MIN_MATCHES":       "4",
			},
			wantErr: true,
		},
		{
			name: "fails on out-of-range downscale factor",
			envVars: map[string]string{
				"DATABASE_URL":     "postgres://localhost/punchclock",
				"ADMIN_PASSWORD":   "hunter2",
				"ADMIN_JWT_SECRET": "secret123",
				"DOWNSCALE_FACTOR": "1.5",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()

			for k, v := range tt.envVars {
				os.Setenv(k, v)
			}

			cfg, err := Load()

			if tt.wantErr {
				if err == nil {
					t.Errorf("Load() expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Errorf("Load() unexpected error: %v", err)
				return
			}

			if tt.check != nil && !tt.check(cfg) {
				t.Errorf("Load() config check failed, got: %+v", cfg)
			}
		})
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want bool
	}{
		{"development", "development", true},
		{"production", "production", false},
		{"staging", "staging", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{Environment: tt.env}
			if got := c.IsDevelopment(); got != tt.want {
				t.Errorf("IsDevelopment() = %v, want %v", got, tt.want)
			}
		})
	}
}

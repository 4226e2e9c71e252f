package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" default:"development"`
	Port        string `env:"PORT" default:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`

	AdminUser string `env:"ADMIN_USER"`
	AdminPass string `env:"ADMIN_PASS"`

	CORSOrigins string `env:"CORS_ORIGINS" default:"*"`

	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	SSEKeepAlive    time.Duration `env:"SSE_KEEPALIVE" default:"25s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" default:"10s"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.SSEKeepAlive <= 0 {
		return fmt.Errorf("SSE_KEEPALIVE must be positive, got %s", cfg.SSEKeepAlive)
	}
	if cfg.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive, got %s", cfg.ShutdownTimeout)
	}

	// Admin credentials are deliberately not required at startup: until both
	// are set, the write endpoints fail closed with a server error.
	if (cfg.AdminUser == "") != (cfg.AdminPass == "") {
		return fmt.Errorf("ADMIN_USER and ADMIN_PASS must be set together")
	}

	return nil
}

// AdminConfigured reports whether both admin credentials are present.
func (c *Config) AdminConfigured() bool {
	return c.AdminUser != "" && c.AdminPass != ""
}

// AllowedOrigins splits CORS_ORIGINS into its comma-separated entries.
// A single "*" entry allows every origin.
func (c *Config) AllowedOrigins() []string {
	parts := strings.Split(c.CORSOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return origins
}

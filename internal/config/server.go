package config

import (
	"fmt"
	"time"

	"github.com/cafeops/shiftdeck/internal/env"
)

// ServerConfig holds all configuration for the server binary.
type ServerConfig struct {
	Database        DatabaseConfig
	HTTP            HTTPConfig
	Evidence        EvidenceConfig
	Observability   ObservabilityConfig
	ShutdownTimeout time.Duration `env:"SHIFTDECK_SHUTDOWN_TIMEOUT"`
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Host              string        `env:"SHIFTDECK_HTTP_HOST"`
	Port              string        `env:"SHIFTDECK_HTTP_PORT"`
	ReadTimeout       time.Duration `env:"SHIFTDECK_HTTP_READ_TIMEOUT"`
	WriteTimeout      time.Duration `env:"SHIFTDECK_HTTP_WRITE_TIMEOUT"`
	IdleTimeout       time.Duration `env:"SHIFTDECK_HTTP_IDLE_TIMEOUT"`
	ReadHeaderTimeout time.Duration `env:"SHIFTDECK_HTTP_READ_HEADER_TIMEOUT"`
	MaxHeaderBytes    int           `env:"SHIFTDECK_HTTP_MAX_HEADER_BYTES"`
	MaxBodyBytes      int64         `env:"SHIFTDECK_HTTP_MAX_BODY_BYTES"`

	// APIKey guards all /api routes when set. Empty disables the check
	// (local development only).
	APIKey string `env:"SHIFTDECK_API_KEY"`
}

// ObservabilityConfig holds observability configuration.
type ObservabilityConfig struct {
	OTelEnabled bool   `env:"SHIFTDECK_OTEL_ENABLED"`
	ServiceName string `env:"OTEL_SERVICE_NAME"`
}

// LoadServerConfig loads and validates server configuration from environment.
func LoadServerConfig() (*ServerConfig, error) {
	cfg := &ServerConfig{}

	if err := env.Load(cfg); err != nil {
		return nil, fmt.Errorf("failed to load server config: %w", err)
	}

	return cfg, nil
}

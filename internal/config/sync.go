package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/cafeops/shiftdeck/internal/env"
)

// ErrServerURLRequired is returned when the sync agent has no server to
// replay against.
var ErrServerURLRequired = errors.New("SHIFTDECK_SYNC_SERVER_URL is required")

// SyncConfig holds all configuration for the sync agent binary.
type SyncConfig struct {
	// QueuePath is the sqlite file holding queued mutations.
	QueuePath string `env:"SHIFTDECK_SYNC_QUEUE_PATH"`

	// ServerURL is the base URL of the shiftdeck API, e.g.
	// http://localhost:8080
	ServerURL string `env:"SHIFTDECK_SYNC_SERVER_URL"`

	APIKey string `env:"SHIFTDECK_API_KEY"`

	// SyncInterval is how often the queue is replayed.
	SyncInterval time.Duration `env:"SHIFTDECK_SYNC_INTERVAL"`

	Observability ObservabilityConfig
}

// Validate validates the sync agent configuration.
func (c *SyncConfig) Validate() error {
	if c.ServerURL == "" {
		return ErrServerURLRequired
	}
	return nil
}

// LoadSyncConfig loads and validates sync agent configuration from
// environment.
func LoadSyncConfig() (*SyncConfig, error) {
	cfg := &SyncConfig{}

	if err := env.Load(cfg); err != nil {
		return nil, fmt.Errorf("failed to load sync config: %w", err)
	}

	return cfg, nil
}

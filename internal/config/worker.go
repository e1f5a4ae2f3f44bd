package config

import (
	"fmt"
	"time"

	"github.com/cafeops/shiftdeck/internal/env"
)

// WorkerConfig holds all configuration for the worker binary.
type WorkerConfig struct {
	Database         DatabaseConfig
	TickInterval     time.Duration `env:"SHIFTDECK_WORKER_TICK_INTERVAL"`
	OperationTimeout time.Duration `env:"SHIFTDECK_WORKER_OPERATION_TIMEOUT"`
	Observability    ObservabilityConfig
}

// LoadWorkerConfig loads and validates worker configuration from environment.
func LoadWorkerConfig() (*WorkerConfig, error) {
	cfg := &WorkerConfig{}

	if err := env.Load(cfg); err != nil {
		return nil, fmt.Errorf("failed to load worker config: %w", err)
	}

	return cfg, nil
}

// The syncd binary runs on a site device: it replays the locally queued
// task mutations against the shiftdeck API whenever connectivity allows.
// Mutations that fail with a server or transport error stay queued for the
// next pass.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cafeops/shiftdeck/internal/config"
	"github.com/cafeops/shiftdeck/internal/infrastructure/observability"
	"github.com/cafeops/shiftdeck/internal/offline"
)

const (
	defaultQueuePath    = "shiftdeck-queue.db"
	defaultSyncInterval = 30 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadSyncConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.QueuePath == "" {
		cfg.QueuePath = defaultQueuePath
	}
	if cfg.SyncInterval <= 0 {
		cfg.SyncInterval = defaultSyncInterval
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	obsCfg := observability.Config{
		Enabled:     cfg.Observability.OTelEnabled,
		ServiceName: cfg.Observability.ServiceName,
	}

	lp, logger, err := observability.InitLogger(ctx, obsCfg)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := lp.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "failed to shutdown logger provider", "error", err)
		}
	}()
	slog.SetDefault(logger)

	queue, err := offline.Open(cfg.QueuePath)
	if err != nil {
		return fmt.Errorf("failed to open queue: %w", err)
	}
	defer func() {
		if err := queue.Close(); err != nil {
			slog.Error("failed to close queue", "error", err)
		}
	}()

	client := offline.NewClient(cfg.ServerURL, cfg.APIKey)

	slog.InfoContext(ctx, "starting shiftdeck sync agent",
		"queue_path", cfg.QueuePath,
		"server_url", cfg.ServerURL,
		"interval", cfg.SyncInterval)

	ticker := time.NewTicker(cfg.SyncInterval)
	defer ticker.Stop()

	for {
		applied, failed, err := queue.Replay(ctx, client.Apply)
		if err != nil {
			if ctx.Err() != nil {
				slog.Info("sync agent shut down gracefully")
				return nil
			}
			slog.ErrorContext(ctx, "replay pass failed", "error", err)
		} else if applied > 0 || failed > 0 {
			slog.InfoContext(ctx, "replay pass finished",
				"applied", applied,
				"failed", failed)
		}

		select {
		case <-ctx.Done():
			slog.Info("sync agent shut down gracefully")
			return nil
		case <-ticker.C:
		}
	}
}

// The server binary runs the shiftdeck HTTP API: shift lifecycle, NOW
// action resolution, task mutations, templates and compliance reports.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cafeops/shiftdeck/internal/application/report"
	"github.com/cafeops/shiftdeck/internal/application/shift"
	"github.com/cafeops/shiftdeck/internal/application/template"
	"github.com/cafeops/shiftdeck/internal/config"
	"github.com/cafeops/shiftdeck/internal/evidence"
	evidencefs "github.com/cafeops/shiftdeck/internal/evidence/fs"
	evidencegcs "github.com/cafeops/shiftdeck/internal/evidence/gcs"
	httpserver "github.com/cafeops/shiftdeck/internal/infrastructure/http"
	"github.com/cafeops/shiftdeck/internal/infrastructure/http/handler"
	"github.com/cafeops/shiftdeck/internal/infrastructure/observability"
	"github.com/cafeops/shiftdeck/internal/infrastructure/persistence/postgres"
)

const defaultShutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Database.Validate(); err != nil {
		return err
	}
	if err := cfg.Evidence.Validate(); err != nil {
		return err
	}

	// Root context for all normal operations; cancels on SIGTERM/SIGINT.
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
		// Use a timeout to prevent hanging if collector is unreachable
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := lp.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "failed to shutdown logger provider", "error", err)
		}
	}()
	slog.SetDefault(logger)

	tp, err := observability.InitTracerProvider(ctx, obsCfg)
	if err != nil {
		return fmt.Errorf("failed to init tracer provider: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "failed to shutdown tracer provider", "error", err)
		}
	}()

	mp, err := observability.InitMeterProvider(ctx, obsCfg)
	if err != nil {
		return fmt.Errorf("failed to init meter provider: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mp.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "failed to shutdown meter provider", "error", err)
		}
	}()

	slog.InfoContext(ctx, "starting shiftdeck server")

	store, err := postgres.NewStoreWithConfig(ctx, postgres.DBConfig{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Database.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Error("failed to close store", "error", err)
		}
	}()

	slog.InfoContext(ctx, "storage initialized", "dsn", maskPassword(cfg.Database.DSN))

	evidenceStore, cleanup, err := newEvidenceStore(ctx, cfg.Evidence)
	if err != nil {
		return fmt.Errorf("failed to create evidence store: %w", err)
	}
	defer cleanup()

	shiftService := shift.NewService(store)
	templateService := template.NewService(store)
	reportService := report.NewService(store)

	apiHandler := handler.NewRouter(shiftService, templateService, reportService, evidenceStore)

	server := httpserver.NewAPIServer(apiHandler, httpserver.ServerConfig{
		Host:              cfg.HTTP.Host,
		Port:              cfg.HTTP.Port,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		MaxHeaderBytes:    cfg.HTTP.MaxHeaderBytes,
		MaxBodyBytes:      cfg.HTTP.MaxBodyBytes,
		APIKey:            cfg.HTTP.APIKey,
	})
	if cfg.HTTP.APIKey == "" {
		slog.WarnContext(ctx, "API key authentication disabled")
	}

	errResult := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			errResult <- fmt.Errorf("failed to serve HTTP: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		slog.InfoContext(ctx, "shutting down")

		shutdownTimeout := cfg.ShutdownTimeout
		if shutdownTimeout <= 0 {
			shutdownTimeout = defaultShutdownTimeout
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.WarnContext(shutdownCtx, "HTTP server shutdown error", "error", err)
		} else {
			slog.InfoContext(shutdownCtx, "HTTP server shutdown complete")
		}
		return nil
	case err := <-errResult:
		return err
	}
}

// newEvidenceStore builds the configured evidence store backend. The
// returned cleanup closes backend resources and is safe to call always.
func newEvidenceStore(ctx context.Context, cfg config.EvidenceConfig) (evidence.Store, func(), error) {
	switch cfg.Type {
	case "gcs":
		store, err := evidencegcs.NewStore(ctx, cfg.GCSBucket)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				slog.Error("failed to close GCS evidence store", "error", err)
			}
		}, nil
	default:
		dir := cfg.FSDir
		if dir == "" {
			dir = "evidence"
		}
		store, err := evidencefs.NewStore(dir)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}
}

// maskPassword masks the password in a connection string for logging.
func maskPassword(connStr string) string {
	u, err := url.Parse(connStr)
	if err != nil {
		// If parsing fails, fall back to full redaction to be safe
		return "[REDACTED]"
	}
	if u.User != nil {
		if _, hasPassword := u.User.Password(); hasPassword {
			username := u.User.Username()
			u.User = url.UserPassword(username, "xxxxxx")
		}
	}
	return u.String()
}

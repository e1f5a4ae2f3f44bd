// Package worker runs the background recurring-occurrence expansion loop.
// On each tick it walks every open shift and materializes any recurring
// occurrences that have fallen due since the last pass.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cafeops/shiftdeck/internal/domain"
)

// Expander creates recurring occurrences for one shift as of now.
type Expander interface {
	ExpandRecurringOccurrences(ctx context.Context, shiftID string, now time.Time) ([]*domain.TaskInstance, error)
}

// Repository defines the storage operations the worker needs.
type Repository interface {
	// FindOpenShifts lists every open session across all sites.
	FindOpenShifts(ctx context.Context) ([]*domain.ShiftSession, error)
}

// Worker periodically expands recurring occurrences for open shifts.
type Worker struct {
	repo             Repository
	expander         Expander
	tickInterval     time.Duration
	operationTimeout time.Duration
	wg               sync.WaitGroup
}

// Option is a functional option for configuring Worker.
type Option func(*Worker)

// WithTickInterval sets how often the worker scans open shifts.
func WithTickInterval(d time.Duration) Option {
	return func(w *Worker) {
		w.tickInterval = d
	}
}

// WithOperationTimeout sets the timeout for one expansion pass.
func WithOperationTimeout(d time.Duration) Option {
	return func(w *Worker) {
		w.operationTimeout = d
	}
}

// New creates a new Worker.
func New(repo Repository, expander Expander, opts ...Option) *Worker {
	w := &Worker{
		repo:             repo,
		expander:         expander,
		tickInterval:     time.Minute,
		operationTimeout: 30 * time.Second,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Start runs the ticker loop until the context is cancelled. On shutdown
// it stops taking new ticks and waits for in-flight passes to finish.
func (w *Worker) Start(ctx context.Context) error {
	slog.InfoContext(ctx, "Recurring expansion worker started", "interval", w.tickInterval)

	// Expand immediately on startup so a restarted worker catches up.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), w.operationTimeout)
	if err := w.RunExpandOnce(startupCtx); err != nil {
		slog.ErrorContext(startupCtx, "Error expanding occurrences on startup", "error", err)
	}
	startupCancel()

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.wg.Go(func() {
				opCtx, cancel := context.WithTimeout(context.Background(), w.operationTimeout)
				defer cancel()
				if err := w.RunExpandOnce(opCtx); err != nil {
					slog.ErrorContext(opCtx, "Error expanding occurrences", "error", err)
				}
			})
		case <-ctx.Done():
			slog.InfoContext(ctx, "Shutdown requested, waiting for in-flight passes...")
			w.wg.Wait()
			slog.InfoContext(ctx, "Recurring expansion worker stopped gracefully")
			return nil
		}
	}
}

// RunExpandOnce executes a single expansion pass over all open shifts.
func (w *Worker) RunExpandOnce(ctx context.Context) error {
	sessions, err := w.repo.FindOpenShifts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list open shifts: %w", err)
	}

	now := time.Now().UTC()
	for _, session := range sessions {
		created, err := w.expander.ExpandRecurringOccurrences(ctx, session.ID, now)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to expand shift", "shift_id", session.ID, "error", err)
			continue
		}
		if len(created) > 0 {
			slog.InfoContext(ctx, "Materialized recurring occurrences",
				"shift_id", session.ID,
				"count", len(created))
		}
	}
	return nil
}

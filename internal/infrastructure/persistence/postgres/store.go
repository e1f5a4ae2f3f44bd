// Package postgres provides the PostgreSQL implementation of every
// repository interface the application services depend on.
package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cafeops/shiftdeck/internal/application/report"
	"github.com/cafeops/shiftdeck/internal/application/shift"
	"github.com/cafeops/shiftdeck/internal/application/template"
	"github.com/cafeops/shiftdeck/internal/application/worker"
	"github.com/cafeops/shiftdeck/internal/domain"
)

// Store provides the PostgreSQL implementation of all repository interfaces.
//
// This store implements:
// - application/shift.Repository (shift sessions and task instances)
// - application/template.Repository (template administration)
// - application/report.Repository (compliance report reads)
// - application/worker.Repository (open-shift scan for the expansion worker)
type Store struct {
	pool *pgxpool.Pool
}

// Compile-time verification that Store implements all repository interfaces.
var (
	_ shift.Repository    = (*Store)(nil)
	_ template.Repository = (*Store)(nil)
	_ report.Repository   = (*Store)(nil)
	_ worker.Repository   = (*Store)(nil)
)

// NewStore creates a new PostgreSQL store with the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Pool returns the underlying connection pool.
// This is useful for transaction management and raw queries.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// Close closes the database connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// checkRowsAffected validates that an UPDATE operation affected exactly one
// row. Returns domain.ErrNotFound if rowsAffected == 0.
func checkRowsAffected(rowsAffected int64, entityType, entityID string) error {
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s %s", domain.ErrNotFound, entityType, entityID)
	}
	return nil
}

// isUniqueViolation checks if an error is a PostgreSQL unique violation on
// the named constraint. An empty constraint matches any unique violation.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 23505 is unique_violation
		if pgErr.Code == "23505" {
			return constraint == "" || pgErr.ConstraintName == constraint
		}
	}
	return false
}

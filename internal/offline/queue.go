// Package offline implements the persisted mutation queue used when the
// backing store is unreachable. Mutations are appended in order, survive
// restarts, and are replayed in original order once connectivity returns.
// A failed replay leaves the mutation queued for the next online
// transition; it is never discarded.
package offline

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // sqlite driver for the local queue file
)

// Mutation is one queued store write.
type Mutation struct {
	ID         int64
	Kind       string
	Payload    []byte
	EnqueuedAt time.Time
	Attempts   int
	LastError  *string
}

// Queue is a sqlite-backed FIFO of pending mutations.
type Queue struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS pending_mutations (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	kind        TEXT NOT NULL,
	payload     BLOB NOT NULL,
	enqueued_at TIMESTAMP NOT NULL,
	attempts    INTEGER NOT NULL DEFAULT 0,
	last_error  TEXT
);`

// Open opens (or creates) the queue file at path.
func Open(path string) (*Queue, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open queue: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init queue schema: %w", err)
	}

	return &Queue{db: db}, nil
}

// Close closes the underlying database.
func (q *Queue) Close() error {
	return q.db.Close()
}

// Enqueue appends a mutation to the queue.
func (q *Queue) Enqueue(ctx context.Context, kind string, payload []byte) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO pending_mutations (kind, payload, enqueued_at) VALUES (?, ?, ?)`,
		kind, payload, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to enqueue mutation: %w", err)
	}
	return nil
}

// Pending returns all queued mutations in enqueue order.
func (q *Queue) Pending(ctx context.Context) ([]Mutation, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, kind, payload, enqueued_at, attempts, last_error
		 FROM pending_mutations ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query queue: %w", err)
	}
	defer rows.Close()

	var mutations []Mutation
	for rows.Next() {
		var m Mutation
		if err := rows.Scan(&m.ID, &m.Kind, &m.Payload, &m.EnqueuedAt, &m.Attempts, &m.LastError); err != nil {
			return nil, fmt.Errorf("failed to scan mutation: %w", err)
		}
		mutations = append(mutations, m)
	}
	return mutations, rows.Err()
}

// Len returns the number of queued mutations.
func (q *Queue) Len(ctx context.Context) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending_mutations`).Scan(&n)
	return n, err
}

// Replay applies queued mutations in original order. Applied mutations are
// removed; failed ones stay queued with their attempt count bumped, and
// replay continues with the remaining entries so one bad mutation cannot
// wedge the queue. Returns how many were applied and how many failed.
func (q *Queue) Replay(ctx context.Context, apply func(context.Context, Mutation) error) (applied, failed int, err error) {
	mutations, err := q.Pending(ctx)
	if err != nil {
		return 0, 0, err
	}

	for _, m := range mutations {
		if ctx.Err() != nil {
			return applied, failed, ctx.Err()
		}

		if applyErr := apply(ctx, m); applyErr != nil {
			failed++
			msg := applyErr.Error()
			if _, uerr := q.db.ExecContext(ctx,
				`UPDATE pending_mutations SET attempts = attempts + 1, last_error = ? WHERE id = ?`,
				msg, m.ID); uerr != nil {
				return applied, failed, fmt.Errorf("failed to record replay failure: %w", uerr)
			}
			continue
		}

		if _, derr := q.db.ExecContext(ctx,
			`DELETE FROM pending_mutations WHERE id = ?`, m.ID); derr != nil {
			return applied, failed, fmt.Errorf("failed to dequeue mutation: %w", derr)
		}
		applied++
	}

	return applied, failed, nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/cafeops/shiftdeck/internal/domain"
)

const instanceColumns = `id, shift_id, definition_id, status, due_at, completed_at, completed_by,
	evidence_note, evidence_value, evidence_photo_url, blocked_reason, occurrence_index,
	created_at, updated_at`

func scanInstance(row pgx.Row) (*domain.TaskInstance, error) {
	var (
		inst   domain.TaskInstance
		status string
	)
	err := row.Scan(
		&inst.ID,
		&inst.ShiftID,
		&inst.DefinitionID,
		&status,
		&inst.DueAt,
		&inst.CompletedAt,
		&inst.CompletedBy,
		&inst.EvidenceNote,
		&inst.EvidenceValue,
		&inst.EvidencePhotoURL,
		&inst.BlockedReason,
		&inst.OccurrenceIndex,
		&inst.CreatedAt,
		&inst.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	inst.Status = domain.TaskStatus(status)
	inst.CreatedAt = inst.CreatedAt.UTC()
	inst.UpdatedAt = inst.UpdatedAt.UTC()
	if inst.DueAt != nil {
		t := inst.DueAt.UTC()
		inst.DueAt = &t
	}
	if inst.CompletedAt != nil {
		t := inst.CompletedAt.UTC()
		inst.CompletedAt = &t
	}
	return &inst, nil
}

// CreateInstances bulk-inserts task instances in one batch round trip.
// Occurrences that already exist violate the (shift, definition, occurrence)
// uniqueness and are reported, not silently dropped; the expander diffs
// against existing instances before calling this.
func (s *Store) CreateInstances(ctx context.Context, instances []*domain.TaskInstance) error {
	if len(instances) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, inst := range instances {
		batch.Queue(`
			INSERT INTO task_instances (
				id, shift_id, definition_id, status, due_at, completed_at, completed_by,
				evidence_note, evidence_value, evidence_photo_url, blocked_reason, occurrence_index,
				created_at, updated_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
			inst.ID, inst.ShiftID, inst.DefinitionID, string(inst.Status),
			inst.DueAt, inst.CompletedAt, inst.CompletedBy,
			inst.EvidenceNote, inst.EvidenceValue, inst.EvidencePhotoURL,
			inst.BlockedReason, inst.OccurrenceIndex,
			inst.CreatedAt, inst.UpdatedAt,
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range instances {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to create task instances: %w", err)
		}
	}
	return nil
}

// FindInstanceByID retrieves a single task instance.
func (s *Store) FindInstanceByID(ctx context.Context, id string) (*domain.TaskInstance, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+instanceColumns+`
		FROM task_instances
		WHERE id = $1`, id)

	inst, err := scanInstance(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrTaskNotFound, id)
		}
		return nil, fmt.Errorf("failed to find task instance: %w", err)
	}
	return inst, nil
}

// FindInstancesByShift lists every instance of a shift, oldest occurrence
// first.
func (s *Store) FindInstancesByShift(ctx context.Context, shiftID string) ([]*domain.TaskInstance, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+instanceColumns+`
		FROM task_instances
		WHERE shift_id = $1
		ORDER BY occurrence_index, id`, shiftID)
	if err != nil {
		return nil, fmt.Errorf("failed to list task instances: %w", err)
	}
	defer rows.Close()

	var instances []*domain.TaskInstance
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task instance: %w", err)
		}
		instances = append(instances, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate task instances: %w", err)
	}
	return instances, nil
}

// UpdateInstance persists a mutated instance. Last writer wins; there is no
// version token on instances.
func (s *Store) UpdateInstance(ctx context.Context, inst *domain.TaskInstance) (*domain.TaskInstance, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE task_instances
		SET status = $2,
			completed_at = $3,
			completed_by = $4,
			evidence_note = $5,
			evidence_value = $6,
			evidence_photo_url = $7,
			blocked_reason = $8,
			updated_at = $9
		WHERE id = $1
		RETURNING `+instanceColumns,
		inst.ID, string(inst.Status),
		inst.CompletedAt, inst.CompletedBy,
		inst.EvidenceNote, inst.EvidenceValue, inst.EvidencePhotoURL,
		inst.BlockedReason, time.Now().UTC(),
	)

	updated, err := scanInstance(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrTaskNotFound, inst.ID)
		}
		return nil, fmt.Errorf("failed to update task instance: %w", err)
	}
	return updated, nil
}

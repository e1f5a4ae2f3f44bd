// Package recurring expands recurring task definitions into dated
// occurrences within their active window, and diffs them against the
// instances a shift already has.
package recurring

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cafeops/shiftdeck/internal/domain"
)

// DueOccurrences returns the instants at which occurrences of def have
// become due by now, for the shift day anchored at shiftStart.
//
// One occurrence falls due every IntervalMinutes starting at the active
// window's start; nothing falls due before the window opens or after it
// closes, and the count never exceeds MaxOccurrences when set.
func DueOccurrences(def *domain.TaskDefinition, shiftStart, now time.Time) []time.Time {
	if def.TaskType != domain.TaskTypeRecurring || def.IntervalMinutes <= 0 {
		return nil
	}
	if def.ActiveWindowStart == nil || def.ActiveWindowEnd == nil {
		return nil
	}

	windowStart := def.ActiveWindowStart.At(shiftStart)
	windowEnd := def.ActiveWindowEnd.At(shiftStart)
	if !windowEnd.After(windowStart) {
		return nil
	}

	cutoff := now
	if windowEnd.Before(cutoff) {
		cutoff = windowEnd
	}

	interval := time.Duration(def.IntervalMinutes) * time.Minute
	var occurrences []time.Time
	for instant := windowStart; !instant.After(cutoff); instant = instant.Add(interval) {
		if def.MaxOccurrences != nil && len(occurrences) >= *def.MaxOccurrences {
			break
		}
		occurrences = append(occurrences, instant)
	}
	return occurrences
}

// Expander materializes missing recurring occurrences as task instances.
type Expander struct{}

// NewExpander creates an Expander.
func NewExpander() *Expander {
	return &Expander{}
}

// MissingInstances returns new TaskInstances for every occurrence of def
// that has fallen due by now and has no instance yet. Existing occurrences
// are matched by index, so re-running the expansion is idempotent.
func (e *Expander) MissingInstances(def *domain.TaskDefinition, shiftID string, shiftStart, now time.Time, existing []*domain.TaskInstance) ([]*domain.TaskInstance, error) {
	occurrences := DueOccurrences(def, shiftStart, now)
	if len(occurrences) == 0 {
		return nil, nil
	}

	have := make(map[int]bool, len(existing))
	for _, inst := range existing {
		if inst.DefinitionID == def.ID {
			have[inst.OccurrenceIndex] = true
		}
	}

	var created []*domain.TaskInstance
	for idx, instant := range occurrences {
		if have[idx] {
			continue
		}
		inst, err := e.newInstance(def, shiftID, instant, idx, now)
		if err != nil {
			return nil, err
		}
		created = append(created, inst)
	}
	return created, nil
}

func (e *Expander) newInstance(def *domain.TaskDefinition, shiftID string, dueAt time.Time, index int, now time.Time) (*domain.TaskInstance, error) {
	idObj, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate instance ID: %w", err)
	}

	due := dueAt
	return &domain.TaskInstance{
		ID:              idObj.String(),
		ShiftID:         shiftID,
		DefinitionID:    def.ID,
		Status:          domain.TaskStatusPending,
		DueAt:           &due,
		OccurrenceIndex: index,
		CreatedAt:       now.UTC(),
		UpdatedAt:       now.UTC(),
	}, nil
}

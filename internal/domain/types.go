package domain

// TaskStatus represents the current state of a task instance.
// Value object - immutable string enum.
//
// Transitions only move forward: pending -> {completed | blocked | skipped}.
// A blocked task may be reopened to pending or completed directly.
// completed is terminal.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusBlocked   TaskStatus = "blocked"
	TaskStatusSkipped   TaskStatus = "skipped"
)

// Priority represents the priority code of a task definition.
// P1 sorts before P2 sorts before P3 (ordinal comparison of the fixed enum).
type Priority string

const (
	PriorityP1 Priority = "P1"
	PriorityP2 Priority = "P2"
	PriorityP3 Priority = "P3"
)

// Rank returns the ordinal position of the priority for sorting.
// Lower rank sorts first. Unknown values sort last.
func (p Priority) Rank() int {
	switch p {
	case PriorityP1:
		return 0
	case PriorityP2:
		return 1
	case PriorityP3:
		return 2
	default:
		return 3
	}
}

// EvidenceType describes what proof a task requires on completion.
type EvidenceType string

const (
	EvidenceNone    EvidenceType = "none"
	EvidenceNote    EvidenceType = "note"
	EvidenceNumeric EvidenceType = "numeric"
	EvidencePhoto   EvidenceType = "photo"
)

// TaskType describes the shape of a task definition.
type TaskType string

const (
	TaskTypeTick      TaskType = "tick"
	TaskTypeDataEntry TaskType = "data_entry"
	TaskTypeRecurring TaskType = "recurring"
	TaskTypeGroup     TaskType = "group"
)

// ShiftType identifies which working period a shift session covers.
type ShiftType string

const (
	ShiftOpening ShiftType = "opening"
	ShiftMid     ShiftType = "mid"
	ShiftClosing ShiftType = "closing"
)

// Outcome is the timeliness classification of a task instance, derived at
// report time from due/grace windows versus completed_at. Never stored.
type Outcome string

const (
	OutcomeEarly   Outcome = "early"
	OutcomeOnTime  Outcome = "on_time"
	OutcomeLate    Outcome = "late"
	OutcomeSkipped Outcome = "skipped"
	OutcomeMissed  Outcome = "missed"
)

// ActionType identifies what kind of NOW action the prioritizer resolved.
type ActionType string

const (
	// ActionTask points at a single concrete task instance.
	ActionTask ActionType = "task"

	// ActionGroup points at a group task whose sub-checklist must be
	// completed before the group itself can be marked done.
	ActionGroup ActionType = "group"

	// ActionStartOpening is a synthetic action prompting the user to begin
	// the shift. It never corresponds to a real task instance.
	ActionStartOpening ActionType = "start_opening"
)

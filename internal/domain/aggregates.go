package domain

import "time"

// ChecklistTemplate is an aggregate root owning an ordered set of task
// definitions for one shift type at one site.
//
// Definitions are read-only during a shift: starting a shift copies them
// into TaskInstances, and later template edits never touch running shifts.
type ChecklistTemplate struct {
	ID        string
	SiteID    string
	Name      string
	ShiftType ShiftType
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TaskDefinition is the reusable, template-level description of a checklist
// item. Immutable per template.
type TaskDefinition struct {
	ID         string
	TemplateID string

	Title       string
	Description string

	Priority   Priority
	IsCritical bool
	IsRequired bool

	// DueTime is the wall-clock time of day the task falls due, evaluated
	// against the calendar date the shift started. Nil means the task is
	// never urgent by time, only by presence in the pending set.
	DueTime            *TimeOfDay
	GracePeriodMinutes int

	EvidenceType EvidenceType
	TaskType     TaskType
	SortOrder    int

	// GroupID links a sub-task to its parent group definition.
	// Nil for top-level definitions.
	GroupID *string

	// Recurring fields, meaningful only when TaskType == TaskTypeRecurring.
	IntervalMinutes   int
	ActiveWindowStart *TimeOfDay
	ActiveWindowEnd   *TimeOfDay
	MaxOccurrences    *int
	NeverGoesRed      bool
	NoNotifications   bool
}

// GraceInstant returns the end of the grace window for a due instant.
func (d *TaskDefinition) GraceInstant(dueInstant time.Time) time.Time {
	return dueInstant.Add(time.Duration(d.GracePeriodMinutes) * time.Minute)
}

// BlocksCompletion reports whether an unresolved instance of this
// definition prevents the shift from ending.
func (d *TaskDefinition) BlocksCompletion() bool {
	return d.IsCritical || d.IsRequired
}

// TaskInstance is one concrete, shift-scoped occurrence of a TaskDefinition.
// Instances are never deleted; shift history is append-only.
//
// Instances carry no optimistic-concurrency token: any staff member at the
// site may update them and the last writer wins. Conflicting completions
// are absorbed by the prioritizer's idempotent re-resolution.
type TaskInstance struct {
	ID           string
	ShiftID      string
	DefinitionID string

	Status TaskStatus

	// DueAt is materialized at instantiation from the shift's start date
	// and the definition's DueTime (or the occurrence instant for
	// recurring tasks). Nil when the definition has no due time.
	DueAt *time.Time

	CompletedAt *time.Time
	CompletedBy *string

	// Evidence payload; which field is set depends on the definition's
	// EvidenceType.
	EvidenceNote     *string
	EvidenceValue    *float64
	EvidencePhotoURL *string

	BlockedReason *string

	// OccurrenceIndex orders recurring occurrences within a shift (0 for
	// non-recurring instances).
	OccurrenceIndex int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Resolved reports whether the instance no longer needs action.
func (i *TaskInstance) Resolved() bool {
	return i.Status == TaskStatusCompleted || i.Status == TaskStatusSkipped
}

// ShiftSession represents one working period at one site, bounded by start
// and completion events. At most one open session exists per site at a
// time; the Postgres schema enforces this with a partial unique index.
type ShiftSession struct {
	ID         string
	SiteID     string
	ShiftType  ShiftType
	TemplateID string

	StartedBy   string
	StartedAt   time.Time
	CompletedBy *string
	CompletedAt *time.Time
	IsComplete  bool
}

// NowAction is the single task the prioritizer designates as the current
// required action for a shift, or a synthetic prompt to start the shift.
type NowAction struct {
	ActionType ActionType

	// TaskID and GroupID are empty for the synthetic start_opening action.
	// GroupID is set only when the underlying definition is a group.
	TaskID  string
	GroupID string

	Title       string
	Instruction string

	DueTime        *TimeOfDay
	IsOverdue      bool
	OverdueMinutes int

	Priority   Priority
	IsCritical bool

	// TaskCount is the number of sub-tasks, set only for groups.
	TaskCount int

	// NeverGoesRed is propagated from the definition so presentation never
	// marks a rhythm task urgent-red.
	NeverGoesRed bool
}

// UpcomingTask is one entry of the coming-up list: same ordering as the NOW
// action but excluding the selected one.
type UpcomingTask struct {
	TaskID         string
	Title          string
	DueTime        *TimeOfDay
	IsOverdue      bool
	OverdueMinutes int
	Priority       Priority
	IsCritical     bool
	NeverGoesRed   bool
}

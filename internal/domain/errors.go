package domain

import "errors"

// Domain errors returned by services and repository implementations.

var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrShiftNotFound indicates the specified shift session does not exist.
	ErrShiftNotFound = errors.New("shift not found")

	// ErrTaskNotFound indicates the specified task instance does not exist.
	ErrTaskNotFound = errors.New("task not found")

	// ErrTemplateNotFound indicates the specified checklist template does not exist.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrDefinitionNotFound indicates the specified task definition does not exist.
	ErrDefinitionNotFound = errors.New("task definition not found")

	// ErrInvalidID indicates the provided ID format is invalid.
	ErrInvalidID = errors.New("invalid ID format")

	// ErrShiftAlreadyOpen indicates the site already has an open shift session.
	ErrShiftAlreadyOpen = errors.New("site already has an open shift")

	// ErrShiftComplete indicates the shift session has already been closed.
	ErrShiftComplete = errors.New("shift already complete")

	// ErrShiftNotComplete is returned when the completion gate rejects an
	// end-of-shift request because required or critical tasks remain.
	ErrShiftNotComplete = errors.New("required tasks remain")

	// ErrTaskAlreadyCompleted indicates a mutation raced with another actor
	// that already completed the task. Callers absorb this by re-resolving
	// the NOW action rather than surfacing an error.
	ErrTaskAlreadyCompleted = errors.New("task already completed")

	// ErrInvalidTransition indicates a status change that would move a task
	// backwards (e.g. reopening a completed task).
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrGroupIncomplete indicates a group task cannot be completed while
	// sub-tasks of its checklist remain unresolved.
	ErrGroupIncomplete = errors.New("group has unresolved sub-tasks")

	// Validation errors (rejected before any mutation is attempted).

	ErrTitleRequired        = errors.New("title is required")
	ErrTitleTooLong         = errors.New("title exceeds 255 characters")
	ErrInvalidTaskStatus    = errors.New("invalid task status")
	ErrInvalidPriority      = errors.New("invalid priority code")
	ErrInvalidEvidenceType  = errors.New("invalid evidence type")
	ErrInvalidTaskType      = errors.New("invalid task type")
	ErrInvalidShiftType     = errors.New("invalid shift type")
	ErrInvalidTimeOfDay     = errors.New("invalid time of day")
	ErrNegativeGracePeriod  = errors.New("grace period must not be negative")
	ErrEvidenceRequired     = errors.New("evidence payload required")
	ErrEvidenceNotNumeric   = errors.New("evidence value must be numeric")
	ErrBlockedReasonMissing = errors.New("blocked reason is required")
	ErrInvalidInterval      = errors.New("recurring interval must be positive")
	ErrInvalidActiveWindow  = errors.New("active window end must be after start")
)

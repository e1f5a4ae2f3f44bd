package domain

import (
	"fmt"
	"strings"
)

// Title is a validated title value object (1-255 characters).
type Title struct {
	value string
}

// NewTitle creates a new Title, validating the input.
func NewTitle(s string) (Title, error) {
	s = strings.TrimSpace(s)

	if s == "" {
		return Title{}, ErrTitleRequired
	}

	if len(s) > 255 {
		return Title{}, ErrTitleTooLong
	}

	return Title{value: s}, nil
}

// String returns the title value.
func (t Title) String() string {
	return t.value
}

// NewTaskStatus validates and creates a TaskStatus.
func NewTaskStatus(s string) (TaskStatus, error) {
	status := TaskStatus(strings.ToLower(s))

	switch status {
	case TaskStatusPending, TaskStatusCompleted, TaskStatusBlocked, TaskStatusSkipped:
		return status, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidTaskStatus, s)
	}
}

// NewPriority validates and creates a Priority.
// Empty input defaults to P2.
func NewPriority(s string) (Priority, error) {
	if s == "" {
		return PriorityP2, nil
	}

	priority := Priority(strings.ToUpper(s))

	switch priority {
	case PriorityP1, PriorityP2, PriorityP3:
		return priority, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidPriority, s)
	}
}

// NewEvidenceType validates and creates an EvidenceType.
// Empty input defaults to none.
func NewEvidenceType(s string) (EvidenceType, error) {
	if s == "" {
		return EvidenceNone, nil
	}

	et := EvidenceType(strings.ToLower(s))

	switch et {
	case EvidenceNone, EvidenceNote, EvidenceNumeric, EvidencePhoto:
		return et, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidEvidenceType, s)
	}
}

// NewTaskType validates and creates a TaskType.
// Empty input defaults to tick.
func NewTaskType(s string) (TaskType, error) {
	if s == "" {
		return TaskTypeTick, nil
	}

	tt := TaskType(strings.ToLower(s))

	switch tt {
	case TaskTypeTick, TaskTypeDataEntry, TaskTypeRecurring, TaskTypeGroup:
		return tt, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidTaskType, s)
	}
}

// NewShiftType validates and creates a ShiftType.
func NewShiftType(s string) (ShiftType, error) {
	st := ShiftType(strings.ToLower(s))

	switch st {
	case ShiftOpening, ShiftMid, ShiftClosing:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidShiftType, s)
	}
}

// Package duewindow computes the on-time/grace/overdue state of a task at a
// given instant. The state is a pure derivation of "now" and the stored due
// and grace values; callers re-evaluate it on every tick rather than caching,
// because the urgency classification changes every minute without new data.
package duewindow

import (
	"time"

	"github.com/cafeops/shiftdeck/internal/domain"
)

// State classifies where a task sits relative to its due window.
type State string

const (
	// StateNoDueTime applies to tasks without a due time. They are never
	// urgent by time, only by presence in the pending set.
	StateNoDueTime State = "no_due_time"

	// StateUpcoming means now is before the due instant.
	StateUpcoming State = "upcoming"

	// StateDueNow means now equals the due instant exactly.
	StateDueNow State = "due_now"

	// StateInGrace means now is past due but within the grace period.
	// Still treated as on time for compliance purposes.
	StateInGrace State = "in_grace"

	// StateOverdue means now is past the end of the grace period.
	StateOverdue State = "overdue"
)

// Window is the evaluated due-window state of a task at one instant.
type Window struct {
	State State

	// MinutesUntilDue is set when State is StateUpcoming.
	MinutesUntilDue int

	// MinutesIntoGrace is set when State is StateInGrace.
	MinutesIntoGrace int

	// MinutesOverdue is set when State is StateOverdue: whole minutes past
	// the end of the grace window, rounded down.
	MinutesOverdue int
}

// Urgent reports whether the window warrants urgent treatment.
func (w Window) Urgent() bool {
	return w.State == StateOverdue
}

// Evaluate computes the due-window state for a task due at dueAt with the
// given grace period, as of now. A nil dueAt yields StateNoDueTime.
func Evaluate(now time.Time, dueAt *time.Time, graceMinutes int) Window {
	if dueAt == nil {
		return Window{State: StateNoDueTime}
	}

	due := *dueAt
	grace := due.Add(time.Duration(graceMinutes) * time.Minute)

	switch {
	case now.Before(due):
		return Window{
			State:           StateUpcoming,
			MinutesUntilDue: int(due.Sub(now) / time.Minute),
		}
	case now.Equal(due):
		return Window{State: StateDueNow}
	case !now.After(grace):
		return Window{
			State:            StateInGrace,
			MinutesIntoGrace: int(now.Sub(due) / time.Minute),
		}
	default:
		return Window{
			State:          StateOverdue,
			MinutesOverdue: int(now.Sub(grace) / time.Minute),
		}
	}
}

// EvaluateDefinition anchors a definition's wall-clock due time to the
// shift's start date and evaluates the window. Definitions without a due
// time yield StateNoDueTime.
func EvaluateDefinition(now time.Time, def *domain.TaskDefinition, shiftStart time.Time) Window {
	if def.DueTime == nil {
		return Window{State: StateNoDueTime}
	}
	due := def.DueTime.At(shiftStart)
	return Evaluate(now, &due, def.GracePeriodMinutes)
}

// Package gate decides whether a shift may be ended. A shift closes only
// when no pending or blocked instance of a critical or required definition
// remains; non-blocking tasks left pending never hold the gate.
package gate

import (
	"github.com/cafeops/shiftdeck/internal/domain"
)

// Blocker describes one unresolved task holding the gate closed.
type Blocker struct {
	TaskID     string
	Title      string
	Status     domain.TaskStatus
	IsCritical bool
}

// Result is the outcome of a gate evaluation.
type Result struct {
	CanEnd   bool
	Blockers []Blocker
}

// RemainingBlockerCount returns the number of unresolved blocking tasks.
func (r Result) RemainingBlockerCount() int {
	return len(r.Blockers)
}

// Evaluate checks every instance of the shift against its definition.
// Callers run this once to enable the END DAY action and again at the
// moment of closing; the second check rejects the close with the blocker
// count if the gate has flipped since it was displayed.
func Evaluate(defs []*domain.TaskDefinition, instances []*domain.TaskInstance) Result {
	byID := make(map[string]*domain.TaskDefinition, len(defs))
	for _, d := range defs {
		byID[d.ID] = d
	}

	var blockers []Blocker
	for _, inst := range instances {
		if inst.Resolved() {
			continue
		}
		def, ok := byID[inst.DefinitionID]
		if !ok || !def.BlocksCompletion() {
			continue
		}
		blockers = append(blockers, Blocker{
			TaskID:     inst.ID,
			Title:      def.Title,
			Status:     inst.Status,
			IsCritical: def.IsCritical,
		})
	}

	return Result{CanEnd: len(blockers) == 0, Blockers: blockers}
}

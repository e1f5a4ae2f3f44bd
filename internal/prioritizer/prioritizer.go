// Package prioritizer selects the single task a staff member must act on
// next (the NOW action) from the full set of a shift's pending instances.
//
// Resolution is a pure function of the current instance set and the clock:
// it is idempotent, side-effect free, and safe to re-run from scratch on
// every change notification. When two devices race on the same task, the
// loser's next resolution silently moves on to the next-highest-priority
// pending task.
package prioritizer

import (
	"sort"
	"time"

	"github.com/cafeops/shiftdeck/internal/domain"
	"github.com/cafeops/shiftdeck/internal/duewindow"
)

// candidate pairs a pending instance with its definition for sorting.
type candidate struct {
	inst *domain.TaskInstance
	def  *domain.TaskDefinition
}

// less implements the selection order, highest precedence first:
// criticality, then priority code, then due instant (tasks with a due time
// before tasks without; earlier first), then template sort order. Overdue
// tasks surface before not-yet-due ones at the same tier because their due
// instant is earlier. The remaining tie-breaks keep the order total so
// resolution stays deterministic.
func less(a, b candidate) bool {
	if a.def.IsCritical != b.def.IsCritical {
		return a.def.IsCritical
	}

	if ar, br := a.def.Priority.Rank(), b.def.Priority.Rank(); ar != br {
		return ar < br
	}

	aDue, bDue := a.inst.DueAt, b.inst.DueAt
	switch {
	case aDue != nil && bDue == nil:
		return true
	case aDue == nil && bDue != nil:
		return false
	case aDue != nil && bDue != nil && !aDue.Equal(*bDue):
		return aDue.Before(*bDue)
	}

	if a.def.SortOrder != b.def.SortOrder {
		return a.def.SortOrder < b.def.SortOrder
	}

	if a.inst.OccurrenceIndex != b.inst.OccurrenceIndex {
		return a.inst.OccurrenceIndex < b.inst.OccurrenceIndex
	}
	return a.inst.ID < b.inst.ID
}

// pendingCandidates joins pending top-level instances with their
// definitions and sorts them into selection order. Instances whose
// definition belongs to a group are handled inside the group action, and
// instances with an unresolvable definition are dropped rather than
// erroring (a concurrent template edit must never break resolution).
func pendingCandidates(defs []*domain.TaskDefinition, instances []*domain.TaskInstance) []candidate {
	byID := make(map[string]*domain.TaskDefinition, len(defs))
	for _, d := range defs {
		byID[d.ID] = d
	}

	var cands []candidate
	for _, inst := range instances {
		if inst.Status != domain.TaskStatusPending {
			continue
		}
		def, ok := byID[inst.DefinitionID]
		if !ok || def.GroupID != nil {
			continue
		}
		cands = append(cands, candidate{inst: inst, def: def})
	}

	sort.Slice(cands, func(i, j int) bool { return less(cands[i], cands[j]) })
	return cands
}

// subTaskCount counts definitions belonging to the given group.
func subTaskCount(defs []*domain.TaskDefinition, groupID string) int {
	n := 0
	for _, d := range defs {
		if d.GroupID != nil && *d.GroupID == groupID {
			n++
		}
	}
	return n
}

// ResolveNowAction returns the current required action for a shift, or nil
// when nothing remains. A nil shift means the opening confirmation has not
// happened yet and yields the synthetic start_opening action.
func ResolveNowAction(shift *domain.ShiftSession, defs []*domain.TaskDefinition, instances []*domain.TaskInstance, now time.Time) *domain.NowAction {
	if shift == nil {
		return &domain.NowAction{
			ActionType: domain.ActionStartOpening,
			Title:      "Start your shift",
			Priority:   domain.PriorityP1,
			IsCritical: true,
		}
	}

	cands := pendingCandidates(defs, instances)
	if len(cands) == 0 {
		return nil
	}

	top := cands[0]
	w := duewindow.Evaluate(now, top.inst.DueAt, top.def.GracePeriodMinutes)

	action := &domain.NowAction{
		ActionType:     domain.ActionTask,
		TaskID:         top.inst.ID,
		Title:          top.def.Title,
		Instruction:    top.def.Description,
		DueTime:        top.def.DueTime,
		IsOverdue:      w.State == duewindow.StateOverdue,
		OverdueMinutes: w.MinutesOverdue,
		Priority:       top.def.Priority,
		IsCritical:     top.def.IsCritical,
		NeverGoesRed:   top.def.NeverGoesRed,
	}

	if top.def.TaskType == domain.TaskTypeGroup {
		action.ActionType = domain.ActionGroup
		action.GroupID = top.def.ID
		action.TaskCount = subTaskCount(defs, top.def.ID)
	}

	return action
}

// ComingUp returns the next tasks after the NOW action, in the same order
// the resolver uses, capped at limit. The selected NOW task is excluded.
func ComingUp(shift *domain.ShiftSession, defs []*domain.TaskDefinition, instances []*domain.TaskInstance, now time.Time, limit int) []domain.UpcomingTask {
	if shift == nil || limit <= 0 {
		return nil
	}

	cands := pendingCandidates(defs, instances)
	if len(cands) <= 1 {
		return nil
	}

	// Skip the NOW task.
	cands = cands[1:]
	if len(cands) > limit {
		cands = cands[:limit]
	}

	upcoming := make([]domain.UpcomingTask, 0, len(cands))
	for _, c := range cands {
		w := duewindow.Evaluate(now, c.inst.DueAt, c.def.GracePeriodMinutes)
		upcoming = append(upcoming, domain.UpcomingTask{
			TaskID:         c.inst.ID,
			Title:          c.def.Title,
			DueTime:        c.def.DueTime,
			IsOverdue:      w.State == duewindow.StateOverdue,
			OverdueMinutes: w.MinutesOverdue,
			Priority:       c.def.Priority,
			IsCritical:     c.def.IsCritical,
			NeverGoesRed:   c.def.NeverGoesRed,
		})
	}
	return upcoming
}

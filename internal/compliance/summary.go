package compliance

import (
	"sort"
	"time"

	"github.com/cafeops/shiftdeck/internal/domain"
)

// PhaseStatus reports completion of one phase of the shift's checklist.
// Group definitions form phases; ungrouped tasks fall under "General".
type PhaseStatus struct {
	Name     string
	Total    int
	Resolved int
	Complete bool
}

// ShiftSummary is the end-of-day summary for a single shift.
type ShiftSummary struct {
	Score int

	EarlyCount   int
	OnTimeCount  int
	LateCount    int
	SkippedCount int
	MissedCount  int

	Phases    []PhaseStatus
	LateTasks []string
}

// SummarizeShift produces the end-of-day summary for one shift as of the
// moment it is requested: tasks still pending or blocked count as missed.
func SummarizeShift(defs []*domain.TaskDefinition, instances []*domain.TaskInstance, shiftStart time.Time) ShiftSummary {
	tasks := ClassifyShift(defs, instances, shiftStart)

	summary := ShiftSummary{Score: Score(tasks)}
	for _, t := range tasks {
		switch t.Outcome {
		case domain.OutcomeEarly:
			summary.EarlyCount++
		case domain.OutcomeOnTime:
			summary.OnTimeCount++
		case domain.OutcomeLate:
			summary.LateCount++
			summary.LateTasks = append(summary.LateTasks, t.Title)
		case domain.OutcomeSkipped:
			summary.SkippedCount++
		case domain.OutcomeMissed:
			summary.MissedCount++
		}
	}

	summary.Phases = phaseStatuses(defs, instances)
	return summary
}

// phaseStatuses groups instances by their definition's phase (the owning
// group's title, or "General") and reports how far each phase got.
func phaseStatuses(defs []*domain.TaskDefinition, instances []*domain.TaskInstance) []PhaseStatus {
	byID := make(map[string]*domain.TaskDefinition, len(defs))
	for _, d := range defs {
		byID[d.ID] = d
	}

	phaseName := func(def *domain.TaskDefinition) string {
		if def.GroupID != nil {
			if parent, ok := byID[*def.GroupID]; ok {
				return parent.Title
			}
		}
		if def.TaskType == domain.TaskTypeGroup {
			return def.Title
		}
		return "General"
	}

	statuses := make(map[string]*PhaseStatus)
	var order []string
	for _, inst := range instances {
		def, ok := byID[inst.DefinitionID]
		if !ok {
			continue
		}
		name := phaseName(def)
		st, ok := statuses[name]
		if !ok {
			st = &PhaseStatus{Name: name}
			statuses[name] = st
			order = append(order, name)
		}
		st.Total++
		if inst.Resolved() {
			st.Resolved++
		}
	}

	sort.Strings(order)
	result := make([]PhaseStatus, 0, len(order))
	for _, name := range order {
		st := statuses[name]
		st.Complete = st.Resolved == st.Total
		result = append(result, *st)
	}
	return result
}

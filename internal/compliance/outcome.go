// Package compliance classifies task outcomes and aggregates them into
// shift summaries and ranged compliance reports. All functions are pure:
// they take the instance and definition sets as explicit arguments and
// never touch a store.
package compliance

import (
	"math"
	"time"

	"github.com/cafeops/shiftdeck/internal/domain"
)

// Classify derives the timeliness outcome of a single task instance.
//
// Boundary rules: completion exactly at the due instant is early, exactly
// at the end of grace is on_time, one minute later is late. Tasks without
// a due time are always on_time once completed. Pending or blocked tasks
// at the end of the scored window are missed.
//
// never_goes_red has deliberately no exemption here: a rhythm task is
// never shown as urgent but still counts as late in aggregates.
func Classify(def *domain.TaskDefinition, inst *domain.TaskInstance, shiftStart time.Time) domain.Outcome {
	switch inst.Status {
	case domain.TaskStatusSkipped:
		return domain.OutcomeSkipped
	case domain.TaskStatusPending, domain.TaskStatusBlocked:
		return domain.OutcomeMissed
	}

	// Completed from here on.
	due := inst.DueAt
	if due == nil && def.DueTime != nil {
		d := def.DueTime.At(shiftStart)
		due = &d
	}
	if due == nil || inst.CompletedAt == nil {
		return domain.OutcomeOnTime
	}

	completed := *inst.CompletedAt
	if !completed.After(*due) {
		return domain.OutcomeEarly
	}
	if !completed.After(def.GraceInstant(*due)) {
		return domain.OutcomeOnTime
	}
	return domain.OutcomeLate
}

// ClassifiedTask is one task instance with its derived outcome, carrying
// just enough context for aggregation.
type ClassifiedTask struct {
	Title      string
	IsCritical bool
	Outcome    domain.Outcome

	// Day is the calendar date of the owning session's start, used for
	// trend bucketing.
	Day time.Time
}

// ClassifyShift classifies every instance of one shift. Instances whose
// definition cannot be resolved are dropped.
func ClassifyShift(defs []*domain.TaskDefinition, instances []*domain.TaskInstance, shiftStart time.Time) []ClassifiedTask {
	byID := make(map[string]*domain.TaskDefinition, len(defs))
	for _, d := range defs {
		byID[d.ID] = d
	}

	day := shiftStart.Truncate(24 * time.Hour)
	tasks := make([]ClassifiedTask, 0, len(instances))
	for _, inst := range instances {
		def, ok := byID[inst.DefinitionID]
		if !ok {
			continue
		}
		tasks = append(tasks, ClassifiedTask{
			Title:      def.Title,
			IsCritical: def.IsCritical,
			Outcome:    Classify(def, inst, shiftStart),
			Day:        day,
		})
	}
	return tasks
}

// Score computes the 0-100 compliance score: round(100 * (early + on_time)
// / total). An empty set is vacuously compliant and scores 100.
func Score(tasks []ClassifiedTask) int {
	if len(tasks) == 0 {
		return 100
	}
	compliant := 0
	for _, t := range tasks {
		if t.Outcome == domain.OutcomeEarly || t.Outcome == domain.OutcomeOnTime {
			compliant++
		}
	}
	return int(math.Round(100 * float64(compliant) / float64(len(tasks))))
}

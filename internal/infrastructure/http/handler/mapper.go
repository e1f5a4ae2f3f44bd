package handler

import (
	"time"

	"github.com/cafeops/shiftdeck/internal/compliance"
	"github.com/cafeops/shiftdeck/internal/domain"
	"github.com/cafeops/shiftdeck/internal/gate"
)

// DTOs returned by the API. Times are RFC 3339 UTC; times of day are
// "HH:MM" strings.

type ShiftDTO struct {
	ID          string     `json:"id"`
	SiteID      string     `json:"site_id"`
	ShiftType   string     `json:"shift_type"`
	TemplateID  string     `json:"template_id"`
	StartedBy   string     `json:"started_by"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedBy *string    `json:"completed_by,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	IsComplete  bool       `json:"is_complete"`
}

type NowActionDTO struct {
	ActionType     string  `json:"action_type"`
	TaskID         string  `json:"task_id,omitempty"`
	GroupID        string  `json:"group_id,omitempty"`
	Title          string  `json:"title"`
	Instruction    string  `json:"instruction,omitempty"`
	DueTime        *string `json:"due_time,omitempty"`
	IsOverdue      bool    `json:"is_overdue"`
	OverdueMinutes int     `json:"overdue_minutes"`
	Priority       string  `json:"priority"`
	IsCritical     bool    `json:"is_critical"`
	TaskCount      int     `json:"task_count,omitempty"`
	NeverGoesRed   bool    `json:"never_goes_red,omitempty"`
}

type UpcomingTaskDTO struct {
	TaskID         string  `json:"task_id"`
	Title          string  `json:"title"`
	DueTime        *string `json:"due_time,omitempty"`
	IsOverdue      bool    `json:"is_overdue"`
	OverdueMinutes int     `json:"overdue_minutes"`
	Priority       string  `json:"priority"`
	IsCritical     bool    `json:"is_critical"`
	NeverGoesRed   bool    `json:"never_goes_red,omitempty"`
}

type TaskInstanceDTO struct {
	ID               string     `json:"id"`
	ShiftID          string     `json:"shift_id"`
	DefinitionID     string     `json:"definition_id"`
	Status           string     `json:"status"`
	DueAt            *time.Time `json:"due_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	CompletedBy      *string    `json:"completed_by,omitempty"`
	EvidenceNote     *string    `json:"evidence_note,omitempty"`
	EvidenceValue    *float64   `json:"evidence_value,omitempty"`
	EvidencePhotoURL *string    `json:"evidence_photo_url,omitempty"`
	BlockedReason    *string    `json:"blocked_reason,omitempty"`
	OccurrenceIndex  int        `json:"occurrence_index"`
}

type BlockerDTO struct {
	TaskID     string `json:"task_id"`
	Title      string `json:"title"`
	Status     string `json:"status"`
	IsCritical bool   `json:"is_critical"`
}

type GateDTO struct {
	CanEnd         bool         `json:"can_end"`
	RemainingCount int          `json:"remaining_count"`
	Blockers       []BlockerDTO `json:"blockers"`
}

type PhaseStatusDTO struct {
	Name     string `json:"name"`
	Total    int    `json:"total"`
	Resolved int    `json:"resolved"`
	Complete bool   `json:"complete"`
}

type ShiftSummaryDTO struct {
	Score        int              `json:"score"`
	EarlyCount   int              `json:"early_count"`
	OnTimeCount  int              `json:"on_time_count"`
	LateCount    int              `json:"late_count"`
	SkippedCount int              `json:"skipped_count"`
	MissedCount  int              `json:"missed_count"`
	Phases       []PhaseStatusDTO `json:"phases"`
	LateTasks    []string         `json:"late_tasks"`
}

type TitleAggregateDTO struct {
	Title        string  `json:"title"`
	Attempts     int     `json:"attempts"`
	LateCount    int     `json:"late_count"`
	SkippedCount int     `json:"skipped_count"`
	LatePercent  float64 `json:"late_percent"`
}

type DayBucketDTO struct {
	Date      string `json:"date"`
	Score     int    `json:"score"`
	TaskCount int    `json:"task_count"`
}

type InsightDTO struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type ComplianceReportDTO struct {
	Score               int                 `json:"score"`
	CriticalScore       int                 `json:"critical_score"`
	EarlyCount          int                 `json:"early_count"`
	OnTimeCount         int                 `json:"on_time_count"`
	LateCount           int                 `json:"late_count"`
	SkippedCount        int                 `json:"skipped_count"`
	MissedCount         int                 `json:"missed_count"`
	TotalTasks          int                 `json:"total_tasks"`
	TroubleTasks        []TitleAggregateDTO `json:"trouble_tasks"`
	Days                []DayBucketDTO      `json:"days"`
	WeekOverWeekDelta   float64             `json:"week_over_week_delta"`
	MonthOverMonthDelta float64             `json:"month_over_month_delta"`
	Insights            []InsightDTO        `json:"insights"`
}

type TemplateDTO struct {
	ID        string    `json:"id"`
	SiteID    string    `json:"site_id"`
	Name      string    `json:"name"`
	ShiftType string    `json:"shift_type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type TaskDefinitionDTO struct {
	ID                 string  `json:"id"`
	Title              string  `json:"title"`
	Description        string  `json:"description,omitempty"`
	Priority           string  `json:"priority"`
	IsCritical         bool    `json:"is_critical"`
	IsRequired         bool    `json:"is_required"`
	DueTime            *string `json:"due_time,omitempty"`
	GracePeriodMinutes int     `json:"grace_period_minutes"`
	EvidenceType       string  `json:"evidence_type"`
	TaskType           string  `json:"task_type"`
	SortOrder          int     `json:"sort_order"`
	GroupID            *string `json:"group_id,omitempty"`
	IntervalMinutes    int     `json:"interval_minutes,omitempty"`
	ActiveWindowStart  *string `json:"active_window_start,omitempty"`
	ActiveWindowEnd    *string `json:"active_window_end,omitempty"`
	MaxOccurrences     *int    `json:"max_occurrences,omitempty"`
	NeverGoesRed       bool    `json:"never_goes_red,omitempty"`
	NoNotifications    bool    `json:"no_notifications,omitempty"`
}

func timeOfDayString(t *domain.TimeOfDay) *string {
	if t == nil {
		return nil
	}
	s := t.String()
	return &s
}

// Domain → DTO mappers

func MapShiftToDTO(session *domain.ShiftSession) ShiftDTO {
	return ShiftDTO{
		ID:          session.ID,
		SiteID:      session.SiteID,
		ShiftType:   string(session.ShiftType),
		TemplateID:  session.TemplateID,
		StartedBy:   session.StartedBy,
		StartedAt:   session.StartedAt,
		CompletedBy: session.CompletedBy,
		CompletedAt: session.CompletedAt,
		IsComplete:  session.IsComplete,
	}
}

func MapNowActionToDTO(a *domain.NowAction) *NowActionDTO {
	if a == nil {
		return nil
	}
	return &NowActionDTO{
		ActionType:     string(a.ActionType),
		TaskID:         a.TaskID,
		GroupID:        a.GroupID,
		Title:          a.Title,
		Instruction:    a.Instruction,
		DueTime:        timeOfDayString(a.DueTime),
		IsOverdue:      a.IsOverdue,
		OverdueMinutes: a.OverdueMinutes,
		Priority:       string(a.Priority),
		IsCritical:     a.IsCritical,
		TaskCount:      a.TaskCount,
		NeverGoesRed:   a.NeverGoesRed,
	}
}

func MapUpcomingToDTO(tasks []domain.UpcomingTask) []UpcomingTaskDTO {
	dtos := make([]UpcomingTaskDTO, 0, len(tasks))
	for _, t := range tasks {
		dtos = append(dtos, UpcomingTaskDTO{
			TaskID:         t.TaskID,
			Title:          t.Title,
			DueTime:        timeOfDayString(t.DueTime),
			IsOverdue:      t.IsOverdue,
			OverdueMinutes: t.OverdueMinutes,
			Priority:       string(t.Priority),
			IsCritical:     t.IsCritical,
			NeverGoesRed:   t.NeverGoesRed,
		})
	}
	return dtos
}

func MapInstanceToDTO(inst *domain.TaskInstance) TaskInstanceDTO {
	return TaskInstanceDTO{
		ID:               inst.ID,
		ShiftID:          inst.ShiftID,
		DefinitionID:     inst.DefinitionID,
		Status:           string(inst.Status),
		DueAt:            inst.DueAt,
		CompletedAt:      inst.CompletedAt,
		CompletedBy:      inst.CompletedBy,
		EvidenceNote:     inst.EvidenceNote,
		EvidenceValue:    inst.EvidenceValue,
		EvidencePhotoURL: inst.EvidencePhotoURL,
		BlockedReason:    inst.BlockedReason,
		OccurrenceIndex:  inst.OccurrenceIndex,
	}
}

func MapInstancesToDTO(instances []*domain.TaskInstance) []TaskInstanceDTO {
	dtos := make([]TaskInstanceDTO, 0, len(instances))
	for _, inst := range instances {
		dtos = append(dtos, MapInstanceToDTO(inst))
	}
	return dtos
}

func MapGateToDTO(result gate.Result) GateDTO {
	blockers := make([]BlockerDTO, 0, len(result.Blockers))
	for _, b := range result.Blockers {
		blockers = append(blockers, BlockerDTO{
			TaskID:     b.TaskID,
			Title:      b.Title,
			Status:     string(b.Status),
			IsCritical: b.IsCritical,
		})
	}
	return GateDTO{
		CanEnd:         result.CanEnd,
		RemainingCount: result.RemainingBlockerCount(),
		Blockers:       blockers,
	}
}

func MapSummaryToDTO(s compliance.ShiftSummary) ShiftSummaryDTO {
	phases := make([]PhaseStatusDTO, 0, len(s.Phases))
	for _, p := range s.Phases {
		phases = append(phases, PhaseStatusDTO{
			Name:     p.Name,
			Total:    p.Total,
			Resolved: p.Resolved,
			Complete: p.Complete,
		})
	}
	lateTasks := s.LateTasks
	if lateTasks == nil {
		lateTasks = []string{}
	}
	return ShiftSummaryDTO{
		Score:        s.Score,
		EarlyCount:   s.EarlyCount,
		OnTimeCount:  s.OnTimeCount,
		LateCount:    s.LateCount,
		SkippedCount: s.SkippedCount,
		MissedCount:  s.MissedCount,
		Phases:       phases,
		LateTasks:    lateTasks,
	}
}

func MapReportToDTO(r compliance.Report) ComplianceReportDTO {
	trouble := make([]TitleAggregateDTO, 0, len(r.TroubleTasks))
	for _, t := range r.TroubleTasks {
		trouble = append(trouble, TitleAggregateDTO{
			Title:        t.Title,
			Attempts:     t.Attempts,
			LateCount:    t.LateCount,
			SkippedCount: t.SkippedCount,
			LatePercent:  t.LatePercent,
		})
	}
	days := make([]DayBucketDTO, 0, len(r.Days))
	for _, d := range r.Days {
		days = append(days, DayBucketDTO{
			Date:      d.Date.Format(time.DateOnly),
			Score:     d.Score,
			TaskCount: d.TaskCount,
		})
	}
	insights := make([]InsightDTO, 0, len(r.Insights))
	for _, in := range r.Insights {
		insights = append(insights, InsightDTO{
			Kind:    string(in.Kind),
			Message: in.Message,
		})
	}
	return ComplianceReportDTO{
		Score:               r.Score,
		CriticalScore:       r.CriticalScore,
		EarlyCount:          r.EarlyCount,
		OnTimeCount:         r.OnTimeCount,
		LateCount:           r.LateCount,
		SkippedCount:        r.SkippedCount,
		MissedCount:         r.MissedCount,
		TotalTasks:          r.TotalTasks,
		TroubleTasks:        trouble,
		Days:                days,
		WeekOverWeekDelta:   r.WeekOverWeekDelta,
		MonthOverMonthDelta: r.MonthOverMonthDelta,
		Insights:            insights,
	}
}

func MapTemplateToDTO(tmpl *domain.ChecklistTemplate) TemplateDTO {
	return TemplateDTO{
		ID:        tmpl.ID,
		SiteID:    tmpl.SiteID,
		Name:      tmpl.Name,
		ShiftType: string(tmpl.ShiftType),
		CreatedAt: tmpl.CreatedAt,
		UpdatedAt: tmpl.UpdatedAt,
	}
}

func MapDefinitionToDTO(def *domain.TaskDefinition) TaskDefinitionDTO {
	return TaskDefinitionDTO{
		ID:                 def.ID,
		Title:              def.Title,
		Description:        def.Description,
		Priority:           string(def.Priority),
		IsCritical:         def.IsCritical,
		IsRequired:         def.IsRequired,
		DueTime:            timeOfDayString(def.DueTime),
		GracePeriodMinutes: def.GracePeriodMinutes,
		EvidenceType:       string(def.EvidenceType),
		TaskType:           string(def.TaskType),
		SortOrder:          def.SortOrder,
		GroupID:            def.GroupID,
		IntervalMinutes:    def.IntervalMinutes,
		ActiveWindowStart:  timeOfDayString(def.ActiveWindowStart),
		ActiveWindowEnd:    timeOfDayString(def.ActiveWindowEnd),
		MaxOccurrences:     def.MaxOccurrences,
		NeverGoesRed:       def.NeverGoesRed,
		NoNotifications:    def.NoNotifications,
	}
}

func MapDefinitionsToDTO(defs []*domain.TaskDefinition) []TaskDefinitionDTO {
	dtos := make([]TaskDefinitionDTO, 0, len(defs))
	for _, def := range defs {
		dtos = append(dtos, MapDefinitionToDTO(def))
	}
	return dtos
}

// Package report provides the compliance analytics service: outcome
// aggregation, trouble-task breakdowns, trends and insights over a time
// range for one site.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/cafeops/shiftdeck/internal/compliance"
	"github.com/cafeops/shiftdeck/internal/domain"
)

// Repository defines the read operations the report service needs.
type Repository interface {
	// FindShiftsInRange lists a site's shift sessions whose start falls in
	// [from, to), oldest first.
	FindShiftsInRange(ctx context.Context, siteID string, from, to time.Time) ([]*domain.ShiftSession, error)

	// FindDefinitionsByTemplate lists a template's task definitions.
	FindDefinitionsByTemplate(ctx context.Context, templateID string) ([]*domain.TaskDefinition, error)

	// FindInstancesByShift lists every instance of a shift.
	FindInstancesByShift(ctx context.Context, shiftID string) ([]*domain.TaskInstance, error)
}

// Service computes compliance reports.
type Service struct {
	repo Repository
}

// NewService creates a new report service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ComplianceReport scores every task instance of every session in
// [from, to) for the site and aggregates the results. Sessions still open
// at report time contribute their pending tasks as missed.
func (s *Service) ComplianceReport(ctx context.Context, siteID string, from, to time.Time) (compliance.Report, error) {
	sessions, err := s.repo.FindShiftsInRange(ctx, siteID, from, to)
	if err != nil {
		return compliance.Report{}, fmt.Errorf("failed to load sessions: %w", err)
	}

	// Definitions are shared across sessions using the same template;
	// fetch each template once.
	defsByTemplate := make(map[string][]*domain.TaskDefinition)

	var tasks []compliance.ClassifiedTask
	for _, session := range sessions {
		defs, ok := defsByTemplate[session.TemplateID]
		if !ok {
			defs, err = s.repo.FindDefinitionsByTemplate(ctx, session.TemplateID)
			if err != nil {
				return compliance.Report{}, fmt.Errorf("failed to load definitions: %w", err)
			}
			defsByTemplate[session.TemplateID] = defs
		}

		instances, err := s.repo.FindInstancesByShift(ctx, session.ID)
		if err != nil {
			return compliance.Report{}, fmt.Errorf("failed to load instances: %w", err)
		}

		tasks = append(tasks, compliance.ClassifyShift(defs, instances, session.StartedAt)...)
	}

	return compliance.BuildReport(tasks, to), nil
}

// Package template implements checklist template administration: creating
// templates with their task definitions and listing them per site.
package template

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cafeops/shiftdeck/internal/domain"
)

// Repository defines storage operations for checklist templates.
type Repository interface {
	// CreateTemplate persists a template and its definitions atomically.
	CreateTemplate(ctx context.Context, tmpl *domain.ChecklistTemplate, defs []*domain.TaskDefinition) (*domain.ChecklistTemplate, error)

	// FindTemplateByID retrieves a template.
	// Returns domain.ErrTemplateNotFound if it doesn't exist.
	FindTemplateByID(ctx context.Context, id string) (*domain.ChecklistTemplate, error)

	// ListTemplatesBySite lists a site's templates ordered by name.
	ListTemplatesBySite(ctx context.Context, siteID string) ([]*domain.ChecklistTemplate, error)

	// FindDefinitionsByTemplate lists a template's task definitions in
	// sort order.
	FindDefinitionsByTemplate(ctx context.Context, templateID string) ([]*domain.TaskDefinition, error)
}

// Service provides template administration operations.
type Service struct {
	repo Repository
}

// NewService creates a new template service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// DefinitionInput describes one task definition to create with a template.
type DefinitionInput struct {
	Title       string
	Description string

	Priority   string
	IsCritical bool
	IsRequired bool

	DueTime            *string
	GracePeriodMinutes int

	EvidenceType string
	TaskType     string
	SortOrder    int

	GroupIndex *int

	IntervalMinutes   int
	ActiveWindowStart *string
	ActiveWindowEnd   *string
	MaxOccurrences    *int
	NeverGoesRed      bool
	NoNotifications   bool
}

// CreateTemplate validates and persists a template with its definitions.
// GroupIndex references another definition in the same request by position;
// it is resolved to the generated definition ID.
func (s *Service) CreateTemplate(ctx context.Context, siteID, name, shiftTypeStr string, inputs []DefinitionInput) (*domain.ChecklistTemplate, []*domain.TaskDefinition, error) {
	if siteID == "" {
		return nil, nil, fmt.Errorf("%w: site id is required", domain.ErrInvalidID)
	}

	title, err := domain.NewTitle(name)
	if err != nil {
		return nil, nil, err
	}

	shiftType, err := domain.NewShiftType(shiftTypeStr)
	if err != nil {
		return nil, nil, err
	}

	templateID, err := uuid.NewV7()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate template id: %w", err)
	}

	now := time.Now().UTC()
	tmpl := &domain.ChecklistTemplate{
		ID:        templateID.String(),
		SiteID:    siteID,
		Name:      title.String(),
		ShiftType: shiftType,
		CreatedAt: now,
		UpdatedAt: now,
	}

	defs := make([]*domain.TaskDefinition, 0, len(inputs))
	for i, in := range inputs {
		def, err := s.buildDefinition(tmpl.ID, i, in)
		if err != nil {
			return nil, nil, fmt.Errorf("definition %d: %w", i, err)
		}
		defs = append(defs, def)
	}

	// Resolve group references now that every definition has an ID.
	for i, in := range inputs {
		if in.GroupIndex == nil {
			continue
		}
		idx := *in.GroupIndex
		if idx < 0 || idx >= len(defs) || idx == i {
			return nil, nil, fmt.Errorf("definition %d: %w: group index out of range", i, domain.ErrInvalidID)
		}
		groupID := defs[idx].ID
		defs[i].GroupID = &groupID
	}

	created, err := s.repo.CreateTemplate(ctx, tmpl, defs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create template: %w", err)
	}

	return created, defs, nil
}

func (s *Service) buildDefinition(templateID string, index int, in DefinitionInput) (*domain.TaskDefinition, error) {
	title, err := domain.NewTitle(in.Title)
	if err != nil {
		return nil, err
	}

	priority, err := domain.NewPriority(in.Priority)
	if err != nil {
		return nil, err
	}

	evidenceType, err := domain.NewEvidenceType(in.EvidenceType)
	if err != nil {
		return nil, err
	}

	taskType, err := domain.NewTaskType(in.TaskType)
	if err != nil {
		return nil, err
	}

	if in.GracePeriodMinutes < 0 {
		return nil, domain.ErrNegativeGracePeriod
	}

	def := &domain.TaskDefinition{
		Title:              title.String(),
		Description:        in.Description,
		TemplateID:         templateID,
		Priority:           priority,
		IsCritical:         in.IsCritical,
		IsRequired:         in.IsRequired,
		GracePeriodMinutes: in.GracePeriodMinutes,
		EvidenceType:       evidenceType,
		TaskType:           taskType,
		SortOrder:          in.SortOrder,
		NeverGoesRed:       in.NeverGoesRed,
		NoNotifications:    in.NoNotifications,
	}
	if def.SortOrder == 0 {
		def.SortOrder = index
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate definition id: %w", err)
	}
	def.ID = id.String()

	if in.DueTime != nil {
		due, err := domain.NewTimeOfDay(*in.DueTime)
		if err != nil {
			return nil, err
		}
		def.DueTime = &due
	}

	if taskType == domain.TaskTypeRecurring {
		if in.IntervalMinutes <= 0 {
			return nil, domain.ErrInvalidInterval
		}
		if in.ActiveWindowStart == nil || in.ActiveWindowEnd == nil {
			return nil, domain.ErrInvalidActiveWindow
		}
		start, err := domain.NewTimeOfDay(*in.ActiveWindowStart)
		if err != nil {
			return nil, err
		}
		end, err := domain.NewTimeOfDay(*in.ActiveWindowEnd)
		if err != nil {
			return nil, err
		}
		if !start.Before(end) {
			return nil, domain.ErrInvalidActiveWindow
		}
		def.IntervalMinutes = in.IntervalMinutes
		def.ActiveWindowStart = &start
		def.ActiveWindowEnd = &end
		def.MaxOccurrences = in.MaxOccurrences
	}

	return def, nil
}

// GetTemplate retrieves a template with its definitions.
func (s *Service) GetTemplate(ctx context.Context, templateID string) (*domain.ChecklistTemplate, []*domain.TaskDefinition, error) {
	if templateID == "" {
		return nil, nil, fmt.Errorf("%w: template id is required", domain.ErrInvalidID)
	}

	tmpl, err := s.repo.FindTemplateByID(ctx, templateID)
	if err != nil {
		return nil, nil, err
	}

	defs, err := s.repo.FindDefinitionsByTemplate(ctx, templateID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load definitions: %w", err)
	}

	return tmpl, defs, nil
}

// ListTemplates lists a site's templates.
func (s *Service) ListTemplates(ctx context.Context, siteID string) ([]*domain.ChecklistTemplate, error) {
	if siteID == "" {
		return nil, fmt.Errorf("%w: site id is required", domain.ErrInvalidID)
	}
	return s.repo.ListTemplatesBySite(ctx, siteID)
}

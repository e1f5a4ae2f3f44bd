// Package shift provides the application service for shift operations:
// starting shifts, mutating tasks, resolving the NOW action, gating shift
// completion, and end-of-day summaries.
package shift

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cafeops/shiftdeck/internal/compliance"
	"github.com/cafeops/shiftdeck/internal/domain"
	"github.com/cafeops/shiftdeck/internal/gate"
	"github.com/cafeops/shiftdeck/internal/prioritizer"
	"github.com/cafeops/shiftdeck/internal/recurring"
)

// Default configuration values.
const (
	DefaultComingUpLimit = 5
	MaxComingUpLimit     = 20
)

// Service orchestrates shift operations over the Repository interface.
// Every task mutation publishes a change event so subscribed viewers can
// re-resolve their NOW action.
type Service struct {
	repo     Repository
	expander *recurring.Expander
	hub      *Hub
	now      func() time.Time
}

// Option is a functional option for configuring Service.
type Option func(*Service)

// WithClock overrides the service clock. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new shift service.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		expander: recurring.NewExpander(),
		hub:      NewHub(),
		now:      func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Hub returns the change hub for subscribing to shift change events.
func (s *Service) Hub() *Hub {
	return s.hub
}

// StartShift opens a shift session for a site and bulk-instantiates the
// template's checklist into task instances.
func (s *Service) StartShift(ctx context.Context, siteID, startedBy, shiftTypeStr, templateID string) (*domain.ShiftSession, error) {
	if siteID == "" || startedBy == "" {
		return nil, domain.ErrInvalidID
	}

	shiftType, err := domain.NewShiftType(shiftTypeStr)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.FindTemplateByID(ctx, templateID); err != nil {
		return nil, err
	}

	idObj, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate id: %w", err)
	}

	session := &domain.ShiftSession{
		ID:         idObj.String(),
		SiteID:     siteID,
		ShiftType:  shiftType,
		TemplateID: templateID,
		StartedBy:  startedBy,
		StartedAt:  s.now(),
	}

	created, err := s.repo.CreateShift(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("failed to create shift: %w", err)
	}

	if _, err := s.CreateChecklistFromTemplate(ctx, created.ID, templateID); err != nil {
		return nil, err
	}

	s.hub.Publish(created.ID)
	return created, nil
}

// CreateChecklistFromTemplate bulk-instantiates a template's definitions
// into task instances for a shift. Due times are materialized against the
// shift's start date. Recurring definitions are skipped here; their
// occurrences are created by ExpandRecurringOccurrences as they fall due.
func (s *Service) CreateChecklistFromTemplate(ctx context.Context, shiftID, templateID string) ([]*domain.TaskInstance, error) {
	session, err := s.repo.FindShiftByID(ctx, shiftID)
	if err != nil {
		return nil, err
	}

	defs, err := s.repo.FindDefinitionsByTemplate(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to load definitions: %w", err)
	}

	now := s.now()
	instances := make([]*domain.TaskInstance, 0, len(defs))
	for _, def := range defs {
		if def.TaskType == domain.TaskTypeRecurring {
			continue
		}

		idObj, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("failed to generate id: %w", err)
		}

		inst := &domain.TaskInstance{
			ID:           idObj.String(),
			ShiftID:      session.ID,
			DefinitionID: def.ID,
			Status:       domain.TaskStatusPending,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if def.DueTime != nil {
			due := def.DueTime.At(session.StartedAt)
			inst.DueAt = &due
		}
		instances = append(instances, inst)
	}

	if err := s.repo.CreateInstances(ctx, instances); err != nil {
		return nil, fmt.Errorf("failed to create instances: %w", err)
	}

	return instances, nil
}

// Evidence is the proof payload supplied when completing a task. Which
// field must be set depends on the definition's evidence type; validation
// happens before any mutation is attempted.
type Evidence struct {
	Note     *string
	Value    *float64
	PhotoURL *string
}

func validateEvidence(def *domain.TaskDefinition, ev Evidence) error {
	switch def.EvidenceType {
	case domain.EvidenceNote:
		if ev.Note == nil || *ev.Note == "" {
			return domain.ErrEvidenceRequired
		}
	case domain.EvidenceNumeric:
		if ev.Value == nil {
			return domain.ErrEvidenceNotNumeric
		}
	case domain.EvidencePhoto:
		if ev.PhotoURL == nil || *ev.PhotoURL == "" {
			return domain.ErrEvidenceRequired
		}
	}
	return nil
}

// CompleteTask marks a task instance completed with evidence.
//
// Completing a task that a concurrent actor already completed returns
// domain.ErrTaskAlreadyCompleted; callers absorb it by re-resolving the
// NOW action rather than surfacing an error. Completing a group task
// requires all of its sub-tasks to be resolved first.
func (s *Service) CompleteTask(ctx context.Context, taskID, userID string, ev Evidence) (*domain.TaskInstance, error) {
	inst, def, err := s.loadInstance(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if inst.Status == domain.TaskStatusCompleted {
		return nil, domain.ErrTaskAlreadyCompleted
	}
	if inst.Status == domain.TaskStatusSkipped {
		return nil, domain.ErrInvalidTransition
	}

	if err := validateEvidence(def, ev); err != nil {
		return nil, err
	}

	if def.TaskType == domain.TaskTypeGroup {
		if err := s.checkGroupComplete(ctx, inst.ShiftID, def.ID); err != nil {
			return nil, err
		}
	}

	now := s.now()
	inst.Status = domain.TaskStatusCompleted
	inst.CompletedAt = &now
	inst.CompletedBy = &userID
	inst.EvidenceNote = ev.Note
	inst.EvidenceValue = ev.Value
	inst.EvidencePhotoURL = ev.PhotoURL
	inst.BlockedReason = nil
	inst.UpdatedAt = now

	updated, err := s.repo.UpdateInstance(ctx, inst)
	if err != nil {
		return nil, fmt.Errorf("failed to complete task: %w", err)
	}

	s.hub.Publish(inst.ShiftID)
	return updated, nil
}

// checkGroupComplete verifies every sub-task of a group is resolved.
func (s *Service) checkGroupComplete(ctx context.Context, shiftID, groupID string) error {
	defs, instances, err := s.loadShiftState(ctx, shiftID)
	if err != nil {
		return err
	}

	subDefs := make(map[string]bool)
	for _, d := range defs {
		if d.GroupID != nil && *d.GroupID == groupID {
			subDefs[d.ID] = true
		}
	}

	for _, inst := range instances {
		if subDefs[inst.DefinitionID] && !inst.Resolved() {
			return domain.ErrGroupIncomplete
		}
	}
	return nil
}

// BlockTask marks a pending task blocked with a reason.
func (s *Service) BlockTask(ctx context.Context, taskID, reason string) (*domain.TaskInstance, error) {
	if reason == "" {
		return nil, domain.ErrBlockedReasonMissing
	}

	inst, _, err := s.loadInstance(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if inst.Status == domain.TaskStatusCompleted {
		return nil, domain.ErrTaskAlreadyCompleted
	}
	if inst.Status != domain.TaskStatusPending {
		return nil, domain.ErrInvalidTransition
	}

	inst.Status = domain.TaskStatusBlocked
	inst.BlockedReason = &reason
	inst.UpdatedAt = s.now()

	updated, err := s.repo.UpdateInstance(ctx, inst)
	if err != nil {
		return nil, fmt.Errorf("failed to block task: %w", err)
	}

	s.hub.Publish(inst.ShiftID)
	return updated, nil
}

// SkipTask marks a pending or blocked task skipped.
func (s *Service) SkipTask(ctx context.Context, taskID, userID string) (*domain.TaskInstance, error) {
	inst, _, err := s.loadInstance(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if inst.Status == domain.TaskStatusCompleted {
		return nil, domain.ErrTaskAlreadyCompleted
	}
	if inst.Status == domain.TaskStatusSkipped {
		return nil, domain.ErrInvalidTransition
	}

	now := s.now()
	inst.Status = domain.TaskStatusSkipped
	inst.CompletedBy = &userID
	inst.UpdatedAt = now

	updated, err := s.repo.UpdateInstance(ctx, inst)
	if err != nil {
		return nil, fmt.Errorf("failed to skip task: %w", err)
	}

	s.hub.Publish(inst.ShiftID)
	return updated, nil
}

// ReopenTask moves a blocked task back to pending for a retry.
func (s *Service) ReopenTask(ctx context.Context, taskID string) (*domain.TaskInstance, error) {
	inst, _, err := s.loadInstance(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if inst.Status != domain.TaskStatusBlocked {
		return nil, domain.ErrInvalidTransition
	}

	inst.Status = domain.TaskStatusPending
	inst.BlockedReason = nil
	inst.UpdatedAt = s.now()

	updated, err := s.repo.UpdateInstance(ctx, inst)
	if err != nil {
		return nil, fmt.Errorf("failed to reopen task: %w", err)
	}

	s.hub.Publish(inst.ShiftID)
	return updated, nil
}

// ResolveNowAction resolves the current required action for a shift.
// A nil action with nil error means nothing remains to do; an unresolvable
// shift ID is not an error either, per the same "nothing to do" contract.
func (s *Service) ResolveNowAction(ctx context.Context, shiftID string) (*domain.NowAction, error) {
	session, err := s.repo.FindShiftByID(ctx, shiftID)
	if err != nil {
		if errors.Is(err, domain.ErrShiftNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if session.IsComplete {
		return nil, nil
	}

	defs, instances, err := s.loadShiftState(ctx, shiftID)
	if err != nil {
		return nil, err
	}

	return prioritizer.ResolveNowAction(session, defs, instances, s.now()), nil
}

// ResolveNowForSite resolves the NOW action for a site. When the site has
// no open shift yet, the synthetic start_opening action is returned.
func (s *Service) ResolveNowForSite(ctx context.Context, siteID string) (*domain.NowAction, error) {
	session, err := s.repo.FindOpenShiftBySite(ctx, siteID)
	if err != nil {
		if errors.Is(err, domain.ErrShiftNotFound) {
			return prioritizer.ResolveNowAction(nil, nil, nil, s.now()), nil
		}
		return nil, err
	}
	return s.ResolveNowAction(ctx, session.ID)
}

// GetComingUpTasks returns the next tasks after the NOW action, in
// resolver order, capped at limit.
func (s *Service) GetComingUpTasks(ctx context.Context, shiftID string, limit int) ([]domain.UpcomingTask, error) {
	if limit <= 0 {
		limit = DefaultComingUpLimit
	}
	limit = min(limit, MaxComingUpLimit)

	session, err := s.repo.FindShiftByID(ctx, shiftID)
	if err != nil {
		return nil, err
	}

	defs, instances, err := s.loadShiftState(ctx, shiftID)
	if err != nil {
		return nil, err
	}

	return prioritizer.ComingUp(session, defs, instances, s.now(), limit), nil
}

// CanEndDay reports whether the shift's completion gate is open.
func (s *Service) CanEndDay(ctx context.Context, shiftID string) (bool, error) {
	result, err := s.evaluateGate(ctx, shiftID)
	if err != nil {
		return false, err
	}
	return result.CanEnd, nil
}

// RemainingBlockerCount returns how many required or critical tasks still
// hold the completion gate closed.
func (s *Service) RemainingBlockerCount(ctx context.Context, shiftID string) (int, error) {
	result, err := s.evaluateGate(ctx, shiftID)
	if err != nil {
		return 0, err
	}
	return result.RemainingBlockerCount(), nil
}

// GateStatus returns the full completion gate evaluation including the
// list of blocking tasks.
func (s *Service) GateStatus(ctx context.Context, shiftID string) (gate.Result, error) {
	return s.evaluateGate(ctx, shiftID)
}

func (s *Service) evaluateGate(ctx context.Context, shiftID string) (gate.Result, error) {
	if _, err := s.repo.FindShiftByID(ctx, shiftID); err != nil {
		return gate.Result{}, err
	}

	defs, instances, err := s.loadShiftState(ctx, shiftID)
	if err != nil {
		return gate.Result{}, err
	}

	return gate.Evaluate(defs, instances), nil
}

// EndShift closes a shift session. The completion gate is re-checked at
// the moment of closing: if it has flipped since it was last displayed,
// the close is rejected with the remaining blocker count.
func (s *Service) EndShift(ctx context.Context, shiftID, userID string) (*domain.ShiftSession, error) {
	result, err := s.evaluateGate(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	if !result.CanEnd {
		return nil, fmt.Errorf("%w: %d blocking task(s) remain", domain.ErrShiftNotComplete, result.RemainingBlockerCount())
	}

	session, err := s.repo.CompleteShift(ctx, shiftID, userID, s.now())
	if err != nil {
		return nil, err
	}

	s.hub.Publish(shiftID)
	return session, nil
}

// GetEndOfDaySummary scores a single shift as of now.
func (s *Service) GetEndOfDaySummary(ctx context.Context, shiftID string) (compliance.ShiftSummary, error) {
	session, err := s.repo.FindShiftByID(ctx, shiftID)
	if err != nil {
		return compliance.ShiftSummary{}, err
	}

	defs, instances, err := s.loadShiftState(ctx, shiftID)
	if err != nil {
		return compliance.ShiftSummary{}, err
	}

	return compliance.SummarizeShift(defs, instances, session.StartedAt), nil
}

// ExpandRecurringOccurrences creates any recurring occurrences that have
// fallen due by now and are not yet instantiated. Safe to call repeatedly;
// already-materialized occurrences are left alone.
func (s *Service) ExpandRecurringOccurrences(ctx context.Context, shiftID string, now time.Time) ([]*domain.TaskInstance, error) {
	session, err := s.repo.FindShiftByID(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	if session.IsComplete {
		return nil, nil
	}

	defs, instances, err := s.loadShiftState(ctx, shiftID)
	if err != nil {
		return nil, err
	}

	var created []*domain.TaskInstance
	for _, def := range defs {
		if def.TaskType != domain.TaskTypeRecurring {
			continue
		}
		missing, err := s.expander.MissingInstances(def, session.ID, session.StartedAt, now, instances)
		if err != nil {
			return nil, err
		}
		created = append(created, missing...)
	}

	if len(created) == 0 {
		return nil, nil
	}

	if err := s.repo.CreateInstances(ctx, created); err != nil {
		return nil, fmt.Errorf("failed to create occurrences: %w", err)
	}

	s.hub.Publish(shiftID)
	return created, nil
}

// GetShift retrieves a shift session by ID.
func (s *Service) GetShift(ctx context.Context, shiftID string) (*domain.ShiftSession, error) {
	return s.repo.FindShiftByID(ctx, shiftID)
}

// GetTask retrieves a task instance by ID.
func (s *Service) GetTask(ctx context.Context, taskID string) (*domain.TaskInstance, error) {
	return s.repo.FindInstanceByID(ctx, taskID)
}

func (s *Service) loadInstance(ctx context.Context, taskID string) (*domain.TaskInstance, *domain.TaskDefinition, error) {
	inst, err := s.repo.FindInstanceByID(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}

	session, err := s.repo.FindShiftByID(ctx, inst.ShiftID)
	if err != nil {
		return nil, nil, err
	}

	defs, err := s.repo.FindDefinitionsByTemplate(ctx, session.TemplateID)
	if err != nil {
		return nil, nil, err
	}

	for _, def := range defs {
		if def.ID == inst.DefinitionID {
			return inst, def, nil
		}
	}
	return nil, nil, domain.ErrDefinitionNotFound
}

func (s *Service) loadShiftState(ctx context.Context, shiftID string) ([]*domain.TaskDefinition, []*domain.TaskInstance, error) {
	session, err := s.repo.FindShiftByID(ctx, shiftID)
	if err != nil {
		return nil, nil, err
	}

	defs, err := s.repo.FindDefinitionsByTemplate(ctx, session.TemplateID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load definitions: %w", err)
	}

	instances, err := s.repo.FindInstancesByShift(ctx, shiftID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load instances: %w", err)
	}

	return defs, instances, nil
}

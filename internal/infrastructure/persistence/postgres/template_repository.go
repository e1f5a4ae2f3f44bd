package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/cafeops/shiftdeck/internal/domain"
)

const templateColumns = `id, site_id, name, shift_type, created_at, updated_at`

func scanTemplate(row pgx.Row) (*domain.ChecklistTemplate, error) {
	var (
		tmpl      domain.ChecklistTemplate
		shiftType string
	)
	err := row.Scan(
		&tmpl.ID,
		&tmpl.SiteID,
		&tmpl.Name,
		&shiftType,
		&tmpl.CreatedAt,
		&tmpl.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	tmpl.ShiftType = domain.ShiftType(shiftType)
	tmpl.CreatedAt = tmpl.CreatedAt.UTC()
	tmpl.UpdatedAt = tmpl.UpdatedAt.UTC()
	return &tmpl, nil
}

const definitionColumns = `id, template_id, title, description, priority, is_critical, is_required,
	due_time_minutes, grace_period_minutes, evidence_type, task_type, sort_order, group_id,
	interval_minutes, active_window_start_minutes, active_window_end_minutes, max_occurrences,
	never_goes_red, no_notifications`

func scanDefinition(row pgx.Row) (*domain.TaskDefinition, error) {
	var (
		def          domain.TaskDefinition
		priority     string
		evidenceType string
		taskType     string
		dueMinutes   *int
		startMinutes *int
		endMinutes   *int
	)
	err := row.Scan(
		&def.ID,
		&def.TemplateID,
		&def.Title,
		&def.Description,
		&priority,
		&def.IsCritical,
		&def.IsRequired,
		&dueMinutes,
		&def.GracePeriodMinutes,
		&evidenceType,
		&taskType,
		&def.SortOrder,
		&def.GroupID,
		&def.IntervalMinutes,
		&startMinutes,
		&endMinutes,
		&def.MaxOccurrences,
		&def.NeverGoesRed,
		&def.NoNotifications,
	)
	if err != nil {
		return nil, err
	}
	def.Priority = domain.Priority(priority)
	def.EvidenceType = domain.EvidenceType(evidenceType)
	def.TaskType = domain.TaskType(taskType)

	if def.DueTime, err = minutesToTimeOfDay(dueMinutes); err != nil {
		return nil, err
	}
	if def.ActiveWindowStart, err = minutesToTimeOfDay(startMinutes); err != nil {
		return nil, err
	}
	if def.ActiveWindowEnd, err = minutesToTimeOfDay(endMinutes); err != nil {
		return nil, err
	}
	return &def, nil
}

// CreateTemplate persists a template and its definitions in one transaction.
func (s *Store) CreateTemplate(ctx context.Context, tmpl *domain.ChecklistTemplate, defs []*domain.TaskDefinition) (created *domain.ChecklistTemplate, err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				slog.ErrorContext(ctx, "rollback failed",
					"original_error", err,
					"rollback_error", rbErr)
			}
		}
	}()

	row := tx.QueryRow(ctx, `
		INSERT INTO checklist_templates (id, site_id, name, shift_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+templateColumns,
		tmpl.ID, tmpl.SiteID, tmpl.Name, string(tmpl.ShiftType), tmpl.CreatedAt, tmpl.UpdatedAt,
	)
	created, err = scanTemplate(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}

	for _, def := range defs {
		_, err = tx.Exec(ctx, `
			INSERT INTO task_definitions (
				id, template_id, title, description, priority, is_critical, is_required,
				due_time_minutes, grace_period_minutes, evidence_type, task_type, sort_order, group_id,
				interval_minutes, active_window_start_minutes, active_window_end_minutes, max_occurrences,
				never_goes_red, no_notifications
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
			def.ID, def.TemplateID, def.Title, def.Description, string(def.Priority),
			def.IsCritical, def.IsRequired,
			timeOfDayToMinutes(def.DueTime), def.GracePeriodMinutes,
			string(def.EvidenceType), string(def.TaskType), def.SortOrder, def.GroupID,
			def.IntervalMinutes,
			timeOfDayToMinutes(def.ActiveWindowStart), timeOfDayToMinutes(def.ActiveWindowEnd),
			def.MaxOccurrences, def.NeverGoesRed, def.NoNotifications,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create task definition %s: %w", def.ID, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit template creation: %w", err)
	}
	return created, nil
}

// FindTemplateByID retrieves a checklist template.
func (s *Store) FindTemplateByID(ctx context.Context, id string) (*domain.ChecklistTemplate, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+templateColumns+`
		FROM checklist_templates
		WHERE id = $1`, id)

	tmpl, err := scanTemplate(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrTemplateNotFound, id)
		}
		return nil, fmt.Errorf("failed to find template: %w", err)
	}
	return tmpl, nil
}

// ListTemplatesBySite lists a site's templates ordered by name.
func (s *Store) ListTemplatesBySite(ctx context.Context, siteID string) ([]*domain.ChecklistTemplate, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+templateColumns+`
		FROM checklist_templates
		WHERE site_id = $1
		ORDER BY name`, siteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var templates []*domain.ChecklistTemplate
	for rows.Next() {
		tmpl, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, tmpl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate templates: %w", err)
	}
	return templates, nil
}

// FindDefinitionsByTemplate lists a template's task definitions in sort order.
func (s *Store) FindDefinitionsByTemplate(ctx context.Context, templateID string) ([]*domain.TaskDefinition, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+definitionColumns+`
		FROM task_definitions
		WHERE template_id = $1
		ORDER BY sort_order, id`, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list task definitions: %w", err)
	}
	defer rows.Close()

	var defs []*domain.TaskDefinition
	for rows.Next() {
		def, err := scanDefinition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task definition: %w", err)
		}
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate task definitions: %w", err)
	}
	return defs, nil
}

package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cafeops/shiftdeck/internal/application/template"
	"github.com/cafeops/shiftdeck/internal/infrastructure/http/response"
)

type definitionRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`

	Priority   string `json:"priority,omitempty"`
	IsCritical bool   `json:"is_critical,omitempty"`
	IsRequired bool   `json:"is_required,omitempty"`

	DueTime            *string `json:"due_time,omitempty"`
	GracePeriodMinutes int     `json:"grace_period_minutes,omitempty"`

	EvidenceType string `json:"evidence_type,omitempty"`
	TaskType     string `json:"task_type,omitempty"`
	SortOrder    int    `json:"sort_order,omitempty"`

	GroupIndex *int `json:"group_index,omitempty"`

	IntervalMinutes   int     `json:"interval_minutes,omitempty"`
	ActiveWindowStart *string `json:"active_window_start,omitempty"`
	ActiveWindowEnd   *string `json:"active_window_end,omitempty"`
	MaxOccurrences    *int    `json:"max_occurrences,omitempty"`
	NeverGoesRed      bool    `json:"never_goes_red,omitempty"`
	NoNotifications   bool    `json:"no_notifications,omitempty"`
}

// CreateTemplate creates a checklist template with its task definitions.
// POST /v1/templates
func (h *APIHandler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SiteID      string              `json:"site_id"`
		Name        string              `json:"name"`
		ShiftType   string              `json:"shift_type"`
		Definitions []definitionRequest `json:"definitions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON")
		return
	}

	inputs := make([]template.DefinitionInput, 0, len(req.Definitions))
	for _, d := range req.Definitions {
		inputs = append(inputs, template.DefinitionInput{
			Title:              d.Title,
			Description:        d.Description,
			Priority:           d.Priority,
			IsCritical:         d.IsCritical,
			IsRequired:         d.IsRequired,
			DueTime:            d.DueTime,
			GracePeriodMinutes: d.GracePeriodMinutes,
			EvidenceType:       d.EvidenceType,
			TaskType:           d.TaskType,
			SortOrder:          d.SortOrder,
			GroupIndex:         d.GroupIndex,
			IntervalMinutes:    d.IntervalMinutes,
			ActiveWindowStart:  d.ActiveWindowStart,
			ActiveWindowEnd:    d.ActiveWindowEnd,
			MaxOccurrences:     d.MaxOccurrences,
			NeverGoesRed:       d.NeverGoesRed,
			NoNotifications:    d.NoNotifications,
		})
	}

	tmpl, defs, err := h.templateService.CreateTemplate(r.Context(), req.SiteID, req.Name, req.ShiftType, inputs)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to create template via HTTP",
			"site_id", req.SiteID,
			"name", req.Name,
			"error", err)
		response.FromDomainError(w, err)
		return
	}

	slog.InfoContext(r.Context(), "template created via HTTP",
		"template_id", tmpl.ID,
		"site_id", tmpl.SiteID,
		"definitions", len(defs))

	response.Created(w, map[string]any{
		"template":    MapTemplateToDTO(tmpl),
		"definitions": MapDefinitionsToDTO(defs),
	})
}

// GetTemplate returns a template with its definitions.
// GET /v1/templates/{template_id}
func (h *APIHandler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	templateID := chi.URLParam(r, "template_id")

	tmpl, defs, err := h.templateService.GetTemplate(r.Context(), templateID)
	if err != nil {
		response.FromDomainError(w, err)
		return
	}

	response.OK(w, map[string]any{
		"template":    MapTemplateToDTO(tmpl),
		"definitions": MapDefinitionsToDTO(defs),
	})
}

// ListTemplates lists a site's templates.
// GET /v1/sites/{site_id}/templates
func (h *APIHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	siteID := chi.URLParam(r, "site_id")

	templates, err := h.templateService.ListTemplates(r.Context(), siteID)
	if err != nil {
		response.FromDomainError(w, err)
		return
	}

	dtos := make([]TemplateDTO, 0, len(templates))
	for _, tmpl := range templates {
		dtos = append(dtos, MapTemplateToDTO(tmpl))
	}

	response.OK(w, map[string]any{"templates": dtos})
}

// Package handler adapts HTTP requests to application service calls.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cafeops/shiftdeck/internal/application/report"
	"github.com/cafeops/shiftdeck/internal/application/shift"
	"github.com/cafeops/shiftdeck/internal/application/template"
	"github.com/cafeops/shiftdeck/internal/evidence"
)

// APIHandler routes /v1 API requests to the application services.
type APIHandler struct {
	shiftService    *shift.Service
	templateService *template.Service
	reportService   *report.Service
	evidenceStore   evidence.Store
}

// NewAPIHandler creates a new HTTP API handler.
func NewAPIHandler(shiftService *shift.Service, templateService *template.Service, reportService *report.Service, evidenceStore evidence.Store) *APIHandler {
	return &APIHandler{
		shiftService:    shiftService,
		templateService: templateService,
		reportService:   reportService,
		evidenceStore:   evidenceStore,
	}
}

// NewRouter builds the /v1 API router. Both production code and tests use
// this function so routing behavior is identical.
func NewRouter(shiftService *shift.Service, templateService *template.Service, reportService *report.Service, evidenceStore evidence.Store) http.Handler {
	h := NewAPIHandler(shiftService, templateService, reportService, evidenceStore)

	r := chi.NewRouter()
	r.Route("/v1", func(r chi.Router) {
		r.Route("/shifts", func(r chi.Router) {
			r.Post("/", h.StartShift)
			r.Get("/{shift_id}", h.GetShift)
			r.Get("/{shift_id}/now", h.GetNowAction)
			r.Get("/{shift_id}/now/stream", h.StreamNowAction)
			r.Get("/{shift_id}/coming-up", h.GetComingUp)
			r.Get("/{shift_id}/gate", h.GetGate)
			r.Get("/{shift_id}/summary", h.GetSummary)
			r.Post("/{shift_id}/expand", h.ExpandRecurring)
			r.Post("/{shift_id}/end", h.EndShift)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Post("/{task_id}/complete", h.CompleteTask)
			r.Post("/{task_id}/block", h.BlockTask)
			r.Post("/{task_id}/skip", h.SkipTask)
			r.Post("/{task_id}/reopen", h.ReopenTask)
			r.Post("/{task_id}/evidence/photo", h.UploadEvidencePhoto)
		})

		r.Get("/evidence/{task_id}/{photo_id}", h.GetEvidencePhoto)

		r.Route("/templates", func(r chi.Router) {
			r.Post("/", h.CreateTemplate)
			r.Get("/{template_id}", h.GetTemplate)
		})

		r.Route("/sites", func(r chi.Router) {
			r.Get("/{site_id}/now", h.GetSiteNowAction)
			r.Get("/{site_id}/templates", h.ListTemplates)
			r.Get("/{site_id}/compliance", h.GetComplianceReport)
		})
	})

	return r
}

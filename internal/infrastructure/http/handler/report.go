package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cafeops/shiftdeck/internal/infrastructure/http/response"
)

// GetComplianceReport returns the aggregate compliance report for a site.
// GET /v1/sites/{site_id}/compliance?from=2026-08-01T00:00:00Z&to=2026-09-01T00:00:00Z
//
// Defaults to the trailing 30 days when the range is omitted.
func (h *APIHandler) GetComplianceReport(w http.ResponseWriter, r *http.Request) {
	siteID := chi.URLParam(r, "site_id")

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -30)

	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.ValidationError(w, "from", "must be an RFC 3339 timestamp")
			return
		}
		from = parsed.UTC()
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.ValidationError(w, "to", "must be an RFC 3339 timestamp")
			return
		}
		to = parsed.UTC()
	}
	if !from.Before(to) {
		response.ValidationError(w, "from", "must be before to")
		return
	}

	rep, err := h.reportService.ComplianceReport(r.Context(), siteID, from, to)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to build compliance report via HTTP",
			"site_id", siteID,
			"error", err)
		response.FromDomainError(w, err)
		return
	}

	response.OK(w, MapReportToDTO(rep))
}

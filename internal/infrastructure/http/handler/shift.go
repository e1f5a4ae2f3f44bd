package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cafeops/shiftdeck/internal/infrastructure/http/response"
)

// StartShift opens a shift session and instantiates its checklist.
// POST /v1/shifts
func (h *APIHandler) StartShift(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SiteID     string `json:"site_id"`
		StartedBy  string `json:"started_by"`
		ShiftType  string `json:"shift_type"`
		TemplateID string `json:"template_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON")
		return
	}

	session, err := h.shiftService.StartShift(r.Context(), req.SiteID, req.StartedBy, req.ShiftType, req.TemplateID)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to start shift via HTTP",
			"site_id", req.SiteID,
			"error", err)
		response.FromDomainError(w, err)
		return
	}

	slog.InfoContext(r.Context(), "shift started via HTTP",
		"shift_id", session.ID,
		"site_id", session.SiteID)

	response.Created(w, MapShiftToDTO(session))
}

// GetShift returns a shift session.
// GET /v1/shifts/{shift_id}
func (h *APIHandler) GetShift(w http.ResponseWriter, r *http.Request) {
	shiftID := chi.URLParam(r, "shift_id")

	session, err := h.shiftService.GetShift(r.Context(), shiftID)
	if err != nil {
		response.FromDomainError(w, err)
		return
	}

	response.OK(w, MapShiftToDTO(session))
}

// GetNowAction resolves the single current action for a shift.
// GET /v1/shifts/{shift_id}/now
//
// A nil action (shift complete or checklist exhausted) is returned as
// {"action": null} so clients can render the all-clear state.
func (h *APIHandler) GetNowAction(w http.ResponseWriter, r *http.Request) {
	shiftID := chi.URLParam(r, "shift_id")

	action, err := h.shiftService.ResolveNowAction(r.Context(), shiftID)
	if err != nil {
		response.FromDomainError(w, err)
		return
	}

	response.OK(w, map[string]any{"action": MapNowActionToDTO(action)})
}

// GetSiteNowAction resolves the current action for a site. Without an
// open shift the synthetic start-shift prompt is returned.
// GET /v1/sites/{site_id}/now
func (h *APIHandler) GetSiteNowAction(w http.ResponseWriter, r *http.Request) {
	siteID := chi.URLParam(r, "site_id")

	action, err := h.shiftService.ResolveNowForSite(r.Context(), siteID)
	if err != nil {
		response.FromDomainError(w, err)
		return
	}

	response.OK(w, map[string]any{"action": MapNowActionToDTO(action)})
}

// StreamNowAction streams NOW action re-resolutions over SSE. The current
// action is sent immediately, then again after every mutation of the shift.
// GET /v1/shifts/{shift_id}/now/stream
func (h *APIHandler) StreamNowAction(w http.ResponseWriter, r *http.Request) {
	shiftID := chi.URLParam(r, "shift_id")

	// Verify the shift exists before holding the connection open.
	if _, err := h.shiftService.GetShift(r.Context(), shiftID); err != nil {
		response.FromDomainError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.Error(w, "STREAMING_UNSUPPORTED", "response writer does not support streaming", http.StatusInternalServerError)
		return
	}

	// The server's write timeout would sever a long-lived stream; lift it
	// for this connection only.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		slog.WarnContext(r.Context(), "failed to clear write deadline for stream", "error", err)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	events, cancel := h.shiftService.Hub().Subscribe(shiftID)
	defer cancel()

	send := func() bool {
		action, err := h.shiftService.ResolveNowAction(r.Context(), shiftID)
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to resolve NOW action for stream",
				"shift_id", shiftID,
				"error", err)
			return false
		}
		payload, err := json.Marshal(map[string]any{"action": MapNowActionToDTO(action)})
		if err != nil {
			return false
		}
		if _, err := fmt.Fprintf(w, "event: now\ndata: %s\n\n", payload); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	if !send() {
		return
	}

	// Periodic keep-alive comments prevent idle proxies from dropping
	// the connection.
	keepAlive := time.NewTicker(30 * time.Second)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-events:
			if !send() {
				return
			}
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// GetComingUp returns the next tasks after the NOW action.
// GET /v1/shifts/{shift_id}/coming-up?limit=5
func (h *APIHandler) GetComingUp(w http.ResponseWriter, r *http.Request) {
	shiftID := chi.URLParam(r, "shift_id")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			response.ValidationError(w, "limit", "must be a non-negative integer")
			return
		}
		limit = parsed
	}

	tasks, err := h.shiftService.GetComingUpTasks(r.Context(), shiftID, limit)
	if err != nil {
		response.FromDomainError(w, err)
		return
	}

	response.OK(w, map[string]any{"tasks": MapUpcomingToDTO(tasks)})
}

// GetGate reports whether the shift can be ended and what still blocks it.
// GET /v1/shifts/{shift_id}/gate
func (h *APIHandler) GetGate(w http.ResponseWriter, r *http.Request) {
	shiftID := chi.URLParam(r, "shift_id")

	result, err := h.shiftService.GateStatus(r.Context(), shiftID)
	if err != nil {
		response.FromDomainError(w, err)
		return
	}

	response.OK(w, MapGateToDTO(result))
}

// GetSummary returns the end-of-day summary for a shift.
// GET /v1/shifts/{shift_id}/summary
func (h *APIHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	shiftID := chi.URLParam(r, "shift_id")

	summary, err := h.shiftService.GetEndOfDaySummary(r.Context(), shiftID)
	if err != nil {
		response.FromDomainError(w, err)
		return
	}

	response.OK(w, MapSummaryToDTO(summary))
}

// ExpandRecurring materializes recurring occurrences that have fallen due.
// POST /v1/shifts/{shift_id}/expand
func (h *APIHandler) ExpandRecurring(w http.ResponseWriter, r *http.Request) {
	shiftID := chi.URLParam(r, "shift_id")

	created, err := h.shiftService.ExpandRecurringOccurrences(r.Context(), shiftID, time.Now().UTC())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to expand recurring tasks via HTTP",
			"shift_id", shiftID,
			"error", err)
		response.FromDomainError(w, err)
		return
	}

	response.OK(w, map[string]any{"created": MapInstancesToDTO(created)})
}

// EndShift closes a shift session after re-checking the completion gate.
// POST /v1/shifts/{shift_id}/end
func (h *APIHandler) EndShift(w http.ResponseWriter, r *http.Request) {
	shiftID := chi.URLParam(r, "shift_id")

	var req struct {
		CompletedBy string `json:"completed_by"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON")
		return
	}

	session, err := h.shiftService.EndShift(r.Context(), shiftID, req.CompletedBy)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to end shift via HTTP",
			"shift_id", shiftID,
			"error", err)
		response.FromDomainError(w, err)
		return
	}

	slog.InfoContext(r.Context(), "shift ended via HTTP",
		"shift_id", session.ID,
		"site_id", session.SiteID)

	response.OK(w, MapShiftToDTO(session))
}

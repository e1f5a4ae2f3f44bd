package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cafeops/shiftdeck/internal/application/shift"
	"github.com/cafeops/shiftdeck/internal/domain"
	"github.com/cafeops/shiftdeck/internal/infrastructure/http/response"
)

// CompleteTask marks a task completed with evidence.
// POST /v1/tasks/{task_id}/complete
//
// Completing a task another actor already completed is not an error for
// the caller: the current instance state is returned with 200 so the
// client simply re-renders from it.
func (h *APIHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "task_id")

	var req struct {
		CompletedBy string   `json:"completed_by"`
		Note        *string  `json:"note,omitempty"`
		Value       *float64 `json:"value,omitempty"`
		PhotoURL    *string  `json:"photo_url,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON")
		return
	}

	ev := shift.Evidence{
		Note:     req.Note,
		Value:    req.Value,
		PhotoURL: req.PhotoURL,
	}

	inst, err := h.shiftService.CompleteTask(r.Context(), taskID, req.CompletedBy, ev)
	if err != nil {
		if errors.Is(err, domain.ErrTaskAlreadyCompleted) {
			current, findErr := h.shiftService.GetTask(r.Context(), taskID)
			if findErr == nil {
				response.OK(w, MapInstanceToDTO(current))
				return
			}
		}
		slog.ErrorContext(r.Context(), "failed to complete task via HTTP",
			"task_id", taskID,
			"error", err)
		response.FromDomainError(w, err)
		return
	}

	slog.InfoContext(r.Context(), "task completed via HTTP",
		"task_id", inst.ID,
		"shift_id", inst.ShiftID)

	response.OK(w, MapInstanceToDTO(inst))
}

// BlockTask marks a task blocked with a reason.
// POST /v1/tasks/{task_id}/block
func (h *APIHandler) BlockTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "task_id")

	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON")
		return
	}

	inst, err := h.shiftService.BlockTask(r.Context(), taskID, req.Reason)
	if err != nil {
		response.FromDomainError(w, err)
		return
	}

	response.OK(w, MapInstanceToDTO(inst))
}

// SkipTask marks a task skipped.
// POST /v1/tasks/{task_id}/skip
func (h *APIHandler) SkipTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "task_id")

	var req struct {
		SkippedBy string `json:"skipped_by"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON")
		return
	}

	inst, err := h.shiftService.SkipTask(r.Context(), taskID, req.SkippedBy)
	if err != nil {
		response.FromDomainError(w, err)
		return
	}

	response.OK(w, MapInstanceToDTO(inst))
}

// ReopenTask returns a blocked task to pending.
// POST /v1/tasks/{task_id}/reopen
func (h *APIHandler) ReopenTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "task_id")

	inst, err := h.shiftService.ReopenTask(r.Context(), taskID)
	if err != nil {
		response.FromDomainError(w, err)
		return
	}

	response.OK(w, MapInstanceToDTO(inst))
}

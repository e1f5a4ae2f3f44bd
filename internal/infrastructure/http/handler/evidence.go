package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cafeops/shiftdeck/internal/evidence"
	"github.com/cafeops/shiftdeck/internal/infrastructure/http/response"
)

// UploadEvidencePhoto stores a photo for a task and returns the URL to pass
// in the task's completion payload.
// POST /v1/tasks/{task_id}/evidence/photo
func (h *APIHandler) UploadEvidencePhoto(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "task_id")

	// The task must exist before we accept bytes for it.
	if _, err := h.shiftService.GetTask(r.Context(), taskID); err != nil {
		response.FromDomainError(w, err)
		return
	}

	photoID, err := uuid.NewV7()
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to generate photo id", "error", err)
		response.InternalError(w)
		return
	}

	key := fmt.Sprintf("%s/%s", taskID, photoID)
	if err := h.evidenceStore.Save(r.Context(), key, r.Body); err != nil {
		slog.ErrorContext(r.Context(), "failed to store evidence photo",
			"task_id", taskID,
			"key", key,
			"error", err)
		response.InternalError(w)
		return
	}

	response.Created(w, map[string]string{
		"photo_url": "/api/v1/evidence/" + key,
	})
}

// GetEvidencePhoto streams a stored evidence photo.
// GET /v1/evidence/{task_id}/{photo_id}
func (h *APIHandler) GetEvidencePhoto(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "task_id") + "/" + chi.URLParam(r, "photo_id")

	rc, err := h.evidenceStore.Open(r.Context(), key)
	if err != nil {
		if errors.Is(err, evidence.ErrNotFound) {
			response.NotFound(w, "evidence photo not found")
			return
		}
		slog.ErrorContext(r.Context(), "failed to open evidence photo",
			"key", key,
			"error", err)
		response.InternalError(w)
		return
	}
	defer func() {
		if err := rc.Close(); err != nil {
			slog.ErrorContext(r.Context(), "failed to close evidence photo reader", "error", err)
		}
	}()

	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err := io.Copy(w, rc); err != nil {
		slog.ErrorContext(r.Context(), "failed to stream evidence photo",
			"key", key,
			"error", err)
	}
}

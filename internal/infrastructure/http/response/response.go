// Package response provides JSON response helpers with a uniform error
// envelope. All responses, including failures, are JSON.
package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cafeops/shiftdeck/internal/domain"
)

// ErrorDetail describes a single field-level validation issue.
type ErrorDetail struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// ErrorBody is the inner error object of the envelope.
type ErrorBody struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details"`
}

// ErrorResponse is the envelope returned for every non-2xx response.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// internalErrorJSON is pre-marshaled so we can always respond even when
// encoding the payload fails.
const internalErrorJSON = `{"error":{"code":"INTERNAL_ERROR","message":"failed to encode response","details":[]}}`

func writeJSON(w http.ResponseWriter, status int, data any) {
	// Marshal before writing headers so an encoding failure can still
	// produce a 500 instead of a truncated 2xx.
	body, err := json.Marshal(data)
	if err != nil {
		slog.Error("Failed to encode response", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		if _, werr := w.Write([]byte(internalErrorJSON)); werr != nil {
			slog.Error("Failed to write error response", "error", werr)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}

// OK sends a 200 response with the JSON-encoded data.
func OK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, data)
}

// Created sends a 201 response with the JSON-encoded data.
func Created(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusCreated, data)
}

// NoContent sends a 204 response with no body.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error sends an error response with the given code, message and HTTP status.
func Error(w http.ResponseWriter, code, message string, status int) {
	writeJSON(w, status, ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: []ErrorDetail{},
		},
	})
}

// ValidationError sends a 400 response with a single field-level detail.
func ValidationError(w http.ResponseWriter, field, issue string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Error: ErrorBody{
			Code:    "VALIDATION_ERROR",
			Message: "validation failed",
			Details: []ErrorDetail{{Field: field, Issue: issue}},
		},
	})
}

// BadRequest sends a 400 response.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, "BAD_REQUEST", message, http.StatusBadRequest)
}

// Unauthorized sends a 401 response.
func Unauthorized(w http.ResponseWriter, message string) {
	Error(w, "UNAUTHORIZED", message, http.StatusUnauthorized)
}

// NotFound sends a 404 response.
func NotFound(w http.ResponseWriter, message string) {
	Error(w, "NOT_FOUND", message, http.StatusNotFound)
}

// InternalError sends a 500 response with a generic message so internal
// details never leak to clients.
func InternalError(w http.ResponseWriter) {
	Error(w, "INTERNAL_ERROR", "an internal error occurred", http.StatusInternalServerError)
}

// FromDomainError maps a domain error to the appropriate HTTP response.
// Unknown errors become a generic 500 and are left to the caller to log.
func FromDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidID):
		Error(w, "INVALID_ID", err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrShiftNotFound),
		errors.Is(err, domain.ErrTaskNotFound),
		errors.Is(err, domain.ErrTemplateNotFound),
		errors.Is(err, domain.ErrDefinitionNotFound),
		errors.Is(err, domain.ErrNotFound):
		Error(w, "NOT_FOUND", err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrShiftAlreadyOpen):
		Error(w, "SHIFT_ALREADY_OPEN", err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrShiftComplete):
		Error(w, "SHIFT_COMPLETE", err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrShiftNotComplete):
		Error(w, "SHIFT_NOT_COMPLETE", err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrTaskAlreadyCompleted):
		Error(w, "TASK_ALREADY_COMPLETED", err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrInvalidTransition):
		Error(w, "INVALID_TRANSITION", err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrGroupIncomplete):
		Error(w, "GROUP_INCOMPLETE", err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrTitleRequired),
		errors.Is(err, domain.ErrTitleTooLong),
		errors.Is(err, domain.ErrInvalidTaskStatus),
		errors.Is(err, domain.ErrInvalidPriority),
		errors.Is(err, domain.ErrInvalidEvidenceType),
		errors.Is(err, domain.ErrInvalidTaskType),
		errors.Is(err, domain.ErrInvalidShiftType),
		errors.Is(err, domain.ErrInvalidTimeOfDay),
		errors.Is(err, domain.ErrNegativeGracePeriod),
		errors.Is(err, domain.ErrEvidenceRequired),
		errors.Is(err, domain.ErrEvidenceNotNumeric),
		errors.Is(err, domain.ErrBlockedReasonMissing),
		errors.Is(err, domain.ErrInvalidInterval),
		errors.Is(err, domain.ErrInvalidActiveWindow):
		Error(w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
	default:
		InternalError(w)
	}
}

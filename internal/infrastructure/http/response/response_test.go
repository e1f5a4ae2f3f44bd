package response_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cafeops/shiftdeck/internal/domain"
	"github.com/cafeops/shiftdeck/internal/infrastructure/http/response"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) response.ErrorResponse {
	t.Helper()
	var envelope response.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func TestOK(t *testing.T) {
	rec := httptest.NewRecorder()
	response.OK(rec, map[string]string{"status": "open"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"open"}`, rec.Body.String())
}

func TestCreated(t *testing.T) {
	rec := httptest.NewRecorder()
	response.Created(rec, map[string]string{"id": "abc"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id":"abc"}`, rec.Body.String())
}

func TestNoContent(t *testing.T) {
	rec := httptest.NewRecorder()
	response.NoContent(rec)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestOK_EncodingFailureBecomes500(t *testing.T) {
	rec := httptest.NewRecorder()
	response.OK(rec, map[string]any{"bad": func() {}})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	envelope := decodeError(t, rec)
	assert.Equal(t, "INTERNAL_ERROR", envelope.Error.Code)
	assert.Equal(t, "failed to encode response", envelope.Error.Message)
	assert.Empty(t, envelope.Error.Details)
}

func TestError(t *testing.T) {
	rec := httptest.NewRecorder()
	response.Error(rec, "TEAPOT", "short and stout", http.StatusTeapot)

	assert.Equal(t, http.StatusTeapot, rec.Code)
	envelope := decodeError(t, rec)
	assert.Equal(t, "TEAPOT", envelope.Error.Code)
	assert.Equal(t, "short and stout", envelope.Error.Message)
	assert.NotNil(t, envelope.Error.Details)
	assert.Empty(t, envelope.Error.Details)
}

func TestValidationError(t *testing.T) {
	rec := httptest.NewRecorder()
	response.ValidationError(rec, "limit", "must be a positive integer")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	envelope := decodeError(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", envelope.Error.Code)
	assert.Equal(t, "validation failed", envelope.Error.Message)
	require.Len(t, envelope.Error.Details, 1)
	assert.Equal(t, "limit", envelope.Error.Details[0].Field)
	assert.Equal(t, "must be a positive integer", envelope.Error.Details[0].Issue)
}

func TestInternalError_HidesDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	response.InternalError(rec)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	envelope := decodeError(t, rec)
	assert.Equal(t, "INTERNAL_ERROR", envelope.Error.Code)
	assert.Equal(t, "an internal error occurred", envelope.Error.Message)
}

func TestFromDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid id", domain.ErrInvalidID, http.StatusBadRequest, "INVALID_ID"},
		{"shift not found", domain.ErrShiftNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"task not found", domain.ErrTaskNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"template not found", domain.ErrTemplateNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"shift already open", domain.ErrShiftAlreadyOpen, http.StatusConflict, "SHIFT_ALREADY_OPEN"},
		{"shift complete", domain.ErrShiftComplete, http.StatusConflict, "SHIFT_COMPLETE"},
		{"gate closed", domain.ErrShiftNotComplete, http.StatusConflict, "SHIFT_NOT_COMPLETE"},
		{"task already completed", domain.ErrTaskAlreadyCompleted, http.StatusConflict, "TASK_ALREADY_COMPLETED"},
		{"invalid transition", domain.ErrInvalidTransition, http.StatusConflict, "INVALID_TRANSITION"},
		{"group incomplete", domain.ErrGroupIncomplete, http.StatusConflict, "GROUP_INCOMPLETE"},
		{"evidence required", domain.ErrEvidenceRequired, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"blocked reason missing", domain.ErrBlockedReasonMissing, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"invalid shift type", domain.ErrInvalidShiftType, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown error", errors.New("pool exhausted"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			response.FromDomainError(rec, tc.err)

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, tc.wantCode, decodeError(t, rec).Error.Code)
		})
	}
}

func TestFromDomainError_MatchesWrappedErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	wrapped := fmt.Errorf("%w: 2 blocking task(s) remain", domain.ErrShiftNotComplete)
	response.FromDomainError(rec, wrapped)

	assert.Equal(t, http.StatusConflict, rec.Code)
	envelope := decodeError(t, rec)
	assert.Equal(t, "SHIFT_NOT_COMPLETE", envelope.Error.Code)
	assert.Contains(t, envelope.Error.Message, "2 blocking task(s) remain")
}

func TestFromDomainError_DoesNotLeakUnknownErrorText(t *testing.T) {
	rec := httptest.NewRecorder()
	response.FromDomainError(rec, errors.New("dsn contains password"))

	envelope := decodeError(t, rec)
	assert.Equal(t, "an internal error occurred", envelope.Error.Message)
	assert.NotContains(t, rec.Body.String(), "password")
}

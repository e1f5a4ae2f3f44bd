package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cafeops/shiftdeck/internal/application/report"
	"github.com/cafeops/shiftdeck/internal/application/shift"
	"github.com/cafeops/shiftdeck/internal/application/template"
	"github.com/cafeops/shiftdeck/internal/domain"
	"github.com/cafeops/shiftdeck/internal/evidence/fs"
	"github.com/cafeops/shiftdeck/internal/infrastructure/http/handler"
)

// fakeStore is an in-memory stand-in for the Postgres store, backing the
// shift, template and report repositories at once.
type fakeStore struct {
	mu        sync.Mutex
	shifts    map[string]domain.ShiftSession
	templates map[string]domain.ChecklistTemplate
	defs      map[string][]domain.TaskDefinition
	instances map[string]domain.TaskInstance
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		shifts:    make(map[string]domain.ShiftSession),
		templates: make(map[string]domain.ChecklistTemplate),
		defs:      make(map[string][]domain.TaskDefinition),
		instances: make(map[string]domain.TaskInstance),
	}
}

func (s *fakeStore) CreateShift(_ context.Context, session *domain.ShiftSession) (*domain.ShiftSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.shifts {
		if existing.SiteID == session.SiteID && !existing.IsComplete {
			return nil, domain.ErrShiftAlreadyOpen
		}
	}
	s.shifts[session.ID] = *session
	copied := *session
	return &copied, nil
}

func (s *fakeStore) FindShiftByID(_ context.Context, id string) (*domain.ShiftSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.shifts[id]
	if !ok {
		return nil, domain.ErrShiftNotFound
	}
	copied := sess
	return &copied, nil
}

func (s *fakeStore) FindOpenShiftBySite(_ context.Context, siteID string) (*domain.ShiftSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sess := range s.shifts {
		if sess.SiteID == siteID && !sess.IsComplete {
			copied := sess
			return &copied, nil
		}
	}
	return nil, domain.ErrShiftNotFound
}

func (s *fakeStore) FindOpenShifts(_ context.Context) ([]*domain.ShiftSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var open []*domain.ShiftSession
	for _, sess := range s.shifts {
		if !sess.IsComplete {
			copied := sess
			open = append(open, &copied)
		}
	}
	return open, nil
}

func (s *fakeStore) FindShiftsInRange(_ context.Context, siteID string, from, to time.Time) ([]*domain.ShiftSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sessions []*domain.ShiftSession
	for _, sess := range s.shifts {
		if sess.SiteID == siteID && !sess.StartedAt.Before(from) && sess.StartedAt.Before(to) {
			copied := sess
			sessions = append(sessions, &copied)
		}
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].StartedAt.Before(sessions[j].StartedAt) })
	return sessions, nil
}

func (s *fakeStore) CompleteShift(_ context.Context, shiftID, completedBy string, completedAt time.Time) (*domain.ShiftSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.shifts[shiftID]
	if !ok {
		return nil, domain.ErrShiftNotFound
	}
	if sess.IsComplete {
		return nil, domain.ErrShiftComplete
	}
	sess.IsComplete = true
	sess.CompletedBy = &completedBy
	sess.CompletedAt = &completedAt
	s.shifts[shiftID] = sess
	copied := sess
	return &copied, nil
}

func (s *fakeStore) CreateTemplate(_ context.Context, tmpl *domain.ChecklistTemplate, defs []*domain.TaskDefinition) (*domain.ChecklistTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.templates[tmpl.ID] = *tmpl
	stored := make([]domain.TaskDefinition, 0, len(defs))
	for _, d := range defs {
		stored = append(stored, *d)
	}
	s.defs[tmpl.ID] = stored
	copied := *tmpl
	return &copied, nil
}

func (s *fakeStore) FindTemplateByID(_ context.Context, id string) (*domain.ChecklistTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmpl, ok := s.templates[id]
	if !ok {
		return nil, domain.ErrTemplateNotFound
	}
	copied := tmpl
	return &copied, nil
}

func (s *fakeStore) ListTemplatesBySite(_ context.Context, siteID string) ([]*domain.ChecklistTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var templates []*domain.ChecklistTemplate
	for _, tmpl := range s.templates {
		if tmpl.SiteID == siteID {
			copied := tmpl
			templates = append(templates, &copied)
		}
	}
	sort.Slice(templates, func(i, j int) bool { return templates[i].Name < templates[j].Name })
	return templates, nil
}

func (s *fakeStore) FindDefinitionsByTemplate(_ context.Context, templateID string) ([]*domain.TaskDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	defs := make([]*domain.TaskDefinition, 0, len(s.defs[templateID]))
	for _, d := range s.defs[templateID] {
		copied := d
		defs = append(defs, &copied)
	}
	return defs, nil
}

func (s *fakeStore) CreateInstances(_ context.Context, instances []*domain.TaskInstance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, inst := range instances {
		s.instances[inst.ID] = *inst
	}
	return nil
}

func (s *fakeStore) FindInstanceByID(_ context.Context, id string) (*domain.TaskInstance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inst, ok := s.instances[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	copied := inst
	return &copied, nil
}

func (s *fakeStore) FindInstancesByShift(_ context.Context, shiftID string) ([]*domain.TaskInstance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.TaskInstance
	for _, inst := range s.instances {
		if inst.ShiftID == shiftID {
			copied := inst
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *fakeStore) UpdateInstance(_ context.Context, inst *domain.TaskInstance) (*domain.TaskInstance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.instances[inst.ID]; !ok {
		return nil, domain.ErrTaskNotFound
	}
	s.instances[inst.ID] = *inst
	copied := *inst
	return &copied, nil
}

var (
	_ shift.Repository    = (*fakeStore)(nil)
	_ template.Repository = (*fakeStore)(nil)
	_ report.Repository   = (*fakeStore)(nil)
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	store := newFakeStore()
	evidenceStore, err := fs.NewStore(t.TempDir())
	require.NoError(t, err)

	return handler.NewRouter(
		shift.NewService(store),
		template.NewService(store),
		report.NewService(store),
		evidenceStore,
	)
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader = strings.NewReader("{}")
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), "body: %s", rec.Body.String())
}

func createTemplate(t *testing.T, router http.Handler) string {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/v1/templates", map[string]any{
		"site_id":    "site-1",
		"name":       "Closing checklist",
		"shift_type": "closing",
		"definitions": []map[string]any{
			{
				"title":                "Lock safe",
				"priority":             "P1",
				"is_critical":          true,
				"due_time":             "17:00",
				"grace_period_minutes": 15,
				"task_type":            "tick",
				"sort_order":           1,
			},
			{
				"title":      "Tidy noticeboard",
				"priority":   "P3",
				"task_type":  "tick",
				"sort_order": 2,
			},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Template struct {
			ID string `json:"id"`
		} `json:"template"`
		Definitions []struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"definitions"`
	}
	decode(t, rec, &created)
	require.NotEmpty(t, created.Template.ID)
	require.Len(t, created.Definitions, 2)
	return created.Template.ID
}

func startShift(t *testing.T, router http.Handler, templateID string) string {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/v1/shifts", map[string]any{
		"site_id":     "site-1",
		"started_by":  "ana",
		"shift_type":  "closing",
		"template_id": templateID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var session struct {
		ID string `json:"id"`
	}
	decode(t, rec, &session)
	require.NotEmpty(t, session.ID)
	return session.ID
}

type nowResponse struct {
	Action *struct {
		ActionType string `json:"action_type"`
		TaskID     string `json:"task_id"`
		Title      string `json:"title"`
		IsCritical bool   `json:"is_critical"`
	} `json:"action"`
}

func resolveNow(t *testing.T, router http.Handler, shiftID string) nowResponse {
	t.Helper()

	rec := doJSON(t, router, http.MethodGet, "/v1/shifts/"+shiftID+"/now", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var now nowResponse
	decode(t, rec, &now)
	return now
}

func TestShiftLifecycleOverHTTP(t *testing.T) {
	router := newTestRouter(t)

	templateID := createTemplate(t, router)
	shiftID := startShift(t, router, templateID)

	// The critical P1 task is the NOW action.
	now := resolveNow(t, router, shiftID)
	require.NotNil(t, now.Action)
	assert.Equal(t, "task", now.Action.ActionType)
	assert.Equal(t, "Lock safe", now.Action.Title)
	assert.True(t, now.Action.IsCritical)

	// Ending with the critical task open is rejected.
	rec := doJSON(t, router, http.MethodPost, "/v1/shifts/"+shiftID+"/end", map[string]any{"completed_by": "ana"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "SHIFT_NOT_COMPLETE")

	rec = doJSON(t, router, http.MethodGet, "/v1/shifts/"+shiftID+"/gate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var gateBody struct {
		CanEnd         bool `json:"can_end"`
		RemainingCount int  `json:"remaining_count"`
	}
	decode(t, rec, &gateBody)
	assert.False(t, gateBody.CanEnd)
	assert.Equal(t, 1, gateBody.RemainingCount)

	// Complete the critical task.
	rec = doJSON(t, router, http.MethodPost, "/v1/tasks/"+now.Action.TaskID+"/complete", map[string]any{"completed_by": "ana"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var completed struct {
		Status      string `json:"status"`
		CompletedBy string `json:"completed_by"`
	}
	decode(t, rec, &completed)
	assert.Equal(t, "completed", completed.Status)
	assert.Equal(t, "ana", completed.CompletedBy)

	// NOW moves on to the optional task.
	now = resolveNow(t, router, shiftID)
	require.NotNil(t, now.Action)
	assert.Equal(t, "Tidy noticeboard", now.Action.Title)

	// Skip it; the checklist is exhausted and NOW goes null.
	rec = doJSON(t, router, http.MethodPost, "/v1/tasks/"+now.Action.TaskID+"/skip", map[string]any{"skipped_by": "ana"})
	require.Equal(t, http.StatusOK, rec.Code)

	now = resolveNow(t, router, shiftID)
	assert.Nil(t, now.Action)

	// The gate is open now; end the shift.
	rec = doJSON(t, router, http.MethodPost, "/v1/shifts/"+shiftID+"/end", map[string]any{"completed_by": "ana"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var ended struct {
		IsComplete bool `json:"is_complete"`
	}
	decode(t, rec, &ended)
	assert.True(t, ended.IsComplete)

	// The summary reflects one completed and one skipped task.
	rec = doJSON(t, router, http.MethodGet, "/v1/shifts/"+shiftID+"/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary struct {
		SkippedCount int `json:"skipped_count"`
	}
	decode(t, rec, &summary)
	assert.Equal(t, 1, summary.SkippedCount)
}

func TestCompleteTask_DoubleCompletionReturnsCurrentState(t *testing.T) {
	router := newTestRouter(t)
	shiftID := startShift(t, router, createTemplate(t, router))

	now := resolveNow(t, router, shiftID)
	require.NotNil(t, now.Action)

	body := map[string]any{"completed_by": "ana"}
	rec := doJSON(t, router, http.MethodPost, "/v1/tasks/"+now.Action.TaskID+"/complete", body)
	require.Equal(t, http.StatusOK, rec.Code)

	// A raced second completion is absorbed, not surfaced as a conflict.
	rec = doJSON(t, router, http.MethodPost, "/v1/tasks/"+now.Action.TaskID+"/complete", map[string]any{"completed_by": "ben"})
	assert.Equal(t, http.StatusOK, rec.Code)
	var state struct {
		Status      string `json:"status"`
		CompletedBy string `json:"completed_by"`
	}
	decode(t, rec, &state)
	assert.Equal(t, "completed", state.Status)
	assert.Equal(t, "ana", state.CompletedBy)
}

func TestBlockReopenOverHTTP(t *testing.T) {
	router := newTestRouter(t)
	shiftID := startShift(t, router, createTemplate(t, router))

	now := resolveNow(t, router, shiftID)
	require.NotNil(t, now.Action)
	taskID := now.Action.TaskID

	rec := doJSON(t, router, http.MethodPost, "/v1/tasks/"+taskID+"/block", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")

	rec = doJSON(t, router, http.MethodPost, "/v1/tasks/"+taskID+"/block", map[string]any{"reason": "safe key missing"})
	require.Equal(t, http.StatusOK, rec.Code)
	var blocked struct {
		Status        string `json:"status"`
		BlockedReason string `json:"blocked_reason"`
	}
	decode(t, rec, &blocked)
	assert.Equal(t, "blocked", blocked.Status)
	assert.Equal(t, "safe key missing", blocked.BlockedReason)

	rec = doJSON(t, router, http.MethodPost, "/v1/tasks/"+taskID+"/reopen", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var reopened struct {
		Status string `json:"status"`
	}
	decode(t, rec, &reopened)
	assert.Equal(t, "pending", reopened.Status)
}

func TestStartShift_ConflictOnOpenShift(t *testing.T) {
	router := newTestRouter(t)
	templateID := createTemplate(t, router)
	startShift(t, router, templateID)

	rec := doJSON(t, router, http.MethodPost, "/v1/shifts", map[string]any{
		"site_id":     "site-1",
		"started_by":  "ben",
		"shift_type":  "closing",
		"template_id": templateID,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "SHIFT_ALREADY_OPEN")
}

func TestGetShift_NotFound(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/v1/shifts/00000000-0000-0000-0000-000000000000", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
}

func TestGetSiteNowAction_PromptsShiftStart(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/v1/sites/site-9/now", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var now nowResponse
	decode(t, rec, &now)
	require.NotNil(t, now.Action)
	assert.Equal(t, "start_opening", now.Action.ActionType)
	assert.Empty(t, now.Action.TaskID)
}

func TestGetComingUp_InvalidLimit(t *testing.T) {
	router := newTestRouter(t)
	shiftID := startShift(t, router, createTemplate(t, router))

	rec := doJSON(t, router, http.MethodGet, "/v1/shifts/"+shiftID+"/coming-up?limit=banana", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")

	rec = doJSON(t, router, http.MethodGet, "/v1/shifts/"+shiftID+"/coming-up?limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var comingUp struct {
		Tasks []struct {
			Title string `json:"title"`
		} `json:"tasks"`
	}
	decode(t, rec, &comingUp)
	require.Len(t, comingUp.Tasks, 1)
	assert.Equal(t, "Tidy noticeboard", comingUp.Tasks[0].Title)
}

func TestListTemplates(t *testing.T) {
	router := newTestRouter(t)
	templateID := createTemplate(t, router)

	rec := doJSON(t, router, http.MethodGet, "/v1/sites/site-1/templates", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var listed struct {
		Templates []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"templates"`
	}
	decode(t, rec, &listed)
	require.Len(t, listed.Templates, 1)
	assert.Equal(t, templateID, listed.Templates[0].ID)
	assert.Equal(t, "Closing checklist", listed.Templates[0].Name)
}

func TestComplianceReportOverHTTP(t *testing.T) {
	router := newTestRouter(t)
	shiftID := startShift(t, router, createTemplate(t, router))

	now := resolveNow(t, router, shiftID)
	require.NotNil(t, now.Action)
	rec := doJSON(t, router, http.MethodPost, "/v1/tasks/"+now.Action.TaskID+"/complete", map[string]any{"completed_by": "ana"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/v1/sites/site-1/compliance", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var rep struct {
		TotalTasks int `json:"total_tasks"`
	}
	decode(t, rec, &rep)
	assert.Equal(t, 2, rep.TotalTasks)

	rec = doJSON(t, router, http.MethodGet, "/v1/sites/site-1/compliance?from=not-a-time", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEvidencePhotoRoundTrip(t *testing.T) {
	router := newTestRouter(t)
	shiftID := startShift(t, router, createTemplate(t, router))

	now := resolveNow(t, router, shiftID)
	require.NotNil(t, now.Action)
	taskID := now.Action.TaskID

	req := httptest.NewRequest(http.MethodPost, "/v1/tasks/"+taskID+"/evidence/photo", bytes.NewReader([]byte("jpeg bytes")))
	req.Header.Set("Content-Type", "image/jpeg")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var uploaded struct {
		PhotoURL string `json:"photo_url"`
	}
	decode(t, rec, &uploaded)
	require.True(t, strings.HasPrefix(uploaded.PhotoURL, "/api/v1/evidence/"), uploaded.PhotoURL)

	downloadPath := strings.TrimPrefix(uploaded.PhotoURL, "/api")
	rec = doJSON(t, router, http.MethodGet, downloadPath, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "jpeg bytes", rec.Body.String())
}

func TestUploadEvidencePhoto_UnknownTask(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/tasks/nope/evidence/photo", bytes.NewReader([]byte("x")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetEvidencePhoto_Missing(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/v1/evidence/no-task/no-photo", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStartShift_InvalidJSON(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/shifts", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "BAD_REQUEST")
}

func TestExpandRecurringOverHTTP(t *testing.T) {
	router := newTestRouter(t)

	// A template whose only definition recurs all day, so some occurrences
	// have always fallen due by the time the test runs.
	rec := doJSON(t, router, http.MethodPost, "/v1/templates", map[string]any{
		"site_id":    "site-2",
		"name":       "Rhythm",
		"shift_type": "mid",
		"definitions": []map[string]any{
			{
				"title":               "Check bins",
				"task_type":           "recurring",
				"interval_minutes":    60,
				"active_window_start": "00:00",
				"active_window_end":   "23:59",
				"never_goes_red":      true,
			},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		Template struct {
			ID string `json:"id"`
		} `json:"template"`
	}
	decode(t, rec, &created)

	rec = doJSON(t, router, http.MethodPost, "/v1/shifts", map[string]any{
		"site_id":     "site-2",
		"started_by":  "ana",
		"shift_type":  "mid",
		"template_id": created.Template.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var session struct {
		ID string `json:"id"`
	}
	decode(t, rec, &session)

	rec = doJSON(t, router, http.MethodPost, "/v1/shifts/"+session.ID+"/expand", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var expanded struct {
		Created []struct {
			OccurrenceIndex int `json:"occurrence_index"`
		} `json:"created"`
	}
	decode(t, rec, &expanded)
	require.NotEmpty(t, expanded.Created)
	assert.Equal(t, 0, expanded.Created[0].OccurrenceIndex)

	// A second expansion right after creates at most the one occurrence an
	// hour boundary might have just crossed, never a duplicate of the first.
	expanded.Created = nil
	rec = doJSON(t, router, http.MethodPost, "/v1/shifts/"+session.ID+"/expand", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &expanded)
	assert.LessOrEqual(t, len(expanded.Created), 1)
}

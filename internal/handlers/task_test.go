package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	dom "github.com/serega19851/task-manager/internal/domain"
	"github.com/serega19851/task-manager/internal/dto"
	"github.com/serega19851/task-manager/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memTaskRepo is a minimal in-memory TaskRepo for driving the real service
// through the real router.
type memTaskRepo struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]dom.Task
	order []uuid.UUID
}

func newMemTaskRepo() *memTaskRepo {
	return &memTaskRepo{tasks: make(map[uuid.UUID]dom.Task)}
}

func (m *memTaskRepo) Create(_ context.Context, title string, description *string, status dom.Status) (dom.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	t := dom.Task{ID: uuid.New(), Title: title, Description: description, Status: status, CreatedAt: now, UpdatedAt: now}
	m.tasks[t.ID] = t
	m.order = append(m.order, t.ID)
	return t, nil
}

func (m *memTaskRepo) GetByID(_ context.Context, id uuid.UUID) (dom.Task, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	return t, ok, nil
}

func (m *memTaskRepo) List(_ context.Context, status *dom.Status, limit, offset int) ([]dom.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []dom.Task
	for i := len(m.order) - 1; i >= 0; i-- {
		t := m.tasks[m.order[i]]
		if status == nil || t.Status == *status {
			matched = append(matched, t)
		}
	}
	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

func (m *memTaskRepo) Count(_ context.Context, status *dom.Status) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total int64
	for _, t := range m.tasks {
		if status == nil || t.Status == *status {
			total++
		}
	}
	return total, nil
}

func (m *memTaskRepo) Update(_ context.Context, id uuid.UUID, patch dom.TaskPatch) (dom.Task, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return dom.Task{}, false, nil
	}
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.SetDescription {
		t.Description = patch.Description
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	now := time.Now().UTC()
	if !now.After(t.UpdatedAt) {
		now = t.UpdatedAt.Add(time.Microsecond)
	}
	t.UpdatedAt = now
	m.tasks[id] = t
	return t, true, nil
}

func (m *memTaskRepo) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return false, nil
	}
	delete(m.tasks, id)
	return true, nil
}

func (m *memTaskRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.tasks[id]
	return ok, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func newTestRouter() (*gin.Engine, *service.TaskService) {
	gin.SetMode(gin.TestMode)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewTaskService(newMemTaskRepo(), nil, log)
	h := NewTaskHandler(svc, log)

	r := gin.New()
	api := r.Group("/api/v1")
	api.POST("/tasks", h.Create)
	api.GET("/tasks", h.List)
	api.GET("/tasks/:id", h.GetByID)
	api.PUT("/tasks/:id", h.Update)
	api.DELETE("/tasks/:id", h.Delete)
	return r, svc
}

func perform(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func decodeTask(t *testing.T, data json.RawMessage) dto.TaskResponse {
	t.Helper()
	var task dto.TaskResponse
	require.NoError(t, json.Unmarshal(data, &task))
	return task
}

func TestCreateTaskReturns201WithEnvelope(t *testing.T) {
	r, _ := newTestRouter()

	w := perform(r, http.MethodPost, "/api/v1/tasks", `{"title":"A","description":"B"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	env := decodeEnvelope(t, w)
	assert.True(t, env.Success)
	assert.Equal(t, "Task created successfully", env.Message)

	task := decodeTask(t, env.Data)
	assert.NotEqual(t, uuid.Nil, task.ID)
	assert.Equal(t, "A", task.Title)
	require.NotNil(t, task.Description)
	assert.Equal(t, "B", *task.Description)
	assert.Equal(t, "created", task.Status)
	assert.True(t, task.CreatedAt.Equal(task.UpdatedAt))
}

func TestCreateTaskMissingTitleReturns400(t *testing.T) {
	r, _ := newTestRouter()

	w := perform(r, http.MethodPost, "/api/v1/tasks", `{"description":"B"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w)
	assert.False(t, env.Success)
	assert.Equal(t, "VALIDATION_ERROR", env.Error)
}

func TestCreateTaskWhitespaceTitleReturns400(t *testing.T) {
	r, svc := newTestRouter()

	w := perform(r, http.MethodPost, "/api/v1/tasks", `{"title":"   "}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "VALIDATION_ERROR", env.Error)

	_, total, err := svc.List(context.Background(), nil, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 0, total, "nothing may be persisted")
}

func TestCreateTaskInvalidStatusReturns400(t *testing.T) {
	r, _ := newTestRouter()

	w := perform(r, http.MethodPost, "/api/v1/tasks", `{"title":"A","status":"archived"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetTaskInvalidUUIDReturns400(t *testing.T) {
	r, _ := newTestRouter()

	w := perform(r, http.MethodGet, "/api/v1/tasks/not-a-uuid", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "VALIDATION_ERROR", env.Error)
}

func TestGetTaskUnknownIDReturns404(t *testing.T) {
	r, _ := newTestRouter()

	w := perform(r, http.MethodGet, "/api/v1/tasks/"+uuid.NewString(), "")
	require.Equal(t, http.StatusNotFound, w.Code)
	env := decodeEnvelope(t, w)
	assert.False(t, env.Success)
	assert.Equal(t, "TASK_NOT_FOUND", env.Error)
}

func TestGetTaskRoundTrip(t *testing.T) {
	r, _ := newTestRouter()

	w := perform(r, http.MethodPost, "/api/v1/tasks", `{"title":"A","description":"B"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeTask(t, decodeEnvelope(t, w).Data)

	w = perform(r, http.MethodGet, "/api/v1/tasks/"+created.ID.String(), "")
	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "Task found", env.Message)
	got := decodeTask(t, env.Data)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "A", got.Title)
}

func TestListTasksFilterAndTotal(t *testing.T) {
	r, svc := newTestRouter()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, "active", nil, dom.StatusInProgress)
		require.NoError(t, err)
	}
	for i := 0; i < 2; i++ {
		_, err := svc.Create(ctx, "done", nil, dom.StatusCompleted)
		require.NoError(t, err)
	}

	w := perform(r, http.MethodGet, "/api/v1/tasks?status=in_progress&limit=10&offset=0", "")
	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "Found 3 tasks", env.Message)

	var data dto.TaskListData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.EqualValues(t, 3, data.Total)
	require.Len(t, data.Tasks, 3)
	for _, task := range data.Tasks {
		assert.Equal(t, "in_progress", task.Status)
	}
}

func TestListTasksBoundsEnforced(t *testing.T) {
	r, _ := newTestRouter()

	for _, path := range []string{
		"/api/v1/tasks?limit=0",
		"/api/v1/tasks?limit=1001",
		"/api/v1/tasks?offset=-1",
		"/api/v1/tasks?status=bogus",
	} {
		w := perform(r, http.MethodGet, path, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
}

func TestListTasksDefaultsAndEmptyStore(t *testing.T) {
	r, _ := newTestRouter()

	w := perform(r, http.MethodGet, "/api/v1/tasks", "")
	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "Found 0 tasks", env.Message)

	var data dto.TaskListData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.EqualValues(t, 0, data.Total)
	assert.NotNil(t, data.Tasks, "tasks must serialize as [], not null")
}

func TestUpdateTaskPartialKeepsOtherFields(t *testing.T) {
	r, _ := newTestRouter()

	w := perform(r, http.MethodPost, "/api/v1/tasks", `{"title":"X","description":"D"}`)
	created := decodeTask(t, decodeEnvelope(t, w).Data)

	w = perform(r, http.MethodPut, "/api/v1/tasks/"+created.ID.String(), `{"status":"completed"}`)
	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "Task updated successfully", env.Message)

	updated := decodeTask(t, env.Data)
	assert.Equal(t, "X", updated.Title)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "D", *updated.Description)
	assert.Equal(t, "completed", updated.Status)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
}

func TestUpdateTaskNullDescriptionClearsIt(t *testing.T) {
	r, _ := newTestRouter()

	w := perform(r, http.MethodPost, "/api/v1/tasks", `{"title":"X","description":"D"}`)
	created := decodeTask(t, decodeEnvelope(t, w).Data)

	// Omitted description: untouched.
	w = perform(r, http.MethodPut, "/api/v1/tasks/"+created.ID.String(), `{"title":"Y"}`)
	require.Equal(t, http.StatusOK, w.Code)
	updated := decodeTask(t, decodeEnvelope(t, w).Data)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "D", *updated.Description)

	// Explicit null: cleared.
	w = perform(r, http.MethodPut, "/api/v1/tasks/"+created.ID.String(), `{"description":null}`)
	require.Equal(t, http.StatusOK, w.Code)
	updated = decodeTask(t, decodeEnvelope(t, w).Data)
	assert.Nil(t, updated.Description)
}

func TestUpdateTaskEmptyTitleReturns400(t *testing.T) {
	r, _ := newTestRouter()

	w := perform(r, http.MethodPost, "/api/v1/tasks", `{"title":"X"}`)
	created := decodeTask(t, decodeEnvelope(t, w).Data)

	w = perform(r, http.MethodPut, "/api/v1/tasks/"+created.ID.String(), `{"title":"  "}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "VALIDATION_ERROR", env.Error)
}

func TestUpdateTaskUnknownIDReturns404(t *testing.T) {
	r, _ := newTestRouter()

	w := perform(r, http.MethodPut, "/api/v1/tasks/"+uuid.NewString(), `{"title":"Y"}`)
	require.Equal(t, http.StatusNotFound, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "TASK_NOT_FOUND", env.Error)
}

func TestUpdateTaskOverlongDescriptionReturns400(t *testing.T) {
	r, _ := newTestRouter()

	w := perform(r, http.MethodPost, "/api/v1/tasks", `{"title":"X"}`)
	created := decodeTask(t, decodeEnvelope(t, w).Data)

	body := `{"description":"` + strings.Repeat("a", 1001) + `"}`
	w = perform(r, http.MethodPut, "/api/v1/tasks/"+created.ID.String(), body)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteTaskReturns204ThenSecondDelete404(t *testing.T) {
	r, _ := newTestRouter()

	w := perform(r, http.MethodPost, "/api/v1/tasks", `{"title":"X"}`)
	created := decodeTask(t, decodeEnvelope(t, w).Data)

	w = perform(r, http.MethodDelete, "/api/v1/tasks/"+created.ID.String(), "")
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	w = perform(r, http.MethodDelete, "/api/v1/tasks/"+created.ID.String(), "")
	require.Equal(t, http.StatusNotFound, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "TASK_NOT_FOUND", env.Error)
}

package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"unicode/utf8"

	dom "github.com/serega19851/task-manager/internal/domain"
	"github.com/serega19851/task-manager/internal/dto"
	"github.com/serega19851/task-manager/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Stable machine-readable error codes echoed in the error envelope.
const (
	codeValidation = "VALIDATION_ERROR"
	codeNotFound   = "TASK_NOT_FOUND"
	codeInternal   = "INTERNAL_ERROR"
)

const maxDescriptionLen = 1000

// TaskHandler maps HTTP requests onto the task service and service results
// back onto status codes and JSON envelopes.
type TaskHandler struct {
	svc *service.TaskService
	log *slog.Logger
}

func NewTaskHandler(svc *service.TaskService, log *slog.Logger) *TaskHandler {
	if log == nil {
		log = slog.Default()
	}
	return &TaskHandler{svc: svc, log: log}
}

// Create godoc
// @Summary      Create a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateTaskRequest  true  "Task body"
// @Success      201   {object}  dto.APIResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, codeValidation, err.Error())
		return
	}
	t, err := h.svc.Create(c.Request.Context(), req.Title, req.Description, dom.Status(req.Status))
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, "Task created successfully", taskToResponse(t))
}

// GetByID godoc
// @Summary      Get a task by ID
// @Tags         tasks
// @Produce      json
// @Param        id   path      string  true  "Task ID (UUID)"
// @Success      200  {object}  dto.APIResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /tasks/{id} [get]
func (h *TaskHandler) GetByID(c *gin.Context) {
	id, valid := parseTaskID(c)
	if !valid {
		return
	}
	t, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, "Task found", taskToResponse(t))
}

// List godoc
// @Summary      List tasks
// @Tags         tasks
// @Produce      json
// @Param        status  query     string  false  "Filter by status"  Enums(created, in_progress, completed)
// @Param        limit   query     int     false  "Page size (1-1000, default 100)"
// @Param        offset  query     int     false  "Window offset (default 0)"
// @Success      200     {object}  dto.APIResponse
// @Failure      400     {object}  dto.ErrorResponse
// @Failure      500     {object}  dto.ErrorResponse
// @Router       /tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	var q dto.ListTasksQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		fail(c, http.StatusBadRequest, codeValidation, err.Error())
		return
	}
	var status *dom.Status
	if q.Status != "" {
		st := dom.Status(q.Status)
		status = &st
	}
	tasks, total, err := h.svc.List(c.Request.Context(), status, q.Limit, q.Offset)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, fmt.Sprintf("Found %d tasks", total), dto.TaskListData{
		Tasks: tasksToResponses(tasks),
		Total: total,
	})
}

// Update godoc
// @Summary      Update a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        id    path      string  true  "Task ID (UUID)"
// @Param        body  body      dto.UpdateTaskRequest  true  "Partial update"
// @Success      200   {object}  dto.APIResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /tasks/{id} [put]
func (h *TaskHandler) Update(c *gin.Context) {
	id, valid := parseTaskID(c)
	if !valid {
		return
	}
	var req dto.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, codeValidation, err.Error())
		return
	}
	// NullString cannot carry a binding tag, so its length cap lives here.
	if v := req.Description.Ptr(); v != nil && utf8.RuneCountInString(*v) > maxDescriptionLen {
		fail(c, http.StatusBadRequest, codeValidation, "description must be at most 1000 characters")
		return
	}

	patch := dom.TaskPatch{
		Title:          req.Title,
		Description:    req.Description.Ptr(),
		SetDescription: req.Description.Present(),
	}
	if req.Status != nil {
		st := dom.Status(*req.Status)
		patch.Status = &st
	}

	t, err := h.svc.Update(c.Request.Context(), id, patch)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, "Task updated successfully", taskToResponse(t))
}

// Delete godoc
// @Summary      Delete a task
// @Tags         tasks
// @Param        id   path  string  true  "Task ID (UUID)"
// @Success      204
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	id, valid := parseTaskID(c)
	if !valid {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// respondError translates service errors into the HTTP error envelope.
// Messages are echoed for caller-actionable errors; anything unexpected is
// logged server-side and rendered as a generic 500.
func (h *TaskHandler) respondError(c *gin.Context, err error) {
	var ve *service.ValidationError
	switch {
	case errors.Is(err, service.ErrNotFound):
		fail(c, http.StatusNotFound, codeNotFound, err.Error())
	case errors.As(err, &ve):
		fail(c, http.StatusBadRequest, codeValidation, ve.Error())
	default:
		h.log.Error("request failed", "method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
		fail(c, http.StatusInternalServerError, codeInternal, "internal server error")
	}
}

func parseTaskID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, codeValidation, "invalid task id: must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

func taskToResponse(t dom.Task) dto.TaskResponse {
	return dto.TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func tasksToResponses(list []dom.Task) []dto.TaskResponse {
	out := make([]dto.TaskResponse, len(list))
	for i := range list {
		out[i] = taskToResponse(list[i])
	}
	return out
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/serega19851/task-manager/internal/cache"
	dom "github.com/serega19851/task-manager/internal/domain"
	"github.com/serega19851/task-manager/internal/repo"
	"github.com/serega19851/task-manager/internal/utils"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// ErrNotFound marks a referenced task that does not exist. Wrapped with the
// task id, e.g. "task with ID <id> not found".
var ErrNotFound = errors.New("not found")

// ValidationError reports input the caller can fix. Its message is safe to
// echo to the client.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func validationError(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

func notFoundError(id uuid.UUID) error {
	return fmt.Errorf("task with ID %s %w", id, ErrNotFound)
}

// TaskService composes validation and the persistence gateway into the five
// task use-cases. It holds no task state across calls; the repo is the only
// shared resource.
type TaskService struct {
	repo  repo.TaskRepo
	cache *cache.TaskCache
	log   *slog.Logger
	sf    singleflight.Group
}

// NewTaskService creates a TaskService. If c is nil, caching is disabled.
func NewTaskService(r repo.TaskRepo, c *cache.TaskCache, log *slog.Logger) *TaskService {
	if log == nil {
		log = slog.Default()
	}
	return &TaskService{repo: r, cache: c, log: log}
}

// Create validates and persists a new task. An empty status defaults to
// "created". Store-level integrity rejections surface as ValidationError:
// from the caller's perspective a rejected create is a bad request.
func (s *TaskService) Create(ctx context.Context, title string, description *string, status dom.Status) (dom.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return dom.Task{}, validationError("task title must not be empty")
	}
	if status == "" {
		status = dom.StatusCreated
	}
	if !status.Valid() {
		return dom.Task{}, validationError("invalid task status %q", status)
	}

	t, err := s.repo.Create(ctx, title, description, status)
	if err != nil {
		if utils.IsPGIntegrityViolation(err) {
			s.log.Error("task rejected by store", "error", err)
			return dom.Task{}, validationError("task was rejected by the store")
		}
		return dom.Task{}, fmt.Errorf("create task: %w", err)
	}
	s.invalidateCache(ctx)
	s.log.Info("task created", "task_id", t.ID.String(), "title", t.Title)
	return t, nil
}

// Get returns the task or ErrNotFound.
func (s *TaskService) Get(ctx context.Context, id uuid.UUID) (dom.Task, error) {
	t, found, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return dom.Task{}, fmt.Errorf("get task: %w", err)
	}
	if !found {
		s.log.Warn("task not found", "task_id", id.String())
		return dom.Task{}, notFoundError(id)
	}
	return t, nil
}

// List returns one window of tasks plus the total count matching the
// filter. Bounds on limit/offset are the transport boundary's job.
func (s *TaskService) List(ctx context.Context, status *dom.Status, limit, offset int) ([]dom.Task, int64, error) {
	if s.cache != nil {
		key := s.cache.Key(status, limit, offset)
		v, err, _ := s.sf.Do(key, func() (interface{}, error) {
			if page, err := s.cache.GetPage(ctx, key); err == nil && page != nil {
				return *page, nil
			}
			page, err := s.listPage(ctx, status, limit, offset)
			if err != nil {
				return nil, err
			}
			_ = s.cache.SetPage(ctx, key, page)
			return page, nil
		})
		if err != nil {
			return nil, 0, err
		}
		page := v.(cache.TaskPage)
		return page.Tasks, page.Total, nil
	}
	page, err := s.listPage(ctx, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return page.Tasks, page.Total, nil
}

func (s *TaskService) listPage(ctx context.Context, status *dom.Status, limit, offset int) (cache.TaskPage, error) {
	tasks, err := s.repo.List(ctx, status, limit, offset)
	if err != nil {
		return cache.TaskPage{}, fmt.Errorf("list tasks: %w", err)
	}
	total, err := s.repo.Count(ctx, status)
	if err != nil {
		return cache.TaskPage{}, fmt.Errorf("count tasks: %w", err)
	}
	return cache.TaskPage{Tasks: tasks, Total: total}, nil
}

// Update applies a partial update. The existence pre-check guarantees
// ErrNotFound for unknown ids regardless of patch content; the update's own
// result is re-checked in case the row vanished in between.
func (s *TaskService) Update(ctx context.Context, id uuid.UUID, patch dom.TaskPatch) (dom.Task, error) {
	ok, err := s.repo.Exists(ctx, id)
	if err != nil {
		return dom.Task{}, fmt.Errorf("check task: %w", err)
	}
	if !ok {
		s.log.Warn("task not found", "task_id", id.String())
		return dom.Task{}, notFoundError(id)
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return dom.Task{}, validationError("task title must not be empty")
		}
		patch.Title = &title
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return dom.Task{}, validationError("invalid task status %q", *patch.Status)
	}

	t, found, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		if utils.IsPGIntegrityViolation(err) {
			s.log.Error("task update rejected by store", "task_id", id.String(), "error", err)
			return dom.Task{}, validationError("task was rejected by the store")
		}
		return dom.Task{}, fmt.Errorf("update task: %w", err)
	}
	if !found {
		// Deleted between the existence check and the update.
		return dom.Task{}, notFoundError(id)
	}
	s.invalidateCache(ctx)
	s.log.Info("task updated", "task_id", id.String())
	return t, nil
}

// Delete removes the task. The existence pre-check plus the delete's own
// boolean is redundant on purpose: the caller always gets ErrNotFound for a
// missing task, never a silent no-op.
func (s *TaskService) Delete(ctx context.Context, id uuid.UUID) error {
	ok, err := s.repo.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("check task: %w", err)
	}
	if !ok {
		s.log.Warn("task not found", "task_id", id.String())
		return notFoundError(id)
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if !deleted {
		return notFoundError(id)
	}
	s.invalidateCache(ctx)
	s.log.Info("task deleted", "task_id", id.String())
	return nil
}

func (s *TaskService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn("cache invalidation failed", "error", err)
	}
}

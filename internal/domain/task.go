package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a task.
type Status string

const (
	StatusCreated    Status = "created"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusCreated, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Domain entity: does not depend on Gin, Postgres or Redis.
// ID and both timestamps are assigned by the persistence layer.
type Task struct {
	ID          uuid.UUID
	Title       string
	Description *string
	Status      Status

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Equal reports identity equality: two tasks are the same entity iff
// they share an ID.
func (t Task) Equal(other Task) bool { return t.ID == other.ID }

func (t Task) String() string {
	return fmt.Sprintf("Task: %s (%s)", t.Title, t.Status)
}

// TaskPatch carries the fields of a partial update. A nil pointer means
// "leave untouched". SetDescription distinguishes a description that was
// omitted from one explicitly set to NULL.
type TaskPatch struct {
	Title          *string
	Description    *string
	SetDescription bool
	Status         *Status
}

// Empty reports whether the patch names no fields at all.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && !p.SetDescription && p.Status == nil
}

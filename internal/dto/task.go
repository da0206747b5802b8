package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// NullString decodes a JSON field that may carry a string or an explicit
// null, while remembering whether the field was present at all. Needed for
// partial updates: "description": null clears the description, an omitted
// description leaves it untouched.
type NullString struct {
	present bool
	value   *string
}

func (n *NullString) UnmarshalJSON(data []byte) error {
	n.present = true
	if string(data) == "null" {
		n.value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	n.value = &s
	return nil
}

// Present reports whether the field appeared in the JSON body.
func (n NullString) Present() bool { return n.present }

// Ptr returns the decoded value, nil for an explicit null.
func (n NullString) Ptr() *string { return n.value }

// CreateTaskRequest is the JSON body for POST /tasks.
type CreateTaskRequest struct {
	Title       string  `json:"title" binding:"required,min=1,max=255"`
	Description *string `json:"description" binding:"omitempty,max=1000"`
	Status      string  `json:"status" binding:"omitempty,oneof=created in_progress completed"`
}

// UpdateTaskRequest is the JSON body for PUT /tasks/{id}. Any subset of
// fields may be supplied; omitted fields are not changed.
type UpdateTaskRequest struct {
	Title       *string    `json:"title" binding:"omitempty,min=1,max=255"`
	Description NullString `json:"description"`
	Status      *string    `json:"status" binding:"omitempty,oneof=created in_progress completed"`
}

// ListTasksQuery binds the query string of GET /tasks.
type ListTasksQuery struct {
	Status string `form:"status" binding:"omitempty,oneof=created in_progress completed"`
	Limit  int    `form:"limit,default=100" binding:"min=1,max=1000"`
	Offset int    `form:"offset" binding:"min=0"`
}

type TaskResponse struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TaskListData is the data payload of a list response. Total counts all
// rows matching the filter, independent of limit/offset.
type TaskListData struct {
	Tasks []TaskResponse `json:"tasks"`
	Total int64          `json:"total"`
}

// APIResponse is the success envelope every endpoint wraps its payload in.
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ErrorResponse is the failure envelope. Error is a stable machine-readable
// code, Message is human-readable.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

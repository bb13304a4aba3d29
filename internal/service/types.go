package service

import (
	"time"

	"google.golang.org/api/googleapi"
)

// Todo is a single todo item as returned by the API.
type Todo struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// CreateTodo is the request body for creating a todo.
// An empty Description is left out of the request.
type CreateTodo struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// UpdateTodo is a partial update. Only non-nil fields are sent.
type UpdateTodo struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Completed   *bool      `json:"completed,omitempty"`
}

// IsEmpty reports whether no field is set.
func (u UpdateTodo) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.DueDate == nil && u.Completed == nil
}

// Empty is the body of a successful delete.
type Empty struct{}

// Result is the outcome of an API call that reached the server.
// Exactly one of Data and Error is set, except for a successful response
// with an empty body, where both are nil.
type Result[T any] struct {
	Data       *T
	Error      *googleapi.Error
	StatusCode int
}

// Package service defines the todo domain types and the backend interface
// the data layer depends on.
package service

import "context"

// Service is the capability the query and mutation layer needs from the API.
// Implementations return a non-nil error only when the request did not
// complete (network failure, cancelled context). A response from the server,
// successful or not, is reported through Result.
type Service interface {
	// ListTodos fetches every todo.
	ListTodos(ctx context.Context) (Result[[]Todo], error)

	// CreateTodo creates a todo. The server assigns ID and timestamps.
	CreateTodo(ctx context.Context, in CreateTodo) (Result[Todo], error)

	// UpdateTodo applies a partial update to the todo with the given ID.
	UpdateTodo(ctx context.Context, id string, in UpdateTodo) (Result[Todo], error)

	// DeleteTodo deletes the todo with the given ID.
	DeleteTodo(ctx context.Context, id string) (Result[Empty], error)
}

package todos

import (
	"errors"

	"google.golang.org/api/googleapi"
)

// Fixed operation failures. They are reported when the server answered
// without data: a non-success status or an empty body.
var (
	ErrFetchTodos = errors.New("failed to fetch todos")
	ErrCreateTodo = errors.New("failed to create todo")
	ErrUpdateTodo = errors.New("failed to update todo")
	ErrDeleteTodo = errors.New("failed to delete todo")
)

// OpError is an operation that reached the server but got no data back.
// Its message is the operation's fixed message. It unwraps to both the
// sentinel and, when the status was not 2xx, the API error.
type OpError struct {
	Err        error
	API        *googleapi.Error
	StatusCode int
}

func (e *OpError) Error() string {
	return e.Err.Error()
}

func (e *OpError) Unwrap() []error {
	if e.API == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.API}
}

func opError(sentinel error, api *googleapi.Error, status int) *OpError {
	return &OpError{Err: sentinel, API: api, StatusCode: status}
}

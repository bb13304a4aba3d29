// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"google.golang.org/api/googleapi"

	"todoctl/internal/service"
)

// ErrFailedToFetch stands in for a transport failure.
var ErrFailedToFetch = errors.New("failed to fetch")

// Call records one invocation of a FakeService method.
type Call struct {
	Method string
	ID     string
	Create *service.CreateTodo
	Update *service.UpdateTodo
}

// FakeService is an in-memory implementation of service.Service for testing.
type FakeService struct {
	mu    sync.Mutex
	todos []service.Todo
	calls []Call

	// Transport error injection: returned as the call's error.
	ListErr   error
	CreateErr error
	UpdateErr error
	DeleteErr error

	// Status injection: a non-zero value makes the call return an error
	// result with that HTTP status.
	ListStatus   int
	CreateStatus int
	UpdateStatus int
	DeleteStatus int

	// ListEmpty makes ListTodos succeed without a body.
	ListEmpty bool

	// ListGate, when set, blocks ListTodos until it is closed or the
	// context ends.
	ListGate chan struct{}

	// Now is used for timestamps. Defaults to time.Now.
	Now func() time.Time
}

// NewFakeService creates an empty FakeService.
func NewFakeService() *FakeService {
	return &FakeService{Now: time.Now}
}

// AddTodo seeds a todo with a fixed ID.
func (f *FakeService) AddTodo(id, title string, completed bool) service.Todo {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.now()
	todo := service.Todo{
		ID:        id,
		Title:     title,
		Completed: completed,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.todos = append(f.todos, todo)
	return todo
}

// Todos returns a copy of the stored todos.
func (f *FakeService) Todos() []service.Todo {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]service.Todo, len(f.todos))
	copy(out, f.todos)
	return out
}

// Calls returns the recorded calls in order.
func (f *FakeService) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallCount returns how many times method was called.
func (f *FakeService) CallCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

func (f *FakeService) now() time.Time {
	if f.Now == nil {
		return time.Now()
	}
	return f.Now()
}

func (f *FakeService) record(c Call) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
}

func statusError(code int) *googleapi.Error {
	return &googleapi.Error{Code: code, Message: http.StatusText(code)}
}

// ListTodos implements service.Service.
func (f *FakeService) ListTodos(ctx context.Context) (service.Result[[]service.Todo], error) {
	f.record(Call{Method: "ListTodos"})

	if f.ListGate != nil {
		select {
		case <-f.ListGate:
		case <-ctx.Done():
			return service.Result[[]service.Todo]{}, ctx.Err()
		}
	}

	if f.ListErr != nil {
		return service.Result[[]service.Todo]{}, f.ListErr
	}
	if f.ListStatus != 0 {
		return service.Result[[]service.Todo]{Error: statusError(f.ListStatus), StatusCode: f.ListStatus}, nil
	}
	if f.ListEmpty {
		return service.Result[[]service.Todo]{StatusCode: http.StatusOK}, nil
	}

	todos := f.Todos()
	return service.Result[[]service.Todo]{Data: &todos, StatusCode: http.StatusOK}, nil
}

// CreateTodo implements service.Service.
func (f *FakeService) CreateTodo(ctx context.Context, in service.CreateTodo) (service.Result[service.Todo], error) {
	f.record(Call{Method: "CreateTodo", Create: &in})

	if f.CreateErr != nil {
		return service.Result[service.Todo]{}, f.CreateErr
	}
	if f.CreateStatus != 0 {
		return service.Result[service.Todo]{Error: statusError(f.CreateStatus), StatusCode: f.CreateStatus}, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.now()
	todo := service.Todo{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.todos = append(f.todos, todo)
	return service.Result[service.Todo]{Data: &todo, StatusCode: http.StatusCreated}, nil
}

// UpdateTodo implements service.Service.
func (f *FakeService) UpdateTodo(ctx context.Context, id string, in service.UpdateTodo) (service.Result[service.Todo], error) {
	f.record(Call{Method: "UpdateTodo", ID: id, Update: &in})

	if f.UpdateErr != nil {
		return service.Result[service.Todo]{}, f.UpdateErr
	}
	if f.UpdateStatus != 0 {
		return service.Result[service.Todo]{Error: statusError(f.UpdateStatus), StatusCode: f.UpdateStatus}, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.todos {
		if t.ID != id {
			continue
		}
		if in.Title != nil {
			t.Title = *in.Title
		}
		if in.Description != nil {
			t.Description = *in.Description
		}
		if in.DueDate != nil {
			due := *in.DueDate
			t.DueDate = &due
		}
		if in.Completed != nil {
			t.Completed = *in.Completed
		}
		t.UpdatedAt = f.now()
		f.todos[i] = t
		return service.Result[service.Todo]{Data: &t, StatusCode: http.StatusOK}, nil
	}
	return service.Result[service.Todo]{Error: statusError(http.StatusNotFound), StatusCode: http.StatusNotFound}, nil
}

// DeleteTodo implements service.Service.
func (f *FakeService) DeleteTodo(ctx context.Context, id string) (service.Result[service.Empty], error) {
	f.record(Call{Method: "DeleteTodo", ID: id})

	if f.DeleteErr != nil {
		return service.Result[service.Empty]{}, f.DeleteErr
	}
	if f.DeleteStatus != 0 {
		return service.Result[service.Empty]{Error: statusError(f.DeleteStatus), StatusCode: f.DeleteStatus}, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.todos {
		if t.ID == id {
			f.todos = append(f.todos[:i], f.todos[i+1:]...)
			return service.Result[service.Empty]{Data: &service.Empty{}, StatusCode: http.StatusOK}, nil
		}
	}
	return service.Result[service.Empty]{Error: statusError(http.StatusNotFound), StatusCode: http.StatusNotFound}, nil
}

package todos

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"todoctl/internal/service"
)

// Invalidator marks a cache key stale and waits for active readers to be
// refreshed. *cache.Cache implements it.
type Invalidator interface {
	Invalidate(ctx context.Context, key string)
}

// Mutations performs writes. Each successful write invalidates TodosKey
// before returning; a failed one never does.
type Mutations struct {
	svc    service.Service
	inv    Invalidator
	tracer trace.Tracer
}

// NewMutations creates Mutations over svc.
func NewMutations(svc service.Service, inv Invalidator) *Mutations {
	return &Mutations{
		svc:    svc,
		inv:    inv,
		tracer: otel.Tracer("todoctl/internal/todos"),
	}
}

// CreateTodo creates a todo and returns it as stored by the server.
func (m *Mutations) CreateTodo(ctx context.Context, in service.CreateTodo) (service.Todo, error) {
	ctx, span := m.tracer.Start(ctx, "todos.CreateTodo")
	defer span.End()

	res, err := m.svc.CreateTodo(ctx, in)
	if err != nil {
		return service.Todo{}, fail(span, err)
	}
	if res.Data == nil {
		return service.Todo{}, fail(span, opError(ErrCreateTodo, res.Error, res.StatusCode))
	}

	span.SetAttributes(attribute.String("todo.id", res.Data.ID))
	m.inv.Invalidate(ctx, TodosKey)
	return *res.Data, nil
}

// UpdateTodo applies the fields set in in to the todo with id.
func (m *Mutations) UpdateTodo(ctx context.Context, id string, in service.UpdateTodo) (service.Todo, error) {
	ctx, span := m.tracer.Start(ctx, "todos.UpdateTodo",
		trace.WithAttributes(attribute.String("todo.id", id)))
	defer span.End()

	res, err := m.svc.UpdateTodo(ctx, id, in)
	if err != nil {
		return service.Todo{}, fail(span, err)
	}
	if res.Data == nil {
		return service.Todo{}, fail(span, opError(ErrUpdateTodo, res.Error, res.StatusCode))
	}

	m.inv.Invalidate(ctx, TodosKey)
	return *res.Data, nil
}

// DeleteTodo deletes the todo with id. A success response must carry a
// body; an empty one is treated as a failure like in the other writes.
func (m *Mutations) DeleteTodo(ctx context.Context, id string) error {
	ctx, span := m.tracer.Start(ctx, "todos.DeleteTodo",
		trace.WithAttributes(attribute.String("todo.id", id)))
	defer span.End()

	res, err := m.svc.DeleteTodo(ctx, id)
	if err != nil {
		return fail(span, err)
	}
	if res.Data == nil {
		return fail(span, opError(ErrDeleteTodo, res.Error, res.StatusCode))
	}

	m.inv.Invalidate(ctx, TodosKey)
	return nil
}

// ToggleTodoComplete flips todo.Completed. It sends only the completed
// field and behaves exactly like UpdateTodo.
func (m *Mutations) ToggleTodoComplete(ctx context.Context, todo service.Todo) (service.Todo, error) {
	completed := !todo.Completed
	return m.UpdateTodo(ctx, todo.ID, service.UpdateTodo{Completed: &completed})
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

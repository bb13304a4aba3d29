// Package todos is the todo data layer: a cached list query and the
// mutations that invalidate it.
package todos

import (
	"context"
	"errors"
	"sync"

	"todoctl/internal/cache"
	"todoctl/internal/service"
)

// TodosKey is the only cache key. Every mutation refetches the whole list.
const TodosKey = "/api/todos"

// ErrQueryClosed is returned by Wait after Close.
var ErrQueryClosed = errors.New("query closed")

// State is what a reader of the todo list sees.
type State struct {
	// Todos is never nil.
	Todos     []service.Todo
	Err       error
	IsLoading bool
}

// Query is a subscription to the todo list.
type Query struct {
	sub     *cache.Subscription
	updates chan State
	done    chan struct{}

	mu      sync.Mutex
	changed chan struct{}
}

// ListFetcher adapts svc.ListTodos to a cache fetcher. A transport error is
// returned as is; a response without data becomes ErrFetchTodos.
func ListFetcher(svc service.Service) cache.Fetcher {
	return func(ctx context.Context) (any, error) {
		res, err := svc.ListTodos(ctx)
		if err != nil {
			return nil, err
		}
		if res.Data == nil {
			return nil, opError(ErrFetchTodos, res.Error, res.StatusCode)
		}
		return *res.Data, nil
	}
}

// NewQuery subscribes to the todo list in c, fetching it through svc.
func NewQuery(ctx context.Context, c *cache.Cache, svc service.Service, opts ...cache.SubscribeOption) *Query {
	q := &Query{
		updates: make(chan State, 1),
		done:    make(chan struct{}),
		changed: make(chan struct{}),
	}
	q.sub = c.Subscribe(ctx, TodosKey, ListFetcher(svc), opts...)
	go q.forward()
	return q
}

func (q *Query) forward() {
	for e := range q.sub.Updates() {
		st := stateOf(e)
		select {
		case q.updates <- st:
		default:
			select {
			case <-q.updates:
			default:
			}
			q.updates <- st
		}

		q.mu.Lock()
		close(q.changed)
		q.changed = make(chan struct{})
		q.mu.Unlock()
	}
	close(q.updates)
	close(q.done)
}

func stateOf(e cache.Entry) State {
	todos, _ := e.Data.([]service.Todo)
	if todos == nil {
		todos = []service.Todo{}
	}
	return State{
		Todos:     todos,
		Err:       e.Err,
		IsLoading: e.IsLoading(),
	}
}

// Snapshot returns the current state.
func (q *Query) Snapshot() State {
	return stateOf(q.sub.State())
}

// Updates returns a channel that receives the latest state after each
// change. It is closed by Close.
func (q *Query) Updates() <-chan State {
	return q.updates
}

// Refetch revalidates the list and returns the fetch error.
func (q *Query) Refetch(ctx context.Context) error {
	return q.sub.Revalidate(ctx)
}

// Wait blocks until no fetch is in flight and returns the state together
// with its error.
func (q *Query) Wait(ctx context.Context) (State, error) {
	for {
		q.mu.Lock()
		changed := q.changed
		q.mu.Unlock()

		if e := q.sub.State(); !e.Validating {
			st := stateOf(e)
			return st, st.Err
		}

		select {
		case <-changed:
		case <-q.done:
			return q.Snapshot(), ErrQueryClosed
		case <-ctx.Done():
			return q.Snapshot(), ctx.Err()
		}
	}
}

// Close ends the subscription. An in-flight fetch still completes and
// updates the cache.
func (q *Query) Close() {
	q.sub.Close()
}

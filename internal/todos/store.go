package todos

import (
	"context"

	"todoctl/internal/cache"
	"todoctl/internal/service"
)

// Store wires a service to a cache for front ends. Its mutations invalidate
// the same cache its queries read from.
type Store struct {
	*Mutations

	svc   service.Service
	cache *cache.Cache
}

// NewStore creates a Store.
func NewStore(svc service.Service, c *cache.Cache) *Store {
	return &Store{
		Mutations: NewMutations(svc, c),
		svc:       svc,
		cache:     c,
	}
}

// Query subscribes to the todo list. Close it when done.
func (s *Store) Query(ctx context.Context, opts ...cache.SubscribeOption) *Query {
	return NewQuery(ctx, s.cache, s.svc, opts...)
}

// List fetches the list once through the cache.
func (s *Store) List(ctx context.Context) ([]service.Todo, error) {
	q := s.Query(ctx)
	defer q.Close()
	st, err := q.Wait(ctx)
	return st.Todos, err
}

// Focus revalidates focus-aware queries, as when the terminal regains focus.
func (s *Store) Focus(ctx context.Context) {
	s.cache.Focus(ctx)
}

package todos_test

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"testing"
	"time"

	"todoctl/internal/cache"
	"todoctl/internal/service"
	"todoctl/internal/testutil"
	"todoctl/internal/todos"
)

func TestQuery_LoadingThenData(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTodo("1", "first", false)
	svc.AddTodo("2", "second", true)
	svc.ListGate = make(chan struct{})

	q := todos.NewQuery(context.Background(), cache.New(), svc)
	defer q.Close()

	st := q.Snapshot()
	if st.Todos == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(st.Todos) != 0 {
		t.Errorf("expected no todos before load, got %d", len(st.Todos))
	}
	if !st.IsLoading {
		t.Error("expected loading before first fetch")
	}

	close(svc.ListGate)
	st, err := q.Wait(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.IsLoading {
		t.Error("expected loading to be false")
	}
	if !reflect.DeepEqual(st.Todos, svc.Todos()) {
		t.Errorf("expected %+v, got %+v", svc.Todos(), st.Todos)
	}
}

func TestQuery_EmptyList(t *testing.T) {
	q := todos.NewQuery(context.Background(), cache.New(), testutil.NewFakeService())
	defer q.Close()

	st, err := q.Wait(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Todos == nil || len(st.Todos) != 0 {
		t.Errorf("expected empty non-nil list, got %#v", st.Todos)
	}
}

func TestQuery_NoDataIsFetchError(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*testutil.FakeService)
	}{
		{"server error", func(s *testutil.FakeService) { s.ListStatus = http.StatusInternalServerError }},
		{"empty body", func(s *testutil.FakeService) { s.ListEmpty = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := testutil.NewFakeService()
			tt.setup(svc)
			q := todos.NewQuery(context.Background(), cache.New(), svc)
			defer q.Close()

			st, err := q.Wait(context.Background())
			if !errors.Is(err, todos.ErrFetchTodos) {
				t.Fatalf("expected ErrFetchTodos, got %v", err)
			}
			if st.Err == nil || st.Err.Error() != "failed to fetch todos" {
				t.Errorf("expected %q, got %v", "failed to fetch todos", st.Err)
			}
			if len(st.Todos) != 0 || st.IsLoading {
				t.Errorf("unexpected state %+v", st)
			}
		})
	}
}

func TestQuery_TransportErrorPassesThrough(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.ListErr = testutil.ErrFailedToFetch

	q := todos.NewQuery(context.Background(), cache.New(), svc)
	defer q.Close()

	_, err := q.Wait(context.Background())
	if !errors.Is(err, testutil.ErrFailedToFetch) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if errors.Is(err, todos.ErrFetchTodos) {
		t.Error("transport error must not be wrapped")
	}
}

func TestQuery_ConcurrentQueriesShareFetch(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTodo("1", "a", false)
	svc.ListGate = make(chan struct{})
	c := cache.New()

	q1 := todos.NewQuery(context.Background(), c, svc)
	defer q1.Close()
	q2 := todos.NewQuery(context.Background(), c, svc)
	defer q2.Close()

	time.Sleep(50 * time.Millisecond)
	close(svc.ListGate)

	for _, q := range []*todos.Query{q1, q2} {
		st, err := q.Wait(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(st.Todos) != 1 {
			t.Errorf("expected 1 todo, got %d", len(st.Todos))
		}
	}
	if n := svc.CallCount("ListTodos"); n != 1 {
		t.Errorf("expected 1 list call, got %d", n)
	}
}

func TestQuery_FailedRefetchKeepsData(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTodo("1", "a", false)

	q := todos.NewQuery(context.Background(), cache.New(), svc)
	defer q.Close()
	if _, err := q.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	svc.ListStatus = http.StatusServiceUnavailable
	if err := q.Refetch(context.Background()); !errors.Is(err, todos.ErrFetchTodos) {
		t.Fatalf("expected ErrFetchTodos, got %v", err)
	}

	st := q.Snapshot()
	if len(st.Todos) != 1 {
		t.Errorf("expected previous todos to stay visible, got %d", len(st.Todos))
	}
	if !errors.Is(st.Err, todos.ErrFetchTodos) {
		t.Errorf("expected error in state, got %v", st.Err)
	}
	if st.IsLoading {
		t.Error("expected not loading with data present")
	}

	svc.ListStatus = 0
	if err := q.Refetch(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st := q.Snapshot(); st.Err != nil {
		t.Errorf("expected error cleared, got %v", st.Err)
	}
}

func TestQuery_UpdatesAfterMutation(t *testing.T) {
	svc := testutil.NewFakeService()
	store := todos.NewStore(svc, cache.New())

	q := store.Query(context.Background())
	defer q.Close()
	if _, err := q.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := store.CreateTodo(context.Background(), service.CreateTodo{Title: "new"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	timeout := time.After(2 * time.Second)
	for {
		select {
		case st := <-q.Updates():
			if len(st.Todos) == 1 && st.Todos[0].Title == "new" {
				return
			}
		case <-timeout:
			t.Fatalf("timed out waiting for update, last %+v", q.Snapshot())
		}
	}
}

func TestQuery_WaitAfterClose(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.ListGate = make(chan struct{})
	defer close(svc.ListGate)

	q := todos.NewQuery(context.Background(), cache.New(), svc)
	q.Close()

	if _, err := q.Wait(context.Background()); !errors.Is(err, todos.ErrQueryClosed) {
		t.Errorf("expected ErrQueryClosed, got %v", err)
	}
}

func TestStore_List(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTodo("1", "a", false)
	store := todos.NewStore(svc, cache.New())

	list, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 1 || list[0].ID != "1" {
		t.Errorf("unexpected list %+v", list)
	}
}

func TestStore_ListContextCancelled(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.ListGate = make(chan struct{})
	defer close(svc.ListGate)
	store := todos.NewStore(svc, cache.New())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := store.List(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

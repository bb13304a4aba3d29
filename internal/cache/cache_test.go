package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

const testKey = "/api/todos"

// countingFetcher returns the number of calls made so far, or err when set.
type countingFetcher struct {
	calls atomic.Int32
	mu    sync.Mutex
	err   error
	gate  chan struct{}
}

func (f *countingFetcher) fetch(ctx context.Context) (any, error) {
	n := f.calls.Add(1)
	f.mu.Lock()
	gate, err := f.gate, f.err
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return int(n), nil
}

func (f *countingFetcher) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func waitFor(t *testing.T, s *Subscription, cond func(Entry) bool) Entry {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		if e := s.State(); cond(e) {
			return e
		}
		select {
		case <-s.Updates():
		case <-timeout:
			t.Fatalf("timed out waiting for state, last %+v", s.State())
		}
	}
}

func settled(e Entry) bool { return !e.Validating }

func TestSubscribe_LoadsOnMount(t *testing.T) {
	c := New()
	f := &countingFetcher{gate: make(chan struct{})}

	s := c.Subscribe(context.Background(), testKey, f.fetch)
	defer s.Close()

	if e := s.State(); !e.IsLoading() {
		t.Errorf("expected loading right after subscribe, got %+v", e)
	}

	close(f.gate)
	e := waitFor(t, s, settled)
	if !e.HasData || e.Data != 1 {
		t.Errorf("expected data 1, got %+v", e)
	}
	if e.IsLoading() {
		t.Error("expected loading to be false after fetch")
	}
}

func TestSubscribe_WithoutMountRevalidation(t *testing.T) {
	c := New()
	c.Set(testKey, 42)
	f := &countingFetcher{}

	s := c.Subscribe(context.Background(), testKey, f.fetch, RevalidateOnMount(false))
	defer s.Close()

	if e := s.State(); e.Validating || e.Data != 42 {
		t.Errorf("expected cached value without fetch, got %+v", e)
	}
	if n := f.calls.Load(); n != 0 {
		t.Errorf("expected no fetch, got %d", n)
	}
}

func TestSubscribe_ConcurrentMountsShareFetch(t *testing.T) {
	c := New()
	f := &countingFetcher{gate: make(chan struct{})}

	var subs []*Subscription
	for i := 0; i < 3; i++ {
		subs = append(subs, c.Subscribe(context.Background(), testKey, f.fetch))
	}
	defer func() {
		for _, s := range subs {
			s.Close()
		}
	}()

	// Let the mount goroutines join the blocked fetch.
	time.Sleep(50 * time.Millisecond)
	close(f.gate)

	for _, s := range subs {
		e := waitFor(t, s, settled)
		if e.Data != 1 {
			t.Errorf("expected shared result 1, got %v", e.Data)
		}
	}
	if n := f.calls.Load(); n != 1 {
		t.Errorf("expected 1 fetch, got %d", n)
	}
}

func TestRevalidate_ErrorKeepsPreviousData(t *testing.T) {
	c := New()
	f := &countingFetcher{}
	s := c.Subscribe(context.Background(), testKey, f.fetch)
	defer s.Close()
	waitFor(t, s, func(e Entry) bool { return e.HasData && !e.Validating })

	boom := errors.New("boom")
	f.setErr(boom)
	if err := s.Revalidate(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	e := s.State()
	if e.Data != 1 || !e.HasData {
		t.Errorf("expected previous data to be kept, got %+v", e)
	}
	if !errors.Is(e.Err, boom) {
		t.Errorf("expected entry error, got %v", e.Err)
	}
	if e.IsLoading() {
		t.Error("expected not loading")
	}

	f.setErr(nil)
	if err := s.Revalidate(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e := s.State(); e.Err != nil || e.Data != 3 {
		t.Errorf("expected error cleared and data 3, got %+v", e)
	}
}

func TestRevalidate_NoFetcher(t *testing.T) {
	c := New()
	if err := c.Revalidate(context.Background(), testKey); !errors.Is(err, ErrNoFetcher) {
		t.Errorf("expected ErrNoFetcher, got %v", err)
	}
}

func TestRevalidate_CallerCancelDoesNotAbortFetch(t *testing.T) {
	c := New()
	f := &countingFetcher{}
	s := c.Subscribe(context.Background(), testKey, f.fetch)
	defer s.Close()
	waitFor(t, s, settled)

	f.mu.Lock()
	f.gate = make(chan struct{})
	gate := f.gate
	f.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Revalidate(ctx) }()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("revalidate did not return after cancel")
	}

	close(gate)
	e := waitFor(t, s, func(e Entry) bool { return e.Data == 2 && !e.Validating })
	if e.Err != nil {
		t.Errorf("unexpected error: %v", e.Err)
	}
}

func TestInvalidate_WithoutSubscribersMarksStale(t *testing.T) {
	c := New()
	f := &countingFetcher{}
	s := c.Subscribe(context.Background(), testKey, f.fetch)
	waitFor(t, s, settled)
	s.Close()

	c.Invalidate(context.Background(), testKey)
	if n := f.calls.Load(); n != 1 {
		t.Errorf("expected no refetch without subscribers, got %d fetches", n)
	}

	s = c.Subscribe(context.Background(), testKey, f.fetch, RevalidateOnMount(false))
	defer s.Close()
	e := waitFor(t, s, func(e Entry) bool { return e.Data == 2 && !e.Validating })
	if !e.HasData {
		t.Errorf("expected stale entry to refetch on subscribe, got %+v", e)
	}
}

func TestInvalidate_AwaitsRefetch(t *testing.T) {
	c := New()
	f := &countingFetcher{}
	s := c.Subscribe(context.Background(), testKey, f.fetch)
	defer s.Close()
	waitFor(t, s, settled)

	c.Invalidate(context.Background(), testKey)

	if n := f.calls.Load(); n != 2 {
		t.Errorf("expected 2 fetches, got %d", n)
	}
	if e := s.State(); e.Data != 2 || e.Validating {
		t.Errorf("expected fresh data when Invalidate returns, got %+v", e)
	}
}

func TestInvalidate_UnknownKeyIsNoop(t *testing.T) {
	c := New()
	c.Invalidate(context.Background(), "missing")
	if _, ok := c.Get("missing"); ok {
		t.Error("expected no entry")
	}
}

func TestInvalidate_DropsOlderInFlightResult(t *testing.T) {
	c := New()
	gate := make(chan struct{})
	var calls atomic.Int32
	fetch := func(ctx context.Context) (any, error) {
		if calls.Add(1) == 1 {
			<-gate
			return "old", nil
		}
		return "new", nil
	}

	s := c.Subscribe(context.Background(), testKey, fetch)
	defer s.Close()
	for calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}

	c.Invalidate(context.Background(), testKey)
	if e := s.State(); e.Data != "new" {
		t.Fatalf("expected invalidate to fetch fresh data, got %+v", e)
	}

	close(gate)
	e := waitFor(t, s, settled)
	if e.Data != "new" {
		t.Errorf("expected superseded result to be dropped, got %v", e.Data)
	}
}

func TestSet_StoresAndNotifies(t *testing.T) {
	c := New()
	f := &countingFetcher{err: errors.New("boom")}
	s := c.Subscribe(context.Background(), testKey, f.fetch)
	defer s.Close()
	waitFor(t, s, func(e Entry) bool { return e.Err != nil && !e.Validating })

	c.Set(testKey, "manual")

	e := waitFor(t, s, func(e Entry) bool { return e.Data == "manual" })
	if e.Err != nil {
		t.Errorf("expected Set to clear error, got %v", e.Err)
	}
	got, ok := c.Get(testKey)
	if !ok || got.Data != "manual" {
		t.Errorf("expected Get to return manual, got %+v ok=%v", got, ok)
	}
}

func TestFocus_Throttled(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := New(WithFocusThrottle(5 * time.Second))
	c.now = func() time.Time { return now }

	f := &countingFetcher{}
	s := c.Subscribe(context.Background(), testKey, f.fetch, RevalidateOnMount(false))
	defer s.Close()
	// Not mounted with data, so the subscribe itself fetched once.
	waitFor(t, s, settled)
	base := f.calls.Load()

	c.Focus(context.Background())
	c.Focus(context.Background())
	if n := f.calls.Load() - base; n != 1 {
		t.Errorf("expected 1 focus fetch within throttle, got %d", n)
	}

	now = now.Add(6 * time.Second)
	c.Focus(context.Background())
	if n := f.calls.Load() - base; n != 2 {
		t.Errorf("expected 2 focus fetches after throttle, got %d", n)
	}
}

func TestFocus_SkipsSubscriptionsWithoutFocus(t *testing.T) {
	c := New()
	f := &countingFetcher{}
	s := c.Subscribe(context.Background(), testKey, f.fetch, RevalidateOnFocus(false))
	defer s.Close()
	waitFor(t, s, settled)

	c.Focus(context.Background())
	if n := f.calls.Load(); n != 1 {
		t.Errorf("expected no focus fetch, got %d fetches", n)
	}
}

func TestClose_StopsUpdates(t *testing.T) {
	c := New()
	f := &countingFetcher{}
	s := c.Subscribe(context.Background(), testKey, f.fetch)
	waitFor(t, s, settled)

	if n := c.Subscribers(testKey); n != 1 {
		t.Fatalf("expected 1 subscriber, got %d", n)
	}
	s.Close()
	s.Close()

	if n := c.Subscribers(testKey); n != 0 {
		t.Errorf("expected 0 subscribers, got %d", n)
	}
	for range s.Updates() {
	}
}

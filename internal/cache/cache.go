// Package cache is a keyed store that revalidates entries through a fetcher
// and notifies subscribers. Concurrent fetches of one key share a single
// in-flight call; an invalidation always starts a fresh one.
package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"golang.org/x/sync/singleflight"

	"todoctl/internal/logging"
)

// DefaultFocusThrottle is the minimum interval between focus revalidations
// of one key.
const DefaultFocusThrottle = 5 * time.Second

// ErrNoFetcher is returned by Revalidate for a key nobody subscribed to.
var ErrNoFetcher = errors.New("cache: no fetcher registered for key")

// Fetcher loads the value for a key.
type Fetcher func(ctx context.Context) (any, error)

// Entry is a snapshot of one key.
type Entry struct {
	Data       any
	Err        error
	HasData    bool
	Validating bool
	UpdatedAt  time.Time
}

// IsLoading reports whether the first value is still being fetched.
func (e Entry) IsLoading() bool {
	return !e.HasData && e.Validating
}

type entry struct {
	data      any
	err       error
	hasData   bool
	updatedAt time.Time

	stale     bool
	gen       uint64 // bumped by Set and Invalidate; older fetch results are dropped
	pending   int    // callers waiting on a fetch
	lastFocus time.Time

	fetcher Fetcher
	subs    map[*Subscription]struct{}
}

func (e *entry) snapshot() Entry {
	return Entry{
		Data:       e.data,
		Err:        e.err,
		HasData:    e.hasData,
		Validating: e.pending > 0,
		UpdatedAt:  e.updatedAt,
	}
}

func (e *entry) wantsFocus() bool {
	for s := range e.subs {
		if s.onFocus {
			return true
		}
	}
	return false
}

// Cache holds entries for the lifetime of one application instance.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	group   singleflight.Group

	log           *log.Logger
	focusThrottle time.Duration
	meter         metric.Meter
	now           func() time.Time

	fetches metric.Int64Counter
	deduped metric.Int64Counter
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.log = l
		}
	}
}

// WithFocusThrottle sets the minimum interval between focus revalidations.
func WithFocusThrottle(d time.Duration) Option {
	return func(c *Cache) {
		c.focusThrottle = d
	}
}

// WithMeter sets the meter used for cache counters.
func WithMeter(m metric.Meter) Option {
	return func(c *Cache) {
		c.meter = m
	}
}

// New creates an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries:       make(map[string]*entry),
		log:           logging.Discard(),
		focusThrottle: DefaultFocusThrottle,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.meter == nil {
		c.meter = otel.Meter("todoctl/internal/cache")
	}

	var err error
	c.fetches, err = c.meter.Int64Counter("todoctl.cache.fetches",
		metric.WithDescription("Fetcher invocations"))
	if err != nil {
		c.fetches = noop.Int64Counter{}
	}
	c.deduped, err = c.meter.Int64Counter("todoctl.cache.deduplicated",
		metric.WithDescription("Revalidations that shared an in-flight fetch"))
	if err != nil {
		c.deduped = noop.Int64Counter{}
	}
	return c
}

// entryLocked returns the entry for key, creating it. c.mu must be held.
func (c *Cache) entryLocked(key string) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{subs: make(map[*Subscription]struct{})}
		c.entries[key] = e
	}
	return e
}

func (c *Cache) notifyLocked(e *entry) {
	snap := e.snapshot()
	for s := range e.subs {
		s.push(snap)
	}
}

// Get returns the current entry for key. ok is false when no value has
// been stored yet.
func (c *Cache) Get(key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, exists := c.entries[key]
	if !exists {
		return Entry{}, false
	}
	return e.snapshot(), e.hasData
}

// Set stores value for key, clears its error and notifies subscribers.
// Fetches already in flight for key will not overwrite it.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entryLocked(key)
	e.gen++
	e.data = value
	e.hasData = true
	e.err = nil
	e.stale = false
	e.updatedAt = c.now()
	c.notifyLocked(e)
}

// Subscribers returns the number of open subscriptions for key.
func (c *Cache) Subscribers(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		return len(e.subs)
	}
	return 0
}

// Revalidate fetches key again, sharing a fetch already in flight. It waits
// for the fetch unless ctx ends first; the fetch itself is not cancelled and
// its result is still stored.
func (c *Cache) Revalidate(ctx context.Context, key string) error {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok || e.fetcher == nil {
		c.mu.Unlock()
		return ErrNoFetcher
	}
	e.pending++
	c.notifyLocked(e)
	c.mu.Unlock()

	return c.await(ctx, key)
}

// Invalidate marks key stale. With active subscribers it starts a fresh
// fetch and waits for it; fetch errors are recorded on the entry. Without
// subscribers the next subscriber refetches.
func (c *Cache) Invalidate(ctx context.Context, key string) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		return
	}
	e.gen++
	e.stale = true
	if len(e.subs) == 0 || e.fetcher == nil {
		c.mu.Unlock()
		c.log.Debug("cache marked stale", "key", key)
		return
	}
	e.pending++
	c.notifyLocked(e)
	c.mu.Unlock()

	// Results of a flight started before this point are dropped by gen,
	// so do not join it.
	c.group.Forget(key)
	if err := c.await(ctx, key); err != nil {
		c.log.Debug("revalidation after invalidate failed", "key", key, "err", err)
	}
}

// Focus revalidates every key with a subscriber that asked for focus
// revalidation, at most once per focus throttle interval per key.
func (c *Cache) Focus(ctx context.Context) {
	now := c.now()

	var keys []string
	c.mu.Lock()
	for key, e := range c.entries {
		if e.fetcher == nil || !e.wantsFocus() {
			continue
		}
		if !e.lastFocus.IsZero() && now.Sub(e.lastFocus) < c.focusThrottle {
			continue
		}
		e.lastFocus = now
		e.pending++
		c.notifyLocked(e)
		keys = append(keys, key)
	}
	c.mu.Unlock()

	var wg sync.WaitGroup
	for _, key := range keys {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			if err := c.await(ctx, key); err != nil {
				c.log.Debug("focus revalidation failed", "key", key, "err", err)
			}
		}(key)
	}
	wg.Wait()
}

// await joins or starts the fetch for key and releases one pending mark
// once it completes. The caller must have incremented pending.
func (c *Cache) await(ctx context.Context, key string) error {
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		return c.fetch(fetchCtx, key)
	})

	select {
	case res := <-ch:
		if res.Shared {
			c.deduped.Add(ctx, 1, metric.WithAttributes(attribute.String("key", key)))
		}
		c.release(key)
		return res.Err
	case <-ctx.Done():
		go func() {
			<-ch
			c.release(key)
		}()
		return ctx.Err()
	}
}

func (c *Cache) fetch(ctx context.Context, key string) (any, error) {
	c.mu.Lock()
	e := c.entries[key]
	fetcher := e.fetcher
	gen := e.gen
	c.mu.Unlock()

	c.fetches.Add(ctx, 1, metric.WithAttributes(attribute.String("key", key)))
	c.log.Debug("fetching", "key", key)
	data, err := fetcher(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if e.gen != gen {
		c.log.Debug("dropping superseded fetch", "key", key)
		return data, err
	}
	if err != nil {
		e.err = err
	} else {
		e.data = data
		e.hasData = true
		e.err = nil
		e.stale = false
		e.updatedAt = c.now()
	}
	c.notifyLocked(e)
	return data, err
}

func (c *Cache) release(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok && e.pending > 0 {
		e.pending--
		c.notifyLocked(e)
	}
}

package cache

import (
	"context"
	"sync"
)

type subscribeOptions struct {
	onFocus bool
	onMount bool
}

// SubscribeOption configures a Subscription.
type SubscribeOption func(*subscribeOptions)

// RevalidateOnFocus sets whether Focus refetches the key. Default true.
func RevalidateOnFocus(v bool) SubscribeOption {
	return func(o *subscribeOptions) { o.onFocus = v }
}

// RevalidateOnMount sets whether subscribing refetches the key. Default true.
func RevalidateOnMount(v bool) SubscribeOption {
	return func(o *subscribeOptions) { o.onMount = v }
}

// Subscription observes one key. Updates carries the latest entry only;
// slower readers skip intermediate states.
type Subscription struct {
	c       *Cache
	key     string
	onFocus bool

	updates   chan Entry
	closeOnce sync.Once
}

// Subscribe registers fetcher for key and returns a subscription to it.
// Unless disabled with RevalidateOnMount, a fetch starts in the background
// and the returned subscription already reports it as validating.
func (c *Cache) Subscribe(ctx context.Context, key string, fetcher Fetcher, opts ...SubscribeOption) *Subscription {
	o := subscribeOptions{onFocus: true, onMount: true}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Subscription{
		c:       c,
		key:     key,
		onFocus: o.onFocus,
		updates: make(chan Entry, 1),
	}

	c.mu.Lock()
	e := c.entryLocked(key)
	e.fetcher = fetcher
	e.subs[s] = struct{}{}
	mount := o.onMount || !e.hasData || e.stale
	if mount {
		e.pending++
	}
	c.notifyLocked(e)
	c.mu.Unlock()

	if mount {
		go func() {
			if err := c.await(context.WithoutCancel(ctx), key); err != nil {
				c.log.Debug("mount revalidation failed", "key", key, "err", err)
			}
		}()
	}
	return s
}

// Key returns the subscribed key.
func (s *Subscription) Key() string {
	return s.key
}

// State returns the current entry.
func (s *Subscription) State() Entry {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	if e, ok := s.c.entries[s.key]; ok {
		return e.snapshot()
	}
	return Entry{}
}

// Updates returns a channel receiving the entry after each change. It is
// closed by Close.
func (s *Subscription) Updates() <-chan Entry {
	return s.updates
}

// Revalidate refetches the subscribed key.
func (s *Subscription) Revalidate(ctx context.Context) error {
	return s.c.Revalidate(ctx, s.key)
}

// Close stops updates. It is safe to call more than once.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.c.mu.Lock()
		defer s.c.mu.Unlock()
		if e, ok := s.c.entries[s.key]; ok {
			delete(e.subs, s)
		}
		close(s.updates)
	})
}

// push replaces any unread entry with e. Callers hold c.mu.
func (s *Subscription) push(e Entry) {
	select {
	case s.updates <- e:
		return
	default:
	}
	select {
	case <-s.updates:
	default:
	}
	select {
	case s.updates <- e:
	default:
	}
}

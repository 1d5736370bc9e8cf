// Package query is a keyed response cache for content API reads.
//
// Each entry remembers when its data was last fetched. Reads inside the entry's
// stale window are served from memory; later reads refetch. Concurrent reads of
// the same key share one upstream call, failed calls are retried, and a failed
// refetch keeps serving the data from the last successful one.
package query

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/sync/singleflight"

	"archway-web/internal/logger"
)

const (
	DefaultCacheTime  = 5 * time.Minute
	DefaultRetryDelay = time.Second
	maxRetryDelay     = 30 * time.Second
)

// Options controls a single query.
type Options struct {
	// StaleTime is how long fetched data is served without refetching.
	StaleTime time.Duration
	// CacheTime is how long an unread entry survives garbage collection.
	CacheTime time.Duration
	// Retry is the number of retries after the first failed attempt.
	Retry int
	// RetryDelay is the first backoff delay; it doubles per retry.
	RetryDelay time.Duration
	// RetryIf decides whether an error is worth retrying. Nil retries everything.
	RetryIf func(error) bool
}

type entry struct {
	data        any
	hasData     bool
	err         error
	updatedAt   time.Time
	accessedAt  time.Time
	cacheTime   time.Duration
	invalidated bool
}

// Cache is safe for concurrent use.
type Cache struct {
	lggr logger.Logger
	now  func() time.Time

	mu       sync.Mutex
	entries  map[string]*entry
	inflight map[string]int
	group    singleflight.Group

	stopOnce sync.Once
	ticker   *time.Ticker
	done     chan struct{}
	stopped  chan struct{}
}

type Option func(*Cache)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

func New(lggr logger.Logger, opts ...Option) *Cache {
	c := &Cache{
		lggr:     lggr.Named("query"),
		now:      time.Now,
		entries:  make(map[string]*entry),
		inflight: make(map[string]int),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the data for key, calling fn when the cached copy is missing,
// stale or invalidated. On failure it returns the error along with the last
// successfully fetched data, if any.
func Fetch[T any](ctx context.Context, c *Cache, key string, opts Options, fn func(context.Context) (T, error)) (T, error) {
	if v, ok := c.fresh(key, opts.StaleTime); ok {
		if data, ok := v.(T); ok {
			return data, nil
		}
	}

	ch := c.group.DoChan(key, func() (any, error) {
		c.begin(key)
		defer c.end(key)

		// Other callers may be waiting on this fetch; one of them going away must not cancel it.
		fctx := context.WithoutCancel(ctx)
		data, err := retryFetch(fctx, c.lggr, key, opts, func() (T, error) { return fn(fctx) })
		if err != nil {
			c.fail(key, err, opts.CacheTime)
			return nil, err
		}
		c.store(key, data, opts.CacheTime)
		return data, nil
	})

	select {
	case <-ctx.Done():
		prev, _ := Previous[T](c, key)
		return prev, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			prev, _ := Previous[T](c, key)
			return prev, res.Err
		}
		data, ok := res.Val.(T)
		if !ok {
			var zero T
			return zero, fmt.Errorf("query %s: cached %T does not match requested type", key, res.Val)
		}
		return data, nil
	}
}

// Previous returns the last successfully fetched data for key, ignoring staleness.
func Previous[T any](c *Cache, key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	e, ok := c.entries[key]
	if !ok || !e.hasData {
		return zero, false
	}
	data, ok := e.data.(T)
	return data, ok
}

// Set stores data for key as if it had just been fetched.
func Set[T any](c *Cache, key string, data T, cacheTime time.Duration) {
	c.store(key, data, cacheTime)
}

// IsFetching reports whether an upstream call for key is in flight.
func (c *Cache) IsFetching(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight[key] > 0
}

// LastError returns the error of the most recent failed fetch of key, cleared by the next success.
func (c *Cache) LastError(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		return e.err
	}
	return nil
}

// Invalidate marks every entry of the given resource stale and returns how many were marked.
// An empty resource invalidates everything.
func (c *Cache) Invalidate(resource string) int {
	return c.InvalidateIf(func(key string) bool {
		return resource == "" || HasResource(key, resource)
	})
}

// InvalidateIf marks stale every entry whose key satisfies match.
func (c *Cache) InvalidateIf(match func(key string) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for key, e := range c.entries {
		if match(key) {
			e.invalidated = true
			n++
		}
	}
	return n
}

// InvalidateKey marks a single entry stale.
func (c *Cache) InvalidateKey(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		e.invalidated = true
	}
}

func (c *Cache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) fresh(key string, staleTime time.Duration) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	now := c.now()
	e.accessedAt = now
	if !e.hasData || e.invalidated || e.err != nil {
		return nil, false
	}
	if now.Sub(e.updatedAt) >= staleTime {
		return nil, false
	}
	return e.data, true
}

func (c *Cache) store(key string, data any, cacheTime time.Duration) {
	if cacheTime <= 0 {
		cacheTime = DefaultCacheTime
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.entries[key] = &entry{
		data:       data,
		hasData:    true,
		updatedAt:  now,
		accessedAt: now,
		cacheTime:  cacheTime,
	}
}

func (c *Cache) fail(key string, err error, cacheTime time.Duration) {
	if cacheTime <= 0 {
		cacheTime = DefaultCacheTime
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		e = &entry{cacheTime: cacheTime}
		c.entries[key] = e
	}
	e.err = err
	e.accessedAt = c.now()
}

func (c *Cache) begin(key string) {
	c.mu.Lock()
	c.inflight[key]++
	c.mu.Unlock()
}

func (c *Cache) end(key string) {
	c.mu.Lock()
	if c.inflight[key]--; c.inflight[key] <= 0 {
		delete(c.inflight, key)
	}
	c.mu.Unlock()
}

func retryFetch[T any](ctx context.Context, lggr logger.Logger, key string, opts Options, fn func() (T, error)) (T, error) {
	delay := opts.RetryDelay
	if delay <= 0 {
		delay = DefaultRetryDelay
	}
	retryIf := opts.RetryIf
	if retryIf == nil {
		retryIf = func(error) bool { return true }
	}

	return retry.DoWithData(fn,
		retry.Context(ctx),
		retry.Attempts(uint(max(opts.Retry, 0)+1)),
		retry.Delay(delay),
		retry.MaxDelay(maxRetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(retryIf),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			lggr.Debugw("Retrying query", "key", key, "attempt", attempt+1, "err", err)
		}),
	)
}

package query

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archway-web/internal/logger"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTestCache(t *testing.T) (*Cache, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	return New(logger.Test(t), WithClock(clock.Now)), clock
}

var testOpts = Options{StaleTime: time.Minute, RetryDelay: time.Millisecond}

func TestKey(t *testing.T) {
	t.Parallel()

	type filter struct {
		Category string `json:"category"`
	}
	a := Key("projects", filter{Category: "villas"}, "en")
	b := Key("projects", filter{Category: "villas"}, "en")
	c := Key("projects", filter{Category: "villas"}, "ar")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, `["projects",{"category":"villas"},"en"]`, a)
}

func TestFetch_FreshWithinStaleWindow(t *testing.T) {
	t.Parallel()

	c, clock := newTestCache(t)
	var calls atomic.Int32
	fn := func(context.Context) (string, error) {
		calls.Add(1)
		return "data", nil
	}
	key := Key("projects", "en")

	for range 3 {
		got, err := Fetch(t.Context(), c, key, testOpts, fn)
		require.NoError(t, err)
		assert.Equal(t, "data", got)
	}
	assert.EqualValues(t, 1, calls.Load())

	clock.Advance(time.Minute)
	_, err := Fetch(t.Context(), c, key, testOpts, fn)
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load(), "stale entry is refetched")
}

func TestFetch_DeduplicatesConcurrentCalls(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(t)
	release := make(chan struct{})
	var calls atomic.Int32
	fn := func(context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 7, nil
	}
	key := Key("services", "en")

	const callers = 10
	var wg sync.WaitGroup
	results := make(chan int, callers)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := Fetch(context.Background(), c, key, testOpts, fn)
			assert.NoError(t, err)
			results <- v
		}()
	}

	require.Eventually(t, func() bool { return c.IsFetching(key) }, time.Second, time.Millisecond)
	// Give the other callers time to join the in-flight call.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	close(results)

	for v := range results {
		assert.Equal(t, 7, v)
	}
	assert.EqualValues(t, 1, calls.Load())
	assert.False(t, c.IsFetching(key))
}

func TestFetch_RetriesThenSucceeds(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(t)
	var calls atomic.Int32
	fn := func(context.Context) (string, error) {
		if calls.Add(1) < 3 {
			return "", errors.New("connection refused")
		}
		return "ok", nil
	}

	got, err := Fetch(t.Context(), c, Key("footer", "en"), Options{StaleTime: time.Minute, Retry: 2, RetryDelay: time.Millisecond}, fn)
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.EqualValues(t, 3, calls.Load())
}

func TestFetch_RetryIfStopsEarly(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(t)
	notFound := errors.New("404")
	var calls atomic.Int32
	fn := func(context.Context) (string, error) {
		calls.Add(1)
		return "", notFound
	}
	opts := Options{StaleTime: time.Minute, Retry: 2, RetryDelay: time.Millisecond, RetryIf: func(err error) bool { return !errors.Is(err, notFound) }}

	_, err := Fetch(t.Context(), c, Key("projects", "missing"), opts, fn)
	require.ErrorIs(t, err, notFound)
	assert.EqualValues(t, 1, calls.Load())
}

func TestFetch_KeepsPreviousDataOnError(t *testing.T) {
	t.Parallel()

	c, clock := newTestCache(t)
	key := Key("testimonials", "en")

	_, err := Fetch(t.Context(), c, key, testOpts, func(context.Context) ([]string, error) {
		return []string{"great studio"}, nil
	})
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	boom := errors.New("backend down")
	got, err := Fetch(t.Context(), c, key, testOpts, func(context.Context) ([]string, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"great studio"}, got)
	assert.ErrorIs(t, c.LastError(key), boom)
}

func TestFetch_CallerCancellationDoesNotCancelFetch(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(t)
	key := Key("faqs", "en")
	release := make(chan struct{})
	fetched := make(chan error, 1)

	fn := func(ctx context.Context) (string, error) {
		<-release
		fetched <- ctx.Err()
		return "answers", nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := Fetch(ctx, c, key, testOpts, fn)
		errc <- err
	}()

	require.Eventually(t, func() bool { return c.IsFetching(key) }, time.Second, time.Millisecond)
	cancel()
	require.ErrorIs(t, <-errc, context.Canceled)

	close(release)
	require.NoError(t, <-fetched)
	require.Eventually(t, func() bool { return !c.IsFetching(key) }, time.Second, time.Millisecond)

	got, ok := Previous[string](c, key)
	require.True(t, ok)
	assert.Equal(t, "answers", got)
}

func TestInvalidate(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(t)
	var calls atomic.Int32
	fn := func(context.Context) (int, error) { return int(calls.Add(1)), nil }

	projectsEN := Key("projects", map[string]string{}, "en")
	projectsAR := Key("projects", map[string]string{}, "ar")
	detail := Key("projects-detail", "villa", "en")

	for _, k := range []string{projectsEN, projectsAR, detail} {
		_, err := Fetch(t.Context(), c, k, testOpts, fn)
		require.NoError(t, err)
	}
	require.EqualValues(t, 3, calls.Load())

	assert.Equal(t, 2, c.Invalidate("projects"))

	_, err := Fetch(t.Context(), c, detail, testOpts, fn)
	require.NoError(t, err)
	assert.EqualValues(t, 3, calls.Load(), "other resources stay fresh")

	got, err := Fetch(t.Context(), c, projectsEN, testOpts, fn)
	require.NoError(t, err)
	assert.Equal(t, 4, got)
}

func TestRemoveAndLen(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(t)
	Set(c, "a", 1, 0)
	Set(c, "b", 2, 0)
	require.Equal(t, 2, c.Len())

	c.Remove("a")
	assert.Equal(t, 1, c.Len())
	_, ok := Previous[int](c, "a")
	assert.False(t, ok)
}

func TestCollect(t *testing.T) {
	t.Parallel()

	c, clock := newTestCache(t)
	Set(c, "old", 1, time.Minute)
	Set(c, "read", 2, time.Minute)

	clock.Advance(45 * time.Second)
	_, err := Fetch(t.Context(), c, "read", Options{StaleTime: time.Hour}, func(context.Context) (int, error) { return 0, nil })
	require.NoError(t, err)

	clock.Advance(30 * time.Second)
	assert.Equal(t, 1, c.Collect())
	_, ok := Previous[int](c, "old")
	assert.False(t, ok)
	_, ok = Previous[int](c, "read")
	assert.True(t, ok)
}

func TestStartStop(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(t)
	c.Start(time.Millisecond)
	c.Stop()
	c.Stop()
}

func TestKeyMatching(t *testing.T) {
	t.Parallel()

	key := Key("project-detail", "villa", "ar")
	assert.True(t, HasResource(key, "project-detail"))
	assert.False(t, HasResource(key, "project"))
	assert.True(t, HasLocale(key, "ar"))
	assert.False(t, HasLocale(key, "en"))
	assert.True(t, strings.HasPrefix(key, Prefix("project-detail", "villa")))
	assert.False(t, strings.HasPrefix(Key("project-detail", "villa-2", "ar"), Prefix("project-detail", "villa")))
}

func TestInvalidateIf(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(t)
	Set(c, Key("footer", "en"), 1, 0)
	Set(c, Key("footer", "ar"), 2, 0)

	n := c.InvalidateIf(func(key string) bool { return HasLocale(key, "ar") })
	assert.Equal(t, 1, n)

	_, err := Fetch(t.Context(), c, Key("footer", "en"), testOpts, func(context.Context) (int, error) {
		t.Error("fresh entry must not be refetched")
		return 0, nil
	})
	require.NoError(t, err)
}

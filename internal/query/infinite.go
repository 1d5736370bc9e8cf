package query

import (
	"context"
	"fmt"
	"time"
)

// PageResult is one page of an infinite query. NextPage is 0 on the last page.
type PageResult[T any] struct {
	Items    []T
	Count    int
	NextPage int
}

// InfiniteData is the accumulated state of a paginated query.
type InfiniteData[T any] struct {
	Pages      []PageResult[T]
	PageParams []int
}

// Items flattens the loaded pages in order.
func (d InfiniteData[T]) Items() []T {
	n := 0
	for _, p := range d.Pages {
		n += len(p.Items)
	}
	items := make([]T, 0, n)
	for _, p := range d.Pages {
		items = append(items, p.Items...)
	}
	return items
}

func (d InfiniteData[T]) HasNextPage() bool {
	return d.NextPageParam() > 0
}

// NextPageParam is the page after the last loaded one, 0 when there is none.
func (d InfiniteData[T]) NextPageParam() int {
	if len(d.Pages) == 0 {
		return 0
	}
	return d.Pages[len(d.Pages)-1].NextPage
}

// Count is the total reported by the most recently loaded page.
func (d InfiniteData[T]) Count() int {
	if len(d.Pages) == 0 {
		return 0
	}
	return d.Pages[len(d.Pages)-1].Count
}

// PageFunc loads one page of an infinite query.
type PageFunc[T any] func(ctx context.Context, page int) (PageResult[T], error)

// FetchInfinite returns the loaded pages for key. A missing entry loads page 1;
// a stale entry reloads every page that was loaded before, in order.
func FetchInfinite[T any](ctx context.Context, c *Cache, key string, opts Options, fn PageFunc[T]) (InfiniteData[T], error) {
	return Fetch(ctx, c, key, opts, func(ctx context.Context) (InfiniteData[T], error) {
		prev, _ := Previous[InfiniteData[T]](c, key)
		want := max(len(prev.Pages), 1)

		var data InfiniteData[T]
		page := 1
		for i := 0; i < want && page > 0; i++ {
			res, err := fn(ctx, page)
			if err != nil {
				return InfiniteData[T]{}, err
			}
			data.Pages = append(data.Pages, res)
			data.PageParams = append(data.PageParams, page)
			page = res.NextPage
		}
		return data, nil
	})
}

// FetchNextPage loads the page after the last loaded one and appends it.
// Without loaded pages it behaves like FetchInfinite; on the last page it
// returns the current data unchanged.
func FetchNextPage[T any](ctx context.Context, c *Cache, key string, opts Options, fn PageFunc[T]) (InfiniteData[T], error) {
	current, ok := Previous[InfiniteData[T]](c, key)
	if !ok || len(current.Pages) == 0 {
		return FetchInfinite(ctx, c, key, opts, fn)
	}
	next := current.NextPageParam()
	if next <= 0 {
		return current, nil
	}

	flightKey := fmt.Sprintf("%s#page=%d", key, next)
	ch := c.group.DoChan(flightKey, func() (any, error) {
		c.begin(key)
		defer c.end(key)

		fctx := context.WithoutCancel(ctx)
		res, err := retryFetch(fctx, c.lggr, flightKey, opts, func() (PageResult[T], error) { return fn(fctx, next) })
		if err != nil {
			return nil, err
		}
		return appendPage(c, key, next, res, opts.CacheTime), nil
	})

	select {
	case <-ctx.Done():
		return current, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return current, r.Err
		}
		data, ok := r.Val.(InfiniteData[T])
		if !ok {
			return current, fmt.Errorf("query %s: cached %T does not match requested type", key, r.Val)
		}
		return data, nil
	}
}

// appendPage adds res to the entry for key unless the entry has moved past page,
// which happens when a concurrent reload or append got there first.
func appendPage[T any](c *Cache, key string, page int, res PageResult[T], cacheTime time.Duration) InfiniteData[T] {
	if cacheTime <= 0 {
		cacheTime = DefaultCacheTime
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var cur InfiniteData[T]
	if e, ok := c.entries[key]; ok && e.hasData {
		cur, _ = e.data.(InfiniteData[T])
	}
	if cur.NextPageParam() != page {
		return cur
	}

	data := InfiniteData[T]{
		Pages:      append(append(make([]PageResult[T], 0, len(cur.Pages)+1), cur.Pages...), res),
		PageParams: append(append(make([]int, 0, len(cur.PageParams)+1), cur.PageParams...), page),
	}

	now := c.now()
	c.entries[key] = &entry{
		data:       data,
		hasData:    true,
		updatedAt:  now,
		accessedAt: now,
		cacheTime:  cacheTime,
	}
	return data
}

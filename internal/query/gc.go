package query

import "time"

// Start runs garbage collection every interval until Stop is called.
func (c *Cache) Start(interval time.Duration) {
	c.lggr.Infow("Starting query cache garbage collection", "interval", interval)
	c.ticker = time.NewTicker(interval)

	go func() {
		defer close(c.stopped)
		for {
			select {
			case <-c.ticker.C:
				if n := c.Collect(); n > 0 {
					c.lggr.Debugw("Evicted unused queries", "count", n)
				}
			case <-c.done:
				return
			}
		}
	}()
}

// Stop ends garbage collection started by Start. It is safe to call more than once.
func (c *Cache) Stop() {
	c.stopOnce.Do(func() {
		if c.ticker == nil {
			return
		}
		c.ticker.Stop()
		close(c.done)
		<-c.stopped
	})
}

// Collect evicts entries that nobody read within their cache time and that
// have no fetch in flight. It returns the number of evicted entries.
func (c *Cache) Collect() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	n := 0
	for key, e := range c.entries {
		if c.inflight[key] > 0 {
			continue
		}
		if now.Sub(e.accessedAt) > e.cacheTime {
			delete(c.entries, key)
			n++
		}
	}
	return n
}

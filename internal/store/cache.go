package store

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

const listKey = "\x00tables"

// Cached wraps a Store with a short-TTL read cache. Concurrent reads of the
// same table collapse into one backend call. Writes pass straight through and
// drop the cached copy only after the backend confirms them, so a failed
// write never masks fresh data behind a stale entry.
type Cached struct {
	inner Store
	cache *gocache.Cache
	group singleflight.Group
}

func NewCached(inner Store, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Cached{
		inner: inner,
		cache: gocache.New(ttl, 2*ttl),
	}
}

func (c *Cached) ReadAll(ctx context.Context, name string) (Table, error) {
	if v, ok := c.cache.Get(name); ok {
		return copyTable(v.(Table)), nil
	}
	v, err, _ := c.group.Do(name, func() (interface{}, error) {
		t, err := c.inner.ReadAll(ctx, name)
		if err != nil {
			return nil, err
		}
		c.cache.SetDefault(name, copyTable(t))
		return t, nil
	})
	if err != nil {
		return Table{}, err
	}
	return copyTable(v.(Table)), nil
}

func (c *Cached) WriteAll(ctx context.Context, name string, t Table, expect string) error {
	if err := c.inner.WriteAll(ctx, name, t, expect); err != nil {
		return err
	}
	c.Invalidate(name)
	return nil
}

func (c *Cached) Clear(ctx context.Context, name string) error {
	if err := c.inner.Clear(ctx, name); err != nil {
		return err
	}
	c.Invalidate(name)
	return nil
}

func (c *Cached) ListTables(ctx context.Context) ([]string, error) {
	if v, ok := c.cache.Get(listKey); ok {
		return append([]string(nil), v.([]string)...), nil
	}
	v, err, _ := c.group.Do(listKey, func() (interface{}, error) {
		names, err := c.inner.ListTables(ctx)
		if err != nil {
			return nil, err
		}
		c.cache.SetDefault(listKey, names)
		return names, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]string(nil), v.([]string)...), nil
}

// Invalidate drops one table's cached snapshot plus the table list, which a
// write may have extended.
func (c *Cached) Invalidate(name string) {
	c.cache.Delete(name)
	c.cache.Delete(listKey)
}

// Reset drops everything; the UI refresh button calls this.
func (c *Cached) Reset() {
	c.cache.Flush()
}

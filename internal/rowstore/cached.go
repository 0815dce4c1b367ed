package rowstore

import (
	"context"
	"time"
)

// Cached decorates a Store with the short-TTL read cache. Reads through
// GetRowsCached may be up to TTL stale; GetRows and FindByID always hit the
// backing store. Writes invalidate the table's cached rows.
type Cached struct {
	store Store
	cache *Cache
	ttl   time.Duration
}

func NewCached(store Store, cache *Cache, ttl time.Duration) *Cached {
	return &Cached{store: store, cache: cache, ttl: ttl}
}

func cacheKey(table string) string {
	return "sheet:" + table
}

func (c *Cached) GetRows(ctx context.Context, table string) ([]Record, error) {
	return c.store.GetRows(ctx, table)
}

func (c *Cached) GetRowsCached(ctx context.Context, table string) ([]Record, error) {
	if cached, ok := c.cache.Get(cacheKey(table)); ok {
		if rows, ok := cached.([]Record); ok {
			return rows, nil
		}
	}

	rows, err := c.store.GetRows(ctx, table)
	if err != nil {
		return nil, err
	}
	c.cache.Set(cacheKey(table), rows, c.ttl)
	return rows, nil
}

func (c *Cached) AppendRow(ctx context.Context, table string, record Record) error {
	if err := c.store.AppendRow(ctx, table, record); err != nil {
		return err
	}
	c.cache.InvalidatePrefix(cacheKey(table))
	return nil
}

func (c *Cached) UpdateRowByID(ctx context.Context, table, keyColumn, id string, patch Record) error {
	if err := c.store.UpdateRowByID(ctx, table, keyColumn, id, patch); err != nil {
		return err
	}
	c.cache.InvalidatePrefix(cacheKey(table))
	return nil
}

func (c *Cached) DeleteRowByID(ctx context.Context, table, keyColumn, id string) error {
	if err := c.store.DeleteRowByID(ctx, table, keyColumn, id); err != nil {
		return err
	}
	c.cache.InvalidatePrefix(cacheKey(table))
	return nil
}

func (c *Cached) FindByID(ctx context.Context, table, keyColumn, id string) (Record, error) {
	return c.store.FindByID(ctx, table, keyColumn, id)
}

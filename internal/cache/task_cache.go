package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	dom "github.com/serega19851/task-manager/internal/domain"

	"github.com/redis/go-redis/v9"
)

const keyListPrefix = "tasks:list:"

// TaskPage is one cached list result: the windowed tasks plus the
// filter-wide total.
type TaskPage struct {
	Tasks []dom.Task `json:"tasks"`
	Total int64      `json:"total"`
}

// TaskCache caches list pages in Redis, keyed by filter and window.
// Every write to the tasks table invalidates all pages.
type TaskCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTaskCache returns a new TaskCache.
func NewTaskCache(rdb *redis.Client, ttl time.Duration) *TaskCache {
	return &TaskCache{rdb: rdb, ttl: ttl}
}

// Key builds the cache key for one (status, limit, offset) page.
func (c *TaskCache) Key(status *dom.Status, limit, offset int) string {
	filter := "all"
	if status != nil {
		filter = string(*status)
	}
	return keyListPrefix + filter + ":" + strconv.Itoa(limit) + ":" + strconv.Itoa(offset)
}

// GetPage returns the cached page or nil on miss.
func (c *TaskCache) GetPage(ctx context.Context, key string) (*TaskPage, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var page TaskPage
	if err := json.Unmarshal(b, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// SetPage stores the page in cache.
func (c *TaskCache) SetPage(ctx context.Context, key string, page TaskPage) error {
	b, err := json.Marshal(page)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, c.ttl).Err()
}

// Invalidate removes every cached page (cache invalidation on write).
func (c *TaskCache) Invalidate(ctx context.Context) error {
	iter := c.rdb.Scan(ctx, 0, keyListPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

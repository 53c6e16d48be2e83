// Package cache 缓存公开分享的看板（Redis）
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"taskmaster/internal/model"
)

const (
	keyPrefix   = "share:"
	ownerPrefix = "share:owner:"
)

// ShareCache stores public dashboards under share:<id> and remembers which
// share ids belong to which user under share:owner:<userId>.
type ShareCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewShareCache(rdb redis.Cmdable, ttl time.Duration) *ShareCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ShareCache{rdb: rdb, ttl: ttl}
}

func shareKey(shareID string) string { return keyPrefix + shareID }

func ownerKey(userID string) string { return ownerPrefix + userID }

// Get returns ok=false on a miss.
func (c *ShareCache) Get(ctx context.Context, shareID string) (model.SharedDashboard, bool, error) {
	raw, err := c.rdb.Get(ctx, shareKey(shareID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.SharedDashboard{}, false, nil
	}
	if err != nil {
		return model.SharedDashboard{}, false, fmt.Errorf("redis get %s: %w", shareID, err)
	}
	var d model.SharedDashboard
	if err := json.Unmarshal(raw, &d); err != nil {
		// 坏数据直接丢弃
		_ = c.rdb.Del(ctx, shareKey(shareID)).Err()
		return model.SharedDashboard{}, false, nil
	}
	return d, true, nil
}

func (c *ShareCache) Set(ctx context.Context, shareID string, d model.SharedDashboard) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, shareKey(shareID), raw, c.ttl).Err()
}

// Track records that userID owns shareID so RefreshShared can evict it.
func (c *ShareCache) Track(ctx context.Context, userID, shareID string) error {
	pipe := c.rdb.TxPipeline()
	pipe.SAdd(ctx, ownerKey(userID), shareID)
	pipe.Expire(ctx, ownerKey(userID), 30*24*time.Hour)
	_, err := pipe.Exec(ctx)
	return err
}

// InvalidateOwner evicts every cached dashboard shared by userID and returns
// how many share ids were known.
func (c *ShareCache) InvalidateOwner(ctx context.Context, userID string) (int, error) {
	ids, err := c.rdb.SMembers(ctx, ownerKey(userID)).Result()
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, shareKey(id))
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return 0, err
	}
	return len(ids), nil
}

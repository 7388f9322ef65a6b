package authorization

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
)

const snapshotVersionKey = "rbac:snapshot:version"

// RedisCache shares snapshots between replicas. Invalidation bumps a global version key.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Generation returns the current cache version, initialising it when missing.
func (c *RedisCache) Generation(ctx context.Context) (int64, error) {
	ver, err := c.client.Get(ctx, snapshotVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		// SETNX so concurrent initialisers never roll back a bump
		if err := c.client.SetNX(ctx, snapshotVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, snapshotVersionKey).Int64()
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

func (c *RedisCache) Get(ctx context.Context, generation, userID int64) (*Snapshot, bool, error) {
	payload, err := c.client.Get(ctx, snapshotKey(generation, userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var snapshot Snapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return nil, false, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snapshot, true, nil
}

func (c *RedisCache) Set(ctx context.Context, generation int64, snapshot *Snapshot) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, snapshotKey(generation, snapshot.UserID), raw, c.ttl).Err()
}

func (c *RedisCache) Invalidate(ctx context.Context) error {
	return c.client.Incr(ctx, snapshotVersionKey).Err()
}

func snapshotKey(generation, userID int64) string {
	return fmt.Sprintf("rbac:snapshot:%d:%d", generation, userID)
}

type localKey struct {
	generation int64
	userID     int64
}

// LocalCache is the in-process fallback when Redis is not configured.
type LocalCache struct {
	cache      *lru.LRU[localKey, *Snapshot]
	generation atomic.Int64
}

func NewLocalCache(size int, ttl time.Duration) *LocalCache {
	if size <= 0 {
		size = 1024
	}
	return &LocalCache{cache: lru.NewLRU[localKey, *Snapshot](size, nil, ttl)}
}

func (c *LocalCache) Generation(_ context.Context) (int64, error) {
	return c.generation.Load(), nil
}

func (c *LocalCache) Get(_ context.Context, generation, userID int64) (*Snapshot, bool, error) {
	snapshot, ok := c.cache.Get(localKey{generation: generation, userID: userID})
	return snapshot, ok, nil
}

func (c *LocalCache) Set(_ context.Context, generation int64, snapshot *Snapshot) error {
	c.cache.Add(localKey{generation: generation, userID: snapshot.UserID}, snapshot)
	return nil
}

func (c *LocalCache) Invalidate(_ context.Context) error {
	c.generation.Add(1)
	c.cache.Purge()
	return nil
}

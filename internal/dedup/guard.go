// Package dedup holds a cross-process claim used ahead of the outbox lookup,
// so two detector runs racing on the same key do not both reach the insert.
package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Guard interface {
	// Claim returns true when the caller is the first to claim key within ttl.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

type RedisGuard struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisGuard(rdb *redis.Client) *RedisGuard {
	return &RedisGuard{rdb: rdb, prefix: "notify:dedupe:"}
}

// NewRedisGuardFromURL parses a redis:// URL and pings the server.
func NewRedisGuardFromURL(ctx context.Context, url string) (*RedisGuard, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisGuard(rdb), nil
}

func (g *RedisGuard) Key(key string) string {
	return g.prefix + key
}

func (g *RedisGuard) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := g.rdb.SetNX(ctx, g.Key(key), time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (g *RedisGuard) Release(ctx context.Context, key string) error {
	return g.rdb.Del(ctx, g.Key(key)).Err()
}

func (g *RedisGuard) Close() error {
	return g.rdb.Close()
}

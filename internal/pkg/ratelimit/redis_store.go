package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RedisStore keeps window counters as integer keys with a TTL.
type RedisStore struct {
	client goredis.UniversalClient
}

func NewRedisStore(client goredis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

// Hit creates the key with its TTL and increments it inside one MULTI, so a
// counter never exists without an expiry. Keys left without one are repaired.
func (r *RedisStore) Hit(ctx context.Context, key string, window time.Duration) (Counter, error) {
	if key == "" || window <= 0 {
		return Counter{}, fmt.Errorf("rate window %q/%s is invalid", key, window)
	}

	var incr *goredis.IntCmd
	var ttl *goredis.DurationCmd
	_, err := r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.SetNX(ctx, key, 0, window)
		incr = pipe.Incr(ctx, key)
		ttl = pipe.TTL(ctx, key)
		return nil
	})
	if err != nil && !errors.Is(err, goredis.Nil) {
		return Counter{}, fmt.Errorf("hit rate key %s: %w", key, err)
	}

	c := Counter{Hits: incr.Val(), TTL: ttl.Val()}
	if c.TTL < 0 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return Counter{}, fmt.Errorf("repair rate key ttl %s: %w", key, err)
		}
		c.TTL = window
	}
	return c, nil
}

// Peek reads the counter and its TTL in one round trip.
func (r *RedisStore) Peek(ctx context.Context, key string) (Counter, error) {
	if key == "" {
		return Counter{}, fmt.Errorf("rate key is required")
	}

	var get *goredis.StringCmd
	var ttl *goredis.DurationCmd
	_, err := r.client.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		get = pipe.Get(ctx, key)
		ttl = pipe.TTL(ctx, key)
		return nil
	})
	if err != nil && !errors.Is(err, goredis.Nil) {
		return Counter{}, fmt.Errorf("peek rate key %s: %w", key, err)
	}

	hits, err := get.Int64()
	if errors.Is(err, goredis.Nil) {
		return Counter{}, nil
	}
	if err != nil {
		return Counter{}, fmt.Errorf("parse rate key %s: %w", key, err)
	}
	return Counter{Hits: hits, TTL: ttl.Val()}, nil
}

// NewRedisClient opens a client and pings it.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}
	return client, nil
}

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/querygate-inc/querygate-engine/pkg/shape"
)

// keyPrefix namespaces gateway entries inside a shared Redis database.
const keyPrefix = "querygate:result:"

// RedisStore backs the result cache with Redis so that identical (sql, params)
// pairs hit the same entry across gateway instances. Expiry is server-side
// (per-key TTL), so Sweep is a no-op.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (shape.ObjectResult, bool, error) {
	payload, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var result shape.ObjectResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, false, fmt.Errorf("decode cached result: %w", err)
	}
	return result, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, result shape.ObjectResult, ttl time.Duration) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Sweep is a no-op: Redis expires keys server-side.
func (s *RedisStore) Sweep(context.Context) error {
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
var _ Store = (*MemoryStore)(nil)

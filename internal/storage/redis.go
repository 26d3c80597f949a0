package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisKV implements KV on a Redis server. Keys carry no TTL; the
// credential lives until it is removed or the server rejects it.
type RedisKV struct {
	client *redis.Client
	prefix string
	owned  bool
}

// NewRedisKV connects to cfg.Addr and verifies the connection.
func NewRedisKV(ctx context.Context, cfg RedisConfig) (*RedisKV, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", cfg.Addr, err)
	}

	kv := NewRedisKVFromClient(client, cfg.Prefix)
	kv.owned = true
	return kv, nil
}

// NewRedisKVFromClient wraps an existing client. Close does not close it.
func NewRedisKVFromClient(client *redis.Client, prefix string) *RedisKV {
	return &RedisKV{client: client, prefix: prefix}
}

func (r *RedisKV) key(k string) string {
	return r.prefix + k
}

func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrKeyNotFound
		}
		if errors.Is(err, redis.ErrClosed) {
			return nil, ErrClosed
		}
		return nil, fmt.Errorf("redis: get: %w", err)
	}
	return v, nil
}

func (r *RedisKV) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		if errors.Is(err, redis.ErrClosed) {
			return ErrClosed
		}
		return fmt.Errorf("redis: set: %w", err)
	}
	return nil
}

func (r *RedisKV) Remove(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		if errors.Is(err, redis.ErrClosed) {
			return ErrClosed
		}
		return fmt.Errorf("redis: del: %w", err)
	}
	return nil
}

func (r *RedisKV) Close() error {
	if !r.owned {
		return nil
	}
	return r.client.Close()
}

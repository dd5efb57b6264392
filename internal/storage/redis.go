package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements SessionStore using Redis. Session keys carry no TTL:
// a saved game must survive until the player explicitly resets it.
type RedisStore struct {
	client *redis.Client
	logger *slog.Logger
}

var _ SessionStore = (*RedisStore)(nil)

// NewRedisStore creates a new Redis store instance.
func NewRedisStore(addr string, logger *slog.Logger) *RedisStore {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	return &RedisStore{
		client: rdb,
		logger: logger,
	}
}

func (r *RedisStore) Ping(ctx context.Context) error {
	cmd := r.client.Ping(ctx)
	if err := cmd.Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

func (r *RedisStore) Get(ctx context.Context, key string) (string, error) {
	cmd := r.client.Get(ctx, key)
	if err := cmd.Err(); err != nil {
		if err == redis.Nil {
			r.logger.Debug("Redis key not found", "key", key)
			return "", nil
		}
		r.logger.Error("Redis GET failed", "key", key, "error", err)
		return "", fmt.Errorf("redis get failed: %w", err)
	}
	return cmd.Val(), nil
}

func (r *RedisStore) Set(ctx context.Context, key, value string) error {
	cmd := r.client.Set(ctx, key, value, 0)
	if err := cmd.Err(); err != nil {
		r.logger.Error("Redis SET failed", "key", key, "error", err)
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// SetMulti writes all entries inside a MULTI/EXEC transaction, so a snapshot
// is either fully committed or not committed at all.
func (r *RedisStore) SetMulti(ctx context.Context, entries map[string]string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for key, value := range entries {
			pipe.Set(ctx, key, value, 0)
		}
		return nil
	})
	if err != nil {
		r.logger.Error("Redis transactional SET failed", "keys", len(entries), "error", err)
		return fmt.Errorf("redis setmulti failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Del(ctx context.Context, keys ...string) error {
	cmd := r.client.Del(ctx, keys...)
	if err := cmd.Err(); err != nil {
		r.logger.Error("Redis DEL failed", "keys", keys, "error", err)
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Exists(ctx context.Context, keys ...string) (bool, error) {
	cmd := r.client.Exists(ctx, keys...)
	if err := cmd.Err(); err != nil {
		r.logger.Error("Redis EXISTS failed", "keys", keys, "error", err)
		return false, fmt.Errorf("redis exists failed: %w", err)
	}
	return cmd.Val() > 0, nil
}

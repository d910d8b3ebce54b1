package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the key used when NewRedis gets an empty key.
const DefaultRedisKey = "shopcache:" + TokenKey

// RedisClient is the part of *redis.Client the store uses.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Redis shares the token between processes through a Redis key.
type Redis struct {
	client RedisClient
	key    string
	ttl    time.Duration
}

// NewRedisClient creates a go-redis client for addr.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// NewRedis stores the token under key. ttl 0 keeps it until Clear.
func NewRedis(client RedisClient, key string, ttl time.Duration) *Redis {
	if key == "" {
		key = DefaultRedisKey
	}

	return &Redis{client: client, key: key, ttl: ttl}
}

// Token returns the stored token, or an empty string when the key is missing.
func (r *Redis) Token(ctx context.Context) (string, error) {
	token, err := r.client.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", r.key, err)
	}

	return strings.TrimSpace(token), nil
}

// SetToken stores token with the configured ttl. An empty token deletes the key.
func (r *Redis) SetToken(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return r.Clear(ctx)
	}
	if err := r.client.Set(ctx, r.key, token, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key, err)
	}

	return nil
}

// Clear deletes the key.
func (r *Redis) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", r.key, err)
	}

	return nil
}

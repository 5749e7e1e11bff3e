package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "eventpro:"

// RedisKV stores entries in Redis under eventpro:<profile>:<key>. Useful for
// shared terminals where several front-ends should see the same login.
type RedisKV struct {
	client  redis.UniversalClient
	profile string
	ttl     time.Duration
}

// RedisOptions configures a RedisKV
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// Profile namespaces keys so several users can share one Redis.
	Profile string
	// TTL of zero keeps keys until logout.
	TTL time.Duration
}

// NewRedisKV connects to Redis using opts
func NewRedisKV(opts RedisOptions) *RedisKV {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return NewRedisKVWithClient(client, opts.Profile, opts.TTL)
}

// NewRedisKVWithClient wraps an existing client
func NewRedisKVWithClient(client redis.UniversalClient, profile string, ttl time.Duration) *RedisKV {
	if profile == "" {
		profile = "default"
	}
	return &RedisKV{client: client, profile: profile, ttl: ttl}
}

func (r *RedisKV) key(k string) string {
	return redisKeyPrefix + r.profile + ":" + k
}

// Get implements KV.
func (r *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

// Set implements KV.
func (r *RedisKV) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.key(key), value, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete implements KV.
func (r *RedisKV) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Name implements KV.
func (r *RedisKV) Name() string {
	return "redis"
}

// Ping checks connectivity
func (r *RedisKV) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the underlying connection pool
func (r *RedisKV) Close() error {
	return r.client.Close()
}

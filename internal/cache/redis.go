package cache

import (
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"golang.org/x/net/context"
)

// Redis stores asset ids in a Redis hash keyed by space and environment,
// so caches for different targets never collide.
type Redis struct {
	rdb *redis.Client
	key string
}

// NewRedis connects to redisURL and verifies the connection.
func NewRedis(ctx context.Context, redisURL, spaceID, environment string) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &Redis{rdb: rdb, key: HashKey(spaceID, environment)}, nil
}

// HashKey returns the hash holding the url -> asset id mapping for a target.
func HashKey(spaceID, environment string) string {
	return fmt.Sprintf("wp2ctf:assets:%s:%s", spaceID, environment)
}

func (r *Redis) Get(ctx context.Context, url string) (string, bool, error) {
	id, err := r.rdb.HGet(ctx, r.key, url).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read asset cache: %w", err)
	}
	return id, true, nil
}

func (r *Redis) Set(ctx context.Context, url, assetID string) error {
	if err := r.rdb.HSet(ctx, r.key, url, assetID).Err(); err != nil {
		return fmt.Errorf("write asset cache: %w", err)
	}
	return nil
}

// Clear drops every cached asset for this target.
func (r *Redis) Clear(ctx context.Context) error {
	return r.rdb.Del(ctx, r.key).Err()
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}

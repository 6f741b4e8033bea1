package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const redisKeyPrefix = "ensilo-events:watermark:"

// redisClient is the subset of *redis.Client the store uses.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Close() error
}

// Redis stores the watermark under a single key in Redis.
type Redis struct {
	client redisClient
	key    string
}

// NewRedis connects to redisURL and returns a store for key.
func NewRedis(redisURL, key string) (*Redis, error) {
	if key == "" {
		return nil, errors.New("state: empty key")
	}
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("state: parse redis url: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("state: connect redis: %w", err)
	}
	return newRedis(client, key), nil
}

func newRedis(client redisClient, key string) *Redis {
	return &Redis{client: client, key: redisKeyPrefix + key}
}

func (r *Redis) Load(ctx context.Context) (string, error) {
	v, err := r.client.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("state: redis get: %w", err)
	}
	return v, nil
}

func (r *Redis) Save(ctx context.Context, watermark string) error {
	if err := r.client.Set(ctx, r.key, watermark, 0).Err(); err != nil {
		return fmt.Errorf("state: redis set: %w", err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

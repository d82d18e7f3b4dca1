package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisViewThrottle suppresses repeat profile views from the same visitor
// using a redis key with a TTL. The first view within the window claims the
// key; later views see it and are dropped.
type RedisViewThrottle struct {
	client *redis.Client
	window time.Duration
}

func NewRedisViewThrottle(client *redis.Client, window time.Duration) *RedisViewThrottle {
	return &RedisViewThrottle{
		client: client,
		window: window,
	}
}

func (t *RedisViewThrottle) FirstView(ctx context.Context, profileID uint, visitorKey string) (bool, error) {
	key := fmt.Sprintf("bind:view:%d:%s", profileID, visitorKey)
	ok, err := t.client.SetNX(ctx, key, "1", t.window).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim view key: %w", err)
	}
	return ok, nil
}

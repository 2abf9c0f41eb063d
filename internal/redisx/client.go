package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

// Seen marks key as processed and reports whether it already was.
func Seen(ctx context.Context, rdb *redis.Client, key string, ttl time.Duration) (bool, error) {
	ok, err := rdb.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// StatusCache is the order_status:{session_id} cache.
type StatusCache struct {
	RDB *redis.Client
}

func (c StatusCache) Invalidate(ctx context.Context, sessionID string) error {
	return c.RDB.Del(ctx, fmt.Sprintf(KeyOrderStatus, sessionID)).Err()
}

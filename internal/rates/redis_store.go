package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/go-geoprice/internal/redisx"
	"github.com/redis/go-redis/v9"
)

// RedisStore shares rate tables between API replicas.
type RedisStore struct {
	rdb       *redis.Client
	retention time.Duration
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb, retention: redisx.TTLRates}
}

func (s *RedisStore) Get(ctx context.Context, base string) (Entry, bool, error) {
	b, err := s.rdb.Get(ctx, fmt.Sprintf(redisx.KeyRates, base)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	var e Entry
	if err := json.Unmarshal(b, &e); err != nil {
		return Entry{}, false, fmt.Errorf("decode cached rates: %w", err)
	}
	return e, true, nil
}

func (s *RedisStore) Set(ctx context.Context, e Entry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, fmt.Sprintf(redisx.KeyRates, e.Base), string(b), s.retention).Err()
}

func (s *RedisStore) Expire(ctx context.Context, base string) error {
	return s.rdb.Del(ctx, fmt.Sprintf(redisx.KeyRates, base)).Err()
}

package pricing

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/go-redis/redis/v8"
)

// RedisStore is an alternative cache backend; Redis expires entries on its
// own via the key TTL.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(addr, password string, db int) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		prefix: "guardian:price:",
	}
}

func (s *RedisStore) Get(ctx context.Context, key string) (*Entry, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}
	e := &Entry{}
	if err := json.Unmarshal([]byte(data), e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, e *Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.prefix+key, data, CacheTTL).Err()
}

func (s *RedisStore) Close() error { return s.client.Close() }

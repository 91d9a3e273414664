package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "leave:"

// Store is a thin Redis wrapper. A nil *Store is a valid, always-empty cache so
// the service keeps working when Redis is not configured or unreachable.
type Store struct {
	client *redis.Client
}

// New connects to Redis. An empty address returns a nil Store and no error.
func New(ctx context.Context, cfg internal.CacheConfig) (*Store, error) {
	if cfg.Addr == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return &Store{client: client}, nil
}

func NewFromClient(client *redis.Client) *Store {
	if client == nil {
		return nil
	}
	return &Store{client: client}
}

// Get returns the cached bytes and whether the key was present.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool) {
	if s == nil {
		return nil, false
	}
	data, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if s == nil {
		return nil
	}
	return s.client.Set(ctx, keyPrefix+key, value, ttl).Err()
}

func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if s == nil || len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = keyPrefix + k
	}
	return s.client.Del(ctx, prefixed...).Err()
}

// Incr atomically bumps an integer counter and returns its new value.
func (s *Store) Incr(ctx context.Context, key string) (int64, error) {
	if s == nil {
		return 0, nil
	}
	return s.client.Incr(ctx, keyPrefix+key).Result()
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	if s == nil {
		return false, nil
	}
	n, err := s.client.Exists(ctx, keyPrefix+key).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if s == nil {
		return errors.New("cache not configured")
	}
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.client.Close()
}

// Package registry - Redis-backed packument cache store.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "packument:"

// RedisStore backs the packument cache with a shared Redis instance so
// multiple engine replicas share one cache.
type RedisStore struct {
	client     *redis.Client
	expiration time.Duration
}

// NewRedisStore connects to Redis at addr and verifies the connection
// with exponential backoff before returning. expiration should cover
// the cache TTL plus the stale-while-revalidate window; entries past
// it are useless and may as well be evicted by Redis itself.
func NewRedisStore(addr, password string, dbnum int, expiration time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       dbnum,
	})

	// Connection check with backoff retry, bounded so a dead Redis
	// fails startup instead of hanging it.
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 1 * time.Second
	bo.MaxInterval = 10 * time.Second
	bo.MaxElapsedTime = 30 * time.Second

	err := backoff.RetryNotify(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return client.Ping(ctx).Err()
	}, bo, func(err error, _ time.Duration) {
		logger.Sugar().Warnf("Retrying connection to Redis: %v", err)
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}

	logger.Sugar().Infof("Packument cache backed by Redis at %s", addr)
	return &RedisStore{client: client, expiration: expiration}, nil
}

// Get looks up a cached entry by package name.
func (s *RedisStore) Get(ctx context.Context, name string) (*Entry, bool, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+name).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false, err
	}
	return &entry, true, nil
}

// Set stores an entry under the package name.
func (s *RedisStore) Set(ctx context.Context, name string, entry *Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, redisKeyPrefix+name, data, s.expiration).Err()
}

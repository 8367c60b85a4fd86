package cache

import (
	"context"
	"fmt"
	"time"

	"playlist-api-go/logcolors"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const redisOpTimeout = 5 * time.Second

// RedisStore keeps cache entries in Redis with native key expiry.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to the Redis instance at url and pings it once
// so a misconfigured backend fails at startup instead of on first use.
func NewRedisStore(url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %v", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %v", err)
	}

	log.Infof("%s Redis cache connected (%s)", logcolors.LogCacheInit, opts.Addr)
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	value, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			log.Errorf("%s Redis GET failed for key %s: %v", logcolors.LogCache, key, err)
		}
		return "", false
	}
	return value, true
}

func (s *RedisStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	return s.client.Del(ctx, key).Err()
}

// DeleteMatching walks matching keys with SCAN rather than KEYS so a
// large keyspace does not block the Redis server.
func (s *RedisStore) DeleteMatching(ctx context.Context, pattern string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	deleted := 0
	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return deleted, err
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		return deleted, err
	}
	return deleted, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const hotKeyPrefix = "analytics:"

// RedisStore is the networked hot tier. All calls go through a circuit
// breaker so a struggling Redis fails fast instead of stalling reads.
type RedisStore struct {
	client  *redis.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewRedisStore creates a RedisStore around an existing client.
func NewRedisStore(client *redis.Client, logger *zap.Logger) *RedisStore {
	settings := gobreaker.Settings{
		Name:        "redis-hot-store",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("hot store circuit state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &RedisStore{
		client:  client,
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
	}
}

func hotKey(subject string) string {
	return hotKeyPrefix + subject
}

// Get fetches an envelope from Redis. A missing key returns (nil, nil).
func (s *RedisStore) Get(ctx context.Context, subject string) (*Envelope, error) {
	result, err := s.breaker.Execute(func() (interface{}, error) {
		raw, err := s.client.Get(ctx, hotKey(subject)).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return raw, nil
	})
	if err != nil {
		return nil, fmt.Errorf("redis get %q: %w", subject, err)
	}
	if result == nil {
		return nil, nil
	}

	var env Envelope
	if err := json.Unmarshal(result.([]byte), &env); err != nil {
		return nil, fmt.Errorf("decoding hot entry %q: %w", subject, err)
	}
	return &env, nil
}

// Set writes an envelope with the given TTL.
func (s *RedisStore) Set(ctx context.Context, env *Envelope, ttl time.Duration) error {
	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encoding hot entry %q: %w", env.Subject, err)
	}

	_, err = s.breaker.Execute(func() (interface{}, error) {
		return nil, s.client.Set(ctx, hotKey(env.Subject), raw, ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("redis set %q: %w", env.Subject, err)
	}
	return nil
}

// Delete removes an envelope. Deleting a missing key is not an error.
func (s *RedisStore) Delete(ctx context.Context, subject string) error {
	_, err := s.breaker.Execute(func() (interface{}, error) {
		return nil, s.client.Del(ctx, hotKey(subject)).Err()
	})
	if err != nil {
		return fmt.Errorf("redis del %q: %w", subject, err)
	}
	return nil
}

// Exists reports whether a subject is cached without fetching its value.
func (s *RedisStore) Exists(ctx context.Context, subject string) (bool, error) {
	result, err := s.breaker.Execute(func() (interface{}, error) {
		n, err := s.client.Exists(ctx, hotKey(subject)).Result()
		if err != nil {
			return false, err
		}
		return n > 0, nil
	})
	if err != nil {
		return false, fmt.Errorf("redis exists %q: %w", subject, err)
	}
	return result.(bool), nil
}

// Count returns the number of analytics keys currently cached.
func (s *RedisStore) Count(ctx context.Context) (int, error) {
	result, err := s.breaker.Execute(func() (interface{}, error) {
		var count int
		iter := s.client.Scan(ctx, 0, hotKeyPrefix+"*", 0).Iterator()
		for iter.Next(ctx) {
			count++
		}
		if err := iter.Err(); err != nil {
			return 0, err
		}
		return count, nil
	})
	if err != nil {
		return 0, fmt.Errorf("redis scan: %w", err)
	}
	return result.(int), nil
}

// Ping checks connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	_, err := s.breaker.Execute(func() (interface{}, error) {
		return nil, s.client.Ping(ctx).Err()
	})
	return err
}

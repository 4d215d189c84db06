// Package session provides Redis-backed storage for short-lived
// password reset codes.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps OTP codes with a TTL so stale codes expire on
// their own.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a new Redis-backed OTP store.
func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisStore{client: client, prefix: "otp:"}, nil
}

// NewRedisStoreWithClient creates a store from an existing Redis client.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "otp:"}
}

func (s *RedisStore) key(email string) string {
	return s.prefix + email
}

// SetOTP stores the code for the email, replacing any previous one.
func (s *RedisStore) SetOTP(ctx context.Context, email, code string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	if err := s.client.Set(ctx, s.key(email), code, ttl).Err(); err != nil {
		return fmt.Errorf("save otp: %w", err)
	}
	return nil
}

// GetOTP returns the stored code, or an error if none exists or it
// already expired.
func (s *RedisStore) GetOTP(ctx context.Context, email string) (string, error) {
	code, err := s.client.Get(ctx, s.key(email)).Result()
	if err == redis.Nil {
		return "", fmt.Errorf("otp not found or expired")
	}
	if err != nil {
		return "", fmt.Errorf("lookup otp: %w", err)
	}
	return code, nil
}

// DeleteOTP removes the code after a successful reset.
func (s *RedisStore) DeleteOTP(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, s.key(email)).Err(); err != nil {
		return fmt.Errorf("delete otp: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks if Redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

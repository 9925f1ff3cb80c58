// Package ratelimit throttles login attempts with a fixed-window counter in
// Redis. The limiter is optional: when no Redis URL is configured the server
// runs without one and every attempt is allowed.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Limiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

func New(redisURL string, limit int64, window time.Duration) (*Limiter, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewWithClient(redis.NewClient(opts), limit, window), nil
}

func NewWithClient(client *redis.Client, limit int64, window time.Duration) *Limiter {
	return &Limiter{client: client, limit: limit, window: window}
}

// Allow records one attempt for key and reports whether it is still within
// the window's budget. Redis errors fail open so a limiter outage cannot
// lock everyone out.
func (l *Limiter) Allow(ctx context.Context, key string) bool {
	if l == nil {
		return true
	}
	redisKey := "ratelimit:login:" + key

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return true
	}
	if count == 1 {
		l.client.Expire(ctx, redisKey, l.window)
	}
	return count <= l.limit
}

// Reset clears the counter for key, used after a successful login.
func (l *Limiter) Reset(ctx context.Context, key string) {
	if l == nil {
		return
	}
	l.client.Del(ctx, "ratelimit:login:"+key)
}

func (l *Limiter) Close() error {
	if l == nil {
		return nil
	}
	return l.client.Close()
}

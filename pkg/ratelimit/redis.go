// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/telekom/booking-mailer/pkg/metrics"
)

// slidingLogScript prunes, counts and conditionally appends in one round trip.
// Scores are unix milliseconds; members are unique per admission.
var slidingLogScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local max = tonumber(ARGV[3])
redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
if redis.call('ZCARD', key) >= max then
  return 0
end
redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window)
return 1
`)

// RedisLimiter stores each recipient's sliding log in a sorted set so that
// all replicas pointing at the same Redis share one budget.
type RedisLimiter struct {
	rdb    redis.Scripter
	prefix string
	config Config
}

type RedisOption func(*RedisLimiter)

// WithRedisPrefix sets the key prefix. Keys look like "<prefix>:<recipient>".
func WithRedisPrefix(prefix string) RedisOption {
	return func(l *RedisLimiter) {
		if p := strings.Trim(prefix, ":"); p != "" {
			l.prefix = p
		}
	}
}

func NewRedisLimiter(rdb redis.Scripter, cfg Config, opts ...RedisOption) *RedisLimiter {
	cfg.defaults()
	l := &RedisLimiter{
		rdb:    rdb,
		prefix: "booking-mailer:ratelimit",
		config: cfg,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Admit runs the sliding log script for recipient. Redis errors are returned
// to the caller and no decision metric is recorded.
func (l *RedisLimiter) Admit(ctx context.Context, recipient string, now time.Time) (bool, error) {
	res, err := slidingLogScript.Run(ctx, l.rdb,
		[]string{l.key(recipient)},
		now.UnixMilli(),
		l.config.Window.Milliseconds(),
		l.config.Max,
		fmt.Sprintf("%d-%s", now.UnixNano(), uuid.NewString()),
	).Int()
	if err != nil {
		return false, fmt.Errorf("redis rate limit check: %w", err)
	}

	if res == 1 {
		metrics.RateLimitDecisions.WithLabelValues("redis", decisionAllowed).Inc()
		return true, nil
	}
	metrics.RateLimitDecisions.WithLabelValues("redis", decisionDenied).Inc()
	return false, nil
}

func (l *RedisLimiter) key(recipient string) string {
	return l.prefix + ":" + recipient
}

// NewRedisClient builds a client and verifies connectivity with a short ping.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return rdb, nil
}

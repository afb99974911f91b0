// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package ratelimit

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/telekom/booking-mailer/pkg/apiresponses"
	"github.com/telekom/booking-mailer/pkg/metrics"
)

// ClientConfig holds per-IP token bucket configuration
type ClientConfig struct {
	// Rate is the number of requests allowed per second
	Rate float64
	// Burst is the maximum number of requests allowed in a burst
	Burst int
	// CleanupInterval is how often to clean up stale entries
	CleanupInterval time.Duration
	// MaxAge is how long to keep an entry after last access
	MaxAge time.Duration
}

// DefaultClientConfig returns 20 req/s per IP with a burst of 50.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Rate:            20,
		Burst:           50,
		CleanupInterval: time.Minute,
		MaxAge:          5 * time.Minute,
	}
}

// entry holds rate limiter and last access time for an IP
type entry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// ClientLimiter implements per-IP rate limiting with automatic cleanup.
// It protects the HTTP surface and is unrelated to the per-recipient budget.
type ClientLimiter struct {
	mu       sync.RWMutex
	entries  map[string]*entry
	config   ClientConfig
	done     chan struct{}
	stopOnce sync.Once
}

// NewClientLimiter creates a per-IP limiter with the given configuration
func NewClientLimiter(cfg ClientConfig) *ClientLimiter {
	d := DefaultClientConfig()
	if cfg.Rate <= 0 {
		cfg.Rate = d.Rate
	}
	if cfg.Burst <= 0 {
		cfg.Burst = d.Burst
	}
	if cfg.CleanupInterval == 0 {
		cfg.CleanupInterval = d.CleanupInterval
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = d.MaxAge
	}

	rl := &ClientLimiter{
		entries: make(map[string]*entry),
		config:  cfg,
		done:    make(chan struct{}),
	}

	go rl.cleanup()

	return rl
}

// Allow checks if a request from the given IP should be allowed
func (rl *ClientLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	e, exists := rl.entries[ip]
	if !exists {
		e = &entry{
			limiter: rate.NewLimiter(rate.Limit(rl.config.Rate), rl.config.Burst),
		}
		rl.entries[ip] = e
	}
	e.lastAccess = time.Now()

	return e.limiter.Allow()
}

// Middleware returns a Gin middleware that applies per-IP rate limiting
func (rl *ClientLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			metrics.ClientRateLimited.Inc()
			apiresponses.RespondTooManyRequests(c, "")
			c.Abort()
			return
		}
		c.Next()
	}
}

// Stop stops the cleanup goroutine
func (rl *ClientLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

func (rl *ClientLimiter) cleanup() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.cleanupStaleEntries()
		}
	}
}

// cleanupStaleEntries removes entries that haven't been accessed recently
func (rl *ClientLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for ip, e := range rl.entries {
		if now.Sub(e.lastAccess) > rl.config.MaxAge {
			delete(rl.entries, ip)
		}
	}
}

// Len returns the current number of tracked IPs (for testing/metrics)
func (rl *ClientLimiter) Len() int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return len(rl.entries)
}

// Config returns a copy of the current configuration (for testing)
func (rl *ClientLimiter) Config() ClientConfig {
	return rl.config
}

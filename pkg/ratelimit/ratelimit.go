// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/telekom/booking-mailer/pkg/metrics"
)

const (
	decisionAllowed = "allowed"
	decisionDenied  = "denied"
)

// Limiter decides whether one more email may be sent to a recipient at now.
// An admitted call is counted against the recipient's window; a denied call is not.
type Limiter interface {
	Admit(ctx context.Context, recipient string, now time.Time) (bool, error)
}

// Config holds sliding window configuration
type Config struct {
	// Window is the trailing duration over which sends are counted
	Window time.Duration
	// Max is the number of sends allowed within Window
	Max int
	// CleanupInterval is how often recipients with no live timestamps are dropped
	CleanupInterval time.Duration
}

// DefaultConfig returns 5 sends per recipient per minute.
func DefaultConfig() Config {
	return Config{
		Window:          time.Minute,
		Max:             5,
		CleanupInterval: time.Minute,
	}
}

func (c *Config) defaults() {
	d := DefaultConfig()
	if c.Window <= 0 {
		c.Window = d.Window
	}
	if c.Max <= 0 {
		c.Max = d.Max
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = c.Window
		if c.CleanupInterval < time.Minute {
			c.CleanupInterval = time.Minute
		}
	}
}

// SlidingWindow is an in-memory per-recipient sliding log with automatic cleanup.
// State is lost on restart and is not shared between replicas.
type SlidingWindow struct {
	mu       sync.Mutex
	entries  map[string][]time.Time
	config   Config
	done     chan struct{}
	stopOnce sync.Once
}

// NewSlidingWindow creates an in-memory limiter and starts its cleanup goroutine.
func NewSlidingWindow(cfg Config) *SlidingWindow {
	cfg.defaults()
	l := &SlidingWindow{
		entries: make(map[string][]time.Time),
		config:  cfg,
		done:    make(chan struct{}),
	}
	go l.cleanup()
	return l
}

// Admit prunes timestamps older than the window, denies when Max remain,
// and otherwise records now. The check and the append happen under one lock.
func (l *SlidingWindow) Admit(_ context.Context, recipient string, now time.Time) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	live := prune(l.entries[recipient], now, l.config.Window)
	if len(live) >= l.config.Max {
		l.entries[recipient] = live
		metrics.RateLimitDecisions.WithLabelValues("memory", decisionDenied).Inc()
		return false, nil
	}
	l.entries[recipient] = append(live, now)
	metrics.RateLimitDecisions.WithLabelValues("memory", decisionAllowed).Inc()
	return true, nil
}

// prune keeps timestamps with now-ts < window, reusing the backing array.
func prune(ts []time.Time, now time.Time, window time.Duration) []time.Time {
	live := ts[:0]
	for _, t := range ts {
		if now.Sub(t) < window {
			live = append(live, t)
		}
	}
	return live
}

// Prune drops every recipient whose log holds no timestamp inside the window
// ending at now. It returns the number of recipients removed.
func (l *SlidingWindow) Prune(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for recipient, ts := range l.entries {
		live := prune(ts, now, l.config.Window)
		if len(live) == 0 {
			delete(l.entries, recipient)
			removed++
			continue
		}
		l.entries[recipient] = live
	}
	return removed
}

func (l *SlidingWindow) cleanup() {
	ticker := time.NewTicker(l.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			l.Prune(time.Now())
		}
	}
}

// Stop stops the cleanup goroutine. Safe to call more than once.
func (l *SlidingWindow) Stop() {
	l.stopOnce.Do(func() { close(l.done) })
}

// Len returns the number of tracked recipients.
func (l *SlidingWindow) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Tracked returns how many timestamps are stored for recipient.
func (l *SlidingWindow) Tracked(recipient string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries[recipient])
}

// Config returns a copy of the effective configuration.
func (l *SlidingWindow) Config() Config {
	return l.config
}

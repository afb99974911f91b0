// Package ratelimit holds the limiters used by the booking pipeline.
//
// Limiter is the per-recipient sliding log that guards outgoing confirmations:
// a recipient may receive at most Max emails in any trailing Window. Two
// backends exist. SlidingWindow keeps the log in process memory and is the
// default; RedisLimiter keeps it in a sorted set so several replicas share one
// budget.
//
// ClientLimiter is an independent per-IP token bucket applied as Gin
// middleware in front of the HTTP API.
package ratelimit

package ratelimiter

import (
	"sync"
	"time"
)

// RateLimiter admits or rejects a request at the moment it arrives.
type RateLimiter interface {
	// Allow reports whether the request may proceed.
	Allow() bool
}

// TokenBucket is a RateLimiter that refills at a fixed rate and permits
// bursts up to its capacity.
type TokenBucket struct {
	rate     float64 // tokens generated per second
	capacity float64
	tokens   float64
	lastFill time.Time
	mu       sync.Mutex
}

// NewTokenBucket returns a full bucket generating rate tokens per second
// with the given burst capacity.
func NewTokenBucket(rate float64, capacity int) *TokenBucket {
	return &TokenBucket{
		rate:     rate,
		capacity: float64(capacity),
		tokens:   float64(capacity),
		lastFill: time.Now(),
	}
}

// Allow consumes one token if available.
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	if elapsed := now.Sub(tb.lastFill); elapsed > 0 {
		tb.tokens += elapsed.Seconds() * tb.rate
		if tb.tokens > tb.capacity {
			tb.tokens = tb.capacity
		}
		tb.lastFill = now
	}

	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}

package auth

import (
	"sync"
	"time"
)

// RateLimiter is a token-bucket limiter keyed by caller fingerprint. Each
// caller gets a bucket of requestsPerMinute tokens refilled continuously;
// a limit of zero disables limiting entirely.
type RateLimiter struct {
	mu         sync.Mutex
	buckets    map[string]*bucket
	maxTokens  int
	refillRate time.Duration
}

type bucket struct {
	tokens     int
	lastRefill time.Time
}

// NewRateLimiter creates a limiter allowing requestsPerMinute requests per
// key.
func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	l := &RateLimiter{
		buckets:   make(map[string]*bucket),
		maxTokens: requestsPerMinute,
	}
	if requestsPerMinute > 0 {
		l.refillRate = time.Minute / time.Duration(requestsPerMinute)
		go l.cleanup()
	}
	return l
}

// Allow reports whether a request under key may proceed.
func (l *RateLimiter) Allow(key string) bool {
	if l.maxTokens <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b, exists := l.buckets[key]
	now := time.Now()
	if !exists {
		b = &bucket{tokens: l.maxTokens, lastRefill: now}
		l.buckets[key] = b
	}

	// Refill tokens based on time elapsed
	if refill := int(now.Sub(b.lastRefill) / l.refillRate); refill > 0 {
		b.tokens += refill
		if b.tokens > l.maxTokens {
			b.tokens = l.maxTokens
		}
		b.lastRefill = now
	}

	if b.tokens > 0 {
		b.tokens--
		return true
	}
	return false
}

// cleanup removes buckets idle for over an hour
func (l *RateLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		l.mu.Lock()
		now := time.Now()
		for key, b := range l.buckets {
			if now.Sub(b.lastRefill) > time.Hour {
				delete(l.buckets, key)
			}
		}
		l.mu.Unlock()
	}
}

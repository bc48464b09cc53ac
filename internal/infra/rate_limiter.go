package infra

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a token bucket. Thread-safe.
type RateLimiter struct {
	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

// NewRateLimiter creates a limiter allowing bursts of maxBurst requests
// refilled at perSecond tokens per second.
func NewRateLimiter(maxBurst int, perSecond float64) *RateLimiter {
	return &RateLimiter{
		tokens:     float64(maxBurst),
		maxTokens:  float64(maxBurst),
		refillRate: perSecond,
		lastRefill: time.Now(),
	}
}

// Wait blocks until a token is available or the context is cancelled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		r.mu.Lock()
		r.refill()
		if r.tokens >= 1 {
			r.tokens--
			r.mu.Unlock()
			return nil
		}
		r.mu.Unlock()

		wait := time.Duration(float64(time.Second) / r.refillRate)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// TryAcquire takes a token without blocking. It reports whether one
// was available.
func (r *RateLimiter) TryAcquire() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refill()
	if r.tokens >= 1 {
		r.tokens--
		return true
	}
	return false
}

// refill adds tokens based on elapsed time. Caller holds the mutex.
func (r *RateLimiter) refill() {
	now := time.Now()
	elapsed := now.Sub(r.lastRefill).Seconds()
	r.tokens += elapsed * r.refillRate
	if r.tokens > r.maxTokens {
		r.tokens = r.maxTokens
	}
	r.lastRefill = now
}

// Pre-configured limiters for the KuCoin REST API. KuCoin enforces
// per-endpoint-group weights; these stay well under the public caps to
// avoid IP bans.
var (
	kucoinPublicLimiter  *RateLimiter
	kucoinPrivateLimiter *RateLimiter
	rateLimiterOnce      sync.Once
)

// GetKucoinPublicLimiter covers market data endpoints.
func GetKucoinPublicLimiter() *RateLimiter {
	rateLimiterOnce.Do(initKucoinLimiters)
	return kucoinPublicLimiter
}

// GetKucoinPrivateLimiter covers account and order endpoints.
func GetKucoinPrivateLimiter() *RateLimiter {
	rateLimiterOnce.Do(initKucoinLimiters)
	return kucoinPrivateLimiter
}

func initKucoinLimiters() {
	kucoinPublicLimiter = NewRateLimiter(10, 20) // 20 req/s, burst 10
	kucoinPrivateLimiter = NewRateLimiter(5, 10) // 10 req/s, burst 5
}

package ratelimit

import (
	"context"
	"sync"
	"time"
)

// TokenLimiter enforces a per-minute token budget for AI providers.
// The window resets a minute after the first consumption in that window.
type TokenLimiter struct {
	mu          sync.Mutex
	maxPerMin   int
	used        int
	windowStart time.Time
}

// NewTokenLimiter creates a limiter with the given tokens-per-minute budget.
func NewTokenLimiter(maxPerMinute int) *TokenLimiter {
	return &TokenLimiter{maxPerMin: maxPerMinute}
}

// GetRemaining returns the tokens left in the current window.
func (l *TokenLimiter) GetRemaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resetIfExpired()
	return l.maxPerMin - l.used
}

// Wait consumes n tokens, blocking until the window resets if the budget
// is exhausted. Returns early if the context is cancelled.
func (l *TokenLimiter) Wait(ctx context.Context, n int) error {
	for {
		l.mu.Lock()
		l.resetIfExpired()
		if l.used+n <= l.maxPerMin || n > l.maxPerMin {
			// Oversized requests are admitted alone rather than blocking forever.
			if l.used == 0 || l.used+n <= l.maxPerMin {
				l.used += n
				if l.windowStart.IsZero() {
					l.windowStart = time.Now()
				}
				l.mu.Unlock()
				return nil
			}
		}
		wait := time.Until(l.windowStart.Add(time.Minute))
		l.mu.Unlock()

		if wait <= 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (l *TokenLimiter) resetIfExpired() {
	if !l.windowStart.IsZero() && time.Since(l.windowStart) >= time.Minute {
		l.used = 0
		l.windowStart = time.Time{}
	}
}

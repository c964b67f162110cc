package auth

import (
	"context"
	"sync"
	"time"
)

// RateLimiter decides whether an authenticated caller may proceed.
type RateLimiter interface {
	Allow(ctx context.Context, identity *Identity) error
}

// WindowLimiter allows a fixed number of requests per subject per minute,
// tracked in memory.
type WindowLimiter struct {
	rpm      int
	now      func() time.Time
	mu       sync.Mutex
	counters map[string]*window
}

type window struct {
	count   int
	startAt time.Time
}

// NewWindowLimiter creates a limiter. rpm <= 0 disables limiting.
func NewWindowLimiter(rpm int) *WindowLimiter {
	return &WindowLimiter{
		rpm:      rpm,
		now:      time.Now,
		counters: make(map[string]*window),
	}
}

// Allow returns ErrTooManyRequests once the subject exceeds its budget for
// the current window.
func (l *WindowLimiter) Allow(_ context.Context, identity *Identity) error {
	if l.rpm <= 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.counters[identity.Subject]
	if !ok || now.Sub(w.startAt) >= time.Minute {
		l.counters[identity.Subject] = &window{count: 1, startAt: now}
		return nil
	}

	w.count++
	if w.count > l.rpm {
		return ErrTooManyRequests
	}
	return nil
}

// Package ratelimit limits how often a client may call an endpoint.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter decides whether one more request from key is allowed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type window struct {
	hits    int
	resetAt time.Time
}

// MemoryLimiter allows max requests per fixed window for each key. The
// window starts at a key's first request. Expired keys are dropped.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	max     int
	length  time.Duration
	now     func() time.Time
	lastGC  time.Time
}

// NewMemoryLimiter creates a process-local limiter.
func NewMemoryLimiter(max int, length time.Duration) *MemoryLimiter {
	if max < 1 {
		max = 1
	}
	return &MemoryLimiter{
		windows: make(map[string]*window),
		max:     max,
		length:  length,
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastGC) > l.length {
		for k, w := range l.windows {
			if !now.Before(w.resetAt) {
				delete(l.windows, k)
			}
		}
		l.lastGC = now
	}

	w, ok := l.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(l.length)}
		l.windows[key] = w
	}
	w.hits++
	return w.hits <= l.max, nil
}

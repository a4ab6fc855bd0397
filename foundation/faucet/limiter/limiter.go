// Package limiter provides a fixed window request counter keyed by client
// identity. Counters live in process memory only and reset when their
// window expires.
package limiter

import (
	"sync"
	"time"
)

// window tracks the request count for one client within the current window.
type window struct {
	start time.Time
	count int
}

// Limiter counts requests per key over a fixed window and rejects callers
// that exceed the cap.
type Limiter struct {
	windowDur time.Duration
	max       int
	now       func() time.Time

	mu      sync.Mutex
	windows map[string]*window
}

// New constructs a limiter allowing max requests per key per window.
func New(windowDur time.Duration, max int) *Limiter {
	return &Limiter{
		windowDur: windowDur,
		max:       max,
		now:       time.Now,
		windows:   make(map[string]*window),
	}
}

// Allow records a request for the key and reports whether it fits inside
// the current window.
func (l *Limiter) Allow(key string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, exists := l.windows[key]
	if !exists || now.Sub(w.start) >= l.windowDur {
		l.windows[key] = &window{start: now, count: 1}
		return true
	}

	if w.count >= l.max {
		return false
	}

	w.count++
	return true
}

// Sweep drops expired windows so a long running process need not keep one
// entry per client forever. It runs only when called; the limiter never
// sweeps on its own.
func (l *Limiter) Sweep() {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, w := range l.windows {
		if now.Sub(w.start) >= l.windowDur {
			delete(l.windows, key)
		}
	}
}

package transport

import (
	"context"
	"sync"
	"time"
)

// Throttle implements a simple token bucket limiter on outbound calls,
// one bucket per backend host.
type Throttle struct {
	hosts  map[string]*bucket
	mu     sync.Mutex
	rate   int           // requests per window
	window time.Duration // time window
}

type bucket struct {
	tokens     int
	lastRefill time.Time
	mu         sync.Mutex
}

// NewThrottle creates a throttle allowing rate requests per window per host
func NewThrottle(rate int, window time.Duration) *Throttle {
	return &Throttle{
		hosts:  make(map[string]*bucket),
		rate:   rate,
		window: window,
	}
}

// Allow checks if a call to a host may proceed right now
func (t *Throttle) Allow(host string) bool {
	t.mu.Lock()
	b, exists := t.hosts[host]
	if !exists {
		b = &bucket{
			tokens:     t.rate,
			lastRefill: time.Now(),
		}
		t.hosts[host] = b
	}
	t.mu.Unlock()

	b.mu.Lock()
	defer b.mu.Unlock()

	// Refill tokens based on time passed
	now := time.Now()
	if now.Sub(b.lastRefill) >= t.window {
		b.tokens = t.rate
		b.lastRefill = now
	}

	if b.tokens > 0 {
		b.tokens--
		return true
	}
	return false
}

// Wait blocks until a call to the host is allowed or the context is done
func (t *Throttle) Wait(ctx context.Context, host string) error {
	for {
		if t.Allow(host) {
			return nil
		}
		select {
		case <-time.After(t.window / time.Duration(t.rate+1)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

package session

import (
	"context"
	"log"
	"time"

	"mindwell/internal/models"
)

// FetchFunc refetches the tracked session and returns its current status
type FetchFunc func(ctx context.Context) (models.SessionStatus, error)

// Poller re-fetches one session on a fixed interval while the session is
// live. Polling stops as soon as the session reaches a terminal state or
// drops back to Scheduled; keeping a timer running against a finished
// session is a defect, not a feature.
type Poller struct {
	interval time.Duration
	fetch    FetchFunc
}

// NewPoller creates a poller with the given interval
func NewPoller(interval time.Duration, fetch FetchFunc) *Poller {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Poller{interval: interval, fetch: fetch}
}

// Run fetches once immediately, then keeps polling while the session is
// In Progress. It returns the last observed status. Fetch errors do not
// stop the loop, the initial fetch included; the next tick retries.
// Cancelling the context stops the poller (the unmount path).
func (p *Poller) Run(ctx context.Context) (models.SessionStatus, error) {
	status, err := p.fetch(ctx)
	for err != nil {
		log.Printf("session poll: %v", err)
		select {
		case <-time.After(p.interval):
		case <-ctx.Done():
			return status, ctx.Err()
		}
		status, err = p.fetch(ctx)
	}

	for pollEligible(status) {
		select {
		case <-time.After(p.interval):
		case <-ctx.Done():
			return status, ctx.Err()
		}

		next, err := p.fetch(ctx)
		if err != nil {
			log.Printf("session poll: %v", err)
			continue
		}
		status = next
	}

	return status, nil
}

// pollEligible reports whether a session in this state warrants another
// poll. Terminal sessions and offline (Scheduled) sessions do not.
func pollEligible(status models.SessionStatus) bool {
	return status == models.SessionInProgress
}

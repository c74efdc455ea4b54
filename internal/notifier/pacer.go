package notifier

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces consecutive broadcasts to respect the destination
// channel's rate limits. It is injected so tests can substitute a
// zero-delay implementation.
type Pacer interface {
	// Wait blocks until the next send is allowed. The first call after
	// an idle period returns immediately.
	Wait(ctx context.Context) error
}

type ratePacer struct {
	lim *rate.Limiter
}

// NewPacer returns a Pacer that allows one send per delay, with a burst
// of one so the first event in a cycle is never delayed.
func NewPacer(delay time.Duration) Pacer {
	if delay <= 0 {
		return NopPacer{}
	}
	return ratePacer{lim: rate.NewLimiter(rate.Every(delay), 1)}
}

func (p ratePacer) Wait(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return p.lim.Wait(ctx)
}

// NopPacer never waits.
type NopPacer struct{}

func (NopPacer) Wait(ctx context.Context) error { return nil }

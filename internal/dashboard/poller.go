package dashboard

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultPollInterval is the period between detection fetches.
const DefaultPollInterval = 1000 * time.Millisecond

// Poller runs tick on a fixed interval. It holds at most one timer, and at
// most one tick runs at a time: a tick that fires while the previous one is
// still in flight is skipped.
type Poller struct {
	interval time.Duration
	tick     func(ctx context.Context)
	onSkip   func()

	mu       sync.Mutex
	cancel   context.CancelFunc
	inFlight atomic.Bool
}

// NewPoller creates a stopped poller. onSkip may be nil.
func NewPoller(interval time.Duration, tick func(ctx context.Context), onSkip func()) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{interval: interval, tick: tick, onSkip: onSkip}
}

// Start replaces any running timer with a new one. Ticks receive a context
// that is cancelled when the poller stops. A parent that is already done
// leaves the poller stopped.
func (p *Poller) Start(parent context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()
	if parent.Err() != nil {
		return
	}
	ctx, cancel := context.WithCancel(parent)
	p.cancel = cancel
	go p.run(ctx)
}

// Stop clears the timer. It is idempotent and may be called from a tick.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

// Active reports whether a timer is installed.
func (p *Poller) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

func (p *Poller) stopLocked() {
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

func (p *Poller) run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.fire(ctx)
		}
	}
}

func (p *Poller) fire(ctx context.Context) {
	if !p.inFlight.CompareAndSwap(false, true) {
		if p.onSkip != nil {
			p.onSkip()
		}
		return
	}
	go func() {
		defer p.inFlight.Store(false)
		p.tick(ctx)
	}()
}

package session

import (
	"context"
	"log"
	"time"
)

const DefaultSweepInterval = 10 * time.Second

// ExpiryNotifier is told which sessions a sweep evicted so it can push
// sessionExpired to the connections bound to them.
type ExpiryNotifier interface {
	SessionsExpired(ids []string)
}

// Sweeper periodically evicts expired sessions from a Registry.
type Sweeper struct {
	registry *Registry
	notifier ExpiryNotifier
	interval time.Duration
}

func NewSweeper(registry *Registry, notifier ExpiryNotifier, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	return &Sweeper{
		registry: registry,
		notifier: notifier,
		interval: interval,
	}
}

// Run sweeps on every tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	log.Printf("[SWEEPER] Started with interval %s", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[SWEEPER] Stopping")
			return
		case <-ticker.C:
			s.SweepOnce()
		}
	}
}

// SweepOnce runs a single sweep at the registry's current time.
func (s *Sweeper) SweepOnce() []string {
	expired := s.registry.Sweep(s.registry.Now())
	if len(expired) == 0 {
		return nil
	}

	log.Printf("[SWEEPER] Evicted %d expired sessions", len(expired))
	if s.notifier != nil {
		s.notifier.SessionsExpired(expired)
	}

	return expired
}

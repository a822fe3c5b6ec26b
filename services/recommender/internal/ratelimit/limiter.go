// Package ratelimit paces calls against upstream APIs with request quotas.
package ratelimit

import (
	"context"
	"time"
)

// Limiter spaces operations evenly at a fixed per-second rate. TMDb enforces
// an account-level quota, so every outbound call path shares one Limiter.
type Limiter struct {
	t *time.Ticker
}

// NewRPS allows up to rps operations per second.
func NewRPS(rps int) *Limiter {
	if rps <= 0 {
		rps = 1
	}
	return &Limiter{t: time.NewTicker(time.Second / time.Duration(rps))}
}

func (l *Limiter) Stop() {
	if l != nil && l.t != nil {
		l.t.Stop()
	}
}

// Wait blocks until the next slot opens or ctx ends. A nil limiter never
// blocks.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil || l.t == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.t.C:
		return nil
	}
}

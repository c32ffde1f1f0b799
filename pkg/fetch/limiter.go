package fetch

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter enforces per-domain request rates so an investigation's query
// fan-out never hammers a single host.
type Limiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a limiter allowing rps requests per second per
// domain with the given burst.
func NewLimiter(rps float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 3
	}
	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  rate.Limit(rps),
		defaultBurst: burst,
	}
}

// Wait blocks until the domain of rawURL may be requested again.
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse url for rate limit: %w", err)
	}
	return l.limiterFor(u.Host).Wait(ctx)
}

// WaitWithDelay waits for the rate limiter and then an extra delay,
// typically a robots.txt crawl-delay.
func (l *Limiter) WaitWithDelay(ctx context.Context, rawURL string, extra time.Duration) error {
	if err := l.Wait(ctx, rawURL); err != nil {
		return err
	}
	if extra <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(extra):
		return nil
	}
}

// SetDomainRate overrides the rate for a single domain.
func (l *Limiter) SetDomainRate(domain string, rps float64, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.limiters[domain] = rate.NewLimiter(rate.Limit(rps), burst)
}

func (l *Limiter) limiterFor(domain string) *rate.Limiter {
	l.mu.RLock()
	lim, ok := l.limiters[domain]
	l.mu.RUnlock()
	if ok {
		return lim
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, ok := l.limiters[domain]; ok {
		return lim
	}
	lim = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters[domain] = lim
	return lim
}

package fetcher

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/Yashvanth1222/SiteScraper/internal/types"
)

// Throttle spaces out requests to the same host by a random delay in
// [min, max]. The first request to a host is not delayed.
type Throttle struct {
	min, max time.Duration

	mu   sync.Mutex
	last map[string]time.Time
	rand func() float64
}

// NewThrottle creates a Throttle. hi below lo is raised to lo.
func NewThrottle(lo, hi time.Duration) *Throttle {
	if hi < lo {
		hi = lo
	}
	return &Throttle{
		min:  lo,
		max:  hi,
		last: make(map[string]time.Time),
		rand: rand.Float64,
	}
}

func (t *Throttle) delay() time.Duration {
	if t.max == t.min {
		return t.min
	}
	return t.min + time.Duration(t.rand()*float64(t.max-t.min))
}

// Wait blocks until host may be requested again: a random gap after the
// previous request, or at least minGap when that is longer. The slot is
// reserved before sleeping so concurrent callers queue up.
func (t *Throttle) Wait(ctx context.Context, host string, minGap time.Duration) error {
	t.mu.Lock()
	now := time.Now()
	at := now
	if prev, ok := t.last[host]; ok {
		if next := prev.Add(max(t.delay(), minGap)); next.After(now) {
			at = next
		}
	}
	t.last[host] = at
	t.mu.Unlock()

	return sleepCtx(ctx, time.Until(at))
}

// RandomDelay returns a random delay around the base duration (±25%).
func RandomDelay(base time.Duration) time.Duration {
	jitter := float64(base) * 0.25
	return base + time.Duration(rand.Float64()*2*jitter-jitter)
}

// Politely fetches req after checking robots.txt and waiting on the
// throttle. A retryable failure is retried once after its back-off.
// Either robots or throttle may be nil.
func Politely(ctx context.Context, f Fetcher, robots *RobotsManager, throttle *Throttle, req *types.Request) (*types.Response, error) {
	rawURL := req.URLString()
	var crawlDelay time.Duration
	if robots != nil {
		if !robots.IsAllowed(ctx, rawURL) {
			return nil, fmt.Errorf("%w: %s", types.ErrBlocked, rawURL)
		}
		crawlDelay = robots.CrawlDelay(rawURL)
	}

	wait := func(extra time.Duration) error {
		if throttle == nil {
			return sleepCtx(ctx, extra)
		}
		return throttle.Wait(ctx, req.Domain(), max(extra, crawlDelay))
	}

	if err := wait(0); err != nil {
		return nil, err
	}
	resp, err := f.Fetch(ctx, req)
	if err == nil {
		return resp, nil
	}

	var fe *types.FetchError
	if !errors.As(err, &fe) || !fe.IsRetryable() {
		return nil, err
	}
	if err := wait(fe.RetryAfter); err != nil {
		return nil, err
	}
	return f.Fetch(ctx, req)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

package fetcher

import (
	"context"
	"testing"
	"time"
)

func TestThrottleFirstRequestImmediate(t *testing.T) {
	th := NewThrottle(time.Hour, time.Hour)
	start := time.Now()
	if err := th.Wait(context.Background(), "a.com", 0); err != nil {
		t.Fatal(err)
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Error("first request should not wait")
	}
}

func TestThrottleSpacesSameHost(t *testing.T) {
	th := NewThrottle(50*time.Millisecond, 50*time.Millisecond)
	ctx := context.Background()

	th.Wait(ctx, "a.com", 0)
	start := time.Now()
	th.Wait(ctx, "a.com", 0)
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("second request waited only %s", elapsed)
	}

	start = time.Now()
	th.Wait(ctx, "b.com", 0)
	if time.Since(start) > 30*time.Millisecond {
		t.Error("other hosts are not throttled")
	}
}

func TestThrottleDelayWithinBounds(t *testing.T) {
	th := NewThrottle(time.Second, 2*time.Second)
	for _, r := range []float64{0, 0.5, 0.999} {
		th.rand = func() float64 { return r }
		if d := th.delay(); d < time.Second || d > 2*time.Second {
			t.Errorf("delay %s out of bounds", d)
		}
	}
	if NewThrottle(2*time.Second, time.Second).max != 2*time.Second {
		t.Error("max below min should be raised")
	}
}

func TestThrottleHonoursContext(t *testing.T) {
	th := NewThrottle(time.Hour, time.Hour)
	th.Wait(context.Background(), "a.com", 0)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := th.Wait(ctx, "a.com", 0); err == nil {
		t.Fatal("expected context error")
	}
}

func TestRandomDelay(t *testing.T) {
	base := 100 * time.Millisecond
	for i := 0; i < 50; i++ {
		d := RandomDelay(base)
		if d < 75*time.Millisecond || d > 125*time.Millisecond {
			t.Fatalf("RandomDelay out of range: %s", d)
		}
	}
}

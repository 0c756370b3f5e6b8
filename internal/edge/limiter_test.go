package edge

import (
	"testing"
	"time"
)

func TestLimiter_BurstProceedsImmediately(t *testing.T) {
	l := NewLimiter(4, 10)
	l.sleep = func(d time.Duration) {
		t.Errorf("unexpected sleep of %v within burst capacity", d)
	}

	for i := 0; i < 10; i++ {
		l.Wait()
	}
}

func TestLimiter_DefaultBurst(t *testing.T) {
	l := NewLimiter(4, 0)
	if l.burst != 10 {
		t.Errorf("expected default burst 10 (2.5x rate), got %v", l.burst)
	}
}

func TestLimiter_SustainedRateConverges(t *testing.T) {
	// 50 tokens/sec, burst 5: 15 calls should take at least (15-5)/50 =
	// 200ms and not much more.
	l := NewLimiter(50, 5)

	start := time.Now()
	for i := 0; i < 15; i++ {
		l.Wait()
	}
	elapsed := time.Since(start)

	if elapsed < 180*time.Millisecond {
		t.Errorf("15 calls at 50/s with burst 5 took %v, expected >= ~200ms", elapsed)
	}
	if elapsed > 600*time.Millisecond {
		t.Errorf("15 calls at 50/s with burst 5 took %v, expected close to 200ms", elapsed)
	}
}

func TestLimiter_SleepDurationMatchesDeficit(t *testing.T) {
	l := NewLimiter(2, 1)

	var slept []time.Duration
	l.sleep = func(d time.Duration) {
		slept = append(slept, d)
		// Simulate the passage of time so the refill sees the tokens.
		l.mu.Lock()
		l.lastRefill = l.lastRefill.Add(-d)
		l.mu.Unlock()
	}

	l.Wait() // consumes the single burst token
	l.Wait() // must wait ~500ms for one token at 2/s

	if len(slept) != 1 {
		t.Fatalf("expected exactly 1 sleep, got %d", len(slept))
	}
	if slept[0] < 400*time.Millisecond || slept[0] > 600*time.Millisecond {
		t.Errorf("expected ~500ms sleep for one token at 2/s, got %v", slept[0])
	}
}

func TestLimiter_TokensCappedAtBurst(t *testing.T) {
	l := NewLimiter(100, 4)
	l.mu.Lock()
	l.lastRefill = l.lastRefill.Add(-10 * time.Second)
	l.refill(time.Now())
	tokens := l.tokens
	l.mu.Unlock()

	if tokens > 4 {
		t.Errorf("tokens %v exceed burst capacity 4 after long idle", tokens)
	}
}

package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MartinaC181/MiGymApp-sub000/internal/infrastructure/logger"
)

func fastConfig() *Config {
	return &Config{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond, BackoffMultiplier: 2}
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), fastConfig(), logger.Discard(), "flaky", func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("boom")
		}
		return "ok", nil
	})
	if err != nil || got != "ok" {
		t.Fatalf("expected ok, got %q (%v)", got, err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestDoGivesUp(t *testing.T) {
	boom := errors.New("boom")
	_, err := Do(context.Background(), fastConfig(), logger.Discard(), "down", func(ctx context.Context) (int, error) {
		return 0, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom, got %v", err)
	}
}

func TestDoStopsOnPermanentError(t *testing.T) {
	rejected := errors.New("rejected")
	calls := 0
	_, err := Do(context.Background(), fastConfig(), logger.Discard(), "bad request", func(ctx context.Context) (int, error) {
		calls++
		return 0, Permanent(rejected)
	})
	if !errors.Is(err, rejected) || calls != 1 {
		t.Fatalf("expected one call returning rejected, got %d calls (%v)", calls, err)
	}
}

func TestDoHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Do(ctx, fastConfig(), logger.Discard(), "cancelled", func(ctx context.Context) (int, error) {
		t.Fatalf("fn must not run")
		return 0, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestCalculateBackoffIsCapped(t *testing.T) {
	cfg := &Config{InitialBackoff: 100 * time.Millisecond, MaxBackoff: 300 * time.Millisecond, BackoffMultiplier: 2}
	if got := calculateBackoff(1, cfg); got != 200*time.Millisecond {
		t.Fatalf("expected 200ms, got %v", got)
	}
	if got := calculateBackoff(5, cfg); got != 300*time.Millisecond {
		t.Fatalf("expected cap of 300ms, got %v", got)
	}
}

func TestWithJitterStaysInBounds(t *testing.T) {
	base := 100 * time.Millisecond
	near := func(got, want time.Duration) bool {
		d := got - want
		return d > -time.Microsecond && d < time.Microsecond
	}
	if got := withJitter(base, 0.2, func() float64 { return 0 }); !near(got, 80*time.Millisecond) {
		t.Fatalf("low roll: expected 80ms, got %v", got)
	}
	if got := withJitter(base, 0.2, func() float64 { return 0.999 }); got > 120*time.Millisecond || got < 119*time.Millisecond {
		t.Fatalf("high roll: expected just under 120ms, got %v", got)
	}
	if got := withJitter(base, 0, func() float64 { return 0.9 }); got != base {
		t.Fatalf("no jitter must not change the wait, got %v", got)
	}
}

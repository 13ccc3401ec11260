package circuitbreaker

import (
	"errors"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(failures, successes int32, cooldown time.Duration) (*CircuitBreaker, *fakeClock, *[]string) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	cb := NewCircuitBreaker(failures, successes, cooldown)
	cb.now = clock.now
	var transitions []string
	cb.SetStateChangeCallback(func(from, to State) {
		transitions = append(transitions, from.String()+"->"+to.String())
	})
	return cb, clock, &transitions
}

func TestBreakerTripsAndRecovers(t *testing.T) {
	cb, clock, transitions := newTestBreaker(2, 2, time.Minute)
	boom := errors.New("boom")
	fail := func() error { return boom }
	ok := func() error { return nil }

	if err := cb.Execute(fail, nil); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	_ = cb.Execute(fail, nil)
	if cb.GetState() != StateOpen {
		t.Fatalf("expected open after 2 failures, got %s", cb.GetState())
	}
	if err := cb.Execute(ok, nil); !errors.Is(err, ErrOpen) {
		t.Fatalf("expected ErrOpen, got %v", err)
	}

	clock.advance(61 * time.Second)
	if err := cb.Execute(ok, nil); err != nil {
		t.Fatalf("expected half-open probe to pass, got %v", err)
	}
	if cb.GetState() != StateHalfOpen {
		t.Fatalf("one success must not close a breaker that needs two, got %s", cb.GetState())
	}
	_ = cb.Execute(ok, nil)
	if cb.GetState() != StateClosed {
		t.Fatalf("expected closed after two successful probes, got %s", cb.GetState())
	}

	want := []string{"closed->open", "open->half_open", "half_open->closed"}
	if len(*transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", *transitions, want)
	}
	for i := range want {
		if (*transitions)[i] != want[i] {
			t.Fatalf("transitions = %v, want %v", *transitions, want)
		}
	}
}

func TestFailedProbeReopens(t *testing.T) {
	cb, clock, _ := newTestBreaker(1, 1, time.Minute)
	boom := errors.New("boom")

	_ = cb.Execute(func() error { return boom }, nil)
	clock.advance(2 * time.Minute)
	_ = cb.Execute(func() error { return boom }, nil)
	if cb.GetState() != StateOpen {
		t.Fatalf("expected reopen after failed probe, got %s", cb.GetState())
	}

	clock.advance(30 * time.Second)
	if err := cb.Execute(func() error { return nil }, nil); !errors.Is(err, ErrOpen) {
		t.Fatalf("cooldown restarts on reopen, got %v", err)
	}
}

func TestSuccessResetsFailureCount(t *testing.T) {
	cb, _, _ := newTestBreaker(2, 1, time.Minute)
	boom := errors.New("boom")

	_ = cb.Execute(func() error { return boom }, nil)
	_ = cb.Execute(func() error { return nil }, nil)
	_ = cb.Execute(func() error { return boom }, nil)
	if cb.GetState() != StateClosed {
		t.Fatalf("failures must be consecutive to trip, got %s", cb.GetState())
	}
}

func TestExecuteIgnoresUncountableErrors(t *testing.T) {
	cb, _, _ := newTestBreaker(1, 1, time.Minute)
	rejected := errors.New("rejected")
	for i := 0; i < 3; i++ {
		err := cb.Execute(func() error { return rejected }, func(err error) bool { return !errors.Is(err, rejected) })
		if !errors.Is(err, rejected) {
			t.Fatalf("expected rejected, got %v", err)
		}
	}
	if cb.GetState() != StateClosed {
		t.Fatalf("client errors must not trip the breaker")
	}
}

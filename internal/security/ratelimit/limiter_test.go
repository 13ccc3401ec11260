package ratelimit

import (
	"testing"
	"time"
)

func TestAllowWithinWindow(t *testing.T) {
	l := NewLimiter(2, time.Minute)
	defer l.Stop()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	if !l.Allow("client-1") || !l.Allow("client-1") {
		t.Fatalf("first two requests should pass")
	}
	if l.Allow("client-1") {
		t.Fatalf("third request should be throttled")
	}
	if !l.Allow("client-2") {
		t.Fatalf("other callers have their own bucket")
	}

	now = now.Add(61 * time.Second)
	if !l.Allow("client-1") {
		t.Fatalf("window should have slid")
	}
}

func TestAllowEmptyKeyAndStrict(t *testing.T) {
	l := NewLimiter(1, time.Minute)
	defer l.Stop()

	for i := 0; i < 5; i++ {
		if !l.Allow("") {
			t.Fatalf("anonymous requests are not limited here")
		}
	}
	if !l.AllowStrict("10.0.0.1", 1, time.Minute) {
		t.Fatalf("first strict request should pass")
	}
	if l.AllowStrict("10.0.0.1", 1, time.Minute) {
		t.Fatalf("second strict request should be throttled")
	}
	if !l.Allow("10.0.0.1") {
		t.Fatalf("strict and regular buckets are separate")
	}
}

func TestEvictStale(t *testing.T) {
	l := NewLimiter(1, time.Minute)
	defer l.Stop()
	now := time.Now()
	l.now = func() time.Time { return now }
	l.Allow("a")

	now = now.Add(time.Hour)
	l.evictStale(15 * time.Minute)
	if len(l.buckets) != 0 {
		t.Fatalf("expected stale bucket to be evicted")
	}
}

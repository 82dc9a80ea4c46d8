package metrics

import (
	"testing"
	"time"
)

func TestCollectorRecordsOutcomeClasses(t *testing.T) {
	c := New()
	c.Record(200, 10*time.Millisecond)
	c.Record(201, 20*time.Millisecond)
	c.Record(400, 5*time.Millisecond)
	c.Record(401, 5*time.Millisecond)
	c.Record(403, 5*time.Millisecond)
	c.Record(429, 5*time.Millisecond)
	c.Record(500, 50*time.Millisecond)

	snap := c.Snapshot()
	if snap["requestsTotal"] != uint64(7) {
		t.Fatalf("expected 7 requests, got %v", snap["requestsTotal"])
	}
	if snap["clientErrorsTotal"] != uint64(4) {
		t.Fatalf("expected 4 client errors, got %v", snap["clientErrorsTotal"])
	}
	if snap["serverErrorsTotal"] != uint64(1) {
		t.Fatalf("expected 1 server error, got %v", snap["serverErrorsTotal"])
	}
	if snap["authRejectedTotal"] != uint64(2) {
		t.Fatalf("expected 2 auth rejections, got %v", snap["authRejectedTotal"])
	}
	if snap["rateLimitedTotal"] != uint64(1) {
		t.Fatalf("expected 1 rate limited, got %v", snap["rateLimitedTotal"])
	}
	if snap["avgDurationMs"] != float64(100)/7 {
		t.Fatalf("unexpected average duration: %v", snap["avgDurationMs"])
	}
}

func TestCollectorEmptySnapshot(t *testing.T) {
	snap := New().Snapshot()
	if snap["requestsTotal"] != uint64(0) || snap["avgDurationMs"] != float64(0) {
		t.Fatalf("unexpected empty snapshot: %v", snap)
	}
}

package ratelimit

import (
	"testing"
	"time"
)

func TestAllowRefills(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New()
	l.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if ok, _ := l.Allow("rerun", 2, 0.5); !ok {
			t.Fatalf("token %d should be available", i)
		}
	}
	ok, wait := l.Allow("rerun", 2, 0.5)
	if ok || wait != 2*time.Second {
		t.Fatalf("expected limit with 2s wait, got %v %s", ok, wait)
	}

	now = now.Add(2 * time.Second)
	if ok, _ := l.Allow("rerun", 2, 0.5); !ok {
		t.Fatal("bucket should have refilled one token")
	}
	if ok, _ := l.Allow("other", 1, 0.5); !ok {
		t.Fatal("keys must not share buckets")
	}
}

package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type payload struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

func TestMemoryRoundTripsJSON(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()

	if err := mc.Set(ctx, "a", payload{Name: "tau", Value: 2}, time.Minute); err != nil {
		t.Fatal(err)
	}
	got, err := GetTyped[payload](ctx, mc, "a")
	if err != nil || got.Name != "tau" || got.Value != 2 {
		t.Fatalf("got %+v, %v", got, err)
	}
	if err := mc.Get(ctx, "missing", &got); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss, got %v", err)
	}
}

func TestMemoryExpiresAndEvicts(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()
	mc.now = func() time.Time { return now }

	_ = mc.Set(ctx, "old", "1", time.Second)
	now = now.Add(time.Millisecond)
	_ = mc.Set(ctx, "new", "2", time.Hour)
	now = now.Add(time.Millisecond)
	_ = mc.Set(ctx, "newest", "3", time.Hour)

	if ok, _ := mc.Exists(ctx, "old"); ok {
		t.Fatal("least recently used entry should have been evicted")
	}
	if mc.Len() != 2 {
		t.Fatalf("len %d", mc.Len())
	}

	now = now.Add(2 * time.Hour)
	var s string
	if err := mc.Get(ctx, "new", &s); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected expiry, got %v (%q)", err, s)
	}
}

func TestLayeredBackfillsMemory(t *testing.T) {
	ctx := context.Background()
	l2 := NewMemoryCache()
	lc := NewLayeredCache(l2, WithLayeredMemorySize(4))
	defer lc.Close()

	_ = l2.Set(ctx, "k", payload{Name: "mu", Value: 0.5}, time.Hour)
	var p payload
	if err := lc.Get(ctx, "k", &p); err != nil || p.Value != 0.5 {
		t.Fatalf("l2 read: %+v %v", p, err)
	}

	_ = l2.Delete(ctx, "k")
	p = payload{}
	if err := lc.Get(ctx, "k", &p); err != nil || p.Name != "mu" {
		t.Fatalf("expected l1 hit after backfill: %+v %v", p, err)
	}

	_ = lc.Delete(ctx, "k")
	if ok, _ := lc.Exists(ctx, "k"); ok {
		t.Fatal("delete should clear both layers")
	}
}

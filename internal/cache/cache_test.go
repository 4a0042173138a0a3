package cache

import (
	"testing"
	"time"
)

func TestGetSet(t *testing.T) {
	c, err := New[string](10, time.Minute)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, ok := c.Get("missing"); ok {
		t.Error("hit for a key never set")
	}

	c.Set("k", "v")
	got, ok := c.Get("k")
	if !ok || got != "v" {
		t.Errorf("Get = (%q, %v), want (v, true)", got, ok)
	}
}

func TestExpiry(t *testing.T) {
	c, err := New[int](10, time.Minute)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	base := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	now := base
	c.now = func() time.Time { return now }

	c.Set("k", 42)

	now = base.Add(59 * time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Error("entry expired before its TTL")
	}

	now = base.Add(61 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Error("entry survived past its TTL")
	}

	// The expired entry was evicted, not just hidden.
	if c.Len() != 0 {
		t.Errorf("Len = %d after expiry eviction, want 0", c.Len())
	}
}

func TestLRUEviction(t *testing.T) {
	c, err := New[int](2, time.Hour)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3) // evicts a

	if _, ok := c.Get("a"); ok {
		t.Error("oldest entry not evicted at capacity")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("newest entry missing")
	}
}

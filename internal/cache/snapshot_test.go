package cache

import (
	"testing"
	"time"

	"financas/internal/core"
)

func TestSnapshotCacheRoundTrip(t *testing.T) {
	c := NewSnapshotCache(10, time.Minute)

	if _, ok := c.Get(1); ok {
		t.Fatal("empty cache returned a snapshot")
	}

	snap := core.Snapshot{Categories: []core.Category{{ID: 1, Name: "Mercado"}}}
	c.Set(1, snap)

	got, ok := c.Get(1)
	if !ok {
		t.Fatal("snapshot missing after Set")
	}
	if len(got.Categories) != 1 || got.Categories[0].Name != "Mercado" {
		t.Errorf("got %+v", got)
	}

	if _, ok := c.Get(2); ok {
		t.Error("user 2 sees user 1's snapshot")
	}
}

func TestSnapshotCacheInvalidate(t *testing.T) {
	c := NewSnapshotCache(10, time.Minute)
	c.Set(1, core.Snapshot{})
	c.Invalidate(1)

	if _, ok := c.Get(1); ok {
		t.Error("snapshot survived invalidation")
	}
}

func TestSnapshotCacheTTL(t *testing.T) {
	c := NewSnapshotCache(10, 10*time.Millisecond)
	c.Set(1, core.Snapshot{})

	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get(1); ok {
		t.Error("expired snapshot returned")
	}
	if n := c.CleanExpired(); n != 0 {
		// Get already evicted the expired entry.
		t.Errorf("CleanExpired removed %d entries after eviction on read", n)
	}
}

func TestSnapshotCacheEviction(t *testing.T) {
	c := NewSnapshotCache(2, time.Minute)
	c.Set(1, core.Snapshot{})
	c.Set(2, core.Snapshot{})
	c.Set(3, core.Snapshot{})

	if c.Size() != 2 {
		t.Fatalf("size = %d, want 2", c.Size())
	}
	if _, ok := c.Get(1); ok {
		t.Error("oldest entry not evicted")
	}
}

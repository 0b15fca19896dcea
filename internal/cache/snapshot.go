package cache

import (
	"strconv"
	"time"

	"financas/internal/core"
)

// SnapshotCache keys loaded snapshots by owning user. Any mutation to a
// user's data invalidates their entry so the next read rebuilds from storage.
type SnapshotCache struct {
	lru *LRUCache[core.Snapshot]
}

func NewSnapshotCache(maxUsers int, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{lru: NewLRUCache[core.Snapshot](maxUsers, ttl)}
}

func (c *SnapshotCache) Get(userID int64) (core.Snapshot, bool) {
	return c.lru.Get(userKey(userID))
}

func (c *SnapshotCache) Set(userID int64, snap core.Snapshot) {
	c.lru.Set(userKey(userID), snap)
}

func (c *SnapshotCache) Invalidate(userID int64) {
	c.lru.Delete(userKey(userID))
}

func (c *SnapshotCache) CleanExpired() int { return c.lru.CleanExpired() }

func (c *SnapshotCache) Size() int { return c.lru.Size() }

func userKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

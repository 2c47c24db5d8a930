package flowcache

import (
	"fmt"
	"net/netip"
	"time"
)

const (
	// SoftLimit is the cardinality above which MaybeEvict sweeps stale entries.
	SoftLimit = 4096
	// MaxAge is how long an entry survives a sweep.
	MaxAge = 2 * time.Second

	initialCapacity = 2048
)

// FlowKey identifies one direction of a UDP conversation.
type FlowKey struct {
	SrcAddr netip.Addr
	SrcPort uint16
	DstAddr netip.Addr
	DstPort uint16
}

// Reverse returns the key of the paired direction.
func (k FlowKey) Reverse() FlowKey {
	return FlowKey{
		SrcAddr: k.DstAddr,
		SrcPort: k.DstPort,
		DstAddr: k.SrcAddr,
		DstPort: k.SrcPort,
	}
}

func (k FlowKey) String() string {
	return fmt.Sprintf("%s->%s",
		netip.AddrPortFrom(k.SrcAddr, k.SrcPort),
		netip.AddrPortFrom(k.DstAddr, k.DstPort))
}

// Cache maps recent flow keys to the time they were last seen.
//
// The size is soft-bounded: once it exceeds SoftLimit entries, every entry
// older than MaxAge is removed in a single pass. Bursts may push the size
// above SoftLimit until the next sweep. A Cache is not safe for concurrent
// use; it is owned by the capture goroutine.
type Cache struct {
	entries map[FlowKey]time.Time

	// OnSweep, if set, is called after every sweep.
	OnSweep func(removed, remaining int)
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[FlowKey]time.Time, initialCapacity)}
}

// Lookup returns the last-seen time of key.
func (c *Cache) Lookup(key FlowKey) (time.Time, bool) {
	ts, ok := c.entries[key]
	return ts, ok
}

// Insert records key as seen at ts, replacing any previous timestamp.
func (c *Cache) Insert(key FlowKey, ts time.Time) {
	c.entries[key] = ts
}

// MaybeEvict sweeps entries older than MaxAge relative to now, but only when
// the cache holds more than SoftLimit entries. It returns how many entries
// were removed.
func (c *Cache) MaybeEvict(now time.Time) int {
	if len(c.entries) <= SoftLimit {
		return 0
	}
	cutoff := now.Add(-MaxAge)
	removed := 0
	for k, ts := range c.entries {
		if ts.Before(cutoff) {
			delete(c.entries, k)
			removed++
		}
	}
	if c.OnSweep != nil {
		c.OnSweep(removed, len(c.entries))
	}
	return removed
}

// Len returns the number of tracked flows.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Reset drops every entry.
func (c *Cache) Reset() {
	c.entries = make(map[FlowKey]time.Time, initialCapacity)
}

package crawler

import (
	"github.com/cespare/xxhash/v2"
)

// FingerprintCache is a fixed-capacity approximate-membership table of
// recently visited URIs. Each URI hashes to a 64-bit fingerprint; the low
// maskBits bits index a slot holding the last full fingerprint written
// there. A colliding URI silently evicts the previous occupant, so the
// structure can report false negatives (a revisit after eviction) but never
// a false positive short of a true 64-bit hash collision.
type FingerprintCache struct {
	table []uint64
	mask  uint64
}

// NewFingerprintCache builds a cache with 2^maskBits slots.
func NewFingerprintCache(maskBits int) *FingerprintCache {
	if maskBits <= 0 {
		maskBits = 8
	}
	size := uint64(1) << uint(maskBits)
	return &FingerprintCache{
		table: make([]uint64, size),
		mask:  size - 1,
	}
}

// Check reports whether the uri's fingerprint is the current occupant of its
// slot, i.e. whether the uri was recently visited.
func (c *FingerprintCache) Check(uri string) bool {
	fp := xxhash.Sum64String(uri)
	return c.table[fp&c.mask] == fp
}

// Put records a visit to uri. It returns true when a different fingerprint
// already occupied the slot and was overwritten; collisions are expected and
// informational, not errors.
func (c *FingerprintCache) Put(uri string) bool {
	fp := xxhash.Sum64String(uri)
	slot := fp & c.mask
	collision := c.table[slot] != 0 && c.table[slot] != fp
	c.table[slot] = fp
	return collision
}

// Clear resets every slot to empty.
func (c *FingerprintCache) Clear() {
	for i := range c.table {
		c.table[i] = 0
	}
}

// Len returns the number of slots in the table.
func (c *FingerprintCache) Len() int {
	return len(c.table)
}

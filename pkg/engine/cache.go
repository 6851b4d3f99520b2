package engine

import (
	"sync"

	"github.com/halvarsen/bgadvisor/internal/positionid"
)

// Cache constants
const (
	DefaultCacheSize = 1 << 20 // 1M entries (52 bytes each: 28-byte key, 4-byte context, 5 floats)
	CacheHit         = ^uint32(0)
)

// CacheEntry stores a cached evaluation result
type CacheEntry struct {
	Key         positionid.PositionKey // Position key (7 uint32s = 28 bytes)
	EvalContext int32                  // Evaluation context digest (see EvalContext.Digest)
	Output      [5]float32             // win/gammon/backgammon probabilities
}

// EvalCache is a thread-safe position evaluation cache
// Uses a two-way associative cache with MurmurHash3-based indexing
type EvalCache struct {
	entries  []cacheNode
	size     uint32
	hashMask uint32

	// Statistics
	lookups uint64
	hits    uint64
	adds    uint64

	mu sync.RWMutex
}

// cacheNode holds primary and secondary entries for two-way associative cache
type cacheNode struct {
	primary   CacheEntry
	secondary CacheEntry
}

// NewEvalCache creates a new evaluation cache with the given size
// Size will be adjusted to the nearest power of 2
func NewEvalCache(size uint32) *EvalCache {
	// Adjust size to power of 2
	if size > 1<<31 {
		size = 1 << 31
	}

	// Find smallest power of 2 >= size
	p := uint32(1)
	for p < size {
		p <<= 1
	}
	size = p

	cache := &EvalCache{
		entries:  make([]cacheNode, size/2),
		size:     size,
		hashMask: (size / 2) - 1,
	}

	cache.Flush()
	return cache
}

// Flush clears all entries from the cache
func (c *EvalCache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Only the key's first word is marked invalid; the remaining words are
	// left as-is since a mismatch on word 0 alone is sufficient to miss.
	for i := range c.entries {
		c.entries[i].primary.Key.Data[0] = ^uint32(0)
		c.entries[i].secondary.Key.Data[0] = ^uint32(0)
	}
	c.lookups = 0
	c.hits = 0
	c.adds = 0
}

// hash computes the hash key for a cache entry using MurmurHash3-style
// mixing, seeded from the eval-context digest first and then folding in the
// key's 7 words - the same order as gnubg's GetHashKey, not the reverse.
func (c *EvalCache) hash(key positionid.PositionKey, evalContext int32) uint32 {
	// MurmurHash3 constants
	const c1 = 0xcc9e2d51
	const c2 = 0x1b873593

	// Seed from the evaluation context
	k := uint32(evalContext)
	k *= c1
	k = (k << 15) | (k >> 17)
	k *= c2

	h := k
	h = (h << 13) | (h >> 19)
	h = h*5 + 0xe6546b64

	// Fold in the position key's words
	for _, k := range key.Data {
		k *= c1
		k = (k << 15) | (k >> 17)
		k *= c2

		h ^= k
		h = (h << 13) | (h >> 19)
		h = h*5 + 0xe6546b64
	}

	// Finalization
	h ^= 32
	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16

	return h & c.hashMask
}

// keysEqual compares two position keys for equality
func keysEqual(a, b positionid.PositionKey) bool {
	return a.Data == b.Data
}

// Lookup checks if a position is in the cache.
// Returns CacheHit if found (outputs filled), otherwise returns the hash
// slot for a subsequent Add. A secondary-slot hit promotes that entry to
// primary in place, so Lookup takes the write lock rather than a read lock -
// the bucket approximates LRU-of-two only if every hit can touch it.
func (c *EvalCache) Lookup(key positionid.PositionKey, evalContext int32, output []float32) uint32 {
	slot := c.hash(key, evalContext)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.lookups++

	node := &c.entries[slot]

	// Check primary slot
	if keysEqual(node.primary.Key, key) && node.primary.EvalContext == evalContext {
		copy(output, node.primary.Output[:])
		c.hits++
		return CacheHit
	}

	// Check secondary slot: promote it to primary before returning.
	if keysEqual(node.secondary.Key, key) && node.secondary.EvalContext == evalContext {
		copy(output, node.secondary.Output[:])
		node.primary, node.secondary = node.secondary, node.primary
		c.hits++
		return CacheHit
	}

	return slot
}

// Add adds an evaluation result to the cache
// slot should be the value returned by a previous Lookup miss
func (c *EvalCache) Add(key positionid.PositionKey, evalContext int32, output []float32, slot uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node := &c.entries[slot]

	// Move primary to secondary, add new as primary
	node.secondary = node.primary
	node.primary = CacheEntry{
		Key:         key,
		EvalContext: evalContext,
	}
	copy(node.primary.Output[:], output[:])

	c.adds++
}

// Stats returns cache statistics
func (c *EvalCache) Stats() (lookups, hits, adds uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lookups, c.hits, c.adds
}

// HitRate returns the cache hit rate as a percentage
func (c *EvalCache) HitRate() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.lookups == 0 {
		return 0
	}
	return float64(c.hits) / float64(c.lookups) * 100
}

// EvalContext carries the parameters (other than the board itself) that
// determine how a position is evaluated: ply depth, whether the result
// folds in cubeful equity, which move-filter preset bounds the search, and
// the prune-net and determinism flags. Two evaluations of the same board
// under different EvalContext values are different cache entries.
type EvalContext struct {
	Plies         int
	Cubeful       bool
	MoveFilter    MoveFilterPreset
	PruneDisabled bool
	Deterministic bool
}

// Digest packs ctx into the int32 folded into the cache's hash seed
// alongside the PositionKey (see EvalCache.hash).
//
// Bit layout:
//
//	Bits 0-3: plies (0-15)
//	Bit 4: cubeful
//	Bits 5-7: move-filter preset
//	Bit 8: prune disabled
//	Bit 9: deterministic
func (ctx EvalContext) Digest() int32 {
	d := int32(ctx.Plies & 0xF)
	if ctx.Cubeful {
		d |= 1 << 4
	}
	d |= int32(ctx.MoveFilter&0x7) << 5
	if ctx.PruneDisabled {
		d |= 1 << 8
	}
	if ctx.Deterministic {
		d |= 1 << 9
	}
	return d
}

// MakeEvalContext packs ctx into the int32 cache key used by Lookup/Add.
func MakeEvalContext(ctx EvalContext) int32 {
	return ctx.Digest()
}

// Package reference replays address streams through Akita's cache
// directory. Akita keeps an explicit LRU queue per set, which makes it an
// independent model to check the aging-counter engine against.
package reference

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"

	"github.com/sarchlab/cachesim/cache"
)

// Checker models a cache with the same geometry using Akita components.
type Checker struct {
	geometry cache.Geometry

	// Akita cache directory for tag/state management
	directory *akitacache.DirectoryImpl

	stats cache.Statistics
}

// NewChecker creates a Checker. Akita blocks are sized in cells, so a
// memory address maps to the same set in both models.
func NewChecker(g cache.Geometry) *Checker {
	return &Checker{
		geometry: g,
		directory: akitacache.NewDirectory(
			g.NumSets(),
			g.LinesPerSet,
			g.CellsPerBlock,
			akitacache.NewLRUVictimFinder(),
		),
	}
}

// Stats returns the checker's access statistics.
func (c *Checker) Stats() cache.Statistics {
	return c.stats
}

// Reset invalidates every block and clears the statistics.
func (c *Checker) Reset() {
	c.directory.Reset()
	c.stats = cache.Statistics{}
}

// Access looks addr up and fills its block on a miss. It returns whether
// the access hit.
func (c *Checker) Access(addr uint64) bool {
	c.stats.Accesses++

	blockAddr := c.geometry.BlockStart(addr)

	block := c.directory.Lookup(0, blockAddr)
	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block) // Update LRU
		return true
	}

	c.stats.Misses++

	victim := c.directory.FindVictim(blockAddr)
	if victim == nil {
		// This shouldn't happen with proper directory setup
		return false
	}

	if victim.IsValid {
		c.stats.Evictions++
	}

	// Tag stores the block-aligned address
	victim.Tag = blockAddr
	victim.IsValid = true
	victim.IsDirty = false
	c.directory.Visit(victim)

	return false
}

// Mismatch is an access the two models disagree on.
type Mismatch struct {
	// Seq is the position of the access in the stream.
	Seq          int
	Address      uint64
	EngineHit    bool
	ReferenceHit bool
}

// Comparison is the result of replaying one stream through both models.
type Comparison struct {
	Engine     cache.Statistics
	Reference  cache.Statistics
	Mismatches []Mismatch
}

// Agree reports whether both models produced the same outcome for every
// access.
func (c Comparison) Agree() bool {
	return len(c.Mismatches) == 0 && c.Engine == c.Reference
}

// Compare replays addrs through a fresh engine and a fresh Checker. Every
// address must be in range for g.
func Compare(g cache.Geometry, addrs []uint64) Comparison {
	store := cache.NewStore(g)
	checker := NewChecker(g)

	var mismatches []Mismatch
	for i, addr := range addrs {
		engineHit := store.Access(addr).Hit
		referenceHit := checker.Access(addr)

		if engineHit != referenceHit {
			mismatches = append(mismatches, Mismatch{
				Seq:          i,
				Address:      addr,
				EngineHit:    engineHit,
				ReferenceHit: referenceHit,
			})
		}
	}

	return Comparison{
		Engine:     store.Stats(),
		Reference:  checker.Stats(),
		Mismatches: mismatches,
	}
}

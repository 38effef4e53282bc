// Package cache models a set-associative cache that sits between an address
// stream and a main memory. Lines are replaced with an aging-counter LRU
// policy.
package cache

import (
	"errors"
	"fmt"
	"math/bits"
)

// ErrInvalidGeometry is returned when the cache or memory sizes cannot be
// mapped onto address bit fields.
var ErrInvalidGeometry = errors.New("invalid cache geometry")

// Geometry holds the sizes of the memory and the cache together with the
// address bit-field widths derived from them.
type Geometry struct {
	// MemoryCells is the number of addressable cells in main memory.
	MemoryCells int
	// CellsPerBlock is the number of cells moved into a line on a fill.
	CellsPerBlock int
	// TotalLines is the number of lines in the whole cache.
	TotalLines int
	// LinesPerSet is the associativity.
	LinesPerSet int

	// AddressBits is the width of a memory address.
	AddressBits int
	// BlockOffsetBits selects a cell within a block.
	BlockOffsetBits int
	// SetIndexBits selects a set.
	SetIndexBits int
	// TagBits identifies the block held by a line.
	TagBits int
}

// NewGeometry derives the address bit-field widths. All sizes must be
// positive powers of two, a set must hold at least two lines, and the cache
// cannot map more cells per way than the memory has.
func NewGeometry(
	memoryCells, cellsPerBlock, totalLines, linesPerSet int,
) (Geometry, error) {
	sizes := []struct {
		name  string
		value int
	}{
		{"memory cells", memoryCells},
		{"cells per block", cellsPerBlock},
		{"cache lines", totalLines},
		{"lines per set", linesPerSet},
	}
	for _, s := range sizes {
		if !isPowerOfTwo(s.value) {
			return Geometry{}, fmt.Errorf("%w: %s (%d) is not a power of two",
				ErrInvalidGeometry, s.name, s.value)
		}
	}

	if linesPerSet < 2 {
		return Geometry{}, fmt.Errorf("%w: a set needs at least 2 lines, got %d",
			ErrInvalidGeometry, linesPerSet)
	}

	if linesPerSet > totalLines {
		return Geometry{}, fmt.Errorf(
			"%w: %d lines per set exceeds %d cache lines",
			ErrInvalidGeometry, linesPerSet, totalLines)
	}

	numSets := totalLines / linesPerSet
	if numSets*cellsPerBlock > memoryCells {
		return Geometry{}, fmt.Errorf(
			"%w: %d sets of %d-cell blocks cover more than %d memory cells",
			ErrInvalidGeometry, numSets, cellsPerBlock, memoryCells)
	}

	g := Geometry{
		MemoryCells:     memoryCells,
		CellsPerBlock:   cellsPerBlock,
		TotalLines:      totalLines,
		LinesPerSet:     linesPerSet,
		AddressBits:     log2(memoryCells),
		BlockOffsetBits: log2(cellsPerBlock),
		SetIndexBits:    log2(numSets),
	}
	g.TagBits = g.AddressBits - g.BlockOffsetBits - g.SetIndexBits

	return g, nil
}

// NumSets returns the number of sets in the cache.
func (g Geometry) NumSets() int {
	return g.TotalLines / g.LinesPerSet
}

// MaxAddress returns the highest valid memory address.
func (g Geometry) MaxAddress() uint64 {
	return uint64(g.MemoryCells) - 1
}

func isPowerOfTwo(v int) bool {
	return v > 0 && v&(v-1) == 0
}

// log2 is exact because every caller has checked isPowerOfTwo.
func log2(v int) int {
	return bits.TrailingZeros(uint(v))
}

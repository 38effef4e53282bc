package cache

import "fmt"

// Address is a memory address split into its cache fields. From the most
// significant bit down the fields are tag, set index and block offset.
type Address struct {
	Tag         uint64
	SetIndex    uint64
	BlockOffset uint64
	// BlockStart is the first address of the block containing the address.
	BlockStart uint64
}

// Decode splits addr into tag, set index and block offset.
func (g Geometry) Decode(addr uint64) Address {
	return Address{
		Tag:         (addr >> (g.BlockOffsetBits + g.SetIndexBits)) & mask(g.TagBits),
		SetIndex:    (addr >> g.BlockOffsetBits) & mask(g.SetIndexBits),
		BlockOffset: addr & mask(g.BlockOffsetBits),
		BlockStart:  g.BlockStart(addr),
	}
}

// BlockStart returns the address of the first cell of the block holding
// addr.
func (g Geometry) BlockStart(addr uint64) uint64 {
	return addr - addr%uint64(g.CellsPerBlock)
}

// Join concatenates the fields back into the address they were decoded
// from.
func (a Address) Join(g Geometry) uint64 {
	return a.Tag<<(g.SetIndexBits+g.BlockOffsetBits) |
		a.SetIndex<<g.BlockOffsetBits |
		a.BlockOffset
}

// FormatBits renders v as a fixed-width binary string, most significant bit
// first. A zero width renders as an empty string.
func FormatBits(v uint64, width int) string {
	if width <= 0 {
		return ""
	}

	return fmt.Sprintf("%0*b", width, v&mask(width))
}

func mask(width int) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}

	return uint64(1)<<width - 1
}

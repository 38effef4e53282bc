// Package memory describes the main memory behind the cache. Only the
// address range is modeled; cell contents are not.
package memory

// CellSize is the size of a memory cell in bytes.
const CellSize = 4

// KB is the number of bytes in a kilobyte.
const KB = 1024

// MainMemory is the main memory layout.
type MainMemory struct {
	// SizeKB is the memory size in kilobytes.
	SizeKB int
	// TotalCells is the number of addressable cells.
	TotalCells int
	// CellsPerBlock is the number of cells moved to the cache at once.
	CellsPerBlock int
}

// New creates a MainMemory of sizeKB kilobytes split into blocks of
// cellsPerBlock cells.
func New(sizeKB, cellsPerBlock int) MainMemory {
	return MainMemory{
		SizeKB:        sizeKB,
		TotalCells:    sizeKB * KB / CellSize,
		CellsPerBlock: cellsPerBlock,
	}
}

// MaxAddress returns the highest valid cell address.
func (m MainMemory) MaxAddress() int64 {
	return int64(m.TotalCells) - 1
}

// Contains reports whether addr is a valid cell address.
func (m MainMemory) Contains(addr int64) bool {
	return addr >= 0 && addr <= m.MaxAddress()
}

// NumBlocks returns the number of blocks in memory.
func (m MainMemory) NumBlocks() int {
	if m.CellsPerBlock == 0 {
		return 0
	}

	return m.TotalCells / m.CellsPerBlock
}

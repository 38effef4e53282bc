// Package recording stores the accesses of a simulation for later
// analysis.
package recording

import "github.com/sarchlab/cachesim/cache"

// Entry is one recorded access. Fields are kept to plain values so that
// each maps onto a database column.
type Entry struct {
	RunID       string
	Seq         uint64
	Address     uint64
	Tag         uint64
	SetIndex    uint64
	BlockOffset uint64
	Hit         bool
	Line        int
	Evicted     bool
	EvictedTag  uint64
}

// NewEntry flattens an access result.
func NewEntry(runID string, seq uint64, r cache.AccessResult) Entry {
	return Entry{
		RunID:       runID,
		Seq:         seq,
		Address:     r.Address,
		Tag:         r.Decoded.Tag,
		SetIndex:    r.Decoded.SetIndex,
		BlockOffset: r.Decoded.BlockOffset,
		Hit:         r.Hit,
		Line:        r.Line,
		Evicted:     r.Evicted,
		EvictedTag:  r.EvictedTag,
	}
}

// A Recorder buffers entries and writes them out on Flush.
type Recorder interface {
	Record(e Entry)
	Flush() error
	Close() error
}

// Nop is a Recorder that keeps nothing.
type Nop struct{}

// Record does nothing.
func (Nop) Record(Entry) {}

// Flush does nothing.
func (Nop) Flush() error { return nil }

// Close does nothing.
func (Nop) Close() error { return nil }

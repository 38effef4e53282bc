package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/config"
)

var (
	accessRule = strings.Repeat("=", 86)
	setRule    = strings.Repeat("-", 30)
	dumpRule   = strings.Repeat("=", 33)
)

// Text writes human-readable reports. After the first failed write the
// rest of the output is dropped and Err returns the failure.
type Text struct {
	w *errWriter
}

// NewText creates a Text reporter writing to w.
func NewText(w io.Writer) *Text {
	return &Text{w: &errWriter{w: w}}
}

// Err returns the first write error.
func (t *Text) Err() error {
	return t.w.err
}

// ReportConfig prints the memory and cache layout.
func (t *Text) ReportConfig(c config.Config, g cache.Geometry) {
	m := c.MainMemory()

	fmt.Fprintf(t.w, "\n=== Main memory ===\n")
	fmt.Fprintf(t.w, "\tSize: %d KB\n", c.MemorySizeKB)
	fmt.Fprintf(t.w, "\tCells per block: %d\n", c.CellsPerBlock)
	fmt.Fprintf(t.w, "\tTotal cells: %d\n", m.TotalCells)
	fmt.Fprintf(t.w, "\tHighest address: %d\n", m.MaxAddress())

	fmt.Fprintf(t.w, "\n=== Cache ===\n")
	fmt.Fprintf(t.w, "\tSize: %d KB\n", c.CacheSizeKB)
	fmt.Fprintf(t.w, "\tLines: %d\n", g.TotalLines)
	fmt.Fprintf(t.w, "\tLines per set: %d\n", g.LinesPerSet)
	fmt.Fprintf(t.w, "\tSets: %d\n", g.NumSets())
	fmt.Fprintf(t.w, "\tCells per block: %d\n", g.CellsPerBlock)
	fmt.Fprintf(t.w, "\tAddress bits: %d\n", g.AddressBits)
	fmt.Fprintf(t.w, "\tBlock offset bits: %d\n", g.BlockOffsetBits)
	fmt.Fprintf(t.w, "\tSet index bits: %d\n", g.SetIndexBits)
	fmt.Fprintf(t.w, "\tTag bits: %d\n", g.TagBits)
}

// ReportAccess prints the set before the access and the outcome. After a
// miss it also prints the set with the replaced line marked.
func (t *Text) ReportAccess(r cache.AccessResult, g cache.Geometry) {
	set := r.SetIndex()

	fmt.Fprintln(t.w, accessRule)
	t.writeSet(set, r.Before, g, -1)

	if r.Hit {
		fmt.Fprintf(t.w, "Cache HIT: address %d found in set %d, line %d.\n",
			r.Address, set, r.Line)
		fmt.Fprintln(t.w, accessRule)
		return
	}

	fmt.Fprintf(t.w,
		"Cache MISS: address %d not found in set %d. Looking for a line to replace...\n",
		r.Address, set)
	fmt.Fprintf(t.w, "Replacing line %d in set %d with tag %s.\n",
		r.Line, set, formatTag(r.Decoded.Tag, g))
	t.writeSet(set, r.After, g, r.Line)
	fmt.Fprintln(t.w, accessRule)
}

// ReportRejected prints why an address was skipped.
func (t *Text) ReportRejected(_ int64, err error) {
	fmt.Fprintf(t.w, "Error: %v\n", err)
}

// ReportStats prints hit and miss counts with their rates.
func (t *Text) ReportStats(s cache.Statistics) {
	fmt.Fprintf(t.w, "\n=== Cache statistics ===\n")
	fmt.Fprintf(t.w, "Accesses: %d\n", s.Accesses)
	fmt.Fprintf(t.w, "Hits: %d (%.2f%%)\n", s.Hits, 100*s.HitRate())
	fmt.Fprintf(t.w, "Misses: %d (%.2f%%)\n", s.Misses, 100*s.MissRate())
	fmt.Fprintf(t.w, "Evictions: %d\n", s.Evictions)
}

// ReportDump prints every line of every set.
func (t *Text) ReportDump(sets []cache.Set, g cache.Geometry) {
	fmt.Fprintf(t.w, "\n=== Cache contents ===\n")
	for i, set := range sets {
		fmt.Fprintf(t.w, "Set %d:\n", i)
		for j, line := range set.Lines {
			t.writeLine("  ", j, line, g)
		}
	}
	fmt.Fprintln(t.w, dumpRule)
}

// writeSet prints one set, pointing at line marked.
func (t *Text) writeSet(index int, set cache.Set, g cache.Geometry, marked int) {
	fmt.Fprintf(t.w, "\nCache state (set %d):\n", index)
	fmt.Fprintln(t.w, setRule)
	for i, line := range set.Lines {
		prefix := "   "
		if i == marked {
			prefix = "-> "
		}
		t.writeLine(prefix, i, line, g)
	}
	fmt.Fprintln(t.w, setRule)
}

func (t *Text) writeLine(prefix string, i int, line cache.Line, g cache.Geometry) {
	if !line.Valid {
		fmt.Fprintf(t.w, "%sLine %2d: [ ]\n", prefix, i)
		return
	}

	fmt.Fprintf(t.w, "%sLine %2d: [V] Tag: %s, Block: [%s] Use: %d\n",
		prefix, i, formatTag(line.Tag, g),
		joinAddrs(line.Block), line.Recency)
}

func joinAddrs(addrs []uint64) string {
	parts := make([]string, len(addrs))
	for i, a := range addrs {
		parts[i] = fmt.Sprint(a)
	}

	return strings.Join(parts, ", ")
}

// formatTag renders a tag as bits, or "-" when the geometry leaves no tag
// bits.
func formatTag(tag uint64, g cache.Geometry) string {
	if g.TagBits == 0 {
		return "-"
	}

	return cache.FormatBits(tag, g.TagBits)
}

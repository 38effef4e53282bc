package cache

// Line is one cache line.
type Line struct {
	// Valid is false until the line is filled for the first time.
	Valid bool
	// Tag identifies the memory block held by the line.
	Tag uint64
	// Recency counts accesses to the set since the line was last touched.
	// The line with the highest value is the least recently used.
	Recency uint64
	// Block lists the addresses of the cells held by the line. It is nil
	// before the first fill.
	Block []uint64
}

// Set is a group of lines sharing one set index. Line order is fixed.
type Set struct {
	Lines []Line
}

func (s Set) clone() Set {
	lines := make([]Line, len(s.Lines))
	for i, l := range s.Lines {
		lines[i] = l
		if l.Block != nil {
			lines[i].Block = append([]uint64(nil), l.Block...)
		}
	}

	return Set{Lines: lines}
}

// Store holds every set of the cache and the access counters.
type Store struct {
	geometry Geometry
	sets     []Set
	stats    Statistics
}

// NewStore creates a store with all lines invalid.
func NewStore(g Geometry) *Store {
	s := &Store{geometry: g}
	s.Reset()

	return s
}

// Reset discards every line and clears the statistics.
func (s *Store) Reset() {
	s.sets = make([]Set, s.geometry.NumSets())
	for i := range s.sets {
		s.sets[i].Lines = make([]Line, s.geometry.LinesPerSet)
	}

	s.stats = Statistics{}
}

// Geometry returns the geometry the store was built with.
func (s *Store) Geometry() Geometry {
	return s.geometry
}

// NumSets returns the number of sets.
func (s *Store) NumSets() int {
	return len(s.sets)
}

// Set returns a copy of the set at index i.
func (s *Store) Set(i int) Set {
	return s.sets[i].clone()
}

// Sets returns a copy of every set.
func (s *Store) Sets() []Set {
	sets := make([]Set, len(s.sets))
	for i := range s.sets {
		sets[i] = s.sets[i].clone()
	}

	return sets
}

// Stats returns the access statistics.
func (s *Store) Stats() Statistics {
	return s.stats
}

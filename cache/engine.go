package cache

// AccessResult describes one access and the state of the set it touched.
type AccessResult struct {
	// Address is the accessed memory address.
	Address uint64
	// Decoded holds the address fields.
	Decoded Address
	// Hit is true when a valid line already held the block.
	Hit bool
	// Line is the index of the matched line on a hit, or of the replaced
	// line on a miss.
	Line int
	// Evicted is true when a miss replaced a valid line.
	Evicted bool
	// EvictedTag is the tag of the replaced line if Evicted is true.
	EvictedTag uint64
	// Before is the set as it was before the access.
	Before Set
	// After is the set after the access, including the aging step.
	After Set
}

// SetIndex returns the index of the set the access mapped to.
func (r AccessResult) SetIndex() int {
	return int(r.Decoded.SetIndex)
}

// Access looks addr up in its set. On a miss the line with the highest
// recency is replaced, the lowest index winning ties. Every line of the set
// other than the touched one then ages by one.
//
// addr must be lower than the number of memory cells.
func (s *Store) Access(addr uint64) AccessResult {
	decoded := s.geometry.Decode(addr)
	set := &s.sets[decoded.SetIndex]

	result := AccessResult{
		Address: addr,
		Decoded: decoded,
		Before:  set.clone(),
	}

	line, hit := set.lookup(decoded.Tag)
	if hit {
		s.stats.Hits++
		set.Lines[line].Recency = 0
	} else {
		s.stats.Misses++

		line = set.findVictim()
		victim := &set.Lines[line]
		if victim.Valid {
			s.stats.Evictions++
			result.Evicted = true
			result.EvictedTag = victim.Tag
		}

		s.install(victim, decoded)
	}

	set.age(line)
	s.stats.Accesses++

	result.Hit = hit
	result.Line = line
	result.After = set.clone()

	return result
}

// lookup returns the index of the valid line holding tag.
func (s *Set) lookup(tag uint64) (int, bool) {
	for i := range s.Lines {
		if s.Lines[i].Valid && s.Lines[i].Tag == tag {
			return i, true
		}
	}

	return -1, false
}

// findVictim returns the first line with the greatest recency. Lines that
// were never filled have aged since the store was built, so they are
// always chosen before valid ones.
func (s *Set) findVictim() int {
	victim := 0
	for i := 1; i < len(s.Lines); i++ {
		if s.Lines[i].Recency > s.Lines[victim].Recency {
			victim = i
		}
	}

	return victim
}

func (s *Set) age(touched int) {
	for i := range s.Lines {
		if i != touched {
			s.Lines[i].Recency++
		}
	}
}

func (s *Store) install(l *Line, a Address) {
	if len(l.Block) != s.geometry.CellsPerBlock {
		l.Block = make([]uint64, s.geometry.CellsPerBlock)
	}

	for i := range l.Block {
		l.Block[i] = a.BlockStart + uint64(i)
	}

	l.Valid = true
	l.Tag = a.Tag
	l.Recency = 0
}

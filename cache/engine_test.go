package cache_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachesim/cache"
)

func mustGeometry(memoryCells, cellsPerBlock, lines, linesPerSet int) cache.Geometry {
	g, err := cache.NewGeometry(memoryCells, cellsPerBlock, lines, linesPerSet)
	Expect(err).NotTo(HaveOccurred())

	return g
}

func recencies(s cache.Set) []uint64 {
	r := make([]uint64, len(s.Lines))
	for i, l := range s.Lines {
		r[i] = l.Recency
	}

	return r
}

var _ = Describe("Store", func() {
	It("should start with every line invalid and empty", func() {
		s := cache.NewStore(mustGeometry(256, 4, 16, 4))

		Expect(s.NumSets()).To(Equal(4))
		for _, set := range s.Sets() {
			Expect(set.Lines).To(HaveLen(4))
			for _, l := range set.Lines {
				Expect(l.Valid).To(BeFalse())
				Expect(l.Recency).To(BeZero())
				Expect(l.Block).To(BeNil())
			}
		}
		Expect(s.Stats()).To(Equal(cache.Statistics{}))
	})

	It("should discard every line on reset", func() {
		s := cache.NewStore(mustGeometry(256, 4, 16, 4))
		s.Access(0)
		s.Access(100)

		s.Reset()

		for _, set := range s.Sets() {
			for _, l := range set.Lines {
				Expect(l).To(Equal(cache.Line{}))
			}
		}
		Expect(s.Stats()).To(Equal(cache.Statistics{}))
	})

	It("should not let callers change the store through a copy", func() {
		s := cache.NewStore(mustGeometry(256, 4, 16, 4))
		s.Access(0)

		set := s.Set(0)
		set.Lines[0].Block[0] = 99
		set.Lines[0].Valid = false

		Expect(s.Set(0).Lines[0].Valid).To(BeTrue())
		Expect(s.Set(0).Lines[0].Block[0]).To(Equal(uint64(0)))
	})

	It("should give identical answers when queried twice", func() {
		s := cache.NewStore(mustGeometry(256, 4, 16, 4))
		for _, addr := range []uint64{0, 17, 33, 0, 200, 17} {
			s.Access(addr)
		}

		Expect(s.Sets()).To(Equal(s.Sets()))
		Expect(s.Stats()).To(Equal(s.Stats()))
	})
})

var _ = Describe("Access", func() {
	Context("with a single two-line set", func() {
		var s *cache.Store

		BeforeEach(func() {
			// 1KB of 4-byte cells, 4 cells per block, one set of 2 lines
			s = cache.NewStore(mustGeometry(256, 4, 2, 2))
		})

		It("should replace the line untouched for longest", func() {
			r := s.Access(0)
			Expect(r.Hit).To(BeFalse())
			Expect(r.Line).To(Equal(0))
			Expect(r.Evicted).To(BeFalse())
			Expect(r.After.Lines[0].Block).To(Equal([]uint64{0, 1, 2, 3}))

			r = s.Access(0)
			Expect(r.Hit).To(BeTrue())
			Expect(r.Line).To(Equal(0))

			r = s.Access(4)
			Expect(r.Hit).To(BeFalse())
			Expect(r.Line).To(Equal(1))
			Expect(r.Evicted).To(BeFalse())
			Expect(r.After.Lines[1].Block).To(Equal([]uint64{4, 5, 6, 7}))

			r = s.Access(8)
			Expect(r.Hit).To(BeFalse())
			Expect(r.Line).To(Equal(0))
			Expect(r.Evicted).To(BeTrue())
			Expect(r.EvictedTag).To(Equal(uint64(0)))
			Expect(r.After.Lines[0].Tag).To(Equal(uint64(2)))
			Expect(r.After.Lines[0].Block).To(Equal([]uint64{8, 9, 10, 11}))

			Expect(s.Stats()).To(Equal(cache.Statistics{
				Accesses:  4,
				Hits:      1,
				Misses:    3,
				Evictions: 1,
			}))
		})

		It("should report the set before and after the access", func() {
			s.Access(0)
			r := s.Access(4)

			Expect(r.Before.Lines[0].Valid).To(BeTrue())
			Expect(r.Before.Lines[1].Valid).To(BeFalse())
			Expect(recencies(r.Before)).To(Equal([]uint64{0, 1}))
			Expect(r.After.Lines[1].Valid).To(BeTrue())
			Expect(recencies(r.After)).To(Equal([]uint64{1, 0}))
		})

		It("should hit anywhere in a filled block", func() {
			s.Access(5)
			for addr := uint64(4); addr < 8; addr++ {
				Expect(s.Access(addr).Hit).To(BeTrue())
			}
		})
	})

	Context("with a four-way set", func() {
		var s *cache.Store

		BeforeEach(func() {
			// 8 lines in 2 sets; blocks 0, 2, 4, ... map to set 0
			s = cache.NewStore(mustGeometry(256, 4, 8, 4))
		})

		It("should fill empty lines in index order", func() {
			for i, addr := range []uint64{0, 8, 16, 24} {
				r := s.Access(addr)
				Expect(r.Hit).To(BeFalse())
				Expect(r.Line).To(Equal(i))
			}
		})

		It("should count the accesses since each line was touched", func() {
			s.Access(0)
			s.Access(8)
			s.Access(16)
			s.Access(24)
			s.Access(8)

			Expect(recencies(s.Set(0))).To(Equal([]uint64{4, 0, 2, 1}))
		})

		It("should leave the touched line with the lowest recency", func() {
			for _, addr := range []uint64{0, 8, 16, 0, 24, 32, 8, 40, 0} {
				r := s.Access(addr)
				touched := r.After.Lines[r.Line]
				Expect(touched.Recency).To(BeZero())

				for i, l := range r.After.Lines {
					if i != r.Line && l.Valid {
						Expect(l.Recency).To(BeNumerically(">", 0))
					}
				}
			}
		})

		It("should evict the least recently used block", func() {
			for _, addr := range []uint64{0, 8, 16, 24} {
				s.Access(addr)
			}
			// Touch all but block 8
			s.Access(0)
			s.Access(16)
			s.Access(24)

			r := s.Access(32)
			Expect(r.Line).To(Equal(1))
			Expect(r.Evicted).To(BeTrue())
			Expect(r.EvictedTag).To(Equal(s.Geometry().Decode(8).Tag))
			Expect(s.Access(8).Hit).To(BeFalse())
		})

		It("should keep tags distinct among valid lines", func() {
			for _, addr := range []uint64{0, 8, 0, 16, 8, 24, 40, 0, 48, 16} {
				s.Access(addr)
			}

			seen := map[uint64]bool{}
			for _, l := range s.Set(0).Lines {
				if l.Valid {
					Expect(seen).NotTo(HaveKey(l.Tag))
					seen[l.Tag] = true
				}
			}
		})

		It("should not touch other sets", func() {
			s.Access(4)
			before := s.Set(1)

			s.Access(0)
			s.Access(8)

			Expect(s.Set(1)).To(Equal(before))
		})

		It("should count every access as a hit or a miss", func() {
			for i := 0; i < 200; i++ {
				s.Access(uint64(i*37) % 256)
			}

			stats := s.Stats()
			Expect(stats.Hits + stats.Misses).To(Equal(stats.Accesses))
			Expect(stats.Accesses).To(Equal(uint64(200)))
		})
	})
})

var _ = Describe("Statistics", func() {
	It("should report zero rates before any access", func() {
		stats := cache.Statistics{}

		Expect(stats.HitRate()).To(BeZero())
		Expect(stats.MissRate()).To(BeZero())
	})

	It("should derive rates from the counters", func() {
		stats := cache.Statistics{Accesses: 4, Hits: 1, Misses: 3}

		Expect(stats.HitRate()).To(BeNumerically("~", 0.25))
		Expect(stats.MissRate()).To(BeNumerically("~", 0.75))
	})
})

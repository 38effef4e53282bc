package session_test

import (
	"context"
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/config"
	"github.com/sarchlab/cachesim/recording"
	"github.com/sarchlab/cachesim/session"
	"github.com/sarchlab/cachesim/trace"
)

var _ = Describe("Session", func() {
	var (
		mockCtrl *gomock.Controller
		reporter *MockReporter
		s        *session.Session
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		reporter = NewMockReporter(mockCtrl)
		s = session.New(reporter)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	// 1KB memory, 4-cell blocks, 1KB two-way cache: 256 cells, 32 sets.
	configure := func() {
		reporter.EXPECT().ReportConfig(*config.Default(), gomock.Any())
		Expect(s.Configure(*config.Default())).To(Succeed())
	}

	Context("before a configuration is accepted", func() {
		It("should reject every operation", func() {
			Expect(s.Configured()).To(BeFalse())

			_, err := s.Access(0)
			Expect(err).To(MatchError(session.ErrUnconfigured))

			_, err = s.Run(context.Background(), trace.NewSliceReader(0), session.PolicyAbort)
			Expect(err).To(MatchError(session.ErrUnconfigured))

			_, err = s.Stats()
			Expect(err).To(MatchError(session.ErrUnconfigured))
			Expect(s.Dump()).To(MatchError(session.ErrUnconfigured))
			Expect(s.ReportConfig()).To(MatchError(session.ErrUnconfigured))

			_, ok := s.Config()
			Expect(ok).To(BeFalse())
		})
	})

	Context("configure", func() {
		It("should build an empty cache", func() {
			reporter.EXPECT().
				ReportConfig(*config.Default(), gomock.Any()).
				Do(func(_ config.Config, g cache.Geometry) {
					Expect(g.NumSets()).To(Equal(32))
					Expect(g.TagBits).To(Equal(1))
				})

			Expect(s.Configure(*config.Default())).To(Succeed())
			Expect(s.Configured()).To(BeTrue())

			sets, err := s.Sets()
			Expect(err).NotTo(HaveOccurred())
			Expect(sets).To(HaveLen(32))
			for _, set := range sets {
				for _, line := range set.Lines {
					Expect(line.Valid).To(BeFalse())
				}
			}
		})

		It("should keep the current cache when the configuration is invalid", func() {
			configure()
			reporter.EXPECT().ReportAccess(gomock.Any(), gomock.Any())
			_, err := s.Access(0)
			Expect(err).NotTo(HaveOccurred())

			bad := *config.Default()
			bad.CellsPerBlock = 3
			Expect(s.Configure(bad)).To(MatchError(config.ErrInvalidConfig))

			c, ok := s.Config()
			Expect(ok).To(BeTrue())
			Expect(c).To(Equal(*config.Default()))

			stats, err := s.Stats()
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.Accesses).To(Equal(uint64(1)))
		})

		It("should start over on a new configuration", func() {
			configure()
			reporter.EXPECT().ReportAccess(gomock.Any(), gomock.Any())
			_, err := s.Access(0)
			Expect(err).NotTo(HaveOccurred())

			configure()

			stats, err := s.Stats()
			Expect(err).NotTo(HaveOccurred())
			Expect(stats).To(Equal(cache.Statistics{}))
		})
	})

	Context("access", func() {
		BeforeEach(func() {
			configure()
		})

		It("should replay a short trace", func() {
			reporter.EXPECT().ReportAccess(gomock.Any(), gomock.Any()).Times(4)

			var hits []bool
			for _, addr := range []int64{0, 0, 4, 8} {
				r, err := s.Access(addr)
				Expect(err).NotTo(HaveOccurred())
				hits = append(hits, r.Hit)
			}

			Expect(hits).To(Equal([]bool{false, true, false, false}))

			stats, err := s.Stats()
			Expect(err).NotTo(HaveOccurred())
			Expect(stats).To(Equal(cache.Statistics{
				Accesses: 4, Hits: 1, Misses: 3,
			}))
		})

		It("should reject an address outside memory", func() {
			reporter.EXPECT().
				ReportRejected(int64(256), gomock.Any()).
				Do(func(_ int64, err error) {
					Expect(err).To(MatchError(session.ErrAddressOutOfRange))
				})

			_, err := s.Access(256)
			Expect(err).To(MatchError(session.ErrAddressOutOfRange))

			stats, _ := s.Stats()
			Expect(stats.Accesses).To(BeZero())
		})

		It("should reject a negative address", func() {
			reporter.EXPECT().ReportRejected(int64(-5), gomock.Any())

			_, err := s.Access(-5)
			Expect(err).To(MatchError(session.ErrAddressOutOfRange))
		})

		It("should send statistics and sets to the reporter", func() {
			reporter.EXPECT().ReportAccess(gomock.Any(), gomock.Any())
			reporter.EXPECT().ReportStats(cache.Statistics{Accesses: 1, Misses: 1})
			reporter.EXPECT().
				ReportDump(gomock.Any(), gomock.Any()).
				Do(func(sets []cache.Set, _ cache.Geometry) {
					Expect(sets).To(HaveLen(32))
					Expect(sets[1].Lines[0].Valid).To(BeTrue())
					Expect(sets[1].Lines[0].Block).To(Equal([]uint64{4, 5, 6, 7}))
				})

			_, err := s.Access(5)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.ReportStats()).To(Succeed())
			Expect(s.Dump()).To(Succeed())
		})
	})

	Context("run", func() {
		BeforeEach(func() {
			configure()
		})

		It("should skip rejected addresses when continuing", func() {
			reporter.EXPECT().ReportAccess(gomock.Any(), gomock.Any()).Times(2)
			reporter.EXPECT().ReportRejected(int64(300), gomock.Any())

			n, err := s.Run(context.Background(),
				trace.NewSliceReader(0, 300, 0), session.PolicyContinue)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(2))
		})

		It("should stop at a rejected address when aborting", func() {
			reporter.EXPECT().ReportAccess(gomock.Any(), gomock.Any())
			reporter.EXPECT().ReportRejected(int64(300), gomock.Any())

			n, err := s.Run(context.Background(),
				trace.NewSliceReader(0, 300, 0), session.PolicyAbort)
			Expect(err).To(MatchError(session.ErrAddressOutOfRange))
			Expect(n).To(Equal(1))
		})

		It("should stop when the context is done", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			n, err := s.Run(ctx, trace.NewSliceReader(0, 4), session.PolicyAbort)
			Expect(err).To(MatchError(context.Canceled))
			Expect(n).To(BeZero())
		})

		It("should skip tokens that are not addresses when continuing", func() {
			reporter.EXPECT().ReportAccess(gomock.Any(), gomock.Any()).Times(2)
			reporter.EXPECT().
				ReportRejected(int64(0), gomock.Any()).
				Do(func(_ int64, err error) {
					var parseErr *trace.ParseError
					Expect(errors.As(err, &parseErr)).To(BeTrue())
					Expect(parseErr.Token).To(Equal("x"))
				})

			r := trace.NewTerminalReader(
				trace.NewTextReader(strings.NewReader("0 x 8 -1 12")))
			n, err := s.Run(context.Background(), r, session.PolicyContinue)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(2))
		})

		It("should stop at a token that is not an address when aborting", func() {
			reporter.EXPECT().ReportAccess(gomock.Any(), gomock.Any())

			n, err := s.Run(context.Background(),
				trace.NewTextReader(strings.NewReader("0 x 8")), session.PolicyAbort)

			var parseErr *trace.ParseError
			Expect(errors.As(err, &parseErr)).To(BeTrue())
			Expect(n).To(Equal(1))
		})

		It("should stop at the terminal sentinel", func() {
			reporter.EXPECT().ReportAccess(gomock.Any(), gomock.Any())

			r := trace.NewTerminalReader(trace.NewSliceReader(8, trace.Sentinel, 12))
			n, err := s.Run(context.Background(), r, session.PolicyContinue)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(1))
		})
	})

	Context("with a recorder", func() {
		var recorder *MockRecorder

		BeforeEach(func() {
			recorder = NewMockRecorder(mockCtrl)
			s = session.New(reporter, session.WithRecorder(recorder))
			configure()
		})

		It("should record accepted accesses in order", func() {
			reporter.EXPECT().ReportAccess(gomock.Any(), gomock.Any()).Times(2)
			reporter.EXPECT().ReportRejected(gomock.Any(), gomock.Any())

			var entries []recording.Entry
			recorder.EXPECT().
				Record(gomock.Any()).
				Do(func(e recording.Entry) {
					entries = append(entries, e)
				}).
				Times(2)
			recorder.EXPECT().Flush().Return(nil)

			_, err := s.Run(context.Background(),
				trace.NewSliceReader(4, 1000, 4), session.PolicyContinue)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Flush()).To(Succeed())

			Expect(entries).To(HaveLen(2))
			Expect(entries[0].RunID).To(Equal(s.ID()))
			Expect(entries[0].Seq).To(Equal(uint64(0)))
			Expect(entries[0].Hit).To(BeFalse())
			Expect(entries[0].SetIndex).To(Equal(uint64(1)))
			Expect(entries[1].Seq).To(Equal(uint64(1)))
			Expect(entries[1].Hit).To(BeTrue())
		})
	})
})

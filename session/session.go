// Package session owns one simulated cache from its configuration until it
// is replaced or the program ends.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/config"
	"github.com/sarchlab/cachesim/memory"
	"github.com/sarchlab/cachesim/recording"
	"github.com/sarchlab/cachesim/report"
	"github.com/sarchlab/cachesim/trace"
)

var (
	// ErrUnconfigured is returned when the cache is used before a
	// configuration has been accepted.
	ErrUnconfigured = errors.New("memory and cache are not configured")

	// ErrAddressOutOfRange is returned for an address outside main memory.
	ErrAddressOutOfRange = errors.New("address out of range")
)

// Policy decides what happens to a stream when an address is rejected.
type Policy int

const (
	// PolicyContinue reports the address, or the token that is not an
	// address, and moves on. Used for terminal input.
	PolicyContinue Policy = iota
	// PolicyAbort stops the stream. Used for address files.
	PolicyAbort
)

// Session runs addresses through one cache at a time.
type Session struct {
	id       xid.ID
	reporter report.Reporter
	logger   logrus.FieldLogger
	recorder recording.Recorder

	config *config.Config
	memory memory.MainMemory
	store  *cache.Store
	seq    uint64
}

// Option configures a Session.
type Option func(*Session)

// WithRecorder records every accepted access.
func WithRecorder(r recording.Recorder) Option {
	return func(s *Session) {
		s.recorder = r
	}
}

// WithLogger sets the logger. The default logger discards everything.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// New creates an unconfigured Session that reports to reporter.
func New(reporter report.Reporter, opts ...Option) *Session {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	s := &Session{
		id:       xid.New(),
		reporter: reporter,
		logger:   discard,
		recorder: recording.Nop{},
	}

	for _, opt := range opts {
		opt(s)
	}

	s.logger = s.logger.WithField("session", s.id.String())

	return s
}

// ID returns the session identifier. It also tags recorded accesses.
func (s *Session) ID() string {
	return s.id.String()
}

// Configure validates c and replaces the cache with an empty one built
// from it. On error the current cache is kept.
func (s *Session) Configure(c config.Config) error {
	g, err := c.Geometry()
	if err != nil {
		s.logger.WithError(err).Warn("configuration rejected")
		return err
	}

	s.config = c.Clone()
	s.memory = c.MainMemory()
	s.store = cache.NewStore(g)

	s.logger.WithFields(logrus.Fields{
		"memory_kb":       c.MemorySizeKB,
		"cells_per_block": c.CellsPerBlock,
		"cache_kb":        c.CacheSizeKB,
		"lines_per_set":   c.LinesPerSet,
		"sets":            g.NumSets(),
		"tag_bits":        g.TagBits,
		"set_bits":        g.SetIndexBits,
		"offset_bits":     g.BlockOffsetBits,
	}).Info("cache configured")

	s.reporter.ReportConfig(c, g)

	return nil
}

// Configured reports whether a configuration has been accepted.
func (s *Session) Configured() bool {
	return s.store != nil
}

// Config returns a copy of the active configuration.
func (s *Session) Config() (config.Config, bool) {
	if s.config == nil {
		return config.Config{}, false
	}

	return *s.config, true
}

// Geometry returns the geometry of the active cache.
func (s *Session) Geometry() (cache.Geometry, error) {
	if s.store == nil {
		return cache.Geometry{}, ErrUnconfigured
	}

	return s.store.Geometry(), nil
}

// ReportConfig sends the active configuration to the reporter again.
func (s *Session) ReportConfig() error {
	if s.store == nil {
		return ErrUnconfigured
	}

	s.reporter.ReportConfig(*s.config, s.store.Geometry())

	return nil
}

// Access simulates one access. Out of range addresses are reported and
// leave the cache untouched.
func (s *Session) Access(addr int64) (cache.AccessResult, error) {
	if s.store == nil {
		return cache.AccessResult{}, ErrUnconfigured
	}

	if !s.memory.Contains(addr) {
		err := fmt.Errorf("%w: address %d is outside 0-%d",
			ErrAddressOutOfRange, addr, s.memory.MaxAddress())
		s.logger.WithField("addr", addr).Warn("address rejected")
		s.reporter.ReportRejected(addr, err)

		return cache.AccessResult{}, err
	}

	result := s.store.Access(uint64(addr))

	s.recorder.Record(recording.NewEntry(s.ID(), s.seq, result))
	s.seq++

	s.logger.WithFields(logrus.Fields{
		"addr": addr,
		"set":  result.Decoded.SetIndex,
		"tag":  result.Decoded.Tag,
		"hit":  result.Hit,
		"line": result.Line,
	}).Debug("access")

	s.reporter.ReportAccess(result, s.store.Geometry())

	return result, nil
}

// Run feeds every address of r through Access until r ends or ctx is
// done. It returns the number of simulated accesses. Under PolicyContinue a
// *trace.ParseError is reported with address 0 and skipped.
func (s *Session) Run(ctx context.Context, r trace.Reader, policy Policy) (int, error) {
	if s.store == nil {
		return 0, ErrUnconfigured
	}

	n := 0
	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}

		addr, err := r.Next()
		if errors.Is(err, io.EOF) {
			return n, nil
		}

		var parseErr *trace.ParseError
		if errors.As(err, &parseErr) && policy == PolicyContinue {
			s.logger.WithField("token", parseErr.Token).Warn("token rejected")
			s.reporter.ReportRejected(0, err)
			continue
		}
		if err != nil {
			return n, fmt.Errorf("failed to read address: %w", err)
		}

		_, err = s.Access(addr)
		if errors.Is(err, ErrAddressOutOfRange) && policy == PolicyContinue {
			continue
		}
		if err != nil {
			return n, err
		}

		n++
	}
}

// Stats returns the statistics of the active cache.
func (s *Session) Stats() (cache.Statistics, error) {
	if s.store == nil {
		return cache.Statistics{}, ErrUnconfigured
	}

	return s.store.Stats(), nil
}

// Sets returns a copy of every set of the active cache.
func (s *Session) Sets() ([]cache.Set, error) {
	if s.store == nil {
		return nil, ErrUnconfigured
	}

	return s.store.Sets(), nil
}

// ReportStats sends the statistics to the reporter.
func (s *Session) ReportStats() error {
	stats, err := s.Stats()
	if err != nil {
		return err
	}

	s.reporter.ReportStats(stats)

	return nil
}

// Dump sends every set to the reporter.
func (s *Session) Dump() error {
	if s.store == nil {
		return ErrUnconfigured
	}

	s.reporter.ReportDump(s.store.Sets(), s.store.Geometry())

	return nil
}

// Flush writes recorded accesses out.
func (s *Session) Flush() error {
	return s.recorder.Flush()
}

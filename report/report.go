// Package report formats simulation events for people and for tools.
package report

import (
	"io"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/config"
)

// A Reporter receives everything a session wants to show.
type Reporter interface {
	// ReportConfig is called when a configuration takes effect.
	ReportConfig(c config.Config, g cache.Geometry)

	// ReportAccess is called after every accepted access.
	ReportAccess(r cache.AccessResult, g cache.Geometry)

	// ReportRejected is called for an address that was not simulated. When
	// err holds a *trace.ParseError there was no address and addr is 0.
	ReportRejected(addr int64, err error)

	// ReportStats is called when statistics are requested.
	ReportStats(s cache.Statistics)

	// ReportDump is called with every set of the cache.
	ReportDump(sets []cache.Set, g cache.Geometry)
}

// Discard is a Reporter that drops every event.
type Discard struct{}

// ReportConfig does nothing.
func (Discard) ReportConfig(config.Config, cache.Geometry) {}

// ReportAccess does nothing.
func (Discard) ReportAccess(cache.AccessResult, cache.Geometry) {}

// ReportRejected does nothing.
func (Discard) ReportRejected(int64, error) {}

// ReportStats does nothing.
func (Discard) ReportStats(cache.Statistics) {}

// ReportDump does nothing.
func (Discard) ReportDump([]cache.Set, cache.Geometry) {}

// Err returns the first output error r ran into. Reporters that do not
// track errors report none.
func Err(r Reporter) error {
	if e, ok := r.(interface{ Err() error }); ok {
		return e.Err()
	}

	return nil
}

// errWriter keeps the first write error and drops everything after it.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}

	n, err := e.w.Write(p)
	if err != nil {
		e.err = err
	}

	return n, err
}

package report

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/config"
	"github.com/sarchlab/cachesim/trace"
)

// JSON writes one JSON object per event, one object per line. After the
// first failed event nothing more is written and Err returns the failure.
type JSON struct {
	enc *json.Encoder
	err error
}

// NewJSON creates a JSON reporter writing to w.
func NewJSON(w io.Writer) *JSON {
	return &JSON{enc: json.NewEncoder(w)}
}

// Err returns the first encoding or write error.
func (j *JSON) Err() error {
	return j.err
}

type configEvent struct {
	Event           string        `json:"event"`
	Config          config.Config `json:"config"`
	Sets            int           `json:"sets"`
	AddressBits     int           `json:"address_bits"`
	BlockOffsetBits int           `json:"block_offset_bits"`
	SetIndexBits    int           `json:"set_index_bits"`
	TagBits         int           `json:"tag_bits"`
}

type lineJSON struct {
	Valid   bool     `json:"valid"`
	Tag     string   `json:"tag,omitempty"`
	Recency uint64   `json:"recency"`
	Block   []uint64 `json:"block,omitempty"`
}

type accessEvent struct {
	Event       string     `json:"event"`
	Address     uint64     `json:"address"`
	Set         int        `json:"set"`
	Tag         string     `json:"tag"`
	BlockOffset uint64     `json:"block_offset"`
	Hit         bool       `json:"hit"`
	Line        int        `json:"line"`
	Evicted     bool       `json:"evicted"`
	EvictedTag  string     `json:"evicted_tag,omitempty"`
	Lines       []lineJSON `json:"lines"`
}

type rejectedEvent struct {
	Event   string `json:"event"`
	Address *int64 `json:"address,omitempty"`
	Token   string `json:"token,omitempty"`
	Error   string `json:"error"`
}

type statsEvent struct {
	Event     string  `json:"event"`
	Accesses  uint64  `json:"accesses"`
	Hits      uint64  `json:"hits"`
	Misses    uint64  `json:"misses"`
	Evictions uint64  `json:"evictions"`
	HitRate   float64 `json:"hit_rate"`
	MissRate  float64 `json:"miss_rate"`
}

type dumpEvent struct {
	Event string       `json:"event"`
	Sets  [][]lineJSON `json:"sets"`
}

// ReportConfig writes a "config" event.
func (j *JSON) ReportConfig(c config.Config, g cache.Geometry) {
	j.write(configEvent{
		Event:           "config",
		Config:          c,
		Sets:            g.NumSets(),
		AddressBits:     g.AddressBits,
		BlockOffsetBits: g.BlockOffsetBits,
		SetIndexBits:    g.SetIndexBits,
		TagBits:         g.TagBits,
	})
}

// ReportAccess writes an "access" event with the set after the access.
func (j *JSON) ReportAccess(r cache.AccessResult, g cache.Geometry) {
	e := accessEvent{
		Event:       "access",
		Address:     r.Address,
		Set:         r.SetIndex(),
		Tag:         cache.FormatBits(r.Decoded.Tag, g.TagBits),
		BlockOffset: r.Decoded.BlockOffset,
		Hit:         r.Hit,
		Line:        r.Line,
		Evicted:     r.Evicted,
		Lines:       linesJSON(r.After, g),
	}
	if r.Evicted {
		e.EvictedTag = cache.FormatBits(r.EvictedTag, g.TagBits)
	}

	j.write(e)
}

// ReportRejected writes a "rejected" event. A token that is not an
// address is written instead of the address.
func (j *JSON) ReportRejected(addr int64, err error) {
	e := rejectedEvent{Event: "rejected", Error: err.Error()}

	var parseErr *trace.ParseError
	if errors.As(err, &parseErr) {
		e.Token = parseErr.Token
	} else {
		e.Address = &addr
	}

	j.write(e)
}

// ReportStats writes a "stats" event.
func (j *JSON) ReportStats(s cache.Statistics) {
	j.write(statsEvent{
		Event:     "stats",
		Accesses:  s.Accesses,
		Hits:      s.Hits,
		Misses:    s.Misses,
		Evictions: s.Evictions,
		HitRate:   s.HitRate(),
		MissRate:  s.MissRate(),
	})
}

// ReportDump writes a "dump" event holding every set.
func (j *JSON) ReportDump(sets []cache.Set, g cache.Geometry) {
	e := dumpEvent{Event: "dump", Sets: make([][]lineJSON, len(sets))}
	for i, s := range sets {
		e.Sets[i] = linesJSON(s, g)
	}

	j.write(e)
}

func (j *JSON) write(v any) {
	if j.err != nil {
		return
	}

	j.err = j.enc.Encode(v)
}

func linesJSON(s cache.Set, g cache.Geometry) []lineJSON {
	lines := make([]lineJSON, len(s.Lines))
	for i, l := range s.Lines {
		lines[i] = lineJSON{Valid: l.Valid, Recency: l.Recency, Block: l.Block}
		if l.Valid {
			lines[i].Tag = cache.FormatBits(l.Tag, g.TagBits)
		}
	}

	return lines
}

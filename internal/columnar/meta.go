package columnar

import (
	"sort"

	"github.com/secstrace/secstrace/internal/record"
)

// Accumulator tracks the running summary statistics that end up in a
// session's meta.json, built incrementally as rows stream through so
// the converter never needs a second pass over the data.
type Accumulator struct {
	RowCount   uint32
	TMinNS     int64
	TMaxNS     int64
	Streams    map[uint8]struct{}
	Functions  map[uint8]struct{}
	CEIDs      map[uint32]struct{}
	seenAny    bool
}

// NewAccumulator builds an empty Accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{
		Streams:   make(map[uint8]struct{}),
		Functions: make(map[uint8]struct{}),
		CEIDs:     make(map[uint32]struct{}),
	}
}

// Observe folds one message into the running summary.
func (a *Accumulator) Observe(msg record.Message) {
	ts := msg.TSNanos()
	if !a.seenAny || ts < a.TMinNS {
		a.TMinNS = ts
	}
	if !a.seenAny || ts > a.TMaxNS {
		a.TMaxNS = ts
	}
	a.seenAny = true
	a.RowCount++
	a.Streams[msg.Stream] = struct{}{}
	a.Functions[msg.Function] = struct{}{}
	if msg.CEID != 0 {
		a.CEIDs[msg.CEID] = struct{}{}
	}
}

// DistinctStreams returns the sorted set of distinct stream numbers
// observed so far.
func (a *Accumulator) DistinctStreams() []uint8 {
	out := make([]uint8, 0, len(a.Streams))
	for s := range a.Streams {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// DistinctFunctions returns the sorted set of distinct function
// numbers observed so far.
func (a *Accumulator) DistinctFunctions() []uint8 {
	out := make([]uint8, 0, len(a.Functions))
	for f := range a.Functions {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// DistinctCEIDs returns the sorted set of distinct non-zero CEIDs
// observed so far.
func (a *Accumulator) DistinctCEIDs() []uint32 {
	out := make([]uint32, 0, len(a.CEIDs))
	for c := range a.CEIDs {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

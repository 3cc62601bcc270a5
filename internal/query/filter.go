// Package query implements the session search engine: cost-ordered
// predicate evaluation over a session's columnar chunks, the
// whole-session "unanswered" computation, pagination, and the Arrow
// IPC stream response writer.
package query

import (
	"encoding/json"
	"strings"

	"github.com/secstrace/secstrace/internal/record"
)

// DefaultLimit and MaxLimit bound how many rows a single response
// page returns; MaxLimit is one chunk's worth of rows, matching the
// chunking granularity chosen for ingest.
const (
	DefaultLimit = 50_000
	MaxLimit     = 50_000
)

// Filter describes one search request. Every field is optional; a
// zero-value Filter matches every row in the session within
// [FromNS, ToNS].
type Filter struct {
	FromNS *int64
	ToNS   *int64

	Dir *record.Direction

	// Streams, Functions and CEIDs are set-membership filters: an
	// empty slice means no restriction on that column.
	Streams   []uint8
	Functions []uint8
	CEIDs     []uint32

	WBit     *bool
	SysBytes *uint32

	// PayloadText, when set, is matched (case-insensitively) as a
	// substring of the row's canonical JSON payload rendering. This is
	// evaluated last, since it requires reading the per-row payload
	// file off disk.
	PayloadText *string

	HighlightUnanswered bool

	Cursor *uint32
	Limit  int
}

// EffectiveLimit returns f.Limit clamped into (0, MaxLimit], defaulting
// to DefaultLimit when unset.
func (f Filter) EffectiveLimit() int {
	if f.Limit <= 0 {
		return DefaultLimit
	}
	if f.Limit > MaxLimit {
		return MaxLimit
	}
	return f.Limit
}

// scalarRow is the minimal per-row data needed to evaluate every
// predicate except the payload text search.
type scalarRow struct {
	RowID    uint32
	TSNanos  int64
	Dir      record.Direction
	Stream   uint8
	Function uint8
	WBit     bool
	SysBytes uint32
	CEID     uint32
}

// matchesScalar evaluates every predicate that does not require
// reading the payload, in increasing cost order: time range, then the
// fixed-width scalar columns.
func (f Filter) matchesScalar(r scalarRow) bool {
	if f.FromNS != nil && r.TSNanos < *f.FromNS {
		return false
	}
	if f.ToNS != nil && r.TSNanos > *f.ToNS {
		return false
	}
	if f.Dir != nil && r.Dir != *f.Dir {
		return false
	}
	if len(f.Streams) > 0 && !containsUint8(f.Streams, r.Stream) {
		return false
	}
	if len(f.Functions) > 0 && !containsUint8(f.Functions, r.Function) {
		return false
	}
	if f.WBit != nil && r.WBit != *f.WBit {
		return false
	}
	if f.SysBytes != nil && r.SysBytes != *f.SysBytes {
		return false
	}
	if len(f.CEIDs) > 0 && !containsUint32(f.CEIDs, r.CEID) {
		return false
	}
	return true
}

func containsUint8(set []uint8, v uint8) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func containsUint32(set []uint32, v uint32) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// canonicalPayload renders a decoded payload body the same way every
// time: encoding/json's stdlib marshal of a map[string]interface{}
// already sorts keys, so lowercasing that output gives a deterministic
// canonical form without a bespoke canonicalizer.
func canonicalPayload(body map[string]interface{}) (string, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	return strings.ToLower(string(b)), nil
}

// matchesPayloadText reports whether canonical (already lowercased by
// canonicalPayload) contains the filter's PayloadText needle, which is
// lowercased here.
func (f Filter) matchesPayloadText(canonical string) bool {
	if f.PayloadText == nil {
		return true
	}
	return strings.Contains(canonical, strings.ToLower(*f.PayloadText))
}

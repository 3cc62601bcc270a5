package store

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dchest/safefile"

	"github.com/secstrace/secstrace/internal/columnar"
)

// Meta is the session summary written to meta.json. Its presence in a
// session directory is the sole readiness signal readers rely on —
// the ingest pipeline writes it last, and atomically, so a reader
// never observes a partially-written one.
type Meta struct {
	SessionID    string    `json:"session_id"`
	SourceFormat string    `json:"source_format"`
	CreatedAt    time.Time `json:"created_at"`
	RowCount     uint32    `json:"row_count"`
	ChunkCount   int       `json:"chunk_count"`
	TMinNS       int64     `json:"t_min_ns"`
	TMaxNS       int64     `json:"t_max_ns"`

	// DistinctStream/DistinctFunc are []uint16, not []uint8: Go's
	// encoding/json special-cases any []uint8-kinded slice and encodes
	// it as a base64 string rather than the JSON number array
	// (`"distinct_s":[1,6]`) clients expect. uint16 comfortably holds
	// the uint8 stream/function values while marshaling as a normal
	// number array.
	DistinctStream []uint16 `json:"distinct_s"`
	DistinctFunc   []uint16 `json:"distinct_f"`
	DistinctCEID   []uint32 `json:"distinct_ceid"`
}

func metaFromAccumulator(id, sourceFormat string, createdAt time.Time, chunkCount int, acc *columnar.Accumulator) Meta {
	return Meta{
		SessionID:      id,
		SourceFormat:   sourceFormat,
		CreatedAt:      createdAt,
		RowCount:       acc.RowCount,
		ChunkCount:     chunkCount,
		TMinNS:         acc.TMinNS,
		TMaxNS:         acc.TMaxNS,
		DistinctStream: widenUint8(acc.DistinctStreams()),
		DistinctFunc:   widenUint8(acc.DistinctFunctions()),
		DistinctCEID:   acc.DistinctCEIDs(),
	}
}

// widenUint8 converts a []uint8 to []uint16 so it marshals as a JSON
// number array instead of encoding/json's base64-string special case
// for byte slices.
func widenUint8(in []uint8) []uint16 {
	out := make([]uint16, len(in))
	for i, v := range in {
		out[i] = uint16(v)
	}
	return out
}

// writeMetaAtomic publishes meta.json via write-to-temp-then-rename so
// a concurrent reader either sees the old state (not-found, for a
// brand new session) or the complete new file — never a partial write.
func writeMetaAtomic(path string, m Meta) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return safefile.WriteFile(path, b, 0644)
}

// ReadMeta loads meta.json for a session. A missing file is reported
// via os.IsNotExist on the returned error, which callers translate to
// record.SessionNotFound.
func (s *Store) ReadMeta(id string) (Meta, error) {
	var m Meta
	b, err := os.ReadFile(s.metaPath(id))
	if err != nil {
		return m, err
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return m, err
	}
	return m, nil
}

package query

import (
	"context"
	"io"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/secstrace/secstrace/internal/columnar"
	"github.com/secstrace/secstrace/internal/record"
	"github.com/secstrace/secstrace/internal/store"
)

// Engine runs search queries against sessions in a Store.
type Engine struct {
	store *store.Store
}

func NewEngine(s *store.Store) *Engine {
	return &Engine{store: s}
}

// Search evaluates f against sessionID and returns an io.WriterTo that
// encodes the matching rows as an Arrow IPC stream. ctx is checked at
// chunk boundaries: once it is canceled no further chunks are scanned,
// and the rows matched so far are what the returned writer encodes.
func (e *Engine) Search(ctx context.Context, sessionID string, f Filter) (io.WriterTo, error) {
	if !e.store.Exists(sessionID) {
		return nil, record.NewError(record.SessionNotFound, sessionID, nil)
	}

	var unanswered map[uint32]bool
	if f.HighlightUnanswered {
		var err error
		unanswered, err = computeUnanswered(e.store, sessionID)
		if err != nil {
			return nil, err
		}
	}

	paths, err := e.store.ChunkPaths(sessionID)
	if err != nil {
		return nil, record.NewError(record.Io, "listing chunks", err)
	}

	limit := f.EffectiveLimit()
	matched := make([]matchedRow, 0, limit)

	for _, p := range paths {
		if ctx.Err() != nil {
			break
		}
		recs, err := store.ReadChunk(p)
		if err != nil {
			return nil, err
		}
		for _, rec := range recs {
			for _, r := range scalarRowsFromRecord(rec) {
				if len(matched) >= limit {
					continue
				}
				if f.Cursor != nil && r.RowID <= *f.Cursor {
					continue
				}
				if !f.matchesScalar(r) {
					continue
				}
				if f.PayloadText != nil {
					body, err := e.store.ReadPayload(sessionID, r.RowID)
					if err != nil {
						rec.Release()
						return nil, err
					}
					var m map[string]interface{}
					if err := unmarshalPayload(body, &m); err != nil {
						rec.Release()
						return nil, err
					}
					canon, err := canonicalPayload(m)
					if err != nil {
						rec.Release()
						return nil, err
					}
					if !f.matchesPayloadText(canon) {
						continue
					}
				}
				matched = append(matched, matchedRow{row: r})
			}
			rec.Release()
		}
	}

	return &resultWriter{matched: matched, unanswered: unanswered, withUnanswered: f.HighlightUnanswered}, nil
}

type matchedRow struct {
	row scalarRow
}

// resultWriter streams the matched rows out as a single Arrow IPC
// stream RecordBatch message.
type resultWriter struct {
	matched        []matchedRow
	unanswered     map[uint32]bool
	withUnanswered bool
}

func (rw *resultWriter) WriteTo(w io.Writer) (int64, error) {
	schema := columnar.Schema
	if rw.withUnanswered {
		schema = columnar.SchemaWithUnanswered()
	}

	mem := memory.NewGoAllocator()
	rb := array.NewRecordBuilder(mem, schema)
	defer rb.Release()

	var unansweredCol *array.BooleanBuilder
	if rw.withUnanswered {
		unansweredCol = rb.Field(8).(*array.BooleanBuilder)
	}

	for _, m := range rw.matched {
		r := m.row
		rb.Field(0).(*array.Int64Builder).Append(r.TSNanos)
		rb.Field(1).(*array.Int8Builder).Append(int8(r.Dir))
		rb.Field(2).(*array.Uint8Builder).Append(r.Stream)
		rb.Field(3).(*array.Uint8Builder).Append(r.Function)
		rb.Field(4).(*array.Uint8Builder).Append(columnar.WBitByte(r.WBit))
		rb.Field(5).(*array.Uint32Builder).Append(r.SysBytes)
		rb.Field(6).(*array.Uint32Builder).Append(r.CEID)
		rb.Field(7).(*array.Uint32Builder).Append(r.RowID)
		if unansweredCol != nil {
			if !r.WBit {
				unansweredCol.AppendNull()
			} else {
				unansweredCol.Append(rw.unanswered[r.RowID])
			}
		}
	}

	rec := rb.NewRecord()
	defer rec.Release()

	cw := &countingWriter{w: w}
	ipcw := ipc.NewWriter(cw, ipc.WithSchema(schema))
	// An empty match set is encoded as a schema-only stream (no record
	// batch message) rather than a zero-row batch.
	if rec.NumRows() > 0 {
		if err := ipcw.Write(rec); err != nil {
			return cw.n, err
		}
	}
	if err := ipcw.Close(); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

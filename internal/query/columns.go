package query

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/secstrace/secstrace/internal/record"
)

// scalarRowsFromRecord extracts every row of rec into the lightweight
// scalarRow shape the filter and unanswered passes operate on.
func scalarRowsFromRecord(rec arrow.Record) []scalarRow {
	ts := rec.Column(0).(*array.Int64)
	dir := rec.Column(1).(*array.Int8)
	s := rec.Column(2).(*array.Uint8)
	f := rec.Column(3).(*array.Uint8)
	wbit := rec.Column(4).(*array.Uint8)
	sysbytes := rec.Column(5).(*array.Uint32)
	ceid := rec.Column(6).(*array.Uint32)
	rowID := rec.Column(7).(*array.Uint32)

	n := int(rec.NumRows())
	out := make([]scalarRow, n)
	for i := 0; i < n; i++ {
		out[i] = scalarRow{
			RowID:    rowID.Value(i),
			TSNanos:  ts.Value(i),
			Dir:      record.Direction(dir.Value(i)),
			Stream:   s.Value(i),
			Function: f.Value(i),
			WBit:     wbit.Value(i) != 0,
			SysBytes: sysbytes.Value(i),
			CEID:     ceid.Value(i),
		}
	}
	return out
}

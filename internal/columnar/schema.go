// Package columnar builds the Arrow columnar projection of a session's
// messages: an 8-column "hot path" schema covering everything the
// query engine can filter or sort on without touching the per-row
// MessagePack payload.
package columnar

import "github.com/apache/arrow-go/v18/arrow"

// Schema is the on-disk and on-wire column layout shared by every
// chunk file and every query response.
var Schema = arrow.NewSchema([]arrow.Field{
	{Name: "ts_ns", Type: arrow.PrimitiveTypes.Int64},
	{Name: "dir", Type: arrow.PrimitiveTypes.Int8},
	{Name: "s", Type: arrow.PrimitiveTypes.Uint8},
	{Name: "f", Type: arrow.PrimitiveTypes.Uint8},
	{Name: "wbit", Type: arrow.PrimitiveTypes.Uint8},
	{Name: "sysbytes", Type: arrow.PrimitiveTypes.Uint32},
	{Name: "ceid", Type: arrow.PrimitiveTypes.Uint32},
	{Name: "row_id", Type: arrow.PrimitiveTypes.Uint32},
}, nil)

// UnansweredField is appended to Schema for query responses that
// requested the unanswered highlight; it is nullable since
// "unanswered" has no meaning for a record with wbit=0.
var UnansweredField = arrow.Field{Name: "unanswered", Type: arrow.FixedWidthTypes.Boolean, Nullable: true}

// SchemaWithUnanswered returns Schema extended with UnansweredField.
func SchemaWithUnanswered() *arrow.Schema {
	fields := append(append([]arrow.Field{}, Schema.Fields()...), UnansweredField)
	return arrow.NewSchema(fields, nil)
}

// ChunkRowLimit bounds how many rows accumulate in memory before a
// chunk file is flushed to disk.
const ChunkRowLimit = 50_000

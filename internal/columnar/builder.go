package columnar

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/secstrace/secstrace/internal/record"
)

// Builder accumulates rows into an Arrow RecordBuilder up to
// ChunkRowLimit: callers append one row at a time and flush whenever
// Full reports true or the source is exhausted, so no more than one
// chunk's worth of rows is ever held in memory.
type Builder struct {
	mem *memory.GoAllocator
	rb  *array.RecordBuilder
	n   int
}

// NewBuilder allocates a fresh, empty Builder.
func NewBuilder() *Builder {
	mem := memory.NewGoAllocator()
	return &Builder{mem: mem, rb: array.NewRecordBuilder(mem, Schema)}
}

// Append adds one row, assigning it rowID as the row_id column value.
func (b *Builder) Append(rowID uint32, msg record.Message) {
	b.rb.Field(0).(*array.Int64Builder).Append(msg.TSNanos())
	b.rb.Field(1).(*array.Int8Builder).Append(int8(msg.Dir))
	b.rb.Field(2).(*array.Uint8Builder).Append(msg.Stream)
	b.rb.Field(3).(*array.Uint8Builder).Append(msg.Function)
	b.rb.Field(4).(*array.Uint8Builder).Append(WBitByte(msg.WBit))
	b.rb.Field(5).(*array.Uint32Builder).Append(msg.SysBytes)
	b.rb.Field(6).(*array.Uint32Builder).Append(msg.CEID)
	b.rb.Field(7).(*array.Uint32Builder).Append(rowID)
	b.n++
}

// Len reports how many rows are currently buffered, unflushed.
func (b *Builder) Len() int { return b.n }

// Full reports whether the buffer has reached ChunkRowLimit.
func (b *Builder) Full() bool { return b.n >= ChunkRowLimit }

// Flush builds an arrow.Record from the buffered rows and resets the
// builder for the next chunk. The caller owns the returned record and
// must Release it. Flushing an empty builder returns a nil record.
func (b *Builder) Flush() arrow.Record {
	if b.n == 0 {
		return nil
	}
	rec := b.rb.NewRecord()
	b.n = 0
	return rec
}

// Release frees the underlying column builders. Call once the Builder
// is no longer needed.
func (b *Builder) Release() {
	b.rb.Release()
}

// WBitByte encodes the wait-bit as the 0/1 uint8 the wbit column
// carries on disk and on the wire.
func WBitByte(wbit bool) uint8 {
	if wbit {
		return 1
	}
	return 0
}

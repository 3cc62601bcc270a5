// Package parser turns a source-format byte stream (NDJSON, a JSON
// array, or CSV) into a stream of record.Message values, sniffing the
// format from a read-ahead prefix when the caller does not already
// know it.
package parser

import (
	"io"

	"github.com/secstrace/secstrace/internal/record"
)

// Emit receives one decoded record.Message at a time so a parser never
// needs to hold a whole source file in memory; returning an error
// aborts the parse immediately.
type Emit func(record.Message) error

// Parser is the capability-based interface every concrete format
// implements. CanParse is consulted by the registry even when sniffing
// already picked a candidate, so a parser is free to reject a prefix it
// cannot actually handle.
type Parser interface {
	Name() string
	Extensions() []string
	CanParse(prefix []byte) bool
	Parse(r io.Reader, emit Emit) error
}

// sniffPrefixSize bounds how much of the source is buffered before a
// parse attempt begins; CanParse implementations see at most this
// many bytes.
const sniffPrefixSize = 512

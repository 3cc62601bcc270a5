// Package record defines the neutral message record shared by every
// parser and the columnar converter, independent of source format.
package record

import "fmt"

// Kind enumerates the error taxonomy a parse or lookup operation can
// fail with. HTTP handlers map these to status codes; they are never
// surfaced to callers as bare strings.
type Kind string

const (
	Io                Kind = "io"
	ParseJson         Kind = "parse_json"
	ParseCsv          Kind = "parse_csv"
	InvalidTimestamp  Kind = "invalid_timestamp"
	InvalidDirection  Kind = "invalid_direction"
	MissingBodyJson   Kind = "missing_body_json"
	UnknownFormat     Kind = "unknown_format"
	SessionNotFound   Kind = "session_not_found"
	RowNotFound       Kind = "row_not_found"
	BadRequest        Kind = "bad_request"
)

// Error carries a Kind plus positional context (line number for
// NDJSON, element index for a JSON array, row number for CSV) so a
// caller can report exactly where ingest failed.
type Error struct {
	Kind Kind
	// Pos is 1-based for NDJSON/CSV line numbers, 0-based for JSON
	// array element indices, and -1 when no position applies.
	Pos int
	Msg string
	Err error
}

func (e *Error) Error() string {
	if e.Pos >= 0 {
		if e.Err != nil {
			return fmt.Sprintf("%s at %d: %s: %v", e.Kind, e.Pos, e.Msg, e.Err)
		}
		return fmt.Sprintf("%s at %d: %s", e.Kind, e.Pos, e.Msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds an Error with no positional context.
func NewError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Pos: -1, Msg: msg, Err: err}
}

// NewPosError builds an Error anchored to a line/element/row position.
func NewPosError(kind Kind, pos int, msg string, err error) *Error {
	return &Error{Kind: kind, Pos: pos, Msg: msg, Err: err}
}

// KindOf extracts the Kind from err if it (or something it wraps) is
// an *Error, returning ok=false otherwise.
func KindOf(err error) (Kind, bool) {
	var re *Error
	if ok := asError(err, &re); ok {
		return re.Kind, true
	}
	return "", false
}

func asError(err error, target **Error) bool {
	for err != nil {
		if re, ok := err.(*Error); ok {
			*target = re
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

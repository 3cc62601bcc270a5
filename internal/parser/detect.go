package parser

import "bytes"

// Format is the sniffed, advisory source format. The registry always
// re-confirms a sniffed guess with the candidate parser's CanParse
// before committing to it.
type Format string

const (
	FormatNDJSON    Format = "ndjson"
	FormatJSONArray Format = "json_array"
	FormatCSV       Format = "csv"
	FormatUnknown   Format = "unknown"
)

// Sniff inspects a read-ahead prefix and returns its best guess at the
// source format. It never consumes from a reader itself — callers pass
// the same bytes on to Parse after sniffing.
func Sniff(prefix []byte) Format {
	trimmed := bytes.TrimLeft(prefix, " \t\r\n")
	if len(trimmed) == 0 {
		return FormatUnknown
	}

	switch trimmed[0] {
	case '[':
		return FormatJSONArray
	case '{':
		if nlBeforeBracket(trimmed) {
			return FormatNDJSON
		}
	}

	if looksLikeCSVHeader(trimmed) {
		return FormatCSV
	}
	return FormatUnknown
}

// nlBeforeBracket reports whether a newline appears before the first
// ']' in the prefix — the signal that this is a sequence of
// independent '{'-led JSON objects (NDJSON) rather than a single
// object that merely contains an array value. Nesting is not tracked:
// the first ']' at any depth counts, so a first line holding an array
// value is not called NDJSON here.
func nlBeforeBracket(b []byte) bool {
	nl := bytes.IndexByte(b, '\n')
	br := bytes.IndexByte(b, ']')
	if nl < 0 {
		return false
	}
	if br < 0 {
		return true
	}
	return nl < br
}

// looksLikeCSVHeader reports whether the prefix's first line is a
// comma-delimited header row naming a body_json column, ahead of any
// newline.
func looksLikeCSVHeader(b []byte) bool {
	nl := bytes.IndexByte(b, '\n')
	header := b
	if nl >= 0 {
		header = b[:nl]
	}
	comma := bytes.IndexByte(header, ',')
	if comma < 0 {
		return false
	}
	return bytes.Contains(bytes.ToLower(header), []byte("body_json"))
}

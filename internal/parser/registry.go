package parser

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	"github.com/secstrace/secstrace/internal/record"
)

// Registry holds the single central list of known parsers. Adding a
// format means adding one entry to NewRegistry; nothing else consults
// the parser set.
type Registry struct {
	parsers []Parser
}

// NewRegistry builds the registry with every concrete parser this
// module knows about. There is exactly one of these per process.
func NewRegistry() *Registry {
	return &Registry{
		parsers: []Parser{
			NDJSONParser{},
			JSONArrayParser{},
			CSVParser{},
		},
	}
}

func (reg *Registry) byName(name Format) Parser {
	for _, p := range reg.parsers {
		if p.Name() == string(name) {
			return p
		}
	}
	return nil
}

func (reg *Registry) byExtension(ext string) Parser {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, p := range reg.parsers {
		for _, e := range p.Extensions() {
			if e == ext {
				return p
			}
		}
	}
	return nil
}

// ParseAuto reads ahead far enough to sniff the format, re-confirms
// the guess with the candidate's CanParse, and falls back to trying
// every registered parser in order before giving up with
// UnknownFormat.
func (reg *Registry) ParseAuto(r io.Reader, emit Emit) error {
	br := bufio.NewReaderSize(r, sniffPrefixSize)
	prefix, _ := br.Peek(sniffPrefixSize)

	// An empty (or all-whitespace) source is a valid zero-record
	// upload, not an unknown format.
	if len(bytes.TrimSpace(prefix)) == 0 {
		return nil
	}

	guess := Sniff(prefix)
	if p := reg.byName(guess); p != nil && p.CanParse(prefix) {
		return p.Parse(br, emit)
	}

	for _, p := range reg.parsers {
		if p.CanParse(prefix) {
			return p.Parse(br, emit)
		}
	}
	return record.NewError(record.UnknownFormat, "no registered parser recognizes this input", nil)
}

// ParseWithHint tries the parser(s) registered for ext first; if none
// match, or the matched parser rejects the prefix via CanParse, it
// falls back to ParseAuto.
func (reg *Registry) ParseWithHint(ext string, r io.Reader, emit Emit) error {
	br := bufio.NewReaderSize(r, sniffPrefixSize)
	prefix, _ := br.Peek(sniffPrefixSize)

	if p := reg.byExtension(ext); p != nil && p.CanParse(prefix) {
		return p.Parse(br, emit)
	}
	return reg.ParseAuto(br, emit)
}

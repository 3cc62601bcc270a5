package parser

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/secstrace/secstrace/internal/record"
)

// NDJSONParser reads one JSON object per line, skipping blank lines,
// and reports errors with 1-based line numbers.
type NDJSONParser struct{}

func (NDJSONParser) Name() string { return "ndjson" }

func (NDJSONParser) Extensions() []string { return []string{"ndjson", "jsonl"} }

// CanParse accepts any prefix whose first non-whitespace byte opens a
// JSON object. That is deliberately looser than the sniffer, which
// needs a newline in the prefix to call something NDJSON: a one-line
// file with no trailing newline is still valid NDJSON, and the
// registry's trial pass should be able to hand it here.
func (NDJSONParser) CanParse(prefix []byte) bool {
	trimmed := bytes.TrimLeft(prefix, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func (NDJSONParser) Parse(r io.Reader, emit Emit) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var m map[string]interface{}
		if err := json.Unmarshal([]byte(text), &m); err != nil {
			return record.NewPosError(record.ParseJson, line, "invalid JSON object", err)
		}
		msg, err := decodeFields(m)
		if err != nil {
			if re, ok := err.(*record.Error); ok && re.Pos < 0 {
				return record.NewPosError(re.Kind, line, re.Msg, re.Err)
			}
			return err
		}
		if err := emit(msg); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return record.NewError(record.Io, "reading ndjson stream", err)
	}
	return nil
}

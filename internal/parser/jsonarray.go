package parser

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/secstrace/secstrace/internal/record"
)

// JSONArrayParser reads a single top-level JSON array of record
// objects, streaming elements via json.Decoder rather than buffering
// the whole array, and reports errors with 0-based element indices.
type JSONArrayParser struct{}

func (JSONArrayParser) Name() string { return "json_array" }

func (JSONArrayParser) Extensions() []string { return []string{"json"} }

func (JSONArrayParser) CanParse(prefix []byte) bool {
	return Sniff(prefix) == FormatJSONArray
}

func (JSONArrayParser) Parse(r io.Reader, emit Emit) error {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return record.NewError(record.ParseJson, "reading opening token", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return record.NewError(record.ParseJson, "expected top-level JSON array", nil)
	}

	idx := 0
	for dec.More() {
		var m map[string]interface{}
		if err := dec.Decode(&m); err != nil {
			return record.NewPosError(record.ParseJson, idx, "invalid array element", err)
		}
		msg, err := decodeFields(m)
		if err != nil {
			var re *record.Error
			if errors.As(err, &re) && re.Pos < 0 {
				return record.NewPosError(re.Kind, idx, re.Msg, re.Err)
			}
			return err
		}
		if err := emit(msg); err != nil {
			return err
		}
		idx++
	}

	if _, err := dec.Token(); err != nil {
		return record.NewError(record.ParseJson, "reading closing token", err)
	}
	return nil
}

package parser

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/secstrace/secstrace/internal/record"
)

// CSVParser reads RFC-4180 CSV with a mandatory header row naming the
// same fields as the JSON formats, with body_json carried as a quoted
// JSON-encoded string cell. Errors are reported with 1-based data-row
// numbers (the header row is not counted).
type CSVParser struct{}

func (CSVParser) Name() string { return "csv" }

func (CSVParser) Extensions() []string { return []string{"csv"} }

// CanParse accepts what the sniffer calls CSV, except a prefix that
// opens a JSON object: a single '{'-led line with commas and a
// body_json key passes the sniffer's header check but is not a header.
func (CSVParser) CanParse(prefix []byte) bool {
	trimmed := bytes.TrimLeft(prefix, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return false
	}
	return Sniff(prefix) == FormatCSV
}

func (CSVParser) Parse(r io.Reader, emit Emit) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return record.NewError(record.ParseCsv, "reading header row", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(strings.ToLower(h))] = i
	}
	if _, ok := col["body_json"]; !ok {
		return record.NewError(record.ParseCsv, "header row missing body_json column", nil)
	}

	row := 0
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			return record.NewPosError(record.ParseCsv, row, "malformed CSV row", err)
		}

		m, err := csvRowToFields(fields, col)
		if err != nil {
			return record.NewPosError(record.ParseCsv, row, "invalid row value", err)
		}
		msg, err := decodeFields(m)
		if err != nil {
			if re, ok := err.(*record.Error); ok && re.Pos < 0 {
				return record.NewPosError(re.Kind, row, re.Msg, re.Err)
			}
			return err
		}
		if err := emit(msg); err != nil {
			return err
		}
	}
	return nil
}

func csvRowToFields(fields []string, col map[string]int) (map[string]interface{}, error) {
	get := func(name string) (string, bool) {
		i, ok := col[name]
		if !ok || i >= len(fields) {
			return "", false
		}
		return fields[i], true
	}

	m := map[string]interface{}{}
	if v, ok := get("ts_iso"); ok {
		m["ts_iso"] = v
	}
	if v, ok := get("dir"); ok {
		m["dir"] = v
	}
	if v, ok := get("s"); ok {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, err
		}
		m["s"] = n
	}
	if v, ok := get("f"); ok {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, err
		}
		m["f"] = n
	}
	if v, ok := get("wbit"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, err
		}
		m["wbit"] = b
	}
	if v, ok := get("sysbytes"); ok {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, err
		}
		m["sysbytes"] = n
	}
	if v, ok := get("ceid"); ok && v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, err
		}
		m["ceid"] = n
	}
	if v, ok := get("body_json"); ok {
		var body map[string]interface{}
		if err := json.Unmarshal([]byte(v), &body); err != nil {
			return nil, err
		}
		m["body_json"] = body
	}
	return m, nil
}

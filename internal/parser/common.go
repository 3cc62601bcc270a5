package parser

import (
	"fmt"
	"strconv"

	"github.com/secstrace/secstrace/internal/record"
)

// decodeFields builds a record.Message out of a generic JSON object
// decoded from any of the three source formats. It is the single
// place field names and coercion rules live, so NDJSON, JSON-array,
// and CSV (after its row is turned into the same shape) all go
// through identical validation.
func decodeFields(m map[string]interface{}) (record.Message, error) {
	var msg record.Message

	tsRaw, ok := m["ts_iso"].(string)
	if !ok {
		return msg, record.NewError(record.ParseJson, "missing or non-string \"ts_iso\" field", nil)
	}
	ts, err := record.ParseTimestamp(tsRaw)
	if err != nil {
		return msg, err
	}
	msg.TS = ts

	dirRaw, ok := m["dir"].(string)
	if !ok {
		return msg, record.NewError(record.ParseJson, "missing or non-string \"dir\" field", nil)
	}
	dir, err := record.ParseDirection(dirRaw)
	if err != nil {
		return msg, err
	}
	msg.Dir = dir

	s, err := fieldUint8(m, "s")
	if err != nil {
		return msg, err
	}
	msg.Stream = s

	f, err := fieldUint8(m, "f")
	if err != nil {
		return msg, err
	}
	msg.Function = f

	if wb, ok := m["wbit"]; ok {
		b, err := coerceWBit(wb)
		if err != nil {
			return msg, err
		}
		msg.WBit = b
	}

	sysbytes, err := fieldUint32(m, "sysbytes")
	if err != nil {
		return msg, err
	}
	msg.SysBytes = sysbytes

	if _, ok := m["ceid"]; ok {
		ceid, err := fieldUint32(m, "ceid")
		if err != nil {
			return msg, err
		}
		msg.CEID = ceid
	}

	body, ok := m["body_json"].(map[string]interface{})
	if !ok {
		return msg, record.NewError(record.MissingBodyJson, "missing or non-object \"body_json\" field", nil)
	}
	msg.BodyJSON = body

	return msg, nil
}

// coerceWBit accepts the wait-bit as a bool, a 0/1 number, or a
// "0"/"1"/"false"/"true" string; the bit is a numeric field in most
// exporters and a bool in the rest.
func coerceWBit(v interface{}) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case float64:
		switch b {
		case 0:
			return false, nil
		case 1:
			return true, nil
		}
	case string:
		switch b {
		case "0", "false":
			return false, nil
		case "1", "true":
			return true, nil
		}
	}
	return false, record.NewError(record.ParseJson, "\"wbit\" must be 0 or 1", nil)
}

func fieldUint8(m map[string]interface{}, key string) (uint8, error) {
	n, err := fieldNumber(m, key)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > 255 {
		return 0, record.NewError(record.ParseJson, fmt.Sprintf("%q out of uint8 range: %v", key, n), nil)
	}
	return uint8(n), nil
}

func fieldUint32(m map[string]interface{}, key string) (uint32, error) {
	n, err := fieldNumber(m, key)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > 4294967295 {
		return 0, record.NewError(record.ParseJson, fmt.Sprintf("%q out of uint32 range: %v", key, n), nil)
	}
	return uint32(n), nil
}

// fieldNumber accepts either a JSON number or a numeric string; some
// NDJSON/JSON-array exporters quote their numeric fields.
func fieldNumber(m map[string]interface{}, key string) (float64, error) {
	v, ok := m[key]
	if !ok {
		return 0, record.NewError(record.ParseJson, fmt.Sprintf("missing %q field", key), nil)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, record.NewError(record.ParseJson, fmt.Sprintf("%q must be a number", key), nil)
		}
		return f, nil
	default:
		return 0, record.NewError(record.ParseJson, fmt.Sprintf("%q must be a number", key), nil)
	}
}

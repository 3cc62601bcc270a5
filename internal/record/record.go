package record

import "time"

// Direction is the normalized HSMS message direction.
type Direction int8

const (
	// DirHostToEquipment is the wire value for "H->E".
	DirHostToEquipment Direction = 1
	// DirEquipmentToHost is the wire value for "E->H".
	DirEquipmentToHost Direction = -1
)

// ParseDirection normalizes the raw direction token found in a source
// record. Only the two exact ASCII tokens are accepted; anything else,
// including case variants or whitespace, is InvalidDirection — the
// wire protocol does not define a looser grammar for this field.
func ParseDirection(raw string) (Direction, error) {
	switch raw {
	case "H->E":
		return DirHostToEquipment, nil
	case "E->H":
		return DirEquipmentToHost, nil
	default:
		return 0, NewError(InvalidDirection, "unrecognized direction token: "+raw, nil)
	}
}

func (d Direction) String() string {
	switch d {
	case DirHostToEquipment:
		return "H->E"
	case DirEquipmentToHost:
		return "E->H"
	default:
		return "?"
	}
}

// Message is the neutral, format-independent record every parser
// produces and the columnar converter consumes.
type Message struct {
	TS       time.Time
	Dir      Direction
	Stream   uint8
	Function uint8
	WBit     bool
	SysBytes uint32
	CEID     uint32

	// BodyJSON is the decoded message body: secs_tree, semantic, or
	// both, carried as a generic map so unrecognized shapes are
	// preserved verbatim rather than rejected.
	BodyJSON map[string]interface{}
}

// TSNanos returns the record timestamp truncated to nanosecond
// precision, matching the int64 ts_ns columnar field.
func (m Message) TSNanos() int64 {
	return m.TS.UnixNano()
}

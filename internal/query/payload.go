package query

import "github.com/vmihailenco/msgpack/v5"

// unmarshalPayload decodes a row's stored MessagePack payload back
// into the generic map the canonical renderer expects.
func unmarshalPayload(b []byte, out *map[string]interface{}) error {
	return msgpack.Unmarshal(b, out)
}

package plugin

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// encodeArg msgpack-encodes a single call argument. The ABI is
// length-prefixed by extism's own host call framing, so the payload
// here is just the msgpack bytes.
func encodeArg(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	data, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("plugin: encode argument: %w", err)
	}
	return data, nil
}

// decodeResult msgpack-decodes a call's return payload into out, which
// must be a pointer.
func decodeResult(data []byte, out any) error {
	if out == nil {
		return nil
	}
	if err := msgpack.Unmarshal(data, out); err != nil {
		return fmt.Errorf("plugin: decode result: %w", err)
	}
	return nil
}

package tablekv

import (
	"bytes"
	"encoding/json"
	"slices"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec turns keys and values into opaque bytes and back. Encodings must be
// deterministic: equal logical values must encode to equal bytes, because key
// lookups and Search compare encoded bytes.
type Codec interface {
	Name() string
	Encode(v any) ([]byte, error)
	Decode(data []byte) (any, error)
	DecodeInto(data []byte, out any) error
}

var (
	// Native encodes via msgpack with sorted map keys. Handles arbitrary
	// composite values, including struct types, at the cost of a binary
	// representation.
	Native Codec = nativeCodec{}

	// JSON encodes via encoding/json. Human-readable; rejects values JSON
	// cannot represent (channels, functions, NaN) with ErrUnsupportedType.
	JSON Codec = jsonCodec{}

	// Raw passes []byte and string through untouched and rejects everything
	// else. Decodes to []byte.
	Raw Codec = rawCodec{}
)

type nativeCodec struct{}

func (nativeCodec) Name() string { return "native" }

func (nativeCodec) Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.GetEncoder()
	enc.Reset(&buf)
	enc.SetSortMapKeys(true)
	err := enc.Encode(v)
	msgpack.PutEncoder(enc)
	if err != nil {
		return nil, codecErrf("native", nil, ErrUnsupportedType, "cannot encode %T: %v", v, err)
	}
	return buf.Bytes(), nil
}

func (nativeCodec) Decode(data []byte) (any, error) {
	var r bytes.Reader
	r.Reset(data)
	dec := msgpack.GetDecoder()
	dec.Reset(&r)
	dec.UseLooseInterfaceDecoding(true)
	v, err := dec.DecodeInterface()
	msgpack.PutDecoder(dec)
	if err != nil {
		return nil, codecErrf("native", data, ErrCorruptData, "%v", err)
	}
	return v, nil
}

func (nativeCodec) DecodeInto(data []byte, out any) error {
	if err := msgpack.Unmarshal(data, out); err != nil {
		return codecErrf("native", data, ErrCorruptData, "cannot decode into %T: %v", out, err)
	}
	return nil
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Encode(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, codecErrf("json", nil, ErrUnsupportedType, "cannot encode %T: %v", v, err)
	}
	return raw, nil
}

func (jsonCodec) Decode(data []byte) (any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, codecErrf("json", data, ErrCorruptData, "%v", err)
	}
	return v, nil
}

func (jsonCodec) DecodeInto(data []byte, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		return codecErrf("json", data, ErrCorruptData, "cannot decode into %T: %v", out, err)
	}
	return nil
}

type rawCodec struct{}

func (rawCodec) Name() string { return "raw" }

func (rawCodec) Encode(v any) ([]byte, error) {
	switch v := v.(type) {
	case []byte:
		return slices.Clone(v), nil
	case string:
		return []byte(v), nil
	default:
		return nil, codecErrf("raw", nil, ErrUnsupportedType, "cannot encode %T, want []byte or string", v)
	}
}

func (rawCodec) Decode(data []byte) (any, error) {
	return slices.Clone(data), nil
}

func (rawCodec) DecodeInto(data []byte, out any) error {
	switch out := out.(type) {
	case *[]byte:
		*out = slices.Clone(data)
	case *string:
		*out = string(data)
	case *any:
		*out = slices.Clone(data)
	default:
		return codecErrf("raw", data, ErrUnsupportedType, "cannot decode into %T, want *[]byte or *string", out)
	}
	return nil
}

// resolveCodec implements the default precedence: explicit choice first, then
// the database default, then Native.
func resolveCodec(explicit, dbDefault Codec) Codec {
	if explicit != nil {
		return explicit
	}
	if dbDefault != nil {
		return dbDefault
	}
	return Native
}

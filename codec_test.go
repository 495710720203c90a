package tablekv

import (
	"bytes"
	"testing"
)

func TestNativeRoundTrip(t *testing.T) {
	for _, v := range []any{
		nil,
		true,
		int64(42),
		int64(-100),
		float64(3.14),
		"hello",
		[]byte{0x00, 0xff},
		[]any{int64(1), "two", float64(3)},
		map[string]any{"a": int64(1), "b": []any{"x"}},
	} {
		data := must(Native.Encode(v))
		deepEqual(t, must(Native.Decode(data)), v)
	}
}

func TestNativeDeterministicMaps(t *testing.T) {
	// sorted map keys: equal maps encode to equal bytes
	a := must(Native.Encode(map[string]any{"x": 1, "y": 2, "z": 3}))
	b := must(Native.Encode(map[string]any{"z": 3, "y": 2, "x": 1}))
	if !bytes.Equal(a, b) {
		t.Errorf("** map encoding not canonical: %x vs %x", a, b)
	}
}

func TestNativeStructRoundTrip(t *testing.T) {
	type point struct {
		X int `msgpack:"x"`
		Y int `msgpack:"y"`
	}
	data := must(Native.Encode(point{X: 1, Y: 2}))
	var p point
	ensure(Native.DecodeInto(data, &p))
	deepEqual(t, p, point{X: 1, Y: 2})
}

func TestNativeCorruptData(t *testing.T) {
	_, err := Native.Decode([]byte{0xc1}) // 0xc1 is never a valid msgpack byte
	iserr(t, err, ErrCorruptData)
}

func TestJSONRoundTrip(t *testing.T) {
	for _, v := range []any{
		nil,
		true,
		float64(42),
		"hello",
		[]any{float64(1), "two"},
		map[string]any{"a": float64(1), "b": []any{"x"}},
	} {
		data := must(JSON.Encode(v))
		deepEqual(t, must(JSON.Decode(data)), v)
	}
}

func TestJSONReadable(t *testing.T) {
	data := must(JSON.Encode(map[string]any{"b": 2, "a": 1}))
	deepEqual(t, string(data), `{"a":1,"b":2}`)
}

func TestJSONUnsupportedType(t *testing.T) {
	_, err := JSON.Encode(make(chan int))
	iserr(t, err, ErrUnsupportedType)

	_, err = JSON.Encode(func() {})
	iserr(t, err, ErrUnsupportedType)
}

func TestJSONCorruptData(t *testing.T) {
	_, err := JSON.Decode([]byte(`{"truncated`))
	iserr(t, err, ErrCorruptData)

	var out map[string]any
	iserr(t, JSON.DecodeInto([]byte(`]`), &out), ErrCorruptData)
}

func TestRawRoundTrip(t *testing.T) {
	data := must(Raw.Encode([]byte{1, 2, 3}))
	deepEqual(t, must(Raw.Decode(data)), any([]byte{1, 2, 3}))

	data = must(Raw.Encode("text"))
	deepEqual(t, data, []byte("text"))

	var s string
	ensure(Raw.DecodeInto([]byte("text"), &s))
	deepEqual(t, s, "text")
}

func TestRawUnsupportedType(t *testing.T) {
	_, err := Raw.Encode(42)
	iserr(t, err, ErrUnsupportedType)

	var n int
	iserr(t, Raw.DecodeInto([]byte("x"), &n), ErrUnsupportedType)
}

func TestCodecNames(t *testing.T) {
	deepEqual(t, Native.Name(), "native")
	deepEqual(t, JSON.Name(), "json")
	deepEqual(t, Raw.Name(), "raw")
}

func TestResolveCodec(t *testing.T) {
	deepEqual(t, resolveCodec(nil, nil).Name(), "native")
	deepEqual(t, resolveCodec(nil, JSON).Name(), "json")
	deepEqual(t, resolveCodec(Raw, JSON).Name(), "raw")
}

package tablekv

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

var (
	// ErrUnsupportedType is returned when a codec cannot represent a value.
	ErrUnsupportedType = errors.New("unsupported type")
	// ErrCorruptData is returned when stored bytes are not valid for a codec.
	ErrCorruptData = errors.New("corrupt data")

	// ErrKeyExists is returned by Put when the encoded key is already present.
	ErrKeyExists = errors.New("key already exists")
	// ErrKeyNotFound is returned by Fetch and Update when the key is absent.
	ErrKeyNotFound = errors.New("key not found")

	// ErrCollectionNotFound is returned when a named collection does not exist.
	ErrCollectionNotFound = errors.New("collection not found")
	// ErrCollectionDeleted is returned by operations on a dropped collection handle.
	ErrCollectionDeleted = errors.New("collection deleted")
	// ErrNameConflict is returned by Rename when the target name is taken.
	ErrNameConflict = errors.New("collection name already in use")
	// ErrInvalidName is returned for collection names the substrate cannot hold.
	ErrInvalidName = errors.New("invalid collection name")

	// ErrStorageOpen is returned by Open when the substrate cannot be opened or created.
	ErrStorageOpen = errors.New("cannot open storage")
	// ErrDatabaseClosed is returned by operations on handles derived from a closed DB.
	ErrDatabaseClosed = errors.New("database closed")
)

// CollectionError wraps an operation failure with the collection name, the
// operation and a stable hash of the encoded key (zero when no key is
// involved). Raw key bytes never appear in error messages.
type CollectionError struct {
	Collection string
	Op         string
	KeyHash    uint64
	Err        error
}

func collErrf(coll, op string, encKey []byte, err error) error {
	var h uint64
	if encKey != nil {
		h = xxhash.Sum64(encKey)
	}
	return &CollectionError{Collection: coll, Op: op, KeyHash: h, Err: err}
}

func (e *CollectionError) Unwrap() error {
	return e.Err
}

func (e *CollectionError) Error() string {
	var buf strings.Builder
	buf.WriteString(e.Collection)
	if e.Op != "" {
		buf.WriteString(": ")
		buf.WriteString(e.Op)
	}
	if e.KeyHash != 0 {
		fmt.Fprintf(&buf, ": key %016x", e.KeyHash)
	}
	if e.Err != nil {
		buf.WriteString(": ")
		buf.WriteString(e.Err.Error())
	}
	return buf.String()
}

// CodecError wraps an encoding or decoding failure with the codec name and,
// for decoding, a truncated dump of the offending bytes.
type CodecError struct {
	Codec string
	Data  []byte
	Err   error
	Msg   string
}

func codecErrf(codec string, data []byte, err error, format string, args ...any) error {
	return &CodecError{Codec: codec, Data: data, Err: err, Msg: fmt.Sprintf(format, args...)}
}

func (e *CodecError) Unwrap() error {
	return e.Err
}

func (e *CodecError) Error() string {
	const prefixLen = 64
	const suffixLen = 32
	var buf strings.Builder
	buf.WriteString(e.Codec)
	buf.WriteString(": ")
	if e.Err != nil {
		buf.WriteString(e.Err.Error())
		buf.WriteString(": ")
	}
	buf.WriteString(e.Msg)
	if n := len(e.Data); n > 0 {
		if n <= prefixLen+suffixLen {
			fmt.Fprintf(&buf, ": (%d) %x", n, e.Data)
		} else {
			fmt.Fprintf(&buf, ": (%d) %x...%x", n, e.Data[:prefixLen], e.Data[n-suffixLen:])
		}
	}
	return buf.String()
}

package tablekv

// Cursor is a lazy, forward-only, single-pass iterator over one collection in
// storage order. It reflects the rows visible when it was created and is not
// restartable once exhausted. Key and Value decode on demand, so a loop that
// touches only keys never pays for value decoding.
//
// The effect of mutating the collection (from this process or another) while
// a cursor is open is undefined for the rows the cursor has not yet visited.
type Cursor struct {
	codec Codec
	tc    tableCursor
	err   error
}

// Cursor opens a cursor over the whole collection.
func (c *Collection) Cursor() (*Cursor, error) {
	tbl, err := c.table()
	if err != nil {
		return nil, err
	}
	tc, err := c.db.sub.Scan(tbl)
	if err != nil {
		return nil, collErrf(tbl, "scan", nil, err)
	}
	return &Cursor{codec: c.codec, tc: tc}, nil
}

// Next advances to the next row. It must be called before the first Key or
// Value access.
func (cur *Cursor) Next() bool {
	if cur.err != nil {
		return false
	}
	return cur.tc.Next()
}

// Key decodes and returns the current row's key.
func (cur *Cursor) Key() (any, error) {
	k, err := cur.codec.Decode(cur.tc.Key())
	if err != nil {
		cur.err = err
	}
	return k, err
}

// Value decodes and returns the current row's value.
func (cur *Cursor) Value() (any, error) {
	v, err := cur.codec.Decode(cur.tc.Value())
	if err != nil {
		cur.err = err
	}
	return v, err
}

// RawKey returns the current row's encoded key bytes, valid until Next.
func (cur *Cursor) RawKey() []byte {
	return cur.tc.Key()
}

// RawValue returns the current row's encoded value bytes, valid until Next.
func (cur *Cursor) RawValue() []byte {
	return cur.tc.Value()
}

// Err returns the first error encountered during iteration or decoding.
func (cur *Cursor) Err() error {
	if cur.err != nil {
		return cur.err
	}
	return cur.tc.Err()
}

// Close releases the cursor. Safe to call multiple times.
func (cur *Cursor) Close() error {
	return cur.tc.Close()
}

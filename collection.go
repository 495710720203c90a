package tablekv

import (
	"fmt"
)

// Collection is a handle to one named key-value namespace. Handles are cheap;
// all of them share the underlying table, and all of them go stale together
// when the collection is dropped or the DB is closed.
type Collection struct {
	db    *DB
	state *collState
	codec Codec
}

// Item is one decoded key-value pair.
type Item struct {
	Key   any
	Value any
}

// WithCodec returns a view of the collection that encodes and decodes with a
// different codec. The underlying data is shared; use this for per-operation
// codec overrides.
func (c *Collection) WithCodec(codec Codec) *Collection {
	return &Collection{db: c.db, state: c.state, codec: resolveCodec(codec, c.codec)}
}

// Name returns the collection's current name.
func (c *Collection) Name() string {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	return c.state.name
}

func (c *Collection) String() string {
	return fmt.Sprintf("Collection(%s, codec=%s)", c.Name(), c.codec.Name())
}

// Put inserts a new entry and fails with ErrKeyExists if the encoded key is
// already present, leaving the stored value untouched.
func (c *Collection) Put(key, value any) error {
	return c.put("put", key, value, false)
}

// PutReplace inserts a new entry or overwrites the existing value.
func (c *Collection) PutReplace(key, value any) error {
	return c.put("put", key, value, true)
}

func (c *Collection) put(op string, key, value any, replace bool) error {
	tbl, err := c.table()
	if err != nil {
		return err
	}
	ek, err := c.codec.Encode(key)
	if err != nil {
		return err
	}
	ev, err := c.codec.Encode(value)
	if err != nil {
		return err
	}
	if err := c.db.sub.Insert(tbl, ek, ev, replace); err != nil {
		return collErrf(tbl, op, ek, err)
	}
	return nil
}

// Get returns the value for key, or nil if the key is absent.
func (c *Collection) Get(key any) (any, error) {
	v, ok, err := c.get(key)
	if err != nil || !ok {
		return nil, err
	}
	return v, nil
}

// GetOr returns the value for key, or def if the key is absent.
func (c *Collection) GetOr(key, def any) (any, error) {
	v, ok, err := c.get(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return def, nil
	}
	return v, nil
}

// Fetch returns the value for key and fails with ErrKeyNotFound if absent.
func (c *Collection) Fetch(key any) (any, error) {
	v, ok, err := c.get(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		tbl, ek := c.describe(key)
		return nil, collErrf(tbl, "fetch", ek, ErrKeyNotFound)
	}
	return v, nil
}

// GetInto decodes the value for key into out (a pointer), and reports whether
// the key was found.
func (c *Collection) GetInto(key any, out any) (bool, error) {
	tbl, err := c.table()
	if err != nil {
		return false, err
	}
	ek, err := c.codec.Encode(key)
	if err != nil {
		return false, err
	}
	raw, ok, err := c.db.sub.Fetch(tbl, ek)
	if err != nil {
		return false, collErrf(tbl, "get", ek, err)
	}
	if !ok {
		return false, nil
	}
	return true, c.codec.DecodeInto(raw, out)
}

func (c *Collection) get(key any) (any, bool, error) {
	tbl, err := c.table()
	if err != nil {
		return nil, false, err
	}
	ek, err := c.codec.Encode(key)
	if err != nil {
		return nil, false, err
	}
	raw, ok, err := c.db.sub.Fetch(tbl, ek)
	if err != nil {
		return nil, false, collErrf(tbl, "get", ek, err)
	}
	if !ok {
		return nil, false, nil
	}
	v, err := c.codec.Decode(raw)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// Update overwrites the value of an existing key and fails with
// ErrKeyNotFound if the key is absent. No entry is created on failure.
func (c *Collection) Update(key, value any) error {
	tbl, err := c.table()
	if err != nil {
		return err
	}
	ek, err := c.codec.Encode(key)
	if err != nil {
		return err
	}
	ev, err := c.codec.Encode(value)
	if err != nil {
		return err
	}
	found, err := c.db.sub.Update(tbl, ek, ev)
	if err != nil {
		return collErrf(tbl, "update", ek, err)
	}
	if !found {
		return collErrf(tbl, "update", ek, ErrKeyNotFound)
	}
	return nil
}

// Delete removes the entry for key. Deleting an absent key is a no-op.
func (c *Collection) Delete(key any) error {
	tbl, err := c.table()
	if err != nil {
		return err
	}
	ek, err := c.codec.Encode(key)
	if err != nil {
		return err
	}
	if err := c.db.sub.Delete(tbl, ek); err != nil {
		return collErrf(tbl, "delete", ek, err)
	}
	return nil
}

// Exists reports whether the key is present, without decoding the value.
func (c *Collection) Exists(key any) (bool, error) {
	tbl, err := c.table()
	if err != nil {
		return false, err
	}
	ek, err := c.codec.Encode(key)
	if err != nil {
		return false, err
	}
	ok, err := c.db.sub.Exists(tbl, ek)
	if err != nil {
		return false, collErrf(tbl, "exists", ek, err)
	}
	return ok, nil
}

// Search returns the keys of all entries whose stored value bytes equal the
// encoding of value, in storage order. Equality is over encoded bytes; see
// the package documentation for the canonical-codec caveat.
func (c *Collection) Search(value any) ([]any, error) {
	tbl, err := c.table()
	if err != nil {
		return nil, err
	}
	ev, err := c.codec.Encode(value)
	if err != nil {
		return nil, err
	}
	raw, err := c.db.sub.SearchValue(tbl, ev)
	if err != nil {
		return nil, collErrf(tbl, "search", nil, err)
	}
	keys := make([]any, 0, len(raw))
	for _, ek := range raw {
		k, err := c.codec.Decode(ek)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// Keys returns all decoded keys in storage order.
func (c *Collection) Keys() ([]any, error) {
	var keys []any
	err := c.scan(func(cur *Cursor) error {
		k, err := cur.Key()
		if err != nil {
			return err
		}
		keys = append(keys, k)
		return nil
	})
	return keys, err
}

// Values returns all decoded values in storage order.
func (c *Collection) Values() ([]any, error) {
	var values []any
	err := c.scan(func(cur *Cursor) error {
		v, err := cur.Value()
		if err != nil {
			return err
		}
		values = append(values, v)
		return nil
	})
	return values, err
}

// Items returns all decoded key-value pairs in storage order.
func (c *Collection) Items() ([]Item, error) {
	var items []Item
	err := c.scan(func(cur *Cursor) error {
		k, err := cur.Key()
		if err != nil {
			return err
		}
		v, err := cur.Value()
		if err != nil {
			return err
		}
		items = append(items, Item{Key: k, Value: v})
		return nil
	})
	return items, err
}

func (c *Collection) scan(visit func(cur *Cursor) error) error {
	cur, err := c.Cursor()
	if err != nil {
		return err
	}
	defer cur.Close()
	for cur.Next() {
		if err := visit(cur); err != nil {
			return err
		}
	}
	return cur.Err()
}

// Rename renames the backing table, preserving all entries. Fails with
// ErrNameConflict if the new name already denotes a collection. The handle
// (and every other handle of this collection) keeps working under the new
// name.
func (c *Collection) Rename(newName string) error {
	return c.db.rename(c.state, newName)
}

func (c *Collection) table() (string, error) {
	return c.db.table(c.state)
}

// describe is used on error paths where the encoded key may be needed after
// the fact; encoding errors are ignored here since the operation failed for
// another reason already.
func (c *Collection) describe(key any) (string, []byte) {
	c.db.mu.Lock()
	tbl := c.state.name
	c.db.mu.Unlock()
	ek, err := c.codec.Encode(key)
	if err != nil {
		return tbl, nil
	}
	return tbl, ek
}

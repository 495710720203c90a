package tablekv

import (
	"testing"
)

func TestCursorItems(t *testing.T) {
	forEachSubstrate(t, func(t *testing.T, db *DB) {
		coll := must(db.Collection("stuff", CollectionOptions{}))
		ensure(coll.Put("key1", "value1"))
		ensure(coll.Put("key2", "value2"))
		ensure(coll.Put("key3", "value3"))

		cur := must(coll.Cursor())
		defer cur.Close()

		got := make(map[any]any)
		for cur.Next() {
			k := must(cur.Key())
			v := must(cur.Value())
			got[k] = v
		}
		ensure(cur.Err())
		deepEqual(t, got, map[any]any{"key1": "value1", "key2": "value2", "key3": "value3"})
	})
}

func TestCursorKeysOnly(t *testing.T) {
	db := setup(t)
	coll := must(db.Collection("stuff", CollectionOptions{}))
	ensure(coll.Put("a", "1"))
	ensure(coll.Put("b", "2"))

	cur := must(coll.Cursor())
	defer cur.Close()

	var keys []any
	for cur.Next() {
		keys = append(keys, must(cur.Key()))
	}
	ensure(cur.Err())
	deepEqual(t, keys, []any{"a", "b"})
}

func TestCursorEmptyCollection(t *testing.T) {
	forEachSubstrate(t, func(t *testing.T, db *DB) {
		coll := must(db.Collection("stuff", CollectionOptions{}))

		cur := must(coll.Cursor())
		defer cur.Close()
		deepEqual(t, cur.Next(), false)
		ensure(cur.Err())
	})
}

func TestCursorSinglePass(t *testing.T) {
	db := setup(t)
	coll := must(db.Collection("stuff", CollectionOptions{}))
	ensure(coll.Put("k", "v"))

	cur := must(coll.Cursor())
	defer cur.Close()
	deepEqual(t, cur.Next(), true)
	deepEqual(t, cur.Next(), false)
	deepEqual(t, cur.Next(), false) // stays exhausted
}

func TestCursorSnapshot(t *testing.T) {
	forEachSubstrate(t, func(t *testing.T, db *DB) {
		coll := must(db.Collection("stuff", CollectionOptions{}))
		ensure(coll.Put("a", "1"))
		ensure(coll.Put("b", "2"))

		cur := must(coll.Cursor())
		defer cur.Close()

		// writes while a cursor is open must not block or fail
		ensure(coll.Put("c", "3"))

		n := 0
		for cur.Next() {
			n++
		}
		ensure(cur.Err())
		deepEqual(t, n, 2)
	})
}

func TestCursorRawAccess(t *testing.T) {
	db := setup(t)
	coll := must(db.Collection("blobs", CollectionOptions{Codec: Raw}))
	ensure(coll.Put("k", []byte("v")))

	cur := must(coll.Cursor())
	defer cur.Close()
	deepEqual(t, cur.Next(), true)
	deepEqual(t, cur.RawKey(), []byte("k"))
	deepEqual(t, cur.RawValue(), []byte("v"))
}

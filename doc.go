/*
Package tablekv implements a document-style key-value store on top of an
embedded table engine (SQLite by default, Bolt as an alternative).

We implement:

1. Collections, named namespaces of key-value pairs, each backed by one table
with a unique key column.

2. Codecs, turning arbitrary keys and values into opaque bytes: a native
msgpack codec, a human-readable JSON codec, and a raw pass-through codec.

3. A database handle that owns the substrate connection and manages the
collection namespace (create, drop, rename, list).

# Technical Details

**Substrates.**
A substrate is a durable table engine: create/drop/rename/list tables, plus
insert-or-fail, upsert, point lookup, delete, existence check, exact-value
search and full scans over a single table. The SQLite substrate stores each
collection as a table with columns (key BLOB UNIQUE, value BLOB) and scans in
rowid order. The Bolt substrate stores each collection as a root bucket and
scans in encoded-key order. Scan order is a substrate property.

**Key identity.**
Lookups compare encoded key bytes, so a codec must encode equal logical keys
to equal bytes. Both built-in structured codecs sort map keys for this reason.

**Search.**
Search compares encoded value bytes. Logically equal values that encode to
different bytes under a non-canonical custom codec will not match; the
built-in codecs are canonical over their supported types.

**Decoded types.**
Decoding into `any` yields a closed set of types per codec: the native codec
produces bool, int64, uint64, float64, string, []byte, []any and
map[string]any; the JSON codec produces bool, float64, string, []any and
map[string]any; the raw codec produces []byte. Use DecodeInto (or
Collection.GetInto) to decode into concrete struct types.

**Cursors.**
A cursor is a forward-only single pass over a collection, decoding only the
keys and values the caller asks for. It reflects the rows visible when it was
created; the effect of concurrent external mutation on an open cursor is
undefined.

**Durability.**
Every public operation is a single substrate statement (or a single substrate
transaction), committed before the call returns. There is no transaction
spanning multiple calls.
*/
package tablekv

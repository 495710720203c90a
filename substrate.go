package tablekv

// substrate represents a durable table engine backing a DB (SQLite, Bolt, …).
// Each table holds encoded key-value pairs with a unique key constraint.
type substrate interface {
	// CreateTable creates a table if it doesn't exist.
	CreateTable(name string) error

	// DropTable deletes a table. Dropping a missing table is not an error.
	DropTable(name string) error

	// RenameTable renames a table in place, preserving its rows.
	RenameTable(oldName, newName string) error

	// HasTable reports whether the table exists.
	HasTable(name string) (bool, error)

	// ListTables returns all table names in name order.
	ListTables() ([]string, error)

	// Insert stores a key-value pair. With replace false, an existing key
	// fails with ErrKeyExists and leaves the stored value untouched; the
	// check and the write are one atomic substrate operation.
	Insert(table string, key, value []byte, replace bool) error

	// Update overwrites the value of an existing key. Returns false, without
	// writing anything, if the key is absent.
	Update(table string, key, value []byte) (bool, error)

	// Fetch retrieves a value by key. Returns ok=false if not found.
	Fetch(table string, key []byte) (value []byte, ok bool, err error)

	// Exists reports whether the key is present, without reading the value.
	Exists(table string, key []byte) (bool, error)

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(table string, key []byte) error

	// SearchValue returns the keys of all rows whose value bytes equal the
	// given bytes, in storage order.
	SearchValue(table string, value []byte) ([][]byte, error)

	// Scan returns a forward-only cursor over all rows in storage order.
	Scan(table string) (tableCursor, error)

	// Close releases the underlying connection.
	Close() error
}

// tableCursor iterates over one table's rows. Key and Value are valid until
// the next call to Next.
type tableCursor interface {
	Next() bool
	Key() []byte
	Value() []byte
	Err() error
	Close() error
}

// memCursor walks a raw row snapshot taken when the scan started. Both
// substrates snapshot on Scan so that writes issued while a cursor is open
// cannot deadlock on the substrate connection; decoding stays incremental.
type memCursor struct {
	keys   [][]byte
	values [][]byte
	pos    int
}

func (c *memCursor) Next() bool {
	if c.pos >= len(c.keys) {
		return false
	}
	c.pos++
	return true
}

func (c *memCursor) Key() []byte   { return c.keys[c.pos-1] }
func (c *memCursor) Value() []byte { return c.values[c.pos-1] }
func (c *memCursor) Err() error    { return nil }
func (c *memCursor) Close() error  { return nil }

// Substrate names accepted in Options.
const (
	SubstrateSQLite = "sqlite"
	SubstrateBolt   = "bolt"
)

// validateCollectionName rejects names the substrates cannot hold verbatim:
// table names are interpolated into SQL, so only identifier characters are
// allowed, and the sqlite_ prefix is reserved by SQLite itself.
func validateCollectionName(name string) error {
	if name == "" {
		return collErrf(name, "", nil, ErrInvalidName)
	}
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r == '_':
		case r >= '0' && r <= '9':
			if i == 0 {
				return collErrf(name, "", nil, ErrInvalidName)
			}
		default:
			return collErrf(name, "", nil, ErrInvalidName)
		}
	}
	if len(name) >= 7 && name[:7] == "sqlite_" {
		return collErrf(name, "", nil, ErrInvalidName)
	}
	return nil
}

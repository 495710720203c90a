package tablekv

import (
	"fmt"
	"sync"
)

// DB owns the substrate connection and manages the collection namespace.
// Collection handles borrow the connection and become invalid when the DB is
// closed or their collection is dropped.
type DB struct {
	sub   substrate
	codec Codec
	lgf   func(format string, args ...any)

	mu     sync.Mutex
	closed bool
	states map[string]*collState
}

// collState is shared by every handle of one collection, so a rename or drop
// through one handle is visible through all of them.
type collState struct {
	name    string
	deleted bool
}

type Options struct {
	// Substrate selects the table engine: SubstrateSQLite (default) or
	// SubstrateBolt.
	Substrate string

	// Codec is the default codec for collections that don't pick their own.
	// Nil means Native.
	Codec Codec

	// Logf, when set, receives namespace-level events (open, create, drop,
	// rename).
	Logf func(format string, args ...any)

	// IsTesting trades durability for speed (synchronous=OFF on SQLite,
	// NoSync on Bolt).
	IsTesting bool

	// Pragmas are extra statements executed after opening the SQLite
	// substrate, e.g. "PRAGMA journal_mode=DELETE". Ignored by other
	// substrates.
	Pragmas []string
}

// CollectionOptions configure one Collection lookup.
type CollectionOptions struct {
	// Codec overrides the DB default codec for this collection handle.
	Codec Codec

	// MustExist makes Collection fail with ErrCollectionNotFound instead of
	// implicitly creating the backing table.
	MustExist bool
}

// Open opens or creates the database at path. Opening the same path again is
// idempotent with respect to stored data. The parent directory is created if
// missing.
func Open(path string, opt Options) (*DB, error) {
	var sub substrate
	var err error
	switch opt.Substrate {
	case "", SubstrateSQLite:
		sub, err = openSQLite(path, opt)
	case SubstrateBolt:
		sub, err = openBolt(path, opt)
	default:
		return nil, fmt.Errorf("%w: unknown substrate %q", ErrStorageOpen, opt.Substrate)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrStorageOpen, path, err)
	}

	db := &DB{
		sub:    sub,
		codec:  resolveCodec(opt.Codec, nil),
		lgf:    opt.Logf,
		states: make(map[string]*collState),
	}
	db.logf("tablekv: opened %s", path)
	return db, nil
}

func (db *DB) logf(format string, args ...any) {
	if db.lgf != nil {
		db.lgf(format, args...)
	}
}

// Collection returns a handle to the named collection, creating its backing
// table if absent (unless opt.MustExist is set). Creation is idempotent.
func (db *DB) Collection(name string, opt CollectionOptions) (*Collection, error) {
	if err := validateCollectionName(name); err != nil {
		return nil, err
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return nil, ErrDatabaseClosed
	}

	has, err := db.sub.HasTable(name)
	if err != nil {
		return nil, collErrf(name, "open", nil, err)
	}
	if !has {
		if opt.MustExist {
			return nil, collErrf(name, "open", nil, ErrCollectionNotFound)
		}
		if err := db.sub.CreateTable(name); err != nil {
			return nil, collErrf(name, "create", nil, err)
		}
		db.logf("tablekv: created collection %s", name)
	}

	state := db.states[name]
	if state == nil {
		state = &collState{name: name}
		db.states[name] = state
	}
	return &Collection{
		db:    db,
		state: state,
		codec: resolveCodec(opt.Codec, db.codec),
	}, nil
}

// DropCollection deletes the named collection and all its entries, and
// invalidates every handle pointing at it.
func (db *DB) DropCollection(name string) error {
	if err := validateCollectionName(name); err != nil {
		return err
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return ErrDatabaseClosed
	}

	has, err := db.sub.HasTable(name)
	if err != nil {
		return collErrf(name, "drop", nil, err)
	}
	if !has {
		return collErrf(name, "drop", nil, ErrCollectionNotFound)
	}
	if err := db.sub.DropTable(name); err != nil {
		return collErrf(name, "drop", nil, err)
	}
	if state := db.states[name]; state != nil {
		state.deleted = true
		delete(db.states, name)
	}
	db.logf("tablekv: dropped collection %s", name)
	return nil
}

// Collections lists all collection names in name order.
func (db *DB) Collections() ([]string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return nil, ErrDatabaseClosed
	}
	return db.sub.ListTables()
}

// Close releases the substrate connection. All derived collection handles
// become invalid.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return nil
	}
	db.closed = true
	return db.sub.Close()
}

// rename is called by Collection.Rename with the state already resolved.
func (db *DB) rename(state *collState, newName string) error {
	if err := validateCollectionName(newName); err != nil {
		return err
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return ErrDatabaseClosed
	}
	if state.deleted {
		return collErrf(state.name, "rename", nil, ErrCollectionDeleted)
	}
	if newName == state.name {
		return nil
	}

	has, err := db.sub.HasTable(newName)
	if err != nil {
		return collErrf(state.name, "rename", nil, err)
	}
	if has {
		return collErrf(state.name, "rename", nil, ErrNameConflict)
	}
	if err := db.sub.RenameTable(state.name, newName); err != nil {
		return collErrf(state.name, "rename", nil, err)
	}
	db.logf("tablekv: renamed collection %s to %s", state.name, newName)

	delete(db.states, state.name)
	state.name = newName
	db.states[newName] = state
	return nil
}

// table resolves the current table name for a handle, checking that neither
// the DB nor the collection has gone away.
func (db *DB) table(state *collState) (string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return "", ErrDatabaseClosed
	}
	if state.deleted {
		return "", collErrf(state.name, "", nil, ErrCollectionDeleted)
	}
	return state.name, nil
}

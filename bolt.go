package tablekv

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"time"

	"go.etcd.io/bbolt"
)

// boltSubstrate keeps each collection in a root bucket. Bolt orders keys
// lexicographically, so storage order is encoded-key order rather than
// insertion order.
type boltSubstrate struct {
	bdb *bbolt.DB
}

func openBolt(path string, opt Options) (substrate, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	bopt := &bbolt.Options{
		Timeout: 10 * time.Second,
	}
	if opt.IsTesting {
		bopt.NoSync = true
		bopt.NoFreelistSync = true
	}
	bdb, err := bbolt.Open(path, 0666, bopt)
	if err != nil {
		return nil, err
	}
	return &boltSubstrate{bdb: bdb}, nil
}

func (s *boltSubstrate) CreateTable(name string) error {
	return s.bdb.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(name))
		return err
	})
}

func (s *boltSubstrate) DropTable(name string) error {
	return s.bdb.Update(func(tx *bbolt.Tx) error {
		err := tx.DeleteBucket([]byte(name))
		if errors.Is(err, bbolt.ErrBucketNotFound) {
			return nil
		}
		return err
	})
}

// RenameTable copies rows into a fresh bucket and drops the old one, all in a
// single writable transaction.
func (s *boltSubstrate) RenameTable(oldName, newName string) error {
	return s.bdb.Update(func(tx *bbolt.Tx) error {
		old := tx.Bucket([]byte(oldName))
		if old == nil {
			return ErrCollectionNotFound
		}
		fresh, err := tx.CreateBucket([]byte(newName))
		if err != nil {
			if errors.Is(err, bbolt.ErrBucketExists) {
				return ErrNameConflict
			}
			return err
		}
		err = old.ForEach(func(k, v []byte) error {
			return fresh.Put(k, v)
		})
		if err != nil {
			return err
		}
		return tx.DeleteBucket([]byte(oldName))
	})
}

func (s *boltSubstrate) HasTable(name string) (bool, error) {
	var found bool
	err := s.bdb.View(func(tx *bbolt.Tx) error {
		found = tx.Bucket([]byte(name)) != nil
		return nil
	})
	return found, err
}

func (s *boltSubstrate) ListTables() ([]string, error) {
	var names []string
	err := s.bdb.View(func(tx *bbolt.Tx) error {
		return tx.ForEach(func(name []byte, b *bbolt.Bucket) error {
			names = append(names, string(name))
			return nil
		})
	})
	return names, err
}

func (s *boltSubstrate) bucket(tx *bbolt.Tx, table string) (*bbolt.Bucket, error) {
	b := tx.Bucket([]byte(table))
	if b == nil {
		return nil, ErrCollectionNotFound
	}
	return b, nil
}

func (s *boltSubstrate) Insert(table string, key, value []byte, replace bool) error {
	return s.bdb.Update(func(tx *bbolt.Tx) error {
		b, err := s.bucket(tx, table)
		if err != nil {
			return err
		}
		if !replace && b.Get(key) != nil {
			return ErrKeyExists
		}
		return b.Put(key, value)
	})
}

func (s *boltSubstrate) Update(table string, key, value []byte) (bool, error) {
	var found bool
	err := s.bdb.Update(func(tx *bbolt.Tx) error {
		b, err := s.bucket(tx, table)
		if err != nil {
			return err
		}
		if b.Get(key) == nil {
			return nil
		}
		found = true
		return b.Put(key, value)
	})
	return found, err
}

func (s *boltSubstrate) Fetch(table string, key []byte) ([]byte, bool, error) {
	var value []byte
	var found bool
	err := s.bdb.View(func(tx *bbolt.Tx) error {
		b, err := s.bucket(tx, table)
		if err != nil {
			return err
		}
		if v := b.Get(key); v != nil {
			value = slices.Clone(v)
			found = true
		}
		return nil
	})
	return value, found, err
}

func (s *boltSubstrate) Exists(table string, key []byte) (bool, error) {
	var found bool
	err := s.bdb.View(func(tx *bbolt.Tx) error {
		b, err := s.bucket(tx, table)
		if err != nil {
			return err
		}
		found = b.Get(key) != nil
		return nil
	})
	return found, err
}

func (s *boltSubstrate) Delete(table string, key []byte) error {
	return s.bdb.Update(func(tx *bbolt.Tx) error {
		b, err := s.bucket(tx, table)
		if err != nil {
			return err
		}
		return b.Delete(key)
	})
}

func (s *boltSubstrate) SearchValue(table string, value []byte) ([][]byte, error) {
	var keys [][]byte
	err := s.bdb.View(func(tx *bbolt.Tx) error {
		b, err := s.bucket(tx, table)
		if err != nil {
			return err
		}
		return b.ForEach(func(k, v []byte) error {
			if bytes.Equal(v, value) {
				keys = append(keys, slices.Clone(k))
			}
			return nil
		})
	})
	return keys, err
}

func (s *boltSubstrate) Scan(table string) (tableCursor, error) {
	cur := &memCursor{}
	err := s.bdb.View(func(tx *bbolt.Tx) error {
		b, err := s.bucket(tx, table)
		if err != nil {
			return err
		}
		return b.ForEach(func(k, v []byte) error {
			cur.keys = append(cur.keys, slices.Clone(k))
			cur.values = append(cur.values, slices.Clone(v))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return cur, nil
}

func (s *boltSubstrate) Close() error {
	return s.bdb.Close()
}

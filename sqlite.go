package tablekv

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// sqliteSubstrate is the default substrate: one SQLite file per database, one
// table per collection with (key BLOB UNIQUE, value BLOB), WAL journaling.
// Storage order is rowid order, i.e. insertion order.
type sqliteSubstrate struct {
	db *sql.DB
}

func openSQLite(path string, opt Options) (substrate, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// All access goes through one connection: the model is single-threaded,
	// and :memory: databases are per-connection.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=10000",
	}
	if opt.IsTesting {
		pragmas[1] = "PRAGMA synchronous=OFF"
	}
	pragmas = append(pragmas, opt.Pragmas...)
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}
	return &sqliteSubstrate{db: db}, nil
}

// quoteIdent relies on validateCollectionName having restricted names to
// identifier characters, so no escaping is needed.
func quoteIdent(name string) string {
	return `"` + name + `"`
}

func (s *sqliteSubstrate) CreateTable(name string) error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS ` + quoteIdent(name) + ` (key BLOB NOT NULL UNIQUE, value BLOB NOT NULL)`)
	return err
}

func (s *sqliteSubstrate) DropTable(name string) error {
	_, err := s.db.Exec(`DROP TABLE IF EXISTS ` + quoteIdent(name))
	return err
}

func (s *sqliteSubstrate) RenameTable(oldName, newName string) error {
	_, err := s.db.Exec(`ALTER TABLE ` + quoteIdent(oldName) + ` RENAME TO ` + quoteIdent(newName))
	return err
}

func (s *sqliteSubstrate) HasTable(name string) (bool, error) {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (s *sqliteSubstrate) ListTables() ([]string, error) {
	rows, err := s.db.Query(`SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *sqliteSubstrate) Insert(table string, key, value []byte, replace bool) error {
	if replace {
		_, err := s.db.Exec(`INSERT INTO `+quoteIdent(table)+` (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value=excluded.value`, key, value)
		return err
	}
	// DO NOTHING makes the duplicate check and the insert one atomic
	// statement; zero affected rows means the key was already there.
	res, err := s.db.Exec(`INSERT INTO `+quoteIdent(table)+` (key, value) VALUES (?, ?) ON CONFLICT(key) DO NOTHING`, key, value)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrKeyExists
	}
	return nil
}

func (s *sqliteSubstrate) Update(table string, key, value []byte) (bool, error) {
	res, err := s.db.Exec(`UPDATE `+quoteIdent(table)+` SET value=? WHERE key=?`, value, key)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *sqliteSubstrate) Fetch(table string, key []byte) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRow(`SELECT value FROM `+quoteIdent(table)+` WHERE key=?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (s *sqliteSubstrate) Exists(table string, key []byte) (bool, error) {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM `+quoteIdent(table)+` WHERE key=? LIMIT 1`, key).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (s *sqliteSubstrate) Delete(table string, key []byte) error {
	_, err := s.db.Exec(`DELETE FROM `+quoteIdent(table)+` WHERE key=?`, key)
	return err
}

func (s *sqliteSubstrate) SearchValue(table string, value []byte) ([][]byte, error) {
	rows, err := s.db.Query(`SELECT key FROM `+quoteIdent(table)+` WHERE value=? ORDER BY rowid`, value)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var keys [][]byte
	for rows.Next() {
		var key []byte
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (s *sqliteSubstrate) Scan(table string) (tableCursor, error) {
	rows, err := s.db.Query(`SELECT key, value FROM ` + quoteIdent(table) + ` ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	cur := &memCursor{}
	for rows.Next() {
		var key, value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		cur.keys = append(cur.keys, key)
		cur.values = append(cur.values, value)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return cur, nil
}

func (s *sqliteSubstrate) Close() error {
	return s.db.Close()
}

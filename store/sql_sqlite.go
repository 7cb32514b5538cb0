package store

import (
	_ "github.com/mattn/go-sqlite3"
)

// NewSQLiteStore opens a SQLite-backed SQLStore at path, matching the
// teacher's DBPool single-connection rule for SQLite (only one writer is
// ever allowed, to avoid "database is locked" errors).
func NewSQLiteStore(path string) (*SQLStore, error) {
	db, err := openAndPing("sqlite3", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return NewSQLStore(db, "sqlite"), nil
}

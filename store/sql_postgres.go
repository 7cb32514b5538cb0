package store

import (
	_ "github.com/lib/pq"
)

// NewPostgresStore opens a Postgres-backed SQLStore at dsn.
func NewPostgresStore(dsn string) (*SQLStore, error) {
	db, err := openAndPing("postgres", dsn)
	if err != nil {
		return nil, err
	}
	return NewSQLStore(db, "postgres"), nil
}

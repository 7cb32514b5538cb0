package store

import (
	_ "github.com/go-sql-driver/mysql"
)

// NewMySQLStore opens a MySQL-backed SQLStore at dsn.
func NewMySQLStore(dsn string) (*SQLStore, error) {
	db, err := openAndPing("mysql", dsn)
	if err != nil {
		return nil, err
	}
	return NewSQLStore(db, "mysql"), nil
}

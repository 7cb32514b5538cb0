package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SQLStore is a reference Store backed by a single-table key/value schema,
// shared across the sqlite, postgres, and mysql variants in
// sql_sqlite.go/sql_postgres.go/sql_mysql.go: only the driver, DSN, and
// placeholder style differ, the SQL itself is backend-agnostic because the
// schema is deliberately minimal (kind, key, value columns).
//
// EnsureSchema creates the table if missing (see EnsureSchema below); it is
// safe to call on every startup.
type SQLStore struct {
	db      *sql.DB
	dialect string // "sqlite", "postgres", or "mysql"
}

// NewSQLStore wraps an already-opened *sql.DB. dialect controls query
// placeholder style ("?" for sqlite/mysql, "$N" for postgres); callers
// normally reach SQLStore through NewSQLiteStore/NewPostgresStore/
// NewMySQLStore rather than constructing it directly.
func NewSQLStore(db *sql.DB, dialect string) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

// EnsureSchema creates the backing table if it does not already exist,
// using the blob column type each dialect actually supports (BYTEA on
// postgres, BLOB elsewhere).
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	blobType := "BLOB"
	if s.dialect == "postgres" {
		blobType = "BYTEA"
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS cogency_store (
		kind  TEXT NOT NULL,
		key   TEXT NOT NULL,
		value %s NOT NULL,
		PRIMARY KEY (kind, key)
	)`, blobType)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("store: ensure schema: %w", err)
	}
	return nil
}

// query rewrites a "?"-placeholder query into postgres's "$1, $2, ..."
// style when needed, mirroring the per-dialect query swap the teacher's
// SQLTaskService does inline at each call site.
func (s *SQLStore) query(q string) string {
	if s.dialect != "postgres" {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) Save(ctx context.Context, kind Kind, key string, value []byte) error {
	upsert := `INSERT INTO cogency_store (kind, key, value) VALUES (?, ?, ?)
		 ON CONFLICT (kind, key) DO UPDATE SET value = excluded.value`
	_, err := s.db.ExecContext(ctx, s.query(upsert), string(kind), key, value)
	if err != nil {
		return fmt.Errorf("store: save %s/%s: %w", kind, key, err)
	}
	return nil
}

func (s *SQLStore) Load(ctx context.Context, kind Kind, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		s.query(`SELECT value FROM cogency_store WHERE kind = ? AND key = ?`),
		string(kind), key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: load %s/%s: %w", kind, key, err)
	}
	return value, nil
}

func (s *SQLStore) Delete(ctx context.Context, kind Kind, key string) error {
	_, err := s.db.ExecContext(ctx,
		s.query(`DELETE FROM cogency_store WHERE kind = ? AND key = ?`),
		string(kind), key)
	if err != nil {
		return fmt.Errorf("store: delete %s/%s: %w", kind, key, err)
	}
	return nil
}

func (s *SQLStore) List(ctx context.Context, kind Kind) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.query(`SELECT key FROM cogency_store WHERE kind = ?`), string(kind))
	if err != nil {
		return nil, fmt.Errorf("store: list %s: %w", kind, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("store: list %s: %w", kind, err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// openAndPing opens db with driverName/dsn and verifies connectivity,
// mirroring the teacher's DBPool.createPool connect-and-ping sequence.
func openAndPing(driverName, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", driverName, err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping %s: %w", driverName, err)
	}
	return db, nil
}

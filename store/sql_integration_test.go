package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

// runSQLStoreContract exercises the Store contract against s, the same way
// memory_test.go exercises MemoryStore — one shared assertion body so each
// dialect's test stays a thin setup/teardown wrapper.
func runSQLStoreContract(t *testing.T, s *SQLStore) {
	t.Helper()
	ctx := context.Background()

	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}

	if err := s.Save(ctx, KindWorkspace, "task-1", []byte("hello")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load(ctx, KindWorkspace, "task-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("Load = %q, want hello", got)
	}

	if err := s.Save(ctx, KindWorkspace, "task-1", []byte("updated")); err != nil {
		t.Fatalf("Save (update): %v", err)
	}
	got, err = s.Load(ctx, KindWorkspace, "task-1")
	if err != nil {
		t.Fatalf("Load after update: %v", err)
	}
	if string(got) != "updated" {
		t.Errorf("Load after update = %q, want updated", got)
	}

	if err := s.Save(ctx, KindWorkspace, "task-2", []byte("other")); err != nil {
		t.Fatalf("Save task-2: %v", err)
	}
	keys, err := s.List(ctx, KindWorkspace)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(keys) != 2 {
		t.Errorf("List len = %d, want 2", len(keys))
	}

	if err := s.Delete(ctx, KindWorkspace, "task-2"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Load(ctx, KindWorkspace, "task-2"); err != ErrNotFound {
		t.Errorf("Load after delete: err = %v, want ErrNotFound", err)
	}
}

// TestSQLiteStore_Contract runs the Store contract against a real SQLite
// file, matching the teacher's document_store_sql_api_integration_test.go
// pattern: SQLite needs no server, so it runs unconditionally.
func TestSQLiteStore_Contract(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	runSQLStoreContract(t, s)
}

// TestPostgresStore_Contract requires a running Postgres reachable via
// TEST_POSTGRES_DSN, matching the teacher's pgvector store_integration_test.go
// skip convention; it is skipped in environments without one.
func TestPostgresStore_Contract(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("skipping integration test: TEST_POSTGRES_DSN not set")
	}
	s, err := NewPostgresStore(dsn)
	if err != nil {
		t.Fatalf("NewPostgresStore: %v", err)
	}
	runSQLStoreContract(t, s)
}

// TestMySQLStore_Contract requires a running MySQL reachable via
// TEST_MYSQL_DSN; it is skipped in environments without one.
func TestMySQLStore_Contract(t *testing.T) {
	dsn := os.Getenv("TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("skipping integration test: TEST_MYSQL_DSN not set")
	}
	s, err := NewMySQLStore(dsn)
	if err != nil {
		t.Fatalf("NewMySQLStore: %v", err)
	}
	runSQLStoreContract(t, s)
}

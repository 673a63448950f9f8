package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	// Verify file was created
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_OpensExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	// Create database
	s1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open() failed: %v", err)
	}
	s1.Close()

	// Reopen database
	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	defer s2.Close()

	// Verify we can query it
	var count int
	err = s2.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&count)
	if err != nil {
		t.Errorf("query failed: %v", err)
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	// Open multiple times
	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	// Final open should work
	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	// Verify schema is intact
	tables := []string{"documents", "runs", "run_documents", "run_values"}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	// Try to open in non-existent directory
	path := "/nonexistent/dir/test.db"

	_, err := Open(path)
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestOpen_DefaultsApplied(t *testing.T) {
	s := createTestStore(t)

	if _, ok := s.clock.(SystemClock); !ok {
		t.Errorf("default clock = %T, want SystemClock", s.clock)
	}
	if _, ok := s.runIDs.(UUIDv7Generator); !ok {
		t.Errorf("default run ID generator = %T, want UUIDv7Generator", s.runIDs)
	}
}

func TestOpen_OptionsOverrideDefaults(t *testing.T) {
	gen := NewFixedGenerator("run-1")
	s := createTestStore(t, WithClock(fixedClock{}), WithRunIDGenerator(gen))

	if _, ok := s.clock.(fixedClock); !ok {
		t.Errorf("clock = %T, want fixedClock", s.clock)
	}
	if s.runIDs != gen {
		t.Errorf("run ID generator = %v, want injected FixedGenerator", s.runIDs)
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	err := s.Close()
	if err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestClose_MultipleCalls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}

	// First close should succeed
	if err := s.Close(); err != nil {
		t.Errorf("first Close() failed: %v", err)
	}

	// Second close should not panic (though may error)
	// We just verify it doesn't panic
	_ = s.Close()
}

// Pragma tests

func TestPragma_JournalMode(t *testing.T) {
	s := createTestStore(t)

	if err := s.verifyPragma("journal_mode", "wal"); err != nil {
		t.Error(err)
	}
}

func TestPragma_Synchronous(t *testing.T) {
	s := createTestStore(t)

	// NORMAL = 1
	if err := s.verifyPragma("synchronous", "1"); err != nil {
		t.Error(err)
	}
}

func TestPragma_BusyTimeout(t *testing.T) {
	s := createTestStore(t)

	if err := s.verifyPragma("busy_timeout", "5000"); err != nil {
		t.Error(err)
	}
}

func TestPragma_ForeignKeys(t *testing.T) {
	s := createTestStore(t)

	// ON = 1
	if err := s.verifyPragma("foreign_keys", "1"); err != nil {
		t.Error(err)
	}
}

// Schema table tests

func TestSchema_DocumentsTable(t *testing.T) {
	s := createTestStore(t)

	columns := getTableColumns(t, s.db, "documents")

	expected := []string{
		"hash", "source", "title", "author", "baseline_ref", "body", "created_at",
	}

	for _, col := range expected {
		if !contains(columns, col) {
			t.Errorf("documents table missing column %q", col)
		}
	}
}

func TestSchema_RunsTable(t *testing.T) {
	s := createTestStore(t)

	columns := getTableColumns(t, s.db, "runs")

	expected := []string{
		"id", "created_at", "start_year", "end_year", "catalogue_version",
	}

	for _, col := range expected {
		if !contains(columns, col) {
			t.Errorf("runs table missing column %q", col)
		}
	}
}

func TestSchema_RunDocumentsTable(t *testing.T) {
	s := createTestStore(t)

	columns := getTableColumns(t, s.db, "run_documents")

	expected := []string{"run_id", "position", "doc_hash"}

	for _, col := range expected {
		if !contains(columns, col) {
			t.Errorf("run_documents table missing column %q", col)
		}
	}
}

func TestSchema_RunValuesTable(t *testing.T) {
	s := createTestStore(t)

	columns := getTableColumns(t, s.db, "run_values")

	expected := []string{"run_id", "param", "year", "value"}

	for _, col := range expected {
		if !contains(columns, col) {
			t.Errorf("run_values table missing column %q", col)
		}
	}
}

func TestSchema_RunValuesIndex(t *testing.T) {
	s := createTestStore(t)

	indexes := getTableIndexes(t, s.db, "run_values")

	if !contains(indexes, "idx_run_values_param") {
		t.Errorf("run_values table missing index idx_run_values_param, indexes: %v", indexes)
	}
}

// Constraint tests

func TestConstraint_ForeignKeyRunDocumentsToRuns(t *testing.T) {
	s := createTestStore(t)

	// Try to insert a chain row for a non-existent run
	_, err := s.db.Exec(`
		INSERT INTO run_documents (run_id, position, doc_hash)
		VALUES ('nonexistent', 0, 'hash1')
	`)
	if err == nil {
		t.Error("expected foreign key constraint violation, got nil")
	}
}

func TestConstraint_RunValuesOnePerYear(t *testing.T) {
	s := createTestStore(t)

	_, err := s.db.Exec(`
		INSERT INTO runs (id, created_at, start_year, end_year, catalogue_version)
		VALUES ('run1', '2026-03-14T09:26:53Z', 2020, 2022, '2.4.0')
	`)
	if err != nil {
		t.Fatalf("failed to insert run: %v", err)
	}

	// Insert first value
	_, err = s.db.Exec(`
		INSERT INTO run_values (run_id, param, year, value)
		VALUES ('run1', 'NIIT_rt', 2020, '0.038')
	`)
	if err != nil {
		t.Fatalf("failed to insert first value: %v", err)
	}

	// Try to insert a second value for the same (run, param, year)
	_, err = s.db.Exec(`
		INSERT INTO run_values (run_id, param, year, value)
		VALUES ('run1', 'NIIT_rt', 2020, '0.1')
	`)
	if err == nil {
		t.Error("expected PRIMARY KEY violation, got nil")
	}
}

func TestConstraint_ChainPositionUnique(t *testing.T) {
	s := createTestStore(t)

	_, err := s.db.Exec(`
		INSERT INTO runs (id, created_at, start_year, end_year, catalogue_version)
		VALUES ('run1', '2026-03-14T09:26:53Z', 2020, 2022, '2.4.0')
	`)
	if err != nil {
		t.Fatalf("failed to insert run: %v", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO documents (hash, source, body, created_at)
		VALUES ('hash1', 'a.json', '{}', '2026-03-14T09:26:53Z'),
		       ('hash2', 'b.json', '{}', '2026-03-14T09:26:53Z')
	`)
	if err != nil {
		t.Fatalf("failed to insert documents: %v", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO run_documents (run_id, position, doc_hash)
		VALUES ('run1', 0, 'hash1')
	`)
	if err != nil {
		t.Fatalf("failed to insert first chain row: %v", err)
	}

	// Same position again - should fail
	_, err = s.db.Exec(`
		INSERT INTO run_documents (run_id, position, doc_hash)
		VALUES ('run1', 0, 'hash2')
	`)
	if err == nil {
		t.Error("expected PRIMARY KEY violation on (run_id, position), got nil")
	}
}

// Migration tests

func TestMigration_SchemaVersion(t *testing.T) {
	s := createTestStore(t)

	// Verify user_version is set to currentSchemaVersion
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		t.Fatalf("failed to get user_version: %v", err)
	}

	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, currentSchemaVersion)
	}
}

func TestMigration_IdempotentUpgrade(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	// Open and close multiple times - migrations should be idempotent
	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}

		// Verify version is correct each time
		var version int
		err = s.db.QueryRow("PRAGMA user_version").Scan(&version)
		if err != nil {
			t.Fatalf("failed to get user_version: %v", err)
		}

		if version != currentSchemaVersion {
			t.Errorf("iteration %d: user_version = %d, want %d", i, version, currentSchemaVersion)
		}

		s.Close()
	}
}

func TestMigration_UpgradeFromV1(t *testing.T) {
	// Simulate a database created before the run_values index existed
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}

	// Drop the index and wind the version back (pre-v2 state)
	if _, err := db.Exec("DROP INDEX idx_run_values_param"); err != nil {
		t.Fatalf("failed to drop index: %v", err)
	}
	if _, err := db.Exec("PRAGMA user_version = 1"); err != nil {
		t.Fatalf("failed to set user_version: %v", err)
	}
	db.Close()

	// Now open through our normal path - should trigger migration
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	// Verify version was upgraded
	var version int
	err = s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		t.Fatalf("failed to get user_version: %v", err)
	}

	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d after migration", version, currentSchemaVersion)
	}

	// Verify the index was recreated
	indexes := getTableIndexes(t, s.db, "run_values")
	if !contains(indexes, "idx_run_values_param") {
		t.Errorf("expected idx_run_values_param after migration, got indexes: %v", indexes)
	}
}

// Helper functions

func getTableColumns(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		t.Fatalf("failed to get table info for %q: %v", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			t.Fatalf("failed to scan column info: %v", err)
		}
		columns = append(columns, name)
	}
	return columns
}

func getTableIndexes(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='index' AND tbl_name=?", table)
	if err != nil {
		t.Fatalf("failed to get indexes for %q: %v", table, err)
	}
	defer rows.Close()

	var indexes []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("failed to scan index name: %v", err)
		}
		indexes = append(indexes, name)
	}
	return indexes
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

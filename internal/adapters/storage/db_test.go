package storage

import (
	"database/sql"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

// openTestDB creates an in-memory SQLite database for testing.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

// getTableNames returns sorted table names from sqlite_master, excluding internal tables.
func getTableNames(t *testing.T, db *sql.DB) []string {
	t.Helper()
	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		t.Fatalf("failed to query sqlite_master: %v", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("failed to scan table name: %v", err)
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// getSchemaSQL returns sorted, whitespace-normalised CREATE statements.
func getSchemaSQL(t *testing.T, db *sql.DB) []string {
	t.Helper()
	rows, err := db.Query("SELECT sql FROM sqlite_master WHERE name NOT LIKE 'sqlite_%' AND sql IS NOT NULL")
	if err != nil {
		t.Fatalf("failed to query sqlite_master: %v", err)
	}
	defer rows.Close()

	var sqls []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			t.Fatalf("failed to scan sql: %v", err)
		}
		sqls = append(sqls, strings.Join(strings.Fields(s), " "))
	}
	sort.Strings(sqls)
	return sqls
}

var expectedTables = []string{
	"account",
	"attendance",
	"blog_post",
	"event",
	"finance_transaction",
	"gallery_album",
	"gallery_media",
	"member",
	"outbox",
	"schema_version",
	"sermon",
	"service",
	"visitor",
}

func TestMigrateDB_Fresh(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateDB(db, ":memory:"); err != nil {
		t.Fatalf("MigrateDB failed on fresh db: %v", err)
	}
	version, err := SchemaVersion(db)
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if version != LatestSchemaVersion() {
		t.Errorf("version = %d, want %d", version, LatestSchemaVersion())
	}

	tables := getTableNames(t, db)
	if strings.Join(tables, ",") != strings.Join(expectedTables, ",") {
		t.Errorf("tables mismatch\ngot:  %v\nwant: %v", tables, expectedTables)
	}
}

// TestMigrateDB_Idempotent verifies a second run is a no-op.
func TestMigrateDB_Idempotent(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateDB(db, ":memory:"); err != nil {
		t.Fatalf("first MigrateDB failed: %v", err)
	}
	before := getSchemaSQL(t, db)
	if err := MigrateDB(db, ":memory:"); err != nil {
		t.Fatalf("second MigrateDB failed: %v", err)
	}
	after := getSchemaSQL(t, db)
	if strings.Join(before, "\n") != strings.Join(after, "\n") {
		t.Error("schema changed after idempotent run")
	}

	var rows int
	db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&rows)
	if rows != len(migrations) {
		t.Errorf("schema_version rows = %d, want %d", rows, len(migrations))
	}
}

func TestMigrateDB_VersionProgression(t *testing.T) {
	db := openTestDB(t)

	v, err := SchemaVersion(db)
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if v != 0 {
		t.Errorf("initial version = %d, want 0", v)
	}
	if err := MigrateDB(db, ":memory:"); err != nil {
		t.Fatalf("MigrateDB failed: %v", err)
	}
	if v, _ = SchemaVersion(db); v != LatestSchemaVersion() {
		t.Errorf("post-migration version = %d, want %d", v, LatestSchemaVersion())
	}
}

// TestMigrateDB_MemberSessionUnique verifies the storage layer rejects a
// second member row for the same service session but not for visitors.
func TestMigrateDB_MemberSessionUnique(t *testing.T) {
	db := openTestDB(t)
	if err := MigrateDB(db, ":memory:"); err != nil {
		t.Fatalf("MigrateDB: %v", err)
	}
	now := FormatTime(time.Now())
	mustExec(t, db, `INSERT INTO service (id, name, day, start_time, created_at) VALUES ('sunday-am', 'Sunday', 'Sunday', '09:00', ?)`, now)
	mustExec(t, db, `INSERT INTO member (id, name, email, phone, status, joined_at, created_at) VALUES ('7', 'Ama', 'ama@example.com', '0241234567', 'active', ?, ?)`, now, now)
	mustExec(t, db, `INSERT INTO visitor (id, name, phone, first_visit_date, last_visit_date, created_at) VALUES ('v1', 'Kofi', '0201234567', '2024-06-02', '2024-06-02', ?)`, now)

	insertMember := `INSERT INTO attendance (id, member_id, service_id, check_in_date, check_in_time, status) VALUES (?, '7', 'sunday-am', ?, ?, 'present')`
	mustExec(t, db, insertMember, "a1", "2024-06-02", now)
	if _, err := db.Exec(insertMember, "a2", "2024-06-02", now); err == nil {
		t.Error("duplicate member check-in was accepted")
	}
	mustExec(t, db, insertMember, "a3", "2024-06-09", now)

	insertVisitor := `INSERT INTO attendance (id, visitor_id, service_id, check_in_date, check_in_time, status) VALUES (?, 'v1', 'sunday-am', '2024-06-02', ?, 'visitor')`
	mustExec(t, db, insertVisitor, "b1", now)
	mustExec(t, db, insertVisitor, "b2", now)

	if _, err := db.Exec(`INSERT INTO attendance (id, member_id, visitor_id, service_id, check_in_date, check_in_time, status) VALUES ('c1', '7', 'v1', 'sunday-am', '2024-06-16', ?, 'present')`, now); err == nil {
		t.Error("row with both member and visitor was accepted")
	}
}

func TestMigrateDB_MemberEmailCaseInsensitive(t *testing.T) {
	db := openTestDB(t)
	if err := MigrateDB(db, ":memory:"); err != nil {
		t.Fatalf("MigrateDB: %v", err)
	}
	now := FormatTime(time.Now())
	mustExec(t, db, `INSERT INTO member (id, name, email, phone, status, joined_at, created_at) VALUES ('m1', 'A', 'Ama@Example.com', '0241234567', 'active', ?, ?)`, now, now)
	if _, err := db.Exec(`INSERT INTO member (id, name, email, phone, status, joined_at, created_at) VALUES ('m2', 'B', 'ama@example.COM', '0241234568', 'active', ?, ?)`, now, now); err == nil {
		t.Error("emails differing only in case were both accepted")
	}
}

// TestMigrateDB_FileBackup verifies an upgrade of a file database leaves a copy behind.
func TestMigrateDB_FileBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shepherd.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if _, err := SchemaVersion(db); err != nil {
		t.Fatal(err)
	}
	if err := apply(db, migrations[0]); err != nil {
		t.Fatalf("apply baseline: %v", err)
	}
	if err := MigrateDB(db, path); err != nil {
		t.Fatalf("MigrateDB: %v", err)
	}
	matches, _ := filepath.Glob(path + ".v1.*.bak")
	if len(matches) != 1 {
		t.Errorf("backups = %v, want exactly one", matches)
	}
}

func TestParseTime(t *testing.T) {
	want := time.Date(2024, 6, 2, 9, 15, 0, 0, time.UTC)
	for _, s := range []string{FormatTime(want), "2024-06-02T09:15:00Z", "2024-06-02 09:15:00"} {
		got, err := ParseTime(s)
		if err != nil {
			t.Errorf("ParseTime(%q): %v", s, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("ParseTime(%q) = %v", s, got)
		}
	}
	if _, err := ParseTime("yesterday"); err == nil {
		t.Error("expected error for garbage")
	}
}

func TestFormatTime_SortsChronologically(t *testing.T) {
	a := FormatTime(time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC))
	b := FormatTime(time.Date(2024, 6, 2, 9, 0, 0, 500, time.UTC))
	if !(a < b) {
		t.Errorf("%q should sort before %q", a, b)
	}
}

func mustExec(t *testing.T, db *sql.DB, query string, args ...any) {
	t.Helper()
	if _, err := db.Exec(query, args...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}

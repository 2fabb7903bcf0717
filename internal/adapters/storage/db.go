package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// TimeLayout is the fixed-width UTC layout for every stored timestamp.
// Fixed width keeps lexicographic order equal to chronological order, which
// the windowed report queries rely on.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// DSN returns the modernc sqlite DSN for path with WAL, foreign keys and a busy timeout.
func DSN(path string) string {
	return path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
}

// Open opens and pings the database at path.
// PRE: the sqlite driver is registered by the caller
// POST: Returns a live pool sized for WAL mode
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", DSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}
	return db, nil
}

// FormatTime renders t for storage.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// FormatOptionalTime renders t, or nil for the zero time so the column stays NULL.
func FormatOptionalTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return FormatTime(t)
}

var storedTimeLayouts = []string{
	TimeLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime parses a stored timestamp, accepting the older layouts rows may carry.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range storedTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", s)
}

// ParseOptionalTime parses a nullable timestamp column.
func ParseOptionalTime(ns sql.NullString) (time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return time.Time{}, nil
	}
	return ParseTime(ns.String)
}

type migration struct {
	version int
	name    string
	stmts   string
}

// migrations run in order; never edit one that has shipped, append a new one.
var migrations = []migration{
	{1, "baseline", `
	CREATE TABLE IF NOT EXISTS account (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE COLLATE NOCASE,
		password_hash TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL,
		created_at TEXT NOT NULL,
		failed_logins INTEGER NOT NULL DEFAULT 0,
		locked_until TEXT
	);

	CREATE TABLE IF NOT EXISTS service (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		day TEXT NOT NULL,
		start_time TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS member (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT NOT NULL,
		gender TEXT NOT NULL DEFAULT '',
		group_name TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		joined_at TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_member_email ON member(lower(email));
	CREATE INDEX IF NOT EXISTS idx_member_phone ON member(phone);

	CREATE TABLE IF NOT EXISTS visitor (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		phone TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL DEFAULT '',
		purpose TEXT NOT NULL DEFAULT '',
		visit_count INTEGER NOT NULL DEFAULT 1,
		first_visit_date TEXT NOT NULL,
		last_visit_date TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS attendance (
		id TEXT PRIMARY KEY,
		member_id TEXT REFERENCES member(id) ON DELETE CASCADE,
		visitor_id TEXT REFERENCES visitor(id) ON DELETE CASCADE,
		service_id TEXT NOT NULL REFERENCES service(id),
		check_in_date TEXT NOT NULL,
		check_in_time TEXT NOT NULL,
		status TEXT NOT NULL,
		CHECK ((member_id IS NULL) <> (visitor_id IS NULL))
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_attendance_member_session
		ON attendance(member_id, service_id, check_in_date) WHERE member_id IS NOT NULL;

	CREATE TABLE IF NOT EXISTS finance_transaction (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		member_id TEXT REFERENCES member(id) ON DELETE SET NULL,
		amount TEXT NOT NULL,
		paid_on TEXT NOT NULL,
		note TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sermon (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		preacher TEXT NOT NULL,
		scripture TEXT NOT NULL DEFAULT '',
		video_url TEXT NOT NULL DEFAULT '',
		video_id TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		preached_on TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS blog_post (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		content TEXT NOT NULL,
		cover_path TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		published_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS gallery_album (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		event_date TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS gallery_media (
		id TEXT PRIMARY KEY,
		album_id TEXT NOT NULL REFERENCES gallery_album(id) ON DELETE CASCADE,
		path TEXT NOT NULL,
		thumb_path TEXT NOT NULL DEFAULT '',
		caption TEXT NOT NULL DEFAULT '',
		likes INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS event (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		starts_at TEXT NOT NULL,
		ends_at TEXT,
		image_path TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS outbox (
		id TEXT PRIMARY KEY,
		action_type TEXT NOT NULL,
		payload TEXT NOT NULL,
		status TEXT NOT NULL,
		attempts INTEGER NOT NULL DEFAULT 0,
		max_attempts INTEGER NOT NULL DEFAULT 5,
		last_attempted_at TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		external_id TEXT NOT NULL DEFAULT '',
		error_message TEXT NOT NULL DEFAULT ''
	);`},
	{2, "reporting indexes", `
	CREATE INDEX IF NOT EXISTS idx_attendance_time ON attendance(check_in_time);
	CREATE INDEX IF NOT EXISTS idx_attendance_service_date ON attendance(service_id, check_in_date);
	CREATE INDEX IF NOT EXISTS idx_finance_paid_on ON finance_transaction(paid_on);
	CREATE INDEX IF NOT EXISTS idx_member_created ON member(created_at);
	CREATE INDEX IF NOT EXISTS idx_outbox_status ON outbox(status, created_at);`},
}

// LatestSchemaVersion returns the version the migration chain ends at.
func LatestSchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// SchemaVersion returns the applied version, 0 for an untracked database.
func SchemaVersion(db *sql.DB) (int, error) {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL, applied_at TEXT NOT NULL)`); err != nil {
		return 0, fmt.Errorf("failed to create schema_version: %w", err)
	}
	var v sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(version) FROM schema_version`).Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return int(v.Int64), nil
}

// MigrateDB brings the schema to LatestSchemaVersion. A file database is
// copied aside with VACUUM INTO before the first pending migration runs.
// PRE: db is a valid database connection; path is the file backing it or ":memory:"
// POST: schema_version holds LatestSchemaVersion; each migration ran in its own transaction
func MigrateDB(db *sql.DB, path string) error {
	current, err := SchemaVersion(db)
	if err != nil {
		return err
	}
	if current >= LatestSchemaVersion() {
		return nil
	}
	if current > 0 && isFileDB(path) {
		if err := backup(db, path, current); err != nil {
			return err
		}
	}
	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := apply(db, m); err != nil {
			return err
		}
		slog.Info("schema_migrated", "version", m.version, "name", m.name)
	}
	return nil
}

func apply(db *sql.DB, m migration) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("migration %d: %w", m.version, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(m.stmts); err != nil {
		return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
	}
	if _, err := tx.Exec(`INSERT INTO schema_version (version, applied_at) VALUES (?, ?)`, m.version, FormatTime(time.Now())); err != nil {
		return fmt.Errorf("migration %d: failed to record version: %w", m.version, err)
	}
	return tx.Commit()
}

func isFileDB(path string) bool {
	return path != "" && path != ":memory:" && !strings.HasPrefix(path, "file::memory:")
}

func backup(db *sql.DB, path string, version int) error {
	dest := fmt.Sprintf("%s.v%d.%s.bak", path, version, time.Now().UTC().Format("20060102T150405"))
	if _, err := db.Exec(`VACUUM INTO ?`, dest); err != nil {
		return fmt.Errorf("failed to back up database before migration: %w", err)
	}
	slog.Info("schema_backup", "path", dest, "version", version)
	return nil
}

// IsUniqueViolation reports whether err came from a UNIQUE constraint or index.
func IsUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint")
}

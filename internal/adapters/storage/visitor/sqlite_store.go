package visitor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shepherd/internal/adapters/storage"
	attendanceStore "shepherd/internal/adapters/storage/attendance"
	"shepherd/internal/domain/attendance"
	domain "shepherd/internal/domain/visitor"
)

const selectColumns = "SELECT id, name, phone, email, source, purpose, visit_count, first_visit_date, last_visit_date, created_at FROM visitor"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new visitor store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Visitor by its ID.
// POST: Returns the entity or an error wrapping domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Visitor, error) {
	return s.getOne(ctx, s.db, "id", id)
}

// GetByPhone retrieves a Visitor by phone.
// POST: Returns the entity or an error wrapping domain.ErrNotFound
func (s *SQLiteStore) GetByPhone(ctx context.Context, phone string) (domain.Visitor, error) {
	return s.getOne(ctx, s.db, "phone", phone)
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLiteStore) getOne(ctx context.Context, q rowQuerier, column, value string) (domain.Visitor, error) {
	v, err := scanVisitor(q.QueryRowContext(ctx, selectColumns+" WHERE "+column+" = ?", value).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Visitor{}, fmt.Errorf("visitor %s: %w", value, domain.ErrNotFound)
	}
	return v, err
}

// RecordVisit creates the visitor on first sight or bumps visit_count on
// return, in one statement keyed by phone. Name always refreshes; optional
// fields refresh only when supplied.
// PRE: v is normalised and validated; v.ID is a fresh id used only on insert
// POST: Returns the stored row; VisitCount == 1 means it was just created
func (s *SQLiteStore) RecordVisit(ctx context.Context, v domain.Visitor, now time.Time) (domain.Visitor, error) {
	return s.recordVisit(ctx, v, now, nil)
}

// RecordCheckIn is RecordVisit plus the visitor's attendance row, committed
// together. a.VisitorID is set to the stored visitor's id.
// POST: on error neither the visit count nor the attendance row changed
func (s *SQLiteStore) RecordCheckIn(ctx context.Context, v domain.Visitor, a attendance.Attendance, now time.Time) (domain.Visitor, error) {
	return s.recordVisit(ctx, v, now, &a)
}

func (s *SQLiteStore) recordVisit(ctx context.Context, v domain.Visitor, now time.Time, a *attendance.Attendance) (domain.Visitor, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Visitor{}, err
	}
	defer tx.Rollback()

	ts := storage.FormatTime(now)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO visitor (id, name, phone, email, source, purpose, visit_count, first_visit_date, last_visit_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?, ?)
		ON CONFLICT(phone) DO UPDATE SET
		  visit_count = visitor.visit_count + 1,
		  last_visit_date = excluded.last_visit_date,
		  name = excluded.name,
		  email = COALESCE(NULLIF(excluded.email, ''), visitor.email),
		  source = COALESCE(NULLIF(excluded.source, ''), visitor.source),
		  purpose = COALESCE(NULLIF(excluded.purpose, ''), visitor.purpose)`,
		v.ID, v.Name, v.Phone, v.Email, v.Source, v.Purpose, ts, ts, ts)
	if err != nil {
		return domain.Visitor{}, fmt.Errorf("record visit: %w", err)
	}
	stored, err := s.getOne(ctx, tx, "phone", v.Phone)
	if err != nil {
		return domain.Visitor{}, err
	}
	if a != nil {
		a.VisitorID = stored.ID
		if err := attendanceStore.Append(ctx, tx, *a); err != nil {
			return domain.Visitor{}, err
		}
	}
	return stored, tx.Commit()
}

// Save persists an admin edit. Visit metadata is written as given.
// PRE: v has been validated
func (s *SQLiteStore) Save(ctx context.Context, v domain.Visitor) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO visitor (id, name, phone, email, source, purpose, visit_count, first_visit_date, last_visit_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		  name=excluded.name, phone=excluded.phone, email=excluded.email,
		  source=excluded.source, purpose=excluded.purpose`,
		v.ID, v.Name, v.Phone, v.Email, v.Source, v.Purpose, v.VisitCount,
		storage.FormatTime(v.FirstVisitDate), storage.FormatTime(v.LastVisitDate), storage.FormatTime(v.CreatedAt))
	if storage.IsUniqueViolation(err) {
		return fmt.Errorf("save visitor %s: %w", v.ID, domain.ErrPhoneTaken)
	}
	if err != nil {
		return fmt.Errorf("save visitor: %w", err)
	}
	return nil
}

// Delete removes a Visitor and their attendance rows.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM visitor WHERE id = ?", id)
	return err
}

func listWhereClause(filter ListFilter) (string, []any) {
	where := " WHERE 1=1"
	var args []any
	if filter.Search != "" {
		where += " AND (name LIKE ? OR phone LIKE ?)"
		term := "%" + filter.Search + "%"
		args = append(args, term, term)
	}
	if filter.Source != "" {
		where += " AND source = ?"
		args = append(args, filter.Source)
	}
	return where, args
}

// List returns visitors, most recent visit first.
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Visitor, error) {
	where, args := listWhereClause(filter)
	limit := filter.Limit
	if limit <= 0 {
		limit = -1
	}
	args = append(args, limit, filter.Offset)
	rows, err := s.db.QueryContext(ctx, selectColumns+where+" ORDER BY last_visit_date DESC LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Visitor
	for rows.Next() {
		v, err := scanVisitor(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, v)
	}
	return results, rows.Err()
}

// Count returns the number of visitors matching the filter.
func (s *SQLiteStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	where, args := listWhereClause(filter)
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM visitor"+where, args...).Scan(&n)
	return n, err
}

// CountFirstVisitsBetween counts visitors first seen in [start, end).
func (s *SQLiteStore) CountFirstVisitsBetween(ctx context.Context, start, end time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM visitor WHERE first_visit_date >= ? AND first_visit_date < ?",
		storage.FormatTime(start), storage.FormatTime(end)).Scan(&n)
	return n, err
}

// CountReturningBetween counts distinct visitors who attended in [start, end)
// but were first seen before start.
func (s *SQLiteStore) CountReturningBetween(ctx context.Context, start, end time.Time) (int, error) {
	var n int
	from := storage.FormatTime(start)
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT v.id) FROM visitor v
		JOIN attendance a ON a.visitor_id = v.id
		WHERE a.check_in_time >= ? AND a.check_in_time < ? AND v.first_visit_date < ?`,
		from, storage.FormatTime(end), from).Scan(&n)
	return n, err
}

// TopSources ranks how first-time visitors in [start, end) heard about the church.
// Visitors who gave no source are left out.
func (s *SQLiteStore) TopSources(ctx context.Context, start, end time.Time, limit int) ([]SourceCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source, COUNT(*) AS n FROM visitor
		WHERE first_visit_date >= ? AND first_visit_date < ? AND source <> ''
		GROUP BY source ORDER BY n DESC, source ASC LIMIT ?`,
		storage.FormatTime(start), storage.FormatTime(end), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SourceCount
	for rows.Next() {
		var sc SourceCount
		if err := rows.Scan(&sc.Source, &sc.Count); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func scanVisitor(scan func(dest ...any) error) (domain.Visitor, error) {
	var v domain.Visitor
	var first, last, created string
	if err := scan(&v.ID, &v.Name, &v.Phone, &v.Email, &v.Source, &v.Purpose, &v.VisitCount, &first, &last, &created); err != nil {
		return domain.Visitor{}, err
	}
	var err error
	if v.FirstVisitDate, err = storage.ParseTime(first); err != nil {
		return domain.Visitor{}, fmt.Errorf("visitor first_visit_date: %w", err)
	}
	if v.LastVisitDate, err = storage.ParseTime(last); err != nil {
		return domain.Visitor{}, fmt.Errorf("visitor last_visit_date: %w", err)
	}
	if v.CreatedAt, err = storage.ParseTime(created); err != nil {
		return domain.Visitor{}, fmt.Errorf("visitor created_at: %w", err)
	}
	return v, nil
}

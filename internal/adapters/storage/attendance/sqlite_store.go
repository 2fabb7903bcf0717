package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shepherd/internal/adapters/storage"
	domain "shepherd/internal/domain/attendance"
)

const selectColumns = "SELECT id, member_id, visitor_id, service_id, check_in_date, check_in_time, status FROM attendance"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new attendance store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// InsertMemberCheckIn writes a member row unless one already exists for the
// same service session. The partial unique index decides, so two racing
// callers cannot both insert.
// PRE: a is a validated member row
// POST: Returns true if this call inserted the row, false if it already existed
func (s *SQLiteStore) InsertMemberCheckIn(ctx context.Context, a domain.Attendance) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO attendance (id, member_id, visitor_id, service_id, check_in_date, check_in_time, status)
		VALUES (?, ?, NULL, ?, ?, ?, ?)`,
		a.ID, a.MemberID, a.ServiceID, a.CheckInDate, storage.FormatTime(a.CheckInTime), a.Status)
	if err != nil {
		return false, fmt.Errorf("insert member check-in: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert member check-in: %w", err)
	}
	return n == 1, nil
}

// Insert appends a row unconditionally. Used for visitors, who are not deduplicated.
// PRE: a has been validated
func (s *SQLiteStore) Insert(ctx context.Context, a domain.Attendance) error {
	return Append(ctx, s.db, a)
}

// Append inserts a on ex, which may be an open transaction.
func Append(ctx context.Context, ex storage.Execer, a domain.Attendance) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO attendance (id, member_id, visitor_id, service_id, check_in_date, check_in_time, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, nullable(a.MemberID), nullable(a.VisitorID), a.ServiceID, a.CheckInDate, storage.FormatTime(a.CheckInTime), a.Status)
	if err != nil {
		return fmt.Errorf("insert attendance: %w", err)
	}
	return nil
}

// GetMemberCheckIn returns the member's row for one service session.
// POST: Returns the row or an error wrapping domain.ErrNotFound
func (s *SQLiteStore) GetMemberCheckIn(ctx context.Context, memberID, serviceID, date string) (domain.Attendance, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE member_id = ? AND service_id = ? AND check_in_date = ?",
		memberID, serviceID, date)
	a, err := scanAttendance(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Attendance{}, domain.ErrNotFound
	}
	return a, err
}

// ListSession returns every row for one service session in check-in order.
func (s *SQLiteStore) ListSession(ctx context.Context, serviceID, date string) ([]SessionRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.member_id, a.visitor_id, a.service_id, a.check_in_date, a.check_in_time, a.status,
		       COALESCE(m.name, v.name, '')
		FROM attendance a
		LEFT JOIN member m ON m.id = a.member_id
		LEFT JOIN visitor v ON v.id = a.visitor_id
		WHERE a.service_id = ? AND a.check_in_date = ?
		ORDER BY a.check_in_time ASC`, serviceID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SessionRow
	for rows.Next() {
		var r SessionRow
		var name string
		a, err := scanAttendance(func(dest ...any) error {
			return rows.Scan(append(dest, &name)...)
		})
		if err != nil {
			return nil, err
		}
		r.Attendance, r.Name = a, name
		out = append(out, r)
	}
	return out, rows.Err()
}

const countColumns = `COUNT(*),
	SUM(CASE WHEN member_id IS NOT NULL THEN 1 ELSE 0 END),
	SUM(CASE WHEN visitor_id IS NOT NULL THEN 1 ELSE 0 END)`

// CountBetween counts rows checked in during [start, end).
func (s *SQLiteStore) CountBetween(ctx context.Context, start, end time.Time) (Counts, error) {
	var c Counts
	var members, visitors sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		"SELECT "+countColumns+" FROM attendance WHERE check_in_time >= ? AND check_in_time < ?",
		storage.FormatTime(start), storage.FormatTime(end)).Scan(&c.Total, &members, &visitors)
	c.Members, c.Visitors = int(members.Int64), int(visitors.Int64)
	return c, err
}

// CountByServiceBetween breaks CountBetween down per service, busiest first.
// Services with no rows in the window are omitted.
func (s *SQLiteStore) CountByServiceBetween(ctx context.Context, start, end time.Time) ([]ServiceCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.service_id, COALESCE(sv.name, a.service_id), COUNT(*),
		       SUM(CASE WHEN a.member_id IS NOT NULL THEN 1 ELSE 0 END),
		       SUM(CASE WHEN a.visitor_id IS NOT NULL THEN 1 ELSE 0 END)
		FROM attendance a LEFT JOIN service sv ON sv.id = a.service_id
		WHERE a.check_in_time >= ? AND a.check_in_time < ?
		GROUP BY a.service_id ORDER BY COUNT(*) DESC, a.service_id ASC`,
		storage.FormatTime(start), storage.FormatTime(end))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ServiceCount
	for rows.Next() {
		var sc ServiceCount
		if err := rows.Scan(&sc.ServiceID, &sc.ServiceName, &sc.Total, &sc.Members, &sc.Visitors); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// CountSessionsBetween counts distinct service sessions that had at least
// one check-in during [start, end).
func (s *SQLiteStore) CountSessionsBetween(ctx context.Context, start, end time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM (
			SELECT DISTINCT service_id, check_in_date FROM attendance
			WHERE check_in_time >= ? AND check_in_time < ?)`,
		storage.FormatTime(start), storage.FormatTime(end)).Scan(&n)
	return n, err
}

// MemberSessionsBetween returns, per member, how many distinct sessions they
// attended during [start, end).
func (s *SQLiteStore) MemberSessionsBetween(ctx context.Context, start, end time.Time) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT member_id, COUNT(DISTINCT service_id || '|' || check_in_date) FROM attendance
		WHERE member_id IS NOT NULL AND check_in_time >= ? AND check_in_time < ?
		GROUP BY member_id`,
		storage.FormatTime(start), storage.FormatTime(end))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		out[id] = n
	}
	return out, rows.Err()
}

// CountForService counts all rows ever recorded against a service.
func (s *SQLiteStore) CountForService(ctx context.Context, serviceID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM attendance WHERE service_id = ?", serviceID).Scan(&n)
	return n, err
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func scanAttendance(scan func(dest ...any) error) (domain.Attendance, error) {
	var a domain.Attendance
	var memberID, visitorID sql.NullString
	var checkIn string
	if err := scan(&a.ID, &memberID, &visitorID, &a.ServiceID, &a.CheckInDate, &checkIn, &a.Status); err != nil {
		return domain.Attendance{}, err
	}
	a.MemberID, a.VisitorID = memberID.String, visitorID.String
	t, err := storage.ParseTime(checkIn)
	if err != nil {
		return domain.Attendance{}, fmt.Errorf("failed to parse check_in_time: %w", err)
	}
	a.CheckInTime = t
	return a, nil
}

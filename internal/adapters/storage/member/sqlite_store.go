package member

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shepherd/internal/adapters/storage"
	domain "shepherd/internal/domain/member"
)

const selectColumns = "SELECT id, name, email, phone, gender, group_name, status, joined_at, created_at FROM member"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new member store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Member by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error wrapping domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Member, error) {
	entity, err := scanMember(s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Member{}, fmt.Errorf("member %s: %w", id, domain.ErrNotFound)
	}
	return entity, err
}

// GetByEmailAndPhone finds the one member holding both identifiers.
// Email comparison ignores case; phone must match exactly.
// PRE: email and phone are normalised
// POST: Returns the entity or an error wrapping domain.ErrNotFound
func (s *SQLiteStore) GetByEmailAndPhone(ctx context.Context, email, phone string) (domain.Member, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE lower(email) = lower(?) AND phone = ?", email, phone)
	entity, err := scanMember(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Member{}, domain.ErrNotFound
	}
	return entity, err
}

// GetByEmail finds a member by email, ignoring case.
// POST: Returns the entity or an error wrapping domain.ErrNotFound
func (s *SQLiteStore) GetByEmail(ctx context.Context, email string) (domain.Member, error) {
	entity, err := scanMember(s.db.QueryRowContext(ctx, selectColumns+" WHERE lower(email) = lower(?)", email).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Member{}, fmt.Errorf("member %s: %w", email, domain.ErrNotFound)
	}
	return entity, err
}

// Save persists a Member to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Member) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO member (id, name, email, phone, gender, group_name, status, joined_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		  name=excluded.name, email=excluded.email, phone=excluded.phone, gender=excluded.gender,
		  group_name=excluded.group_name, status=excluded.status, joined_at=excluded.joined_at`,
		entity.ID, entity.Name, entity.Email, entity.Phone, entity.Gender, entity.GroupName, entity.Status,
		storage.FormatTime(entity.JoinedAt), storage.FormatTime(entity.CreatedAt))
	if storage.IsUniqueViolation(err) {
		return fmt.Errorf("save member %s: %w", entity.ID, domain.ErrEmailTaken)
	}
	if err != nil {
		return fmt.Errorf("save member: %w", err)
	}
	return nil
}

// Delete removes a Member. Their attendance rows go with them.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM member WHERE id = ?", id)
	return err
}

// listWhereClause builds the WHERE clause and args for List/Count queries.
func listWhereClause(filter ListFilter) (string, []any) {
	where := " WHERE 1=1"
	var args []any

	if filter.Status != "" {
		where += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.Group != "" {
		where += " AND group_name = ?"
		args = append(args, filter.Group)
	}
	if filter.Gender != "" {
		where += " AND gender = ?"
		args = append(args, filter.Gender)
	}
	if filter.Search != "" {
		where += " AND (name LIKE ? OR email LIKE ? OR phone LIKE ?)"
		term := "%" + filter.Search + "%"
		args = append(args, term, term, term)
	}
	return where, args
}

// sortClause returns a safe ORDER BY clause. Only allowed columns are accepted.
func sortClause(filter ListFilter) string {
	allowed := map[string]string{
		"name": "name", "email": "email", "group_name": "group_name",
		"status": "status", "joined_at": "joined_at",
	}
	col, ok := allowed[filter.Sort]
	if !ok {
		return " ORDER BY name ASC"
	}
	dir := "ASC"
	if filter.Dir == "desc" {
		dir = "DESC"
	}
	return " ORDER BY " + col + " " + dir
}

// Count returns the number of members matching the filter.
// POST: Returns count >= 0
func (s *SQLiteStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	where, args := listWhereClause(filter)
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM member"+where, args...).Scan(&count)
	return count, err
}

// List retrieves members matching the filter. A non-positive Limit means no limit.
// PRE: filter has valid parameters
// POST: Returns matching entities
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Member, error) {
	where, args := listWhereClause(filter)
	query := selectColumns + where + sortClause(filter)
	limit := filter.Limit
	if limit <= 0 {
		limit = -1
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Member
	for rows.Next() {
		entity, err := scanMember(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// CountJoinedBetween counts members whose joined_at falls in [start, end).
func (s *SQLiteStore) CountJoinedBetween(ctx context.Context, start, end time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM member WHERE joined_at >= ? AND joined_at < ?",
		storage.FormatTime(start), storage.FormatTime(end)).Scan(&count)
	return count, err
}

// GroupBreakdown returns active and inactive counts per group, largest first.
// Members with no group are reported under the empty group name.
func (s *SQLiteStore) GroupBreakdown(ctx context.Context) ([]GroupCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT group_name,
		       SUM(CASE WHEN status = ? THEN 1 ELSE 0 END),
		       SUM(CASE WHEN status = ? THEN 1 ELSE 0 END)
		FROM member GROUP BY group_name
		ORDER BY COUNT(*) DESC, group_name ASC`,
		domain.StatusActive, domain.StatusInactive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GroupCount
	for rows.Next() {
		var g GroupCount
		if err := rows.Scan(&g.Group, &g.Active, &g.Inactive); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func scanMember(scan func(dest ...any) error) (domain.Member, error) {
	var m domain.Member
	var joinedAt, createdAt string
	if err := scan(&m.ID, &m.Name, &m.Email, &m.Phone, &m.Gender, &m.GroupName, &m.Status, &joinedAt, &createdAt); err != nil {
		return domain.Member{}, err
	}
	var err error
	if m.JoinedAt, err = storage.ParseTime(joinedAt); err != nil {
		return domain.Member{}, fmt.Errorf("member joined_at: %w", err)
	}
	if m.CreatedAt, err = storage.ParseTime(createdAt); err != nil {
		return domain.Member{}, fmt.Errorf("member created_at: %w", err)
	}
	return m, nil
}

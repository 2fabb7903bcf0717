package event

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shepherd/internal/adapters/storage"
	domain "shepherd/internal/domain/event"
)

const eventColumns = "id, title, description, location, starts_at, ends_at, image_path, created_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new event store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves an event by ID.
// POST: Returns the entity or an error wrapping domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Event, error) {
	e, err := scanEvent(s.db.QueryRowContext(ctx, "SELECT "+eventColumns+" FROM event WHERE id = ?", id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Event{}, fmt.Errorf("event %s: %w", id, domain.ErrNotFound)
	}
	return e, err
}

// Save inserts or updates an event.
// PRE: value has been validated
func (s *SQLiteStore) Save(ctx context.Context, e domain.Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO event (`+eventColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		  title=excluded.title, description=excluded.description, location=excluded.location,
		  starts_at=excluded.starts_at, ends_at=excluded.ends_at, image_path=excluded.image_path`,
		e.ID, e.Title, e.Description, e.Location, storage.FormatTime(e.StartsAt),
		storage.FormatOptionalTime(e.EndsAt), e.ImagePath, storage.FormatTime(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("save event: %w", err)
	}
	return nil
}

// Delete removes an event.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM event WHERE id = ?", id)
	return err
}

// List returns events in start order.
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Event, error) {
	query := "SELECT " + eventColumns + " FROM event"
	var args []any
	if !filter.After.IsZero() {
		query += " WHERE starts_at > ?"
		args = append(args, storage.FormatTime(filter.After))
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = -1
	}
	query += " ORDER BY starts_at ASC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// CountStartingBetween counts events starting in [start, end).
func (s *SQLiteStore) CountStartingBetween(ctx context.Context, start, end time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM event WHERE starts_at >= ? AND starts_at < ?",
		storage.FormatTime(start), storage.FormatTime(end)).Scan(&n)
	return n, err
}

func scanEvent(scan func(dest ...any) error) (domain.Event, error) {
	var e domain.Event
	var starts, created string
	var ends sql.NullString
	if err := scan(&e.ID, &e.Title, &e.Description, &e.Location, &starts, &ends, &e.ImagePath, &created); err != nil {
		return domain.Event{}, err
	}
	var err error
	if e.StartsAt, err = storage.ParseTime(starts); err != nil {
		return domain.Event{}, fmt.Errorf("event starts_at: %w", err)
	}
	if e.EndsAt, err = storage.ParseOptionalTime(ends); err != nil {
		return domain.Event{}, fmt.Errorf("event ends_at: %w", err)
	}
	if e.CreatedAt, err = storage.ParseTime(created); err != nil {
		return domain.Event{}, fmt.Errorf("event created_at: %w", err)
	}
	return e, nil
}

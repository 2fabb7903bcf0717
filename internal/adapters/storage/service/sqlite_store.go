package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shepherd/internal/adapters/storage"
	domain "shepherd/internal/domain/service"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new service store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Service by its slug.
// POST: Returns the entity or an error wrapping domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Service, error) {
	row := s.db.QueryRowContext(ctx, "SELECT id, name, day, start_time, created_at FROM service WHERE id = ?", id)
	svc, err := scanService(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Service{}, fmt.Errorf("service %s: %w", id, domain.ErrNotFound)
	}
	return svc, err
}

// Save persists a Service (insert or update).
// PRE: value has been validated
func (s *SQLiteStore) Save(ctx context.Context, value domain.Service) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO service (id, name, day, start_time, created_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, day=excluded.day, start_time=excluded.start_time`,
		value.ID, value.Name, value.Day, value.StartTime, storage.FormatTime(value.CreatedAt))
	if err != nil {
		return fmt.Errorf("save service: %w", err)
	}
	return nil
}

// Delete removes a Service. Fails while attendance rows reference it.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM service WHERE id = ?", id)
	return err
}

// List returns all services in weekly order, then by start time.
func (s *SQLiteStore) List(ctx context.Context) ([]domain.Service, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, day, start_time, created_at FROM service
		ORDER BY CASE day
			WHEN 'monday' THEN 1 WHEN 'tuesday' THEN 2 WHEN 'wednesday' THEN 3 WHEN 'thursday' THEN 4
			WHEN 'friday' THEN 5 WHEN 'saturday' THEN 6 ELSE 7 END, start_time`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Service
	for rows.Next() {
		svc, err := scanService(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, svc)
	}
	return out, rows.Err()
}

func scanService(scan func(dest ...any) error) (domain.Service, error) {
	var svc domain.Service
	var created string
	if err := scan(&svc.ID, &svc.Name, &svc.Day, &svc.StartTime, &created); err != nil {
		return domain.Service{}, err
	}
	t, err := storage.ParseTime(created)
	if err != nil {
		return domain.Service{}, fmt.Errorf("service created_at: %w", err)
	}
	svc.CreatedAt = t
	return svc, nil
}

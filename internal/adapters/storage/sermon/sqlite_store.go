package sermon

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shepherd/internal/adapters/storage"
	"shepherd/internal/domain/checkin"
	domain "shepherd/internal/domain/sermon"
)

const sermonColumns = "id, title, preacher, scripture, video_url, video_id, notes, preached_on, created_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new sermon store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a sermon by ID.
// POST: Returns the entity or an error wrapping domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Sermon, error) {
	sm, err := scanSermon(s.db.QueryRowContext(ctx, "SELECT "+sermonColumns+" FROM sermon WHERE id = ?", id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Sermon{}, fmt.Errorf("sermon %s: %w", id, domain.ErrNotFound)
	}
	return sm, err
}

// Save inserts or updates a sermon.
// PRE: value has been validated
func (s *SQLiteStore) Save(ctx context.Context, v domain.Sermon) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sermon (`+sermonColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		  title=excluded.title, preacher=excluded.preacher, scripture=excluded.scripture,
		  video_url=excluded.video_url, video_id=excluded.video_id, notes=excluded.notes,
		  preached_on=excluded.preached_on`,
		v.ID, v.Title, v.Preacher, v.Scripture, v.VideoURL, v.VideoID, v.Notes,
		v.PreachedOn.Format(checkin.DateLayout), storage.FormatTime(v.CreatedAt))
	if err != nil {
		return fmt.Errorf("save sermon: %w", err)
	}
	return nil
}

// Delete removes a sermon.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM sermon WHERE id = ?", id)
	return err
}

// List returns sermons, most recently preached first.
func (s *SQLiteStore) List(ctx context.Context, limit, offset int) ([]domain.Sermon, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+sermonColumns+" FROM sermon ORDER BY preached_on DESC, created_at DESC LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Sermon
	for rows.Next() {
		sm, err := scanSermon(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, sm)
	}
	return out, rows.Err()
}

// Count returns the number of sermons.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sermon").Scan(&n)
	return n, err
}

func scanSermon(scan func(dest ...any) error) (domain.Sermon, error) {
	var v domain.Sermon
	var preached, created string
	if err := scan(&v.ID, &v.Title, &v.Preacher, &v.Scripture, &v.VideoURL, &v.VideoID, &v.Notes, &preached, &created); err != nil {
		return domain.Sermon{}, err
	}
	var err error
	if v.PreachedOn, err = time.Parse(checkin.DateLayout, preached); err != nil {
		return domain.Sermon{}, fmt.Errorf("sermon preached_on: %w", err)
	}
	if v.CreatedAt, err = storage.ParseTime(created); err != nil {
		return domain.Sermon{}, fmt.Errorf("sermon created_at: %w", err)
	}
	return v, nil
}

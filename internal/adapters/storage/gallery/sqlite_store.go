package gallery

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shepherd/internal/adapters/storage"
	"shepherd/internal/domain/checkin"
	domain "shepherd/internal/domain/gallery"
)

const mediaColumns = "id, album_id, path, thumb_path, caption, likes, created_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new gallery store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetAlbum retrieves an album by ID.
// POST: Returns the entity or an error wrapping domain.ErrAlbumNotFound
func (s *SQLiteStore) GetAlbum(ctx context.Context, id string) (domain.Album, error) {
	row := s.db.QueryRowContext(ctx, "SELECT id, title, description, event_date, created_at FROM gallery_album WHERE id = ?", id)
	a, err := scanAlbum(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Album{}, fmt.Errorf("album %s: %w", id, domain.ErrAlbumNotFound)
	}
	return a, err
}

// SaveAlbum inserts or updates an album.
// PRE: a has been validated
func (s *SQLiteStore) SaveAlbum(ctx context.Context, a domain.Album) error {
	eventDate := ""
	if !a.EventDate.IsZero() {
		eventDate = a.EventDate.Format(checkin.DateLayout)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO gallery_album (id, title, description, event_date, created_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET title=excluded.title, description=excluded.description, event_date=excluded.event_date`,
		a.ID, a.Title, a.Description, eventDate, storage.FormatTime(a.CreatedAt))
	if err != nil {
		return fmt.Errorf("save album: %w", err)
	}
	return nil
}

// DeleteAlbum removes an album and, by cascade, its media rows. Stored
// files are the caller's to remove.
func (s *SQLiteStore) DeleteAlbum(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM gallery_album WHERE id = ?", id)
	return err
}

// ListAlbums returns albums newest first with media counts.
func (s *SQLiteStore) ListAlbums(ctx context.Context) ([]AlbumSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.title, a.description, a.event_date, a.created_at,
		       (SELECT COUNT(*) FROM gallery_media m WHERE m.album_id = a.id),
		       COALESCE((SELECT m.thumb_path FROM gallery_media m WHERE m.album_id = a.id ORDER BY m.created_at LIMIT 1), '')
		FROM gallery_album a ORDER BY a.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AlbumSummary
	for rows.Next() {
		var sum AlbumSummary
		var count int
		var cover string
		a, err := scanAlbum(func(dest ...any) error {
			return rows.Scan(append(dest, &count, &cover)...)
		})
		if err != nil {
			return nil, err
		}
		sum.Album, sum.MediaCount, sum.CoverThumb = a, count, cover
		out = append(out, sum)
	}
	return out, rows.Err()
}

// GetMedia retrieves one media item.
// POST: Returns the entity or an error wrapping domain.ErrMediaNotFound
func (s *SQLiteStore) GetMedia(ctx context.Context, id string) (domain.Media, error) {
	m, err := scanMedia(s.db.QueryRowContext(ctx, "SELECT "+mediaColumns+" FROM gallery_media WHERE id = ?", id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Media{}, fmt.Errorf("media %s: %w", id, domain.ErrMediaNotFound)
	}
	return m, err
}

// SaveMedia inserts or updates a media item. Likes are never overwritten
// by an update; use Like.
// PRE: m has been validated
func (s *SQLiteStore) SaveMedia(ctx context.Context, m domain.Media) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO gallery_media (`+mediaColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		  album_id=excluded.album_id, path=excluded.path, thumb_path=excluded.thumb_path, caption=excluded.caption`,
		m.ID, m.AlbumID, m.Path, m.ThumbPath, m.Caption, m.Likes, storage.FormatTime(m.CreatedAt))
	if err != nil {
		return fmt.Errorf("save media: %w", err)
	}
	return nil
}

// DeleteMedia removes a media row.
func (s *SQLiteStore) DeleteMedia(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM gallery_media WHERE id = ?", id)
	return err
}

// ListMedia returns an album's media in upload order.
func (s *SQLiteStore) ListMedia(ctx context.Context, albumID string) ([]domain.Media, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+mediaColumns+" FROM gallery_media WHERE album_id = ? ORDER BY created_at", albumID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMediaRows(rows)
}

// Like atomically increments a media item's like count.
// POST: Returns the new count or an error wrapping domain.ErrMediaNotFound
func (s *SQLiteStore) Like(ctx context.Context, id string) (int, error) {
	var likes int
	err := s.db.QueryRowContext(ctx, "UPDATE gallery_media SET likes = likes + 1 WHERE id = ? RETURNING likes", id).Scan(&likes)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("media %s: %w", id, domain.ErrMediaNotFound)
	}
	return likes, err
}

// Stats counts albums and media created in [start, end) and all likes.
func (s *SQLiteStore) Stats(ctx context.Context, start, end time.Time) (Stats, error) {
	from, to := storage.FormatTime(start), storage.FormatTime(end)
	var st Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
		  (SELECT COUNT(*) FROM gallery_album WHERE created_at >= ? AND created_at < ?),
		  (SELECT COUNT(*) FROM gallery_media WHERE created_at >= ? AND created_at < ?),
		  (SELECT COALESCE(SUM(likes), 0) FROM gallery_media)`,
		from, to, from, to).Scan(&st.Albums, &st.Media, &st.Likes)
	return st, err
}

// TopLiked returns the most liked media, ties broken by recency.
func (s *SQLiteStore) TopLiked(ctx context.Context, limit int) ([]domain.Media, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+mediaColumns+" FROM gallery_media WHERE likes > 0 ORDER BY likes DESC, created_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMediaRows(rows)
}

func scanAlbum(scan func(dest ...any) error) (domain.Album, error) {
	var a domain.Album
	var eventDate, created string
	if err := scan(&a.ID, &a.Title, &a.Description, &eventDate, &created); err != nil {
		return domain.Album{}, err
	}
	var err error
	if eventDate != "" {
		if a.EventDate, err = time.Parse(checkin.DateLayout, eventDate); err != nil {
			return domain.Album{}, fmt.Errorf("album event_date: %w", err)
		}
	}
	if a.CreatedAt, err = storage.ParseTime(created); err != nil {
		return domain.Album{}, fmt.Errorf("album created_at: %w", err)
	}
	return a, nil
}

func scanMedia(scan func(dest ...any) error) (domain.Media, error) {
	var m domain.Media
	var created string
	if err := scan(&m.ID, &m.AlbumID, &m.Path, &m.ThumbPath, &m.Caption, &m.Likes, &created); err != nil {
		return domain.Media{}, err
	}
	t, err := storage.ParseTime(created)
	if err != nil {
		return domain.Media{}, fmt.Errorf("media created_at: %w", err)
	}
	m.CreatedAt = t
	return m, nil
}

func scanMediaRows(rows *sql.Rows) ([]domain.Media, error) {
	var out []domain.Media
	for rows.Next() {
		m, err := scanMedia(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

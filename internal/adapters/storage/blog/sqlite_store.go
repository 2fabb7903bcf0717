package blog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shepherd/internal/adapters/storage"
	domain "shepherd/internal/domain/blog"
)

const postColumns = "id, title, slug, content, cover_path, status, published_at, created_at, updated_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new blog store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a post by ID.
// POST: Returns the entity or an error wrapping domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Post, error) {
	return s.getOne(ctx, "id", id)
}

// GetBySlug retrieves a post by slug.
// POST: Returns the entity or an error wrapping domain.ErrNotFound
func (s *SQLiteStore) GetBySlug(ctx context.Context, slug string) (domain.Post, error) {
	return s.getOne(ctx, "slug", slug)
}

func (s *SQLiteStore) getOne(ctx context.Context, column, value string) (domain.Post, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, "SELECT "+postColumns+" FROM blog_post WHERE "+column+" = ?", value).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Post{}, fmt.Errorf("post %s: %w", value, domain.ErrNotFound)
	}
	return p, err
}

// Save inserts or updates a post.
// PRE: value has been validated
// POST: Returns domain.ErrSlugTaken when the slug collides with another post
func (s *SQLiteStore) Save(ctx context.Context, p domain.Post) error {
	var owner string
	err := s.db.QueryRowContext(ctx, "SELECT id FROM blog_post WHERE slug = ?", p.Slug).Scan(&owner)
	switch {
	case err == nil && owner != p.ID:
		return domain.ErrSlugTaken
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO blog_post (`+postColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		  title=excluded.title, slug=excluded.slug, content=excluded.content, cover_path=excluded.cover_path,
		  status=excluded.status, published_at=excluded.published_at, updated_at=excluded.updated_at`,
		p.ID, p.Title, p.Slug, p.Content, p.CoverPath, p.Status,
		storage.FormatOptionalTime(p.PublishedAt), storage.FormatTime(p.CreatedAt), storage.FormatTime(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("save post: %w", err)
	}
	return nil
}

// Delete removes a post.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM blog_post WHERE id = ?", id)
	return err
}

// List returns posts, newest first.
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Post, error) {
	query := "SELECT " + postColumns + " FROM blog_post"
	var args []any
	if filter.Status != "" {
		query += " WHERE status = ?"
		args = append(args, filter.Status)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = -1
	}
	query += " ORDER BY COALESCE(published_at, created_at) DESC LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Post
	for rows.Next() {
		p, err := scanPost(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPost(scan func(dest ...any) error) (domain.Post, error) {
	var p domain.Post
	var published sql.NullString
	var created, updated string
	if err := scan(&p.ID, &p.Title, &p.Slug, &p.Content, &p.CoverPath, &p.Status, &published, &created, &updated); err != nil {
		return domain.Post{}, err
	}
	var err error
	if p.PublishedAt, err = storage.ParseOptionalTime(published); err != nil {
		return domain.Post{}, fmt.Errorf("post published_at: %w", err)
	}
	if p.CreatedAt, err = storage.ParseTime(created); err != nil {
		return domain.Post{}, fmt.Errorf("post created_at: %w", err)
	}
	if p.UpdatedAt, err = storage.ParseTime(updated); err != nil {
		return domain.Post{}, fmt.Errorf("post updated_at: %w", err)
	}
	return p, nil
}

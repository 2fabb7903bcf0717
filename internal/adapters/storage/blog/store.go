package blog

import (
	"context"

	domain "shepherd/internal/domain/blog"
)

// Store persists blog posts.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Post, error)
	GetBySlug(ctx context.Context, slug string) (domain.Post, error)
	Save(ctx context.Context, value domain.Post) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]domain.Post, error)
}

// ListFilter narrows List. An empty Status lists every post.
type ListFilter struct {
	Limit  int
	Offset int
	Status string
}

package sermon

import (
	"context"

	domain "shepherd/internal/domain/sermon"
)

// Store persists Sermon state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Sermon, error)
	Save(ctx context.Context, value domain.Sermon) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit, offset int) ([]domain.Sermon, error)
	Count(ctx context.Context) (int, error)
}

package event

import (
	"context"
	"time"

	domain "shepherd/internal/domain/event"
)

// Store persists church events.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Event, error)
	Save(ctx context.Context, value domain.Event) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]domain.Event, error)
	CountStartingBetween(ctx context.Context, start, end time.Time) (int, error)
}

// ListFilter narrows List. A non-zero After keeps only events starting after it.
type ListFilter struct {
	Limit int
	After time.Time
}

package visitor

import (
	"context"
	"time"

	"shepherd/internal/domain/attendance"
	domain "shepherd/internal/domain/visitor"
)

// Store persists Visitor state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Visitor, error)
	GetByPhone(ctx context.Context, phone string) (domain.Visitor, error)
	RecordVisit(ctx context.Context, v domain.Visitor, now time.Time) (domain.Visitor, error)
	RecordCheckIn(ctx context.Context, v domain.Visitor, a attendance.Attendance, now time.Time) (domain.Visitor, error)
	Save(ctx context.Context, v domain.Visitor) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]domain.Visitor, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
	CountFirstVisitsBetween(ctx context.Context, start, end time.Time) (int, error)
	CountReturningBetween(ctx context.Context, start, end time.Time) (int, error)
	TopSources(ctx context.Context, start, end time.Time, limit int) ([]SourceCount, error)
}

// ListFilter carries filtering parameters for List and Count.
type ListFilter struct {
	Limit  int
	Offset int
	Search string // substring of name or phone
	Source string
}

// SourceCount is how many first-time visitors named one source.
type SourceCount struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
}

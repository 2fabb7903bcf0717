package finance

import (
	"context"

	domain "shepherd/internal/domain/finance"
)

// Store persists ledger transactions.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Transaction, error)
	Save(ctx context.Context, value domain.Transaction) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]domain.Transaction, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
	TotalsBetween(ctx context.Context, fromDate, toDate string) (domain.Totals, error)
	PaymentMonthsBetween(ctx context.Context, kind, fromDate, toDate string) (map[string]int, error)
}

// ListFilter narrows List and Count. Dates are inclusive YYYY-MM-DD bounds.
type ListFilter struct {
	Limit    int
	Offset   int
	Kind     string
	MemberID string
	FromDate string
	ToDate   string
}

package member

import (
	"context"
	"time"

	domain "shepherd/internal/domain/member"
)

// Store persists Member state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Member, error)
	GetByEmailAndPhone(ctx context.Context, email, phone string) (domain.Member, error)
	GetByEmail(ctx context.Context, email string) (domain.Member, error)
	Save(ctx context.Context, value domain.Member) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]domain.Member, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
	CountJoinedBetween(ctx context.Context, start, end time.Time) (int, error)
	GroupBreakdown(ctx context.Context) ([]GroupCount, error)
}

// ListFilter carries filtering parameters for List and Count. The zero
// value matches every member.
type ListFilter struct {
	Limit  int
	Offset int
	Status string
	Group  string
	Gender string
	Search string // substring of name, email or phone
	Sort   string // name, email, group_name, status, joined_at
	Dir    string // asc or desc
}

// GroupCount is the active/inactive split for one group.
type GroupCount struct {
	Group    string `json:"group"`
	Active   int    `json:"active"`
	Inactive int    `json:"inactive"`
}

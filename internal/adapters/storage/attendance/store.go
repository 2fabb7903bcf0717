package attendance

import (
	"context"
	"time"

	domain "shepherd/internal/domain/attendance"
)

// Store persists the append-only attendance log.
type Store interface {
	InsertMemberCheckIn(ctx context.Context, a domain.Attendance) (bool, error)
	Insert(ctx context.Context, a domain.Attendance) error
	GetMemberCheckIn(ctx context.Context, memberID, serviceID, date string) (domain.Attendance, error)
	ListSession(ctx context.Context, serviceID, date string) ([]SessionRow, error)
	CountBetween(ctx context.Context, start, end time.Time) (Counts, error)
	CountByServiceBetween(ctx context.Context, start, end time.Time) ([]ServiceCount, error)
	CountSessionsBetween(ctx context.Context, start, end time.Time) (int, error)
	MemberSessionsBetween(ctx context.Context, start, end time.Time) (map[string]int, error)
	CountForService(ctx context.Context, serviceID string) (int, error)
}

// Counts splits attendance rows by identity kind.
type Counts struct {
	Total    int `json:"total"`
	Members  int `json:"members"`
	Visitors int `json:"visitors"`
}

// ServiceCount is Counts for one service.
type ServiceCount struct {
	ServiceID   string `json:"serviceId"`
	ServiceName string `json:"serviceName"`
	Counts
}

// SessionRow is an attendance row with the attendee's display name.
type SessionRow struct {
	domain.Attendance
	Name string
}

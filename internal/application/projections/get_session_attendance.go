package projections

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shepherd/internal/domain/checkin"
	domainService "shepherd/internal/domain/service"
)

// Attendee kinds in a session listing.
const (
	AttendeeMember  = "member"
	AttendeeVisitor = "visitor"
)

// SessionAttendee is one check-in within a session.
type SessionAttendee struct {
	Kind        string    `json:"kind"`
	PersonID    string    `json:"personId"`
	Name        string    `json:"name"`
	CheckInTime time.Time `json:"checkInTime"`
	Status      string    `json:"status"`
}

// SessionAttendance lists who checked in to one service on one date.
type SessionAttendance struct {
	ServiceID   string            `json:"serviceId"`
	ServiceName string            `json:"serviceName"`
	Date        string            `json:"date"`
	Members     int               `json:"members"`
	Visitors    int               `json:"visitors"`
	Attendees   []SessionAttendee `json:"attendees"`
}

// QuerySessionAttendance lists one session in check-in order.
// PRE: date is YYYY-MM-DD
// POST: NOT_FOUND for an unknown service, VALIDATION_ERROR for a malformed date
func QuerySessionAttendance(ctx context.Context, serviceID, date string, services ServiceStore, store AttendanceStore) (SessionAttendance, error) {
	if _, err := time.Parse(checkin.DateLayout, date); err != nil {
		return SessionAttendance{}, checkin.NewError(checkin.CodeValidation, "date must be YYYY-MM-DD")
	}
	svc, err := services.GetByID(ctx, serviceID)
	if errors.Is(err, domainService.ErrNotFound) {
		return SessionAttendance{}, checkin.Wrap(checkin.CodeNotFound, "service not found", err)
	}
	if err != nil {
		return SessionAttendance{}, fmt.Errorf("look up service: %w", err)
	}

	rows, err := store.ListSession(ctx, serviceID, date)
	if err != nil {
		return SessionAttendance{}, fmt.Errorf("list session: %w", err)
	}
	out := SessionAttendance{ServiceID: svc.ID, ServiceName: svc.Name, Date: date, Attendees: make([]SessionAttendee, 0, len(rows))}
	for _, r := range rows {
		a := SessionAttendee{Kind: AttendeeMember, PersonID: r.MemberID, Name: r.Name, CheckInTime: r.CheckInTime, Status: r.Status}
		if r.MemberID == "" {
			a.Kind, a.PersonID = AttendeeVisitor, r.VisitorID
			out.Visitors++
		} else {
			out.Members++
		}
		out.Attendees = append(out.Attendees, a)
	}
	return out, nil
}

// ServiceRow is one recurring service.
type ServiceRow struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Day       string `json:"day"`
	StartTime string `json:"startTime"`
}

// QueryServices lists every configured service.
func QueryServices(ctx context.Context, services ServiceStore) ([]ServiceRow, error) {
	list, err := services.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	out := make([]ServiceRow, 0, len(list))
	for _, s := range list {
		out = append(out, ToServiceRow(s))
	}
	return out, nil
}

package attendance

import (
	"errors"
	"time"

	"shepherd/internal/domain/checkin"
)

// Status constants
const (
	StatusPresent = "present"
	StatusVisitor = "visitor"
)

// Domain errors
var (
	ErrIdentityRequired = errors.New("attendance must reference exactly one of member or visitor")
	ErrServiceRequired  = errors.New("attendance must reference a service")
	ErrInvalidDate      = errors.New("check-in date must be YYYY-MM-DD")
	ErrCheckInTimeUnset = errors.New("check-in time must be set")
	ErrStatusMismatch   = errors.New("status must be 'present' for members and 'visitor' for visitors")
	ErrNotFound         = errors.New("attendance not found")
)

// Attendance records one identity attending one service session.
// Rows are append-only.
type Attendance struct {
	ID          string
	MemberID    string
	VisitorID   string
	ServiceID   string
	CheckInDate string // YYYY-MM-DD
	CheckInTime time.Time
	Status      string
}

// Validate checks if the Attendance has valid data.
// PRE: Attendance struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: MemberID XOR VisitorID; Status agrees with which one is set
func (a *Attendance) Validate() error {
	hasMember, hasVisitor := a.MemberID != "", a.VisitorID != ""
	if hasMember == hasVisitor {
		return ErrIdentityRequired
	}
	if a.ServiceID == "" {
		return ErrServiceRequired
	}
	if _, err := time.Parse(checkin.DateLayout, a.CheckInDate); err != nil {
		return ErrInvalidDate
	}
	if a.CheckInTime.IsZero() {
		return ErrCheckInTimeUnset
	}
	if hasMember && a.Status != StatusPresent || hasVisitor && a.Status != StatusVisitor {
		return ErrStatusMismatch
	}
	return nil
}

// IsMember reports whether the row belongs to a member.
func (a *Attendance) IsMember() bool {
	return a.MemberID != ""
}

// NewMemberAttendance builds a present row for a member.
func NewMemberAttendance(id, memberID, serviceID, date string, now time.Time) Attendance {
	return Attendance{ID: id, MemberID: memberID, ServiceID: serviceID, CheckInDate: date, CheckInTime: now, Status: StatusPresent}
}

// NewVisitorAttendance builds a visitor row.
func NewVisitorAttendance(id, visitorID, serviceID, date string, now time.Time) Attendance {
	return Attendance{ID: id, VisitorID: visitorID, ServiceID: serviceID, CheckInDate: date, CheckInTime: now, Status: StatusVisitor}
}

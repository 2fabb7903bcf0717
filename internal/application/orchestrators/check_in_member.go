package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"shepherd/internal/adapters/metrics"
	"shepherd/internal/domain/attendance"
	"shepherd/internal/domain/checkin"
	"shepherd/internal/domain/member"
)

// CheckInMemberStore resolves a member from their credentials.
type CheckInMemberStore interface {
	GetByEmailAndPhone(ctx context.Context, email, phone string) (member.Member, error)
}

// MemberAttendanceStore reads and writes member attendance rows.
type MemberAttendanceStore interface {
	GetMemberCheckIn(ctx context.Context, memberID, serviceID, date string) (attendance.Attendance, error)
	InsertMemberCheckIn(ctx context.Context, a attendance.Attendance) (bool, error)
}

// CheckInRecorder counts check-in attempts. Optional.
type CheckInRecorder interface {
	CheckIn(kind, outcome string)
}

// CheckInMemberInput carries input for the check-in orchestrator.
type CheckInMemberInput struct {
	Email     string
	Phone     string
	ServiceID string
	Date      string // YYYY-MM-DD
}

// CheckInMemberDeps holds dependencies for CheckInMember.
type CheckInMemberDeps struct {
	MemberStore     CheckInMemberStore
	AttendanceStore MemberAttendanceStore
	Clock           Clock
	NewID           IDGenerator
	Metrics         CheckInRecorder
}

// CheckInMemberResult reports the outcome of a member check-in.
type CheckInMemberResult struct {
	Member           member.Member
	AlreadyCheckedIn bool
	CheckInTime      time.Time
	Message          string
}

// ExecuteCheckInMember records a member's attendance for one service session.
// PRE: Email and phone identify the member; ServiceID and Date name the session
// POST: Exactly one attendance row exists for (member, service, date)
// INVARIANT: A repeated call never inserts a second row; it reports the original check-in time
func ExecuteCheckInMember(ctx context.Context, input CheckInMemberInput, deps CheckInMemberDeps) (CheckInMemberResult, error) {
	res, err := checkInMember(ctx, input, deps)
	if deps.Metrics != nil {
		deps.Metrics.CheckIn(metrics.KindMember, checkInOutcome(res.AlreadyCheckedIn, err))
	}
	return res, err
}

func checkInMember(ctx context.Context, input CheckInMemberInput, deps CheckInMemberDeps) (CheckInMemberResult, error) {
	email := checkin.NormalizeEmail(input.Email)
	phone := checkin.NormalizePhone(input.Phone)
	if err := checkin.ValidatePhone(phone); err != nil {
		return CheckInMemberResult{}, err
	}
	if err := checkin.ValidateEmail(email); err != nil {
		return CheckInMemberResult{}, err
	}
	if err := checkin.ValidateSession(input.ServiceID, input.Date); err != nil {
		return CheckInMemberResult{}, err
	}

	m, err := deps.MemberStore.GetByEmailAndPhone(ctx, email, phone)
	if errors.Is(err, member.ErrNotFound) {
		slog.Info("checkin_event", "event", "member_not_found", "service_id", input.ServiceID)
		return CheckInMemberResult{}, checkin.NewError(checkin.CodeNotFound, checkin.MsgMemberNotFound)
	}
	if err != nil {
		return CheckInMemberResult{}, fmt.Errorf("look up member: %w", err)
	}

	if res, ok, err := existingCheckIn(ctx, m, input, deps); err != nil || ok {
		return res, err
	}

	a := attendance.NewMemberAttendance(deps.NewID.next(), m.ID, input.ServiceID, input.Date, deps.Clock.now())
	if err := a.Validate(); err != nil {
		return CheckInMemberResult{}, checkin.Wrap(checkin.CodeValidation, err.Error(), err)
	}
	inserted, err := deps.AttendanceStore.InsertMemberCheckIn(ctx, a)
	if err != nil {
		return CheckInMemberResult{}, fmt.Errorf("record attendance: %w", err)
	}
	if !inserted {
		// A concurrent request won the unique index; report its row.
		res, ok, err := existingCheckIn(ctx, m, input, deps)
		if err != nil {
			return CheckInMemberResult{}, err
		}
		if !ok {
			return CheckInMemberResult{}, errors.New("attendance insert was ignored but no row exists")
		}
		return res, nil
	}

	slog.Info("checkin_event", "event", "member_checked_in", "member_id", m.ID, "service_id", input.ServiceID, "date", input.Date, "member_status", m.Status)
	return CheckInMemberResult{
		Member:      m,
		CheckInTime: a.CheckInTime,
		Message:     fmt.Sprintf("Welcome, %s! You are checked in.", m.Name),
	}, nil
}

// existingCheckIn reports whether the member already has a row for the session.
func existingCheckIn(ctx context.Context, m member.Member, input CheckInMemberInput, deps CheckInMemberDeps) (CheckInMemberResult, bool, error) {
	prev, err := deps.AttendanceStore.GetMemberCheckIn(ctx, m.ID, input.ServiceID, input.Date)
	if errors.Is(err, attendance.ErrNotFound) {
		return CheckInMemberResult{}, false, nil
	}
	if err != nil {
		return CheckInMemberResult{}, false, fmt.Errorf("check existing attendance: %w", err)
	}
	slog.Info("checkin_event", "event", "member_already_checked_in", "member_id", m.ID, "service_id", input.ServiceID, "date", input.Date)
	return CheckInMemberResult{
		Member:           m,
		AlreadyCheckedIn: true,
		CheckInTime:      prev.CheckInTime,
		Message:          fmt.Sprintf("%s, you are already checked in for this service.", m.Name),
	}, true, nil
}

func checkInOutcome(duplicate bool, err error) string {
	switch {
	case err == nil && duplicate:
		return metrics.OutcomeDuplicate
	case err == nil:
		return metrics.OutcomeCheckedIn
	case checkin.CodeOf(err) == "":
		return metrics.OutcomeError
	default:
		return metrics.OutcomeRejected
	}
}

package orchestrators

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"shepherd/internal/adapters/metrics"
	"shepherd/internal/domain/attendance"
	"shepherd/internal/domain/checkin"
	"shepherd/internal/domain/outbox"
	"shepherd/internal/domain/service"
	"shepherd/internal/domain/visitor"
)

// VisitorRecorder upserts a visitor keyed by phone and appends the visit's
// attendance row in the same transaction. The row's VisitorID is set to the
// stored visitor's id.
type VisitorRecorder interface {
	RecordCheckIn(ctx context.Context, v visitor.Visitor, a attendance.Attendance, now time.Time) (visitor.Visitor, error)
}

// OutboxWriter queues work for the background worker.
type OutboxWriter interface {
	Save(ctx context.Context, e outbox.Entry) error
}

// RegisterVisitorInput carries input for RegisterVisitor.
type RegisterVisitorInput struct {
	Name      string
	Phone     string
	Email     string // optional
	Source    string // optional
	Purpose   string // optional
	ServiceID string
	Date      string // YYYY-MM-DD
}

// RegisterVisitorDeps holds dependencies for RegisterVisitor.
type RegisterVisitorDeps struct {
	VisitorStore VisitorRecorder
	ServiceStore ServiceLookup // optional; nil skips the existence check
	OutboxStore  OutboxWriter  // optional; nil disables welcome emails
	Clock        Clock
	NewID        IDGenerator
	Metrics      CheckInRecorder
}

// RegisterVisitorResult reports the visitor as stored after this visit.
type RegisterVisitorResult struct {
	Visitor visitor.Visitor
	IsNew   bool
	Message string
}

// WelcomePayload is the outbox payload for a visitor welcome email.
type WelcomePayload struct {
	VisitorID   string `json:"visitor_id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	ServiceName string `json:"service_name,omitempty"`
}

// ExecuteRegisterVisitor records a visit and appends a visitor attendance row.
// PRE: Name and a 10-digit phone are given; email, when given, is well formed
// POST: Visitor upserted by phone with visit_count incremented and one attendance row appended, atomically
// INVARIANT: Visitor rows are never deduplicated per session
func ExecuteRegisterVisitor(ctx context.Context, input RegisterVisitorInput, deps RegisterVisitorDeps) (RegisterVisitorResult, error) {
	res, err := registerVisitor(ctx, input, deps)
	if deps.Metrics != nil {
		deps.Metrics.CheckIn(metrics.KindVisitor, checkInOutcome(false, err))
	}
	return res, err
}

func registerVisitor(ctx context.Context, input RegisterVisitorInput, deps RegisterVisitorDeps) (RegisterVisitorResult, error) {
	v := visitor.Visitor{
		ID:      deps.NewID.next(),
		Name:    input.Name,
		Phone:   input.Phone,
		Email:   input.Email,
		Source:  input.Source,
		Purpose: input.Purpose,
	}
	v.Normalize()
	if err := v.Validate(); err != nil {
		return RegisterVisitorResult{}, err
	}
	if err := checkin.ValidateSession(input.ServiceID, input.Date); err != nil {
		return RegisterVisitorResult{}, err
	}

	var serviceName string
	if deps.ServiceStore != nil {
		svc, err := deps.ServiceStore.GetByID(ctx, input.ServiceID)
		if errors.Is(err, service.ErrNotFound) {
			return RegisterVisitorResult{}, checkin.NewError(checkin.CodeNotFound, "service not found")
		}
		if err != nil {
			return RegisterVisitorResult{}, fmt.Errorf("look up service: %w", err)
		}
		serviceName = svc.Name
	}

	now := deps.Clock.now()
	a := attendance.NewVisitorAttendance(deps.NewID.next(), v.ID, input.ServiceID, input.Date, now)
	stored, err := deps.VisitorStore.RecordCheckIn(ctx, v, a, now)
	if err != nil {
		return RegisterVisitorResult{}, fmt.Errorf("record visit: %w", err)
	}

	isNew := stored.IsFirstVisit()
	slog.Info("checkin_event", "event", "visitor_checked_in", "visitor_id", stored.ID, "service_id", input.ServiceID, "date", input.Date, "visit_count", stored.VisitCount)

	if isNew && stored.Email != "" && deps.OutboxStore != nil {
		queueWelcome(ctx, deps, stored, serviceName, now)
	}

	msg := fmt.Sprintf("Welcome back, %s! Thanks for joining us again.", stored.Name)
	if isNew {
		msg = fmt.Sprintf("Welcome, %s! We are glad you are here.", stored.Name)
	}
	return RegisterVisitorResult{Visitor: stored, IsNew: isNew, Message: msg}, nil
}

// queueWelcome is best effort; a failure never fails the check-in.
func queueWelcome(ctx context.Context, deps RegisterVisitorDeps, v visitor.Visitor, serviceName string, now time.Time) {
	payload, err := json.Marshal(WelcomePayload{VisitorID: v.ID, Name: v.Name, Email: v.Email, ServiceName: serviceName})
	if err != nil {
		slog.Error("outbox_enqueue_failed", "visitor_id", v.ID, "error", err)
		return
	}
	e := outbox.Entry{
		ID:          deps.NewID.next(),
		ActionType:  outbox.ActionTypeVisitorWelcome,
		Payload:     string(payload),
		Status:      outbox.StatusPending,
		MaxAttempts: outbox.DefaultMaxAttempts,
		CreatedAt:   now,
	}
	if err := deps.OutboxStore.Save(ctx, e); err != nil {
		slog.Error("outbox_enqueue_failed", "visitor_id", v.ID, "error", err)
	}
}

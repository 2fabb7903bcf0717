package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"shepherd/internal/domain/member"
	"shepherd/internal/domain/visitor"
)

// MemberWriter is the member store surface used by admin flows.
type MemberWriter interface {
	GetByID(ctx context.Context, id string) (member.Member, error)
	Save(ctx context.Context, m member.Member) error
	Delete(ctx context.Context, id string) error
}

// --- Save Member ---

// SaveMemberInput carries a create (empty ID) or full update of a member.
type SaveMemberInput struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Gender    string
	GroupName string
	Status    string
	JoinedAt  time.Time // zero means today on create, unchanged on update
}

// SaveMemberDeps holds dependencies for SaveMember.
type SaveMemberDeps struct {
	MemberStore MemberWriter
	Clock       Clock
	NewID       IDGenerator
}

// ExecuteSaveMember creates or updates a member.
// PRE: for updates, the member exists
// POST: member persisted; a clashing email yields CONFLICT
func ExecuteSaveMember(ctx context.Context, in SaveMemberInput, deps SaveMemberDeps) (member.Member, error) {
	now := deps.Clock.now()
	m := member.Member{ID: deps.NewID.next(), CreatedAt: now, JoinedAt: now}
	if in.ID != "" {
		existing, err := deps.MemberStore.GetByID(ctx, in.ID)
		if err != nil {
			return member.Member{}, lookupFailed(err, member.ErrNotFound, "member")
		}
		m = existing
	}
	m.Name = in.Name
	m.Email = in.Email
	m.Phone = in.Phone
	m.Gender = in.Gender
	m.GroupName = in.GroupName
	if in.Status != "" {
		m.Status = in.Status
	}
	if !in.JoinedAt.IsZero() {
		m.JoinedAt = in.JoinedAt
	}
	m.Normalize()
	if err := m.Validate(); err != nil {
		return member.Member{}, invalid(err)
	}
	if err := deps.MemberStore.Save(ctx, m); err != nil {
		return member.Member{}, conflictOr(err, member.ErrEmailTaken)
	}

	event := "member_created"
	if in.ID != "" {
		event = "member_updated"
	}
	slog.Info("member_event", "event", event, "member_id", m.ID)
	return m, nil
}

// --- Set Member Status ---

// ExecuteSetMemberStatus activates or deactivates a member.
// POST: status changed; a no-op transition is a validation error
func ExecuteSetMemberStatus(ctx context.Context, id string, active bool, store MemberWriter) (member.Member, error) {
	m, err := store.GetByID(ctx, id)
	if err != nil {
		return member.Member{}, lookupFailed(err, member.ErrNotFound, "member")
	}
	if active {
		err = m.Activate()
	} else {
		err = m.Deactivate()
	}
	if err != nil {
		return member.Member{}, invalid(err)
	}
	if err := store.Save(ctx, m); err != nil {
		return member.Member{}, err
	}
	slog.Info("member_event", "event", "member_status_changed", "member_id", m.ID, "status", m.Status)
	return m, nil
}

// --- Delete Member ---

// ExecuteDeleteMember removes a member. Their attendance rows are removed
// by the database cascade.
func ExecuteDeleteMember(ctx context.Context, id string, store MemberWriter) error {
	if _, err := store.GetByID(ctx, id); err != nil {
		return lookupFailed(err, member.ErrNotFound, "member")
	}
	if err := store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	slog.Info("member_event", "event", "member_deleted", "member_id", id)
	return nil
}

// VisitorWriter is the visitor store surface used by admin flows.
type VisitorWriter interface {
	GetByID(ctx context.Context, id string) (visitor.Visitor, error)
	Save(ctx context.Context, v visitor.Visitor) error
	Delete(ctx context.Context, id string) error
}

// UpdateVisitorInput carries an admin correction of visitor details.
// Visit counters are owned by the check-in flow and cannot be edited.
type UpdateVisitorInput struct {
	ID      string
	Name    string
	Phone   string
	Email   string
	Source  string
	Purpose string
}

// ExecuteUpdateVisitor corrects a visitor's contact details.
// PRE: visitor exists
// POST: details saved; a clashing phone yields CONFLICT
func ExecuteUpdateVisitor(ctx context.Context, in UpdateVisitorInput, store VisitorWriter) (visitor.Visitor, error) {
	v, err := store.GetByID(ctx, in.ID)
	if err != nil {
		return visitor.Visitor{}, lookupFailed(err, visitor.ErrNotFound, "visitor")
	}
	v.Name, v.Phone, v.Email, v.Source, v.Purpose = in.Name, in.Phone, in.Email, in.Source, in.Purpose
	v.Normalize()
	if err := v.Validate(); err != nil {
		return visitor.Visitor{}, err
	}
	if err := store.Save(ctx, v); err != nil {
		return visitor.Visitor{}, conflictOr(err, visitor.ErrPhoneTaken)
	}
	slog.Info("visitor_event", "event", "visitor_updated", "visitor_id", v.ID)
	return v, nil
}

// ExecuteDeleteVisitor removes a visitor and, by cascade, their attendance.
func ExecuteDeleteVisitor(ctx context.Context, id string, store VisitorWriter) error {
	if _, err := store.GetByID(ctx, id); err != nil {
		return lookupFailed(err, visitor.ErrNotFound, "visitor")
	}
	if err := store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete visitor: %w", err)
	}
	slog.Info("visitor_event", "event", "visitor_deleted", "visitor_id", id)
	return nil
}

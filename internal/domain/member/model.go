package member

import (
	"errors"
	"strings"
	"time"

	"shepherd/internal/domain/checkin"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength  = 100
	MaxGroupLength = 60
)

// Business rule constants
const (
	StatusActive   = "active"
	StatusInactive = "inactive"

	GenderMale   = "male"
	GenderFemale = "female"
)

// NewMemberWindow is the tenure below which a member counts as new.
const NewMemberWindow = 7 * 24 * time.Hour

// Domain errors
var (
	ErrEmptyName       = errors.New("member name cannot be empty")
	ErrNameTooLong     = errors.New("member name cannot exceed 100 characters")
	ErrInvalidStatus   = errors.New("status must be 'active' or 'inactive'")
	ErrInvalidGender   = errors.New("gender must be 'male', 'female' or empty")
	ErrGroupTooLong    = errors.New("group name cannot exceed 60 characters")
	ErrAlreadyActive   = errors.New("member is already active")
	ErrAlreadyInactive = errors.New("member is already inactive")
	ErrNotFound        = errors.New("member not found")
	ErrEmailTaken      = errors.New("another member already uses this email")
)

// Member is a durable congregation identity. Check-in never creates members.
type Member struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Gender    string
	GroupName string // cell group or ministry
	Status    string
	JoinedAt  time.Time
	CreatedAt time.Time
}

// Validate checks if the Member has valid data.
// PRE: Member struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: Name non-empty, email well-formed, phone ten digits
func (m *Member) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return ErrEmptyName
	}
	if len(m.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if err := checkin.ValidateEmail(m.Email); err != nil {
		return err
	}
	if err := checkin.ValidatePhone(m.Phone); err != nil {
		return err
	}
	if m.Status != StatusActive && m.Status != StatusInactive {
		return ErrInvalidStatus
	}
	if m.Gender != "" && m.Gender != GenderMale && m.Gender != GenderFemale {
		return ErrInvalidGender
	}
	if len(m.GroupName) > MaxGroupLength {
		return ErrGroupTooLong
	}
	return nil
}

// Normalize trims fields and lower-cases the email in place.
func (m *Member) Normalize() {
	m.Name = strings.TrimSpace(m.Name)
	m.Email = checkin.NormalizeEmail(m.Email)
	m.Phone = checkin.NormalizePhone(m.Phone)
	m.GroupName = strings.TrimSpace(m.GroupName)
	if m.Status == "" {
		m.Status = StatusActive
	}
}

// IsActive returns true if the member is currently active.
// INVARIANT: Status field is not mutated
func (m *Member) IsActive() bool {
	return m.Status == StatusActive
}

// TenureAt returns how long the member has belonged as of now.
// Falls back to CreatedAt when JoinedAt is unset.
func (m *Member) TenureAt(now time.Time) time.Duration {
	since := m.JoinedAt
	if since.IsZero() {
		since = m.CreatedAt
	}
	if since.IsZero() {
		return 0
	}
	return now.Sub(since)
}

// IsNewAt reports whether the member joined less than NewMemberWindow before now.
func (m *Member) IsNewAt(now time.Time) bool {
	if m.JoinedAt.IsZero() && m.CreatedAt.IsZero() {
		return false
	}
	return m.TenureAt(now) < NewMemberWindow
}

// Deactivate marks the member inactive.
// PRE: Member is active
// POST: Status is inactive
func (m *Member) Deactivate() error {
	if m.Status == StatusInactive {
		return ErrAlreadyInactive
	}
	m.Status = StatusInactive
	return nil
}

// Activate marks the member active.
// PRE: Member is inactive
// POST: Status is active
func (m *Member) Activate() error {
	if m.Status == StatusActive {
		return ErrAlreadyActive
	}
	m.Status = StatusActive
	return nil
}

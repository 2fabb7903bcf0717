package visitor

import (
	"errors"
	"strings"
	"time"

	"shepherd/internal/domain/checkin"
)

// MaxNameLength bounds visitor names.
const MaxNameLength = 100

// Known referral sources. Others are accepted verbatim.
const (
	SourceFriend   = "friend"
	SourceFamily   = "family"
	SourceSocial   = "social_media"
	SourceWalkIn   = "walk_in"
	SourceOutreach = "outreach"
)

// Domain errors
var (
	ErrNameTooLong = errors.New("visitor name cannot exceed 100 characters")
	ErrNotFound    = errors.New("visitor not found")
	ErrPhoneTaken  = errors.New("another visitor already uses this phone number")
)

// Visitor is a light identity keyed by phone. Only the check-in flow
// mutates visit metadata.
type Visitor struct {
	ID             string
	Name           string
	Phone          string
	Email          string
	Source         string
	Purpose        string
	VisitCount     int
	FirstVisitDate time.Time
	LastVisitDate  time.Time
	CreatedAt      time.Time
}

// Normalize trims user-supplied fields in place.
func (v *Visitor) Normalize() {
	v.Name = strings.TrimSpace(v.Name)
	v.Phone = checkin.NormalizePhone(v.Phone)
	v.Email = checkin.NormalizeEmail(v.Email)
	v.Source = strings.TrimSpace(v.Source)
	v.Purpose = strings.TrimSpace(v.Purpose)
}

// Validate checks registration input.
// PRE: Normalize has been called
// POST: Returns a VALIDATION_ERROR for missing name, bad phone or bad optional email
func (v *Visitor) Validate() error {
	if v.Name == "" {
		return checkin.NewError(checkin.CodeValidation, checkin.MsgNameRequired)
	}
	if len(v.Name) > MaxNameLength {
		return checkin.Wrap(checkin.CodeValidation, ErrNameTooLong.Error(), ErrNameTooLong)
	}
	if err := checkin.ValidatePhone(v.Phone); err != nil {
		return err
	}
	if v.Email != "" {
		if err := checkin.ValidateEmail(v.Email); err != nil {
			return err
		}
	}
	return nil
}

// IsFirstVisit reports whether this is the visitor's first recorded visit.
func (v *Visitor) IsFirstVisit() bool {
	return v.VisitCount <= 1
}

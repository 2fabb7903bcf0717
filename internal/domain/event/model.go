package event

import (
	"errors"
	"strings"
	"time"
)

// Max length constants for user-editable fields.
const (
	MaxTitleLength    = 150
	MaxLocationLength = 200
)

// Domain errors
var (
	ErrEmptyTitle     = errors.New("event title cannot be empty")
	ErrTitleTooLong   = errors.New("event title cannot exceed 150 characters")
	ErrStartUnset     = errors.New("event start time must be set")
	ErrEndBeforeStart = errors.New("event cannot end before it starts")
	ErrNotFound       = errors.New("event not found")
)

// Event is a one-off church gathering such as a convention or outreach.
type Event struct {
	ID          string
	Title       string
	Description string
	Location    string
	StartsAt    time.Time
	EndsAt      time.Time // optional
	ImagePath   string    // file-store path, optional
	CreatedAt   time.Time
}

// Validate checks if the Event has valid data.
// PRE: Event struct is populated
// POST: Returns nil if valid, error otherwise
func (e *Event) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return ErrEmptyTitle
	}
	if len(e.Title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if e.StartsAt.IsZero() {
		return ErrStartUnset
	}
	if !e.EndsAt.IsZero() && e.EndsAt.Before(e.StartsAt) {
		return ErrEndBeforeStart
	}
	return nil
}

// IsUpcoming reports whether the event has not yet started at now.
func (e *Event) IsUpcoming(now time.Time) bool {
	return e.StartsAt.After(now)
}

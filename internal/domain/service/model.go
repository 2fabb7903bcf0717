package service

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// Day of week constants
const (
	Monday    = "monday"
	Tuesday   = "tuesday"
	Wednesday = "wednesday"
	Thursday  = "thursday"
	Friday    = "friday"
	Saturday  = "saturday"
	Sunday    = "sunday"
)

// ValidDays contains all valid day values.
var ValidDays = []string{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Domain errors
var (
	ErrInvalidID        = errors.New("service id must be a lowercase slug such as 'sunday-am'")
	ErrEmptyName        = errors.New("service name cannot be empty")
	ErrInvalidDay       = errors.New("day must be a valid day of the week")
	ErrInvalidStartTime = errors.New("start time must be HH:MM")
	ErrNotFound         = errors.New("service not found")
)

// Service is a recurring weekly gathering. A service session is one
// Service on one calendar date.
type Service struct {
	ID        string // slug, e.g. "sunday-am"
	Name      string
	Day       string // monday, tuesday, etc.
	StartTime string // HH:MM
	CreatedAt time.Time
}

// Validate checks if the Service has valid data.
// PRE: Service struct is populated
// POST: Returns nil if valid, error otherwise
func (s *Service) Validate() error {
	if !slugPattern.MatchString(s.ID) {
		return ErrInvalidID
	}
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyName
	}
	if !isValidDay(s.Day) {
		return ErrInvalidDay
	}
	if _, err := time.Parse("15:04", s.StartTime); err != nil {
		return ErrInvalidStartTime
	}
	return nil
}

// RunsOn reports whether the service is held on the weekday of date.
func (s *Service) RunsOn(date time.Time) bool {
	return strings.EqualFold(date.Weekday().String(), s.Day)
}

func isValidDay(day string) bool {
	for _, d := range ValidDays {
		if d == day {
			return true
		}
	}
	return false
}

// Package outbox models side effects, such as the visitor welcome email,
// that are queued by a request and delivered later by a background worker.
package outbox

import (
	"errors"
	"time"
)

// Entry statuses. An entry moves pending -> retrying -> done, or ends in
// failed (attempts used up) or abandoned (by an admin or an unknown action).
const (
	StatusPending   = "pending"
	StatusRetrying  = "retrying"
	StatusDone      = "done"
	StatusFailed    = "failed"
	StatusAbandoned = "abandoned"
)

// ActionTypeVisitorWelcome greets a first-time visitor who left an email.
const ActionTypeVisitorWelcome = "visitor_welcome"

// DefaultMaxAttempts applies when an entry does not set its own limit.
const DefaultMaxAttempts = 5

var (
	ErrEmptyActionType = errors.New("action type is required")
	ErrEmptyPayload    = errors.New("payload is required")
	ErrCreatedAtUnset  = errors.New("created_at must be set")
	ErrTerminal        = errors.New("entry is in a terminal state")
)

// Entry is one queued delivery.
type Entry struct {
	ID              string
	ActionType      string
	Payload         string // JSON, decoded by the executor for ActionType
	Status          string
	Attempts        int
	MaxAttempts     int
	LastAttemptedAt time.Time
	CreatedAt       time.Time
	ExternalID      string // provider message id once delivered
	ErrorMessage    string
}

// Validate checks required fields and fills MaxAttempts.
func (e *Entry) Validate() error {
	switch {
	case e.ActionType == "":
		return ErrEmptyActionType
	case e.Payload == "":
		return ErrEmptyPayload
	case e.CreatedAt.IsZero():
		return ErrCreatedAtUnset
	}
	if e.MaxAttempts <= 0 {
		e.MaxAttempts = DefaultMaxAttempts
	}
	return nil
}

// CanRetry reports whether the worker may attempt the entry again.
func (e *Entry) CanRetry() bool {
	switch e.Status {
	case StatusPending, StatusRetrying, StatusFailed:
		return e.Attempts < e.MaxAttempts
	}
	return false
}

// IsTerminal reports whether the entry will never be attempted again.
func (e *Entry) IsTerminal() bool {
	switch e.Status {
	case StatusDone, StatusAbandoned:
		return true
	case StatusFailed:
		return e.Attempts >= e.MaxAttempts
	}
	return false
}

// MarkAttempt counts an attempt starting at now.
func (e *Entry) MarkAttempt(now time.Time) {
	e.Attempts++
	e.LastAttemptedAt = now
	e.Status = StatusRetrying
}

// MarkSuccess records delivery.
func (e *Entry) MarkSuccess(externalID string) {
	e.Status = StatusDone
	e.ExternalID = externalID
	e.ErrorMessage = ""
}

// MarkFailed keeps the error. The entry stays retrying until its last
// attempt fails.
func (e *Entry) MarkFailed(err error) {
	e.ErrorMessage = err.Error()
	if e.Attempts >= e.MaxAttempts {
		e.Status = StatusFailed
	}
}

func (e *Entry) MarkAbandoned() {
	e.Status = StatusAbandoned
}

// NextRetryDelay is base * 2^Attempts, capped at limit.
func (e *Entry) NextRetryDelay(base, limit time.Duration) time.Duration {
	if e.Attempts >= 30 {
		return limit
	}
	d := base << e.Attempts
	if d <= 0 || d > limit {
		return limit
	}
	return d
}

// DueAt is when the worker should next pick the entry up.
func (e *Entry) DueAt(base, limit time.Duration) time.Time {
	if e.LastAttemptedAt.IsZero() {
		return e.CreatedAt
	}
	return e.LastAttemptedAt.Add(e.NextRetryDelay(base, limit))
}

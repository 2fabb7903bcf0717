package checkin

import (
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// DateLayout is the calendar date format used for service sessions.
const DateLayout = "2006-01-02"

var phonePattern = regexp.MustCompile(`^\d{10}$`)

var validate = validator.New()

// Domain messages. Lookup failures share one message so callers cannot
// tell which of email or phone exists.
const (
	MsgInvalidPhone    = "phone number must be exactly 10 digits"
	MsgInvalidEmail    = "email address is not valid"
	MsgNameRequired    = "name is required"
	MsgMemberNotFound  = "no member matches that email and phone number"
	MsgServiceRequired = "service and date are required"
)

// NormalizePhone trims surrounding whitespace from a phone number.
func NormalizePhone(phone string) string {
	return strings.TrimSpace(phone)
}

// NormalizeEmail trims whitespace and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidatePhone checks that phone is exactly ten ASCII digits.
// PRE: phone has been normalized
// POST: Returns a VALIDATION_ERROR on mismatch
func ValidatePhone(phone string) error {
	if !phonePattern.MatchString(phone) {
		return NewError(CodeValidation, MsgInvalidPhone)
	}
	return nil
}

// ValidateEmail checks that email is a syntactically well-formed address.
// PRE: email has been normalized
// POST: Returns a VALIDATION_ERROR when malformed or empty
func ValidateEmail(email string) error {
	if err := validate.Var(email, "required,email"); err != nil {
		return NewError(CodeValidation, MsgInvalidEmail)
	}
	return nil
}

// ValidateSession checks the service id and calendar date of a session.
// POST: Returns a VALIDATION_ERROR when either part is missing or the date is not YYYY-MM-DD
func ValidateSession(serviceID, date string) error {
	if strings.TrimSpace(serviceID) == "" || strings.TrimSpace(date) == "" {
		return NewError(CodeValidation, MsgServiceRequired)
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return NewError(CodeValidation, "date must be in YYYY-MM-DD format")
	}
	return nil
}

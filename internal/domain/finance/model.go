package finance

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction kinds
const (
	KindTithe    = "tithe"
	KindOffering = "offering"
	KindWelfare  = "welfare"
	KindDonation = "donation"
	KindExpense  = "expense"
)

// ValidKinds contains all valid transaction kinds.
var ValidKinds = []string{KindTithe, KindOffering, KindWelfare, KindDonation, KindExpense}

// IncomeKinds are the kinds that count toward income.
var IncomeKinds = []string{KindTithe, KindOffering, KindWelfare, KindDonation}

// MaxNoteLength bounds free-text notes.
const MaxNoteLength = 500

// Domain errors
var (
	ErrInvalidKind     = errors.New("kind must be one of: tithe, offering, welfare, donation, expense")
	ErrNonPositive     = errors.New("amount must be greater than zero")
	ErrTooManyDecimals = errors.New("amount cannot have more than 2 decimal places")
	ErrPaidOnUnset     = errors.New("paid_on date must be set")
	ErrMemberRequired  = errors.New("tithe and welfare payments must reference a member")
	ErrNoteTooLong     = errors.New("note cannot exceed 500 characters")
	ErrNotFound        = errors.New("transaction not found")
)

// Transaction is one ledger line. Amount is stored as a decimal string.
type Transaction struct {
	ID        string
	Kind      string
	MemberID  string // required for tithe and welfare
	Amount    decimal.Decimal
	PaidOn    time.Time
	Note      string
	CreatedAt time.Time
}

// Validate checks if the Transaction has valid data.
// PRE: Transaction struct is populated
// POST: Returns nil if valid, error otherwise
// INVARIANT: Amount > 0 with at most two decimal places
func (t *Transaction) Validate() error {
	if !IsValidKind(t.Kind) {
		return ErrInvalidKind
	}
	if !t.Amount.IsPositive() {
		return ErrNonPositive
	}
	if t.Amount.Exponent() < -2 && !t.Amount.Equal(t.Amount.Round(2)) {
		return ErrTooManyDecimals
	}
	if t.PaidOn.IsZero() {
		return ErrPaidOnUnset
	}
	if (t.Kind == KindTithe || t.Kind == KindWelfare) && strings.TrimSpace(t.MemberID) == "" {
		return ErrMemberRequired
	}
	if len(t.Note) > MaxNoteLength {
		return ErrNoteTooLong
	}
	return nil
}

// IsIncome reports whether the transaction adds to income.
func (t *Transaction) IsIncome() bool {
	return t.Kind != KindExpense
}

// IsValidKind reports whether kind is a known transaction kind.
func IsValidKind(kind string) bool {
	for _, k := range ValidKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Totals aggregates amounts per kind.
type Totals map[string]decimal.Decimal

// Add accumulates amount under kind.
func (t Totals) Add(kind string, amount decimal.Decimal) {
	t[kind] = t.Get(kind).Add(amount)
}

// Get returns the total for kind, zero when absent.
func (t Totals) Get(kind string) decimal.Decimal {
	if v, ok := t[kind]; ok {
		return v
	}
	return decimal.Zero
}

// Income sums all income kinds.
func (t Totals) Income() decimal.Decimal {
	sum := decimal.Zero
	for _, k := range IncomeKinds {
		sum = sum.Add(t.Get(k))
	}
	return sum
}

// Expense returns the expense total.
func (t Totals) Expense() decimal.Decimal {
	return t.Get(KindExpense)
}

// Net returns income minus expense.
func (t Totals) Net() decimal.Decimal {
	return t.Income().Sub(t.Expense())
}

package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"shepherd/internal/domain/checkin"
	"shepherd/internal/domain/finance"
	"shepherd/internal/domain/member"
)

// ErrInvalidAmount is returned when an amount string is not a decimal number.
var ErrInvalidAmount = errors.New("amount must be a number such as 120.50")

// TransactionWriter is the finance store surface used by admin flows.
type TransactionWriter interface {
	GetByID(ctx context.Context, id string) (finance.Transaction, error)
	Save(ctx context.Context, t finance.Transaction) error
	Delete(ctx context.Context, id string) error
}

// MemberGetter resolves a member by id.
type MemberGetter interface {
	GetByID(ctx context.Context, id string) (member.Member, error)
}

// RecordTransactionInput carries a ledger line. Amount is the decimal
// string as typed; PaidOn is YYYY-MM-DD.
type RecordTransactionInput struct {
	ID       string // empty to create
	Kind     string
	MemberID string
	Amount   string
	PaidOn   string
	Note     string
}

// RecordTransactionDeps holds dependencies for RecordTransaction.
type RecordTransactionDeps struct {
	FinanceStore TransactionWriter
	MemberStore  MemberGetter
	Clock        Clock
	NewID        IDGenerator
}

// ExecuteRecordTransaction creates or updates a finance transaction.
// PRE: MemberID, when given, names an existing member
// POST: transaction persisted with its amount as an exact decimal
func ExecuteRecordTransaction(ctx context.Context, in RecordTransactionInput, deps RecordTransactionDeps) (finance.Transaction, error) {
	t := finance.Transaction{ID: deps.NewID.next(), CreatedAt: deps.Clock.now()}
	if in.ID != "" {
		existing, err := deps.FinanceStore.GetByID(ctx, in.ID)
		if err != nil {
			return finance.Transaction{}, lookupFailed(err, finance.ErrNotFound, "transaction")
		}
		t = existing
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(in.Amount))
	if err != nil {
		return finance.Transaction{}, invalid(ErrInvalidAmount)
	}
	paidOn, err := time.Parse(checkin.DateLayout, strings.TrimSpace(in.PaidOn))
	if err != nil {
		return finance.Transaction{}, checkin.NewError(checkin.CodeValidation, "paid_on must be a date in YYYY-MM-DD format")
	}
	t.Kind = strings.ToLower(strings.TrimSpace(in.Kind))
	t.MemberID = strings.TrimSpace(in.MemberID)
	t.Amount = amount
	t.PaidOn = paidOn
	t.Note = strings.TrimSpace(in.Note)
	if err := t.Validate(); err != nil {
		return finance.Transaction{}, invalid(err)
	}

	if t.MemberID != "" {
		if _, err := deps.MemberStore.GetByID(ctx, t.MemberID); err != nil {
			return finance.Transaction{}, lookupFailed(err, member.ErrNotFound, "member")
		}
	}
	if err := deps.FinanceStore.Save(ctx, t); err != nil {
		return finance.Transaction{}, err
	}
	slog.Info("finance_event", "event", "transaction_recorded", "transaction_id", t.ID, "kind", t.Kind, "amount", t.Amount.StringFixed(2))
	return t, nil
}

// ExecuteDeleteTransaction removes a ledger line.
func ExecuteDeleteTransaction(ctx context.Context, id string, store TransactionWriter) error {
	if _, err := store.GetByID(ctx, id); err != nil {
		return lookupFailed(err, finance.ErrNotFound, "transaction")
	}
	if err := store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	slog.Info("finance_event", "event", "transaction_deleted", "transaction_id", id)
	return nil
}

package finance_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"shepherd/internal/domain/finance"
)

// TestTransaction_Validate covers kind, amount and member rules.
func TestTransaction_Validate(t *testing.T) {
	paid := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		tx      finance.Transaction
		wantErr error
	}{
		{"tithe", finance.Transaction{Kind: finance.KindTithe, MemberID: "m1", Amount: decimal.RequireFromString("50.00"), PaidOn: paid}, nil},
		{"anonymous offering", finance.Transaction{Kind: finance.KindOffering, Amount: decimal.RequireFromString("12.5"), PaidOn: paid}, nil},
		{"unknown kind", finance.Transaction{Kind: "gift", Amount: decimal.NewFromInt(1), PaidOn: paid}, finance.ErrInvalidKind},
		{"zero amount", finance.Transaction{Kind: finance.KindOffering, Amount: decimal.Zero, PaidOn: paid}, finance.ErrNonPositive},
		{"negative amount", finance.Transaction{Kind: finance.KindExpense, Amount: decimal.NewFromInt(-4), PaidOn: paid}, finance.ErrNonPositive},
		{"three decimals", finance.Transaction{Kind: finance.KindOffering, Amount: decimal.RequireFromString("1.005"), PaidOn: paid}, finance.ErrTooManyDecimals},
		{"welfare without member", finance.Transaction{Kind: finance.KindWelfare, Amount: decimal.NewFromInt(10), PaidOn: paid}, finance.ErrMemberRequired},
		{"no date", finance.Transaction{Kind: finance.KindOffering, Amount: decimal.NewFromInt(10)}, finance.ErrPaidOnUnset},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.tx.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestTotals_IncomeExpenseNet sums exactly without float drift.
func TestTotals_IncomeExpenseNet(t *testing.T) {
	totals := finance.Totals{}
	for i := 0; i < 10; i++ {
		totals.Add(finance.KindOffering, decimal.RequireFromString("0.10"))
	}
	totals.Add(finance.KindTithe, decimal.RequireFromString("100.00"))
	totals.Add(finance.KindExpense, decimal.RequireFromString("30.25"))

	if got := totals.Income().String(); got != "101" {
		t.Errorf("Income = %s, want 101", got)
	}
	if got := totals.Expense().String(); got != "30.25" {
		t.Errorf("Expense = %s, want 30.25", got)
	}
	if got := totals.Net().StringFixed(2); got != "70.75" {
		t.Errorf("Net = %s, want 70.75", got)
	}
	if !totals.Get(finance.KindWelfare).IsZero() {
		t.Error("missing kind should be zero")
	}
}

package finance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"shepherd/internal/adapters/storage"
	"shepherd/internal/domain/checkin"
	domain "shepherd/internal/domain/finance"
)

const selectColumns = "SELECT id, kind, member_id, amount, paid_on, note, created_at FROM finance_transaction"

// SQLiteStore implements Store using SQLite. Amounts are stored as decimal
// strings and summed in Go so no float rounding creeps into totals.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new finance store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Transaction by its ID.
// POST: Returns the entity or an error wrapping domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Transaction, error) {
	t, err := scanTransaction(s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Transaction{}, fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
	}
	return t, err
}

// Save persists a Transaction (insert or update).
// PRE: value has been validated
func (s *SQLiteStore) Save(ctx context.Context, value domain.Transaction) error {
	var memberID any
	if value.MemberID != "" {
		memberID = value.MemberID
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO finance_transaction (id, kind, member_id, amount, paid_on, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		  kind=excluded.kind, member_id=excluded.member_id, amount=excluded.amount,
		  paid_on=excluded.paid_on, note=excluded.note`,
		value.ID, value.Kind, memberID, value.Amount.StringFixed(2),
		value.PaidOn.Format(checkin.DateLayout), value.Note, storage.FormatTime(value.CreatedAt))
	if err != nil {
		return fmt.Errorf("save transaction: %w", err)
	}
	return nil
}

// Delete removes a Transaction.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM finance_transaction WHERE id = ?", id)
	return err
}

func listWhereClause(filter ListFilter) (string, []any) {
	where := " WHERE 1=1"
	var args []any
	if filter.Kind != "" {
		where += " AND kind = ?"
		args = append(args, filter.Kind)
	}
	if filter.MemberID != "" {
		where += " AND member_id = ?"
		args = append(args, filter.MemberID)
	}
	if filter.FromDate != "" {
		where += " AND paid_on >= ?"
		args = append(args, filter.FromDate)
	}
	if filter.ToDate != "" {
		where += " AND paid_on <= ?"
		args = append(args, filter.ToDate)
	}
	return where, args
}

// List returns transactions matching the filter, newest payment first.
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Transaction, error) {
	where, args := listWhereClause(filter)
	limit := filter.Limit
	if limit <= 0 {
		limit = -1
	}
	args = append(args, limit, filter.Offset)
	rows, err := s.db.QueryContext(ctx, selectColumns+where+" ORDER BY paid_on DESC, created_at DESC LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Count returns the number of transactions matching the filter.
func (s *SQLiteStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	where, args := listWhereClause(filter)
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM finance_transaction"+where, args...).Scan(&n)
	return n, err
}

// TotalsBetween sums amounts per kind for payments dated fromDate..toDate inclusive.
func (s *SQLiteStore) TotalsBetween(ctx context.Context, fromDate, toDate string) (domain.Totals, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT kind, amount FROM finance_transaction WHERE paid_on >= ? AND paid_on <= ?", fromDate, toDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := domain.Totals{}
	for rows.Next() {
		var kind, amount string
		if err := rows.Scan(&kind, &amount); err != nil {
			return nil, err
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("stored amount %q: %w", amount, err)
		}
		totals.Add(kind, d)
	}
	return totals, rows.Err()
}

// PaymentMonthsBetween returns, per member, how many distinct calendar
// months within fromDate..toDate carry at least one payment of kind.
func (s *SQLiteStore) PaymentMonthsBetween(ctx context.Context, kind, fromDate, toDate string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT member_id, COUNT(DISTINCT substr(paid_on, 1, 7)) FROM finance_transaction
		WHERE kind = ? AND member_id IS NOT NULL AND paid_on >= ? AND paid_on <= ?
		GROUP BY member_id`, kind, fromDate, toDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		out[id] = n
	}
	return out, rows.Err()
}

func scanTransaction(scan func(dest ...any) error) (domain.Transaction, error) {
	var t domain.Transaction
	var memberID sql.NullString
	var amount, paidOn, created string
	if err := scan(&t.ID, &t.Kind, &memberID, &amount, &paidOn, &t.Note, &created); err != nil {
		return domain.Transaction{}, err
	}
	t.MemberID = memberID.String
	var err error
	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return domain.Transaction{}, fmt.Errorf("transaction amount: %w", err)
	}
	if t.PaidOn, err = time.Parse(checkin.DateLayout, paidOn); err != nil {
		return domain.Transaction{}, fmt.Errorf("transaction paid_on: %w", err)
	}
	if t.CreatedAt, err = storage.ParseTime(created); err != nil {
		return domain.Transaction{}, fmt.Errorf("transaction created_at: %w", err)
	}
	return t, nil
}

package projections

import (
	"context"
	"fmt"
	"time"

	"shepherd/internal/adapters/storage/finance"
	"shepherd/internal/adapters/storage/member"
	"shepherd/internal/adapters/storage/visitor"
	"shepherd/internal/application/listutil"
	"shepherd/internal/domain/checkin"
)

// Sortable columns and filters for the member list.
var (
	MemberSortColumns = []string{"name", "email", "group_name", "status", "joined_at"}
	MemberFilterKeys  = []string{"status", "group", "gender"}
)

// MemberRow is one member in the list with their engagement.
type MemberRow struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email,omitempty"`
	Phone    string    `json:"phone"`
	Gender   string    `json:"gender,omitempty"`
	Group    string    `json:"group,omitempty"`
	Status   string    `json:"status"`
	JoinedAt time.Time `json:"joinedAt"`
	Score    int       `json:"engagementScore"`
	Label    string    `json:"engagementLabel"`
	IsNew    bool      `json:"isNew"`
}

// MemberListResult is one page of members.
type MemberListResult struct {
	Members []MemberRow       `json:"members"`
	Page    listutil.PageInfo `json:"page"`
}

// QueryMemberList returns one page of members, each scored for engagement.
// PRE: params came from listutil.ParseListParams with MemberSortColumns and MemberFilterKeys
// POST: Members has at most params.PerPage rows; scores use the trailing engagement window
func QueryMemberList(ctx context.Context, params listutil.ListParams, deps ReportDeps) (MemberListResult, error) {
	filter := member.ListFilter{
		Status: params.Filters["status"],
		Group:  params.Filters["group"],
		Gender: params.Filters["gender"],
		Search: params.Search,
		Sort:   params.Sort,
		Dir:    params.Dir,
	}
	total, err := deps.Members.Count(ctx, filter)
	if err != nil {
		return MemberListResult{}, fmt.Errorf("count members: %w", err)
	}
	page := listutil.NewPageInfo(params.Page, params.PerPage, total)
	filter.Limit, filter.Offset = page.PerPage, page.Offset()

	members, err := deps.Members.List(ctx, filter)
	if err != nil {
		return MemberListResult{}, fmt.Errorf("list members: %w", err)
	}
	now := deps.now()
	scores, err := scoreMembers(ctx, deps, members, now)
	if err != nil {
		return MemberListResult{}, err
	}

	rows := make([]MemberRow, 0, len(members))
	for _, m := range members {
		e := scores[m.ID]
		rows = append(rows, MemberRow{
			ID: m.ID, Name: m.Name, Email: m.Email, Phone: m.Phone, Gender: m.Gender,
			Group: m.GroupName, Status: m.Status, JoinedAt: m.JoinedAt,
			Score: e.Score, Label: e.Label, IsNew: m.IsNewAt(now),
		})
	}
	return MemberListResult{Members: rows, Page: page}, nil
}

// VisitorRow is one visitor in the list.
type VisitorRow struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Phone          string    `json:"phone"`
	Email          string    `json:"email,omitempty"`
	Source         string    `json:"source,omitempty"`
	Purpose        string    `json:"purpose,omitempty"`
	VisitCount     int       `json:"visitCount"`
	FirstVisitDate time.Time `json:"firstVisitDate"`
	LastVisitDate  time.Time `json:"lastVisitDate"`
}

// VisitorListResult is one page of visitors, most recent first.
type VisitorListResult struct {
	Visitors []VisitorRow      `json:"visitors"`
	Page     listutil.PageInfo `json:"page"`
}

// VisitorFilterKeys are the exact-match filters for the visitor list.
var VisitorFilterKeys = []string{"source"}

// QueryVisitorList returns one page of visitors.
func QueryVisitorList(ctx context.Context, params listutil.ListParams, store VisitorStore) (VisitorListResult, error) {
	filter := visitor.ListFilter{Search: params.Search, Source: params.Filters["source"]}
	total, err := store.Count(ctx, filter)
	if err != nil {
		return VisitorListResult{}, fmt.Errorf("count visitors: %w", err)
	}
	page := listutil.NewPageInfo(params.Page, params.PerPage, total)
	filter.Limit, filter.Offset = page.PerPage, page.Offset()

	visitors, err := store.List(ctx, filter)
	if err != nil {
		return VisitorListResult{}, fmt.Errorf("list visitors: %w", err)
	}
	rows := make([]VisitorRow, 0, len(visitors))
	for _, v := range visitors {
		rows = append(rows, ToVisitorRow(v))
	}
	return VisitorListResult{Visitors: rows, Page: page}, nil
}

// TransactionRow is one ledger entry. Amount is a fixed two-decimal string.
type TransactionRow struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	MemberID string `json:"memberId,omitempty"`
	Amount   string `json:"amount"`
	PaidOn   string `json:"paidOn"`
	Note     string `json:"note,omitempty"`
}

// TransactionListResult is one page of the ledger, newest first.
type TransactionListResult struct {
	Transactions []TransactionRow  `json:"transactions"`
	Page         listutil.PageInfo `json:"page"`
}

// TransactionFilterKeys are the exact-match filters for the ledger.
var TransactionFilterKeys = []string{"kind", "member", "from", "to"}

// QueryTransactionList returns one page of the ledger.
// PRE: from and to filters, when set, are YYYY-MM-DD
func QueryTransactionList(ctx context.Context, params listutil.ListParams, store FinanceStore) (TransactionListResult, error) {
	filter := finance.ListFilter{
		Kind:     params.Filters["kind"],
		MemberID: params.Filters["member"],
		FromDate: params.Filters["from"],
		ToDate:   params.Filters["to"],
	}
	for _, d := range []string{filter.FromDate, filter.ToDate} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(checkin.DateLayout, d); err != nil {
			return TransactionListResult{}, checkin.NewError(checkin.CodeValidation, "from and to must be YYYY-MM-DD")
		}
	}
	total, err := store.Count(ctx, filter)
	if err != nil {
		return TransactionListResult{}, fmt.Errorf("count transactions: %w", err)
	}
	page := listutil.NewPageInfo(params.Page, params.PerPage, total)
	filter.Limit, filter.Offset = page.PerPage, page.Offset()

	txs, err := store.List(ctx, filter)
	if err != nil {
		return TransactionListResult{}, fmt.Errorf("list transactions: %w", err)
	}
	rows := make([]TransactionRow, 0, len(txs))
	for _, t := range txs {
		rows = append(rows, ToTransactionRow(t))
	}
	return TransactionListResult{Transactions: rows, Page: page}, nil
}

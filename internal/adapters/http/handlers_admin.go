package web

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"shepherd/internal/adapters/http/middleware"
	accountStore "shepherd/internal/adapters/storage/account"
	"shepherd/internal/application/listutil"
	"shepherd/internal/application/orchestrators"
	"shepherd/internal/application/projections"
	"shepherd/internal/domain/account"
	"shepherd/internal/domain/checkin"
	"shepherd/internal/domain/member"
	"shepherd/internal/domain/visitor"
)

// notFoundOr tags err as NOT_FOUND when it wraps sentinel.
func notFoundOr(err, sentinel error, what string) error {
	if errors.Is(err, sentinel) {
		return checkin.Wrap(checkin.CodeNotFound, what+" not found", err)
	}
	return err
}

// parseDate reads an optional YYYY-MM-DD field. Empty yields the zero time.
func parseDate(field, value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(checkin.DateLayout, value, location)
	if err != nil {
		return time.Time{}, checkin.NewError(checkin.CodeValidation, field+" must be YYYY-MM-DD")
	}
	return t, nil
}

// --- Members ---

type memberRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Gender   string `json:"gender"`
	Group    string `json:"group"`
	Status   string `json:"status"`
	JoinedAt string `json:"joinedAt"`
}

func handleAdminGetMember(w http.ResponseWriter, r *http.Request) {
	m, err := stores.Members.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeAdminError(w, notFoundOr(err, member.ErrNotFound, "member"))
		return
	}
	writeOK(w, projections.ToMemberDetail(m))
}

// handleAdminSaveMember serves both create (no id in path) and update.
func handleAdminSaveMember(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeAdminError(w, err)
		return
	}
	joined, err := parseDate("joinedAt", req.JoinedAt)
	if err != nil {
		writeAdminError(w, err)
		return
	}
	id := r.PathValue("id")
	m, err := orchestrators.ExecuteSaveMember(r.Context(), orchestrators.SaveMemberInput{
		ID:        id,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Gender:    req.Gender,
		GroupName: req.Group,
		Status:    req.Status,
		JoinedAt:  joined,
	}, orchestrators.SaveMemberDeps{MemberStore: stores.Members, Clock: clock})
	if err != nil {
		writeAdminError(w, err)
		return
	}
	if id == "" {
		writeCreated(w, projections.ToMemberDetail(m))
		return
	}
	writeOK(w, projections.ToMemberDetail(m))
}

func handleAdminMemberStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Active bool `json:"active"`
	}
	if err := strictDecode(w, r, &req); err != nil {
		writeAdminError(w, err)
		return
	}
	m, err := orchestrators.ExecuteSetMemberStatus(r.Context(), r.PathValue("id"), req.Active, stores.Members)
	if err != nil {
		writeAdminError(w, err)
		return
	}
	writeOK(w, projections.ToMemberDetail(m))
}

func handleAdminDeleteMember(w http.ResponseWriter, r *http.Request) {
	if err := orchestrators.ExecuteDeleteMember(r.Context(), r.PathValue("id"), stores.Members); err != nil {
		writeAdminError(w, err)
		return
	}
	writeOK(w, nil)
}

// --- Visitors ---

type visitorRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Source  string `json:"source"`
	Purpose string `json:"purpose"`
}

func handleAdminGetVisitor(w http.ResponseWriter, r *http.Request) {
	v, err := stores.Visitors.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeAdminError(w, notFoundOr(err, visitor.ErrNotFound, "visitor"))
		return
	}
	writeOK(w, projections.ToVisitorRow(v))
}

func handleAdminUpdateVisitor(w http.ResponseWriter, r *http.Request) {
	var req visitorRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeAdminError(w, err)
		return
	}
	v, err := orchestrators.ExecuteUpdateVisitor(r.Context(), orchestrators.UpdateVisitorInput{
		ID:      r.PathValue("id"),
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Source:  req.Source,
		Purpose: req.Purpose,
	}, stores.Visitors)
	if err != nil {
		writeAdminError(w, err)
		return
	}
	writeOK(w, projections.ToVisitorRow(v))
}

func handleAdminDeleteVisitor(w http.ResponseWriter, r *http.Request) {
	if err := orchestrators.ExecuteDeleteVisitor(r.Context(), r.PathValue("id"), stores.Visitors); err != nil {
		writeAdminError(w, err)
		return
	}
	writeOK(w, nil)
}

// --- Services ---

type serviceRequest struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Day       string `json:"day"`
	StartTime string `json:"startTime"`
}

// handleAdminSaveService creates a service under the id in the body, or
// updates the one named in the path.
func handleAdminSaveService(w http.ResponseWriter, r *http.Request) {
	var req serviceRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeAdminError(w, err)
		return
	}
	id := r.PathValue("id")
	if id == "" {
		id = req.ID
	}
	s, err := orchestrators.ExecuteSaveService(r.Context(), orchestrators.SaveServiceInput{
		ID:        id,
		Name:      req.Name,
		Day:       req.Day,
		StartTime: req.StartTime,
	}, orchestrators.SaveServiceDeps{ServiceStore: stores.Services, Clock: clock})
	if err != nil {
		writeAdminError(w, err)
		return
	}
	writeOK(w, projections.ToServiceRow(s))
}

func handleAdminDeleteService(w http.ResponseWriter, r *http.Request) {
	err := orchestrators.ExecuteDeleteService(r.Context(), r.PathValue("id"),
		orchestrators.DeleteServiceDeps{ServiceStore: stores.Services, AttendanceStore: stores.Attendance})
	if err != nil {
		writeAdminError(w, err)
		return
	}
	writeOK(w, nil)
}

// --- Finance ---

type transactionRequest struct {
	Kind     string `json:"kind"`
	MemberID string `json:"memberId"`
	Amount   string `json:"amount"`
	PaidOn   string `json:"paidOn"`
	Note     string `json:"note"`
}

func handleAdminListTransactions(w http.ResponseWriter, r *http.Request) {
	params := listutil.ParseListParams(r.URL.Query(), nil, projections.TransactionFilterKeys)
	res, err := projections.QueryTransactionList(r.Context(), params, stores.Finance)
	if err != nil {
		writeAdminError(w, err)
		return
	}
	writeOK(w, res)
}

func handleAdminSaveTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeAdminError(w, err)
		return
	}
	id := r.PathValue("id")
	t, err := orchestrators.ExecuteRecordTransaction(r.Context(), orchestrators.RecordTransactionInput{
		ID:       id,
		Kind:     req.Kind,
		MemberID: req.MemberID,
		Amount:   req.Amount,
		PaidOn:   req.PaidOn,
		Note:     req.Note,
	}, orchestrators.RecordTransactionDeps{FinanceStore: stores.Finance, MemberStore: stores.Members, Clock: clock})
	if err != nil {
		writeAdminError(w, err)
		return
	}
	if id == "" {
		writeCreated(w, projections.ToTransactionRow(t))
		return
	}
	writeOK(w, projections.ToTransactionRow(t))
}

func handleAdminDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := orchestrators.ExecuteDeleteTransaction(r.Context(), r.PathValue("id"), stores.Finance); err != nil {
		writeAdminError(w, err)
		return
	}
	writeOK(w, nil)
}

// --- Accounts ---

type accountView struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	Locked    bool      `json:"locked"`
}

func handleAdminListAccounts(w http.ResponseWriter, r *http.Request) {
	list, err := stores.Accounts.List(r.Context(), accountStore.ListFilter{Role: r.URL.Query().Get("role")})
	if err != nil {
		internalError(w, fmt.Errorf("list accounts: %w", err))
		return
	}
	at := now()
	out := make([]accountView, 0, len(list))
	for _, a := range list {
		out = append(out, accountView{ID: a.ID, Email: a.Email, Role: a.Role, CreatedAt: a.CreatedAt, Locked: a.IsLocked(at)})
	}
	writeOK(w, out)
}

func handleAdminCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := strictDecode(w, r, &req); err != nil {
		writeAdminError(w, err)
		return
	}
	if req.Role == "" {
		req.Role = account.RoleStaff
	}
	id, err := orchestrators.ExecuteCreateAccount(r.Context(), orchestrators.CreateAccountInput{
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	}, orchestrators.CreateAccountDeps{AccountStore: stores.Accounts, Clock: clock})
	if err != nil {
		writeAdminError(w, err)
		return
	}
	writeCreated(w, map[string]string{"id": id})
}

// handleAdminDeleteAccount removes a staff login and ends its sessions.
// Admins cannot delete their own account.
func handleAdminDeleteAccount(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if sess, _ := middleware.GetSessionFromContext(r.Context()); sess.AccountID == id {
		writeAdminError(w, checkin.NewError(checkin.CodeConflict, "you cannot delete your own account"))
		return
	}
	if _, err := stores.Accounts.GetByID(r.Context(), id); err != nil {
		writeAdminError(w, notFoundOr(err, account.ErrNotFound, "account"))
		return
	}
	if err := stores.Accounts.Delete(r.Context(), id); err != nil {
		internalError(w, fmt.Errorf("delete account: %w", err))
		return
	}
	sessions.DeleteAccount(id)
	writeOK(w, nil)
}

package web

import (
	"context"
	"net/http"
	"time"

	"shepherd/internal/adapters/http/middleware"
	"shepherd/internal/application/orchestrators"
	"shepherd/internal/application/projections"
	"shepherd/internal/domain/checkin"
)

// sessionRef names the service session a check-in is for. Public callers
// send the scanned token; signed-in staff may name the session directly
// for a manual check-in.
type sessionRef struct {
	Token     string `json:"token"`
	ServiceID string `json:"serviceId"`
	Date      string `json:"date"`
}

// resolveSession turns a sessionRef into a validated service id and date.
// POST: TOKEN_* errors for bad tokens; VALIDATION_ERROR when a public
// caller sends no token
func resolveSession(ctx context.Context, ref sessionRef) (serviceID, date string, err error) {
	if ref.Token != "" {
		res, err := orchestrators.ExecuteValidateCheckinToken(ctx, ref.Token, validateDeps())
		if err != nil {
			return "", "", err
		}
		return res.ServiceID, res.Date, nil
	}
	if !middleware.IsStaff(ctx) {
		return "", "", checkin.NewError(checkin.CodeValidation, "scan the service QR code to check in")
	}
	if err := checkin.ValidateSession(ref.ServiceID, ref.Date); err != nil {
		return "", "", err
	}
	return ref.ServiceID, ref.Date, nil
}

func validateDeps() orchestrators.ValidateCheckinTokenDeps {
	return orchestrators.ValidateCheckinTokenDeps{
		Tokens:       tokens,
		ServiceStore: stores.Services,
		Clock:        clock,
		Metrics:      appMetrics,
	}
}

func handleValidateToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := strictDecode(w, r, &req); err != nil {
		writeOutcome(w, err)
		return
	}
	res, err := orchestrators.ExecuteValidateCheckinToken(r.Context(), req.Token, validateDeps())
	if err != nil {
		writeOutcome(w, err)
		return
	}
	writeOK(w, res)
}

type memberCheckInRequest struct {
	sessionRef
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type memberCheckInView struct {
	Member           projections.MemberDetail `json:"member"`
	ServiceID        string                   `json:"serviceId"`
	Date             string                   `json:"date"`
	AlreadyCheckedIn bool                     `json:"alreadyCheckedIn"`
	CheckInTime      time.Time                `json:"checkInTime"`
}

// handleCheckInMember answers a repeat check-in as a success carrying the
// DUPLICATE_CHECKIN code and the original check-in time.
func handleCheckInMember(w http.ResponseWriter, r *http.Request) {
	var req memberCheckInRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeOutcome(w, err)
		return
	}
	serviceID, date, err := resolveSession(r.Context(), req.sessionRef)
	if err != nil {
		writeOutcome(w, err)
		return
	}

	res, err := orchestrators.ExecuteCheckInMember(r.Context(), orchestrators.CheckInMemberInput{
		Email:     req.Email,
		Phone:     req.Phone,
		ServiceID: serviceID,
		Date:      date,
	}, orchestrators.CheckInMemberDeps{
		MemberStore:     stores.Members,
		AttendanceStore: stores.Attendance,
		Clock:           clock,
		Metrics:         appMetrics,
	})
	if err != nil {
		writeOutcome(w, err)
		return
	}

	body := envelope{
		Success: true,
		Message: res.Message,
		Data: memberCheckInView{
			Member:           projections.ToMemberDetail(res.Member),
			ServiceID:        serviceID,
			Date:             date,
			AlreadyCheckedIn: res.AlreadyCheckedIn,
			CheckInTime:      res.CheckInTime,
		},
	}
	if res.AlreadyCheckedIn {
		body.Code = string(checkin.CodeDuplicateCheckIn)
	}
	writeJSON(w, http.StatusOK, body)
}

type visitorCheckInRequest struct {
	sessionRef
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Source  string `json:"source"`
	Purpose string `json:"purpose"`
}

type visitorCheckInView struct {
	Visitor   projections.VisitorRow `json:"visitor"`
	ServiceID string                 `json:"serviceId"`
	Date      string                 `json:"date"`
	IsNew     bool                   `json:"isNew"`
}

func handleCheckInVisitor(w http.ResponseWriter, r *http.Request) {
	var req visitorCheckInRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeOutcome(w, err)
		return
	}
	serviceID, date, err := resolveSession(r.Context(), req.sessionRef)
	if err != nil {
		writeOutcome(w, err)
		return
	}

	res, err := orchestrators.ExecuteRegisterVisitor(r.Context(), orchestrators.RegisterVisitorInput{
		Name:      req.Name,
		Phone:     req.Phone,
		Email:     req.Email,
		Source:    req.Source,
		Purpose:   req.Purpose,
		ServiceID: serviceID,
		Date:      date,
	}, orchestrators.RegisterVisitorDeps{
		VisitorStore: stores.Visitors,
		ServiceStore: stores.Services,
		OutboxStore:  stores.Outbox,
		Clock:        clock,
		Metrics:      appMetrics,
	})
	if err != nil {
		writeOutcome(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: res.Message,
		Data: visitorCheckInView{
			Visitor:   projections.ToVisitorRow(res.Visitor),
			ServiceID: serviceID,
			Date:      date,
			IsNew:     res.IsNew,
		},
	})
}

type issueTokenRequest struct {
	ServiceID  string `json:"serviceId"`
	Date       string `json:"date"`       // defaults to today
	TTLMinutes int    `json:"ttlMinutes"` // defaults to the configured lifetime
}

func handleIssueToken(w http.ResponseWriter, r *http.Request) {
	var req issueTokenRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeOutcome(w, err)
		return
	}
	if req.Date == "" {
		req.Date = now().Format(checkin.DateLayout)
	}
	ttl := tokenTTL
	if req.TTLMinutes != 0 {
		ttl = time.Duration(req.TTLMinutes) * time.Minute
	}

	res, err := orchestrators.ExecuteIssueCheckinToken(r.Context(), orchestrators.IssueCheckinTokenInput{
		ServiceID: req.ServiceID,
		Date:      req.Date,
		TTL:       ttl,
	}, orchestrators.IssueCheckinTokenDeps{Tokens: tokens, ServiceStore: stores.Services, Clock: clock})
	if err != nil {
		writeOutcome(w, err)
		return
	}
	writeOK(w, res)
}

func handleListServices(w http.ResponseWriter, r *http.Request) {
	list, err := projections.QueryServices(r.Context(), stores.Services)
	if err != nil {
		internalError(w, err)
		return
	}
	writeOK(w, list)
}

func handleSessionAttendance(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = now().Format(checkin.DateLayout)
	}
	res, err := projections.QuerySessionAttendance(r.Context(), r.PathValue("id"), date, stores.Services, stores.Attendance)
	if err != nil {
		writeOutcome(w, err)
		return
	}
	writeOK(w, res)
}

package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"shepherd/internal/adapters/http/middleware"
	"shepherd/internal/application/orchestrators"
	"shepherd/internal/domain/checkin"
)

// maxJSONBody bounds JSON request bodies.
const maxJSONBody = 1 << 20

// envelope is the response shape of every /api endpoint.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("response_encode_failed", "error", err)
	}
}

func writeOK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data})
}

func writeCreated(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusCreated, envelope{Success: true, Data: data})
}

// writeOutcome answers a failed check-in or report call. Coded failures are
// part of the normal flow and go out as 200 with success=false. Storage
// failures and uncoded errors are 500s.
func writeOutcome(w http.ResponseWriter, err error) {
	var ce *checkin.Error
	switch {
	case !errors.As(err, &ce):
		internalError(w, err)
	case ce.Code == checkin.CodeStorageFailure:
		slog.Error("storage_failure", "error", err.Error())
		writeJSON(w, http.StatusInternalServerError, envelope{Message: ce.Message, Code: string(ce.Code)})
	default:
		writeJSON(w, http.StatusOK, envelope{Message: ce.Message, Code: string(ce.Code)})
	}
}

// writeAdminError maps a coded failure to an HTTP status for admin and
// auth endpoints.
func writeAdminError(w http.ResponseWriter, err error) {
	var ce *checkin.Error
	if !errors.As(err, &ce) {
		internalError(w, err)
		return
	}
	status := http.StatusBadRequest
	switch ce.Code {
	case checkin.CodeNotFound:
		status = http.StatusNotFound
	case checkin.CodeConflict:
		status = http.StatusConflict
	case checkin.CodeStorageFailure:
		slog.Error("storage_failure", "error", err.Error())
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, envelope{Message: ce.Message, Code: string(ce.Code)})
}

// internalError logs the error and sends a generic 500 response.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	writeJSON(w, http.StatusInternalServerError, envelope{Message: "internal server error"})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, envelope{Message: msg, Code: string(checkin.CodeValidation)})
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return checkin.Wrap(checkin.CodeValidation, "invalid request body", err)
	}
	return nil
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeOK(w, map[string]string{"status": "ok"})
}

// --- Auth ---

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// sessionView is the signed-in account plus the CSRF token multipart
// uploads must echo in the X-CSRF-Token header.
type sessionView struct {
	middleware.Session
	CSRFToken string `json:"csrfToken,omitempty"`
}

func handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeAdminError(w, err)
		return
	}

	res, err := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput{Email: req.Email, Password: req.Password},
		orchestrators.LoginDeps{AccountStore: stores.Accounts, Clock: clock})
	switch {
	case errors.Is(err, orchestrators.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, envelope{Message: err.Error()})
		return
	case errors.Is(err, orchestrators.ErrAccountLocked):
		writeJSON(w, http.StatusLocked, envelope{Message: err.Error()})
		return
	case err != nil:
		internalError(w, err)
		return
	}

	token, err := sessions.Create(res.AccountID, res.Email, res.Role)
	if err != nil {
		internalError(w, fmt.Errorf("create session: %w", err))
		return
	}
	middleware.SetSessionCookie(w, token)
	sess, _ := sessions.Get(token)
	writeOK(w, sessionView{Session: sess})
}

func handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.SessionToken(r); token != "" {
		sessions.Delete(token)
	}
	middleware.ClearSessionCookie(w)
	writeOK(w, nil)
}

func handleSession(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	writeOK(w, sessionView{Session: sess, CSRFToken: middleware.CSRFToken(r)})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// handleChangePassword replaces the password and signs out every other
// session of the account.
func handleChangePassword(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	var req changePasswordRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeAdminError(w, err)
		return
	}
	err := orchestrators.ExecuteChangePassword(r.Context(), orchestrators.ChangePasswordInput{
		AccountID:       sess.AccountID,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	}, orchestrators.ChangePasswordDeps{AccountStore: stores.Accounts})
	if err != nil {
		writeAdminError(w, err)
		return
	}

	sessions.DeleteAccount(sess.AccountID)
	token, err := sessions.Create(sess.AccountID, sess.Email, sess.Role)
	if err != nil {
		internalError(w, fmt.Errorf("create session: %w", err))
		return
	}
	middleware.SetSessionCookie(w, token)
	writeOK(w, nil)
}

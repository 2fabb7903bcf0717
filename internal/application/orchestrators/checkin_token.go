package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"shepherd/internal/adapters/token"
	"shepherd/internal/domain/checkin"
	"shepherd/internal/domain/service"
)

// Token lifetimes.
const (
	DefaultTokenTTL = 4 * time.Hour
	MaxTokenTTL     = 7 * 24 * time.Hour
)

const outcomeValid = "valid"

// TokenParser decodes signed check-in tokens.
type TokenParser interface {
	Parse(raw string) (token.Claims, error)
}

// TokenIssuer signs check-in tokens.
type TokenIssuer interface {
	Issue(claims token.Claims) (string, error)
}

// ServiceLookup resolves a service by id.
type ServiceLookup interface {
	GetByID(ctx context.Context, id string) (service.Service, error)
}

// TokenRecorder counts token validations. Optional.
type TokenRecorder interface {
	TokenValidation(outcome string)
}

// ValidateCheckinTokenDeps holds dependencies for ValidateCheckinToken.
type ValidateCheckinTokenDeps struct {
	Tokens       TokenParser
	ServiceStore ServiceLookup
	Clock        Clock
	Metrics      TokenRecorder
}

// ValidateCheckinTokenResult describes the session a valid token points at.
type ValidateCheckinTokenResult struct {
	Valid       bool      `json:"valid"`
	ServiceID   string    `json:"serviceId"`
	Date        string    `json:"date"`
	ServiceName string    `json:"serviceName"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// ExecuteValidateCheckinToken decodes a scanned token and resolves its service.
// PRE: raw is the string captured from the QR code
// POST: Returns the session on success; otherwise a checkin.Error coded
// TOKEN_MALFORMED, TOKEN_EXPIRED or TOKEN_UNKNOWN_SERVICE
// INVARIANT: No writes
func ExecuteValidateCheckinToken(ctx context.Context, raw string, deps ValidateCheckinTokenDeps) (ValidateCheckinTokenResult, error) {
	res, err := validateCheckinToken(ctx, raw, deps)
	if deps.Metrics != nil {
		outcome := outcomeValid
		if err != nil {
			outcome = string(checkin.CodeOf(err))
			if outcome == "" {
				outcome = "error"
			}
		}
		deps.Metrics.TokenValidation(outcome)
	}
	return res, err
}

func validateCheckinToken(ctx context.Context, raw string, deps ValidateCheckinTokenDeps) (ValidateCheckinTokenResult, error) {
	claims, err := deps.Tokens.Parse(raw)
	if err != nil {
		slog.Info("checkin_event", "event", "token_rejected", "reason", "malformed")
		return ValidateCheckinTokenResult{}, checkin.Wrap(checkin.CodeTokenMalformed, "this check-in code could not be read", err)
	}
	if claims.ExpiredAt(deps.Clock.now()) {
		slog.Info("checkin_event", "event", "token_rejected", "reason", "expired", "service_id", claims.ServiceID, "date", claims.Date)
		return ValidateCheckinTokenResult{}, checkin.NewError(checkin.CodeTokenExpired, "this check-in code has expired")
	}

	svc, err := deps.ServiceStore.GetByID(ctx, claims.ServiceID)
	if errors.Is(err, service.ErrNotFound) {
		slog.Info("checkin_event", "event", "token_rejected", "reason", "unknown_service", "service_id", claims.ServiceID)
		return ValidateCheckinTokenResult{}, checkin.NewError(checkin.CodeTokenUnknownService, "this check-in code is for a service that no longer exists")
	}
	if err != nil {
		return ValidateCheckinTokenResult{}, fmt.Errorf("look up service: %w", err)
	}

	return ValidateCheckinTokenResult{
		Valid:       true,
		ServiceID:   svc.ID,
		Date:        claims.Date,
		ServiceName: svc.Name,
		ExpiresAt:   claims.ExpiresAt,
	}, nil
}

// IssueCheckinTokenInput carries input for IssueCheckinToken.
type IssueCheckinTokenInput struct {
	ServiceID string
	Date      string        // YYYY-MM-DD
	TTL       time.Duration // zero means DefaultTokenTTL
}

// IssueCheckinTokenDeps holds dependencies for IssueCheckinToken.
type IssueCheckinTokenDeps struct {
	Tokens       TokenIssuer
	ServiceStore ServiceLookup
	Clock        Clock
}

// IssueCheckinTokenResult is a signed token ready to be rendered as a QR code.
type IssueCheckinTokenResult struct {
	Token       string    `json:"token"`
	ServiceID   string    `json:"serviceId"`
	ServiceName string    `json:"serviceName"`
	Date        string    `json:"date"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// ExecuteIssueCheckinToken signs a token for an existing service session.
// PRE: ServiceID names an existing service; Date is YYYY-MM-DD
// POST: Returns a token that expires TTL after now
func ExecuteIssueCheckinToken(ctx context.Context, input IssueCheckinTokenInput, deps IssueCheckinTokenDeps) (IssueCheckinTokenResult, error) {
	if err := checkin.ValidateSession(input.ServiceID, input.Date); err != nil {
		return IssueCheckinTokenResult{}, err
	}
	ttl := input.TTL
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}
	if ttl < 0 || ttl > MaxTokenTTL {
		return IssueCheckinTokenResult{}, checkin.NewError(checkin.CodeValidation, "token lifetime must be positive and at most 7 days")
	}

	svc, err := deps.ServiceStore.GetByID(ctx, input.ServiceID)
	if errors.Is(err, service.ErrNotFound) {
		return IssueCheckinTokenResult{}, checkin.NewError(checkin.CodeNotFound, "service not found")
	}
	if err != nil {
		return IssueCheckinTokenResult{}, fmt.Errorf("look up service: %w", err)
	}

	now := deps.Clock.now()
	claims := token.Claims{ServiceID: svc.ID, Date: input.Date, IssuedAt: now, ExpiresAt: now.Add(ttl)}
	raw, err := deps.Tokens.Issue(claims)
	if err != nil {
		return IssueCheckinTokenResult{}, err
	}

	slog.Info("checkin_event", "event", "token_issued", "service_id", svc.ID, "date", input.Date, "expires_at", claims.ExpiresAt)
	return IssueCheckinTokenResult{
		Token:       raw,
		ServiceID:   svc.ID,
		ServiceName: svc.Name,
		Date:        input.Date,
		ExpiresAt:   time.Unix(claims.ExpiresAt.Unix(), 0).UTC(),
	}, nil
}

// Package token signs and decodes the check-in tokens embedded in QR codes.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"shepherd/internal/domain/checkin"
)

// Claim names carried by a check-in token.
const (
	claimService  = "sid"
	claimDate     = "date"
	claimIssued   = "iat"
	claimExpires  = "exp"
	signingMethod = "HS256"
)

// ErrMalformed is returned for tokens that fail to decode, verify or carry the
// required claims.
var ErrMalformed = errors.New("check-in token is malformed")

// Claims is the decoded payload of a check-in token.
type Claims struct {
	ServiceID string
	Date      string // YYYY-MM-DD
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ExpiredAt reports whether the token is no longer valid at now.
func (c Claims) ExpiredAt(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Codec signs and verifies HS256 check-in tokens with a shared secret.
type Codec struct {
	secret []byte
}

// NewCodec creates a codec for the given secret.
// PRE: secret is non-empty
func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

// Issue signs claims into a compact token string.
// PRE: ServiceID is set, Date is YYYY-MM-DD, ExpiresAt is after IssuedAt
func (c *Codec) Issue(claims Claims) (string, error) {
	if strings.TrimSpace(claims.ServiceID) == "" {
		return "", fmt.Errorf("issue token: %w", ErrMalformed)
	}
	if _, err := time.Parse(checkin.DateLayout, claims.Date); err != nil {
		return "", fmt.Errorf("issue token: date: %w", ErrMalformed)
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		claimService: claims.ServiceID,
		claimDate:    claims.Date,
		claimIssued:  claims.IssuedAt.Unix(),
		claimExpires: claims.ExpiresAt.Unix(),
	})
	return t.SignedString(c.secret)
}

// Parse verifies the signature and decodes the claims. Expiry is not checked
// here; callers compare ExpiresAt against their own clock.
// POST: Returns Claims, or an error wrapping ErrMalformed
func (c *Codec) Parse(raw string) (Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Claims{}, ErrMalformed
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{signingMethod}), jwt.WithoutClaimsValidation())
	mc := jwt.MapClaims{}
	if _, err := parser.ParseWithClaims(raw, mc, func(*jwt.Token) (any, error) {
		return c.secret, nil
	}); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var out Claims
	sid, _ := mc[claimService].(string)
	if strings.TrimSpace(sid) == "" {
		return Claims{}, fmt.Errorf("%w: missing service", ErrMalformed)
	}
	out.ServiceID = sid

	date, _ := mc[claimDate].(string)
	if _, err := time.Parse(checkin.DateLayout, date); err != nil {
		return Claims{}, fmt.Errorf("%w: bad date %q", ErrMalformed, date)
	}
	out.Date = date

	exp, ok := unixClaim(mc[claimExpires])
	if !ok {
		return Claims{}, fmt.Errorf("%w: missing expiry", ErrMalformed)
	}
	out.ExpiresAt = exp
	out.IssuedAt, _ = unixClaim(mc[claimIssued])
	return out, nil
}

func unixClaim(v any) (time.Time, bool) {
	switch n := v.(type) {
	case float64:
		return time.Unix(int64(n), 0).UTC(), true
	case int64:
		return time.Unix(n, 0).UTC(), true
	default:
		return time.Time{}, false
	}
}

// Package auth turns Authorization headers into verified identity tokens and
// gates handlers on them.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/folio/backend/pkg/identity"
)

// Error codes returned in the JSON body of rejected requests.
const (
	CodeMissingToken    = "missing_token"
	CodeTokenExpired    = "token_expired"
	CodeTokenRevoked    = "token_revoked"
	CodeAccountDisabled = "account_disabled"
	CodeInvalidToken    = "invalid_token"
	CodeForbidden       = "forbidden"
	CodeUnavailable     = "internal_error"
)

// IDTokenVerifier verifies a raw ID token including the revocation check.
// *identity.Provider satisfies it.
type IDTokenVerifier interface {
	VerifyIDTokenAndCheckRevoked(ctx context.Context, raw string) (*identity.Token, error)
}

// Error is a rejected verification with its HTTP status.
type Error struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Err.Error()
	}
	return e.Code
}

func (e *Error) Unwrap() error { return e.Err }

// ErrForbidden is returned for a valid token without the admin claim.
var ErrForbidden = &Error{Status: http.StatusForbidden, Code: CodeForbidden, Message: "Admin access required"}

// Verifier checks bearer credentials.
type Verifier struct {
	ids    IDTokenVerifier
	logger *slog.Logger
}

// NewVerifier creates a Verifier. A nil logger falls back to slog.Default().
func NewVerifier(ids IDTokenVerifier, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Verifier{ids: ids, logger: logger}
}

// Verify parses "Bearer <token>" and verifies it with a revocation check.
// The returned error is always an *Error.
func (v *Verifier) Verify(ctx context.Context, header string) (*identity.Token, error) {
	raw, ok := bearerToken(header)
	if !ok {
		return nil, &Error{Status: http.StatusUnauthorized, Code: CodeMissingToken, Message: "Missing or malformed Authorization header"}
	}

	tok, err := v.ids.VerifyIDTokenAndCheckRevoked(ctx, raw)
	if err == nil {
		return tok, nil
	}

	authErr := &Error{Status: http.StatusUnauthorized, Err: err}
	switch {
	case errors.Is(err, identity.ErrIDTokenExpired):
		authErr.Code, authErr.Message = CodeTokenExpired, "Token has expired, sign in again"
	case errors.Is(err, identity.ErrIDTokenRevoked):
		authErr.Code, authErr.Message = CodeTokenRevoked, "Token has been revoked, sign in again"
	case errors.Is(err, identity.ErrUserDisabled):
		authErr.Code, authErr.Message = CodeAccountDisabled, "Account is disabled"
	case errors.Is(err, identity.ErrIDTokenInvalid):
		authErr.Code, authErr.Message = CodeInvalidToken, "Invalid token"
	default:
		// account store unreachable; the token itself may be fine
		v.logger.ErrorContext(ctx, "token verification failed", "error", err)
		authErr.Status = http.StatusInternalServerError
		authErr.Code, authErr.Message = CodeUnavailable, "Could not verify credentials, please try again later"
	}
	return nil, authErr
}

func bearerToken(header string) (string, bool) {
	scheme, raw, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

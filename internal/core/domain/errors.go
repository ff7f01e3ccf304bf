// Package domain defines the core domain models for ExpiryLedger.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business domain error with a structured,
// stable error code. Codes are what clients and tests compare against;
// messages are for humans and may change.
type DomainError struct {
	Code    string // Error code (e.g., "EL-TOKN-4040")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support; two DomainErrors match when their
// codes match, regardless of details or cause.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks whether the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Token errors (TOKN).
var (
	// ErrInvalidTokenID indicates the operation referenced a token that
	// is not registered in the ledger.
	ErrInvalidTokenID = NewDomainError("EL-TOKN-4040", "invalid token id")

	// ErrTokenExpired indicates a mint whose expiry is not strictly
	// after the call instant.
	ErrTokenExpired = NewDomainError("EL-TOKN-4010", "token expiry is in the past")

	// ErrTokenHasValidBalances indicates a removal blocked because at
	// least one holder still has an active balance.
	ErrTokenHasValidBalances = NewDomainError("EL-TOKN-4090", "token has valid balances")

	// ErrUnsupportedHolderKind indicates a query against a non-account
	// identity. Only plain accounts hold balances.
	ErrUnsupportedHolderKind = NewDomainError("EL-TOKN-4000", "unsupported holder kind, accounts only")
)

// Authentication errors (AUTH).
var (
	// ErrUnauthorized indicates the caller lacks the administrator
	// capability, or invoked a permanently disabled operation.
	ErrUnauthorized = NewDomainError("EL-AUTH-4030", "unauthorized")

	// ErrAPIKeyMissing indicates no API key was provided.
	ErrAPIKeyMissing = NewDomainError("EL-AUTH-4010", "api key not provided")

	// ErrAPIKeyInvalid indicates the API key is unknown or its secret
	// did not verify.
	ErrAPIKeyInvalid = NewDomainError("EL-AUTH-4011", "invalid api key")

	// ErrAPIKeyDisabled indicates the API key has been disabled.
	ErrAPIKeyDisabled = NewDomainError("EL-AUTH-4012", "api key disabled")
)

// System errors (SYS).
var (
	// ErrInternal indicates an internal server error.
	ErrInternal = NewDomainError("EL-SYS-5000", "internal server error")

	// ErrStorage indicates a storage layer error.
	ErrStorage = NewDomainError("EL-SYS-5001", "storage error")

	// ErrBadRequest indicates a malformed or unparseable request.
	ErrBadRequest = NewDomainError("EL-SYS-4000", "bad request")

	// ErrRateLimited indicates too many requests.
	ErrRateLimited = NewDomainError("EL-SYS-4290", "too many requests")
)

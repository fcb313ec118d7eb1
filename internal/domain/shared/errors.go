package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target carries the same code, so wrapped sentinels
// and freshly built errors with a detailed message compare equal.
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeZoneNotFound        = "ZONE_NOT_FOUND"
	CodeAccountNotFound     = "ACCOUNT_NOT_FOUND"
	CodeVoucherNotFound     = "VOUCHER_NOT_FOUND"
	CodeAlreadyExists       = "ALREADY_EXISTS"
	CodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	CodeAllocationExceeded  = "ALLOCATION_EXCEEDED"
	CodeDuplicateToken      = "DUPLICATE_TOKEN"
	CodeIssuanceFailed      = "ISSUANCE_FAILED"
	CodeVoucherExpired      = "VOUCHER_EXPIRED"
	CodeInvalidState        = "INVALID_STATE"
	CodeConcurrency         = "CONCURRENCY_CONFLICT"
	CodeDuplicateRequest    = "DUPLICATE_REQUEST"
	CodeUnauthorized        = "UNAUTHORIZED"
)

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists       = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrMissingFields       = NewDomainError(CodeValidation, "Missing required fields")
	ErrZoneNotFound        = NewDomainError(CodeZoneNotFound, "Zone not found")
	ErrAccountNotFound     = NewDomainError(CodeAccountNotFound, "Account not found")
	ErrVoucherNotFound     = NewDomainError(CodeVoucherNotFound, "Voucher not found")
	ErrInsufficientFunds   = NewDomainError(CodeInsufficientBalance, "Insufficient balance")
	ErrAllocationExceeded  = NewDomainError(CodeAllocationExceeded, "Amount exceeds zone allocation")
	ErrDuplicateToken      = NewDomainError(CodeDuplicateToken, "Redemption token already in use")
	ErrIssuanceFailed      = NewDomainError(CodeIssuanceFailed, "Could not generate a unique voucher token")
	ErrVoucherExpired      = NewDomainError(CodeVoucherExpired, "Voucher has expired")
	ErrInvalidState        = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrConcurrencyConflict = NewDomainError(CodeConcurrency, "Resource was modified by another process")
	ErrDuplicateRequest    = NewDomainError(CodeDuplicateRequest, "Request with this idempotency key was already processed")
	ErrUnauthorized        = NewDomainError(CodeUnauthorized, "Not authorized to perform this action")
)

// NewValidationError builds a validation error with a field specific message
func NewValidationError(message string) *DomainError {
	return NewDomainError(CodeValidation, message)
}

package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a machine-readable error code
type ErrorCode string

const (
	// Validation errors (VALIDATION_*) - rejected before any transaction row exists
	ErrorCodeValidationFailed        ErrorCode = "VALIDATION_FAILED"
	ErrorCodeValidationAmountInvalid ErrorCode = "VALIDATION_AMOUNT_INVALID"
	ErrorCodeValidationScanCode      ErrorCode = "VALIDATION_SCAN_CODE_INVALID"
	ErrorCodeValidationMissingField  ErrorCode = "VALIDATION_MISSING_FIELD"

	// Configuration errors (CONFIG_*) - fatal for the call, never retried
	ErrorCodeConfigMissingKey  ErrorCode = "CONFIG_MISSING_KEY"
	ErrorCodeConfigPlaceholder ErrorCode = "CONFIG_PLACEHOLDER_VALUE"
	ErrorCodeConfigInactive    ErrorCode = "CONFIG_GATEWAY_INACTIVE"
	ErrorCodeConfigLoadFailed  ErrorCode = "CONFIG_LOAD_FAILED"

	// Gateway transport errors (GATEWAY_*) - transient, retried with backoff
	ErrorCodeGatewayTimeout ErrorCode = "GATEWAY_TIMEOUT"
	ErrorCodeGatewayNetwork ErrorCode = "GATEWAY_NETWORK_ERROR"

	// Gateway business errors - well-formed response with non-zero code, not retried
	ErrorCodeGatewayDeclined    ErrorCode = "GATEWAY_DECLINED"
	ErrorCodeGatewayBadResponse ErrorCode = "GATEWAY_BAD_RESPONSE"

	// Transaction errors (TXN_*)
	ErrorCodeTxnNotFound     ErrorCode = "TXN_NOT_FOUND"
	ErrorCodeTxnInvalidState ErrorCode = "TXN_INVALID_STATE"
	ErrorCodeTxnOrderIDClash ErrorCode = "TXN_ORDER_ID_EXHAUSTED"

	// Internal errors (INTERNAL_*)
	ErrorCodeInternalError ErrorCode = "INTERNAL_ERROR"
	ErrorCodeDatabaseError ErrorCode = "INTERNAL_DATABASE_ERROR"
)

// DomainError represents a structured domain error with error code and context
type DomainError struct {
	Err     error
	Details map[string]interface{}
	Code    ErrorCode
	Message string
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

// WithDetail adds a detail field to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(code ErrorCode, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// WrapError wraps an existing error with a domain error code
func WrapError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Err:     err,
	}
}

// GetErrorCode extracts the error code from an error, returns empty string if not a DomainError
func GetErrorCode(err error) ErrorCode {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

// IsDomainError checks if an error is a DomainError with the given code
func IsDomainError(err error, code ErrorCode) bool {
	return GetErrorCode(err) == code
}

// IsValidationError checks if an error is an input validation error
func IsValidationError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeValidationFailed ||
		code == ErrorCodeValidationAmountInvalid ||
		code == ErrorCodeValidationScanCode ||
		code == ErrorCodeValidationMissingField
}

// IsConfigurationError checks if an error is a gateway configuration error
func IsConfigurationError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeConfigMissingKey ||
		code == ErrorCodeConfigPlaceholder ||
		code == ErrorCodeConfigInactive ||
		code == ErrorCodeConfigLoadFailed
}

// IsTransportError reports whether the gateway call failed before any response
// was received. Transport failures are the only errors the retry loop retries;
// a well-formed decline from the gateway is a business outcome, not a
// transport error.
func IsTransportError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeGatewayTimeout || code == ErrorCodeGatewayNetwork
}

// IsTimeoutError checks if an error is a gateway call timeout
func IsTimeoutError(err error) bool {
	return GetErrorCode(err) == ErrorCodeGatewayTimeout
}

// Structured error instances
var (
	ErrValidationFailed   = NewDomainError(ErrorCodeValidationFailed, "validation failed")
	ErrAmountInvalid      = NewDomainError(ErrorCodeValidationAmountInvalid, "invalid amount")
	ErrScanCodeInvalid    = NewDomainError(ErrorCodeValidationScanCode, "scanned QR/OTP payload is invalid")
	ErrMissingField       = NewDomainError(ErrorCodeValidationMissingField, "required field missing")
	ErrConfigMissingKey   = NewDomainError(ErrorCodeConfigMissingKey, "required gateway configuration key is missing")
	ErrConfigPlaceholder  = NewDomainError(ErrorCodeConfigPlaceholder, "gateway configuration key holds the placeholder value")
	ErrGatewayTimedOut    = NewDomainError(ErrorCodeGatewayTimeout, "gateway request timed out")
	ErrGatewayUnreachable = NewDomainError(ErrorCodeGatewayNetwork, "gateway is unreachable")
	ErrGatewayDeclined    = NewDomainError(ErrorCodeGatewayDeclined, "payment declined by gateway")
	ErrTxnNotFound        = NewDomainError(ErrorCodeTxnNotFound, "transaction not found")
	ErrTxnInvalidState    = NewDomainError(ErrorCodeTxnInvalidState, "transaction is in invalid state for this operation")
	ErrOrderIDExhausted   = NewDomainError(ErrorCodeTxnOrderIDClash, "could not generate a unique order id")
	ErrInternalError      = NewDomainError(ErrorCodeInternalError, "internal server error")
	ErrDatabaseError      = NewDomainError(ErrorCodeDatabaseError, "database error")
)

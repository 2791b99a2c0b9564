package matchfund

import (
	"errors"
	"fmt"
)

// LedgerError represents a ledger-specific error with a machine-readable code.
type LedgerError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *LedgerError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Common error codes
const (
	ErrCodeValidationFailed   = "validation_failed"
	ErrCodeNoSuchRecipient    = "no_such_recipient"
	ErrCodeNoSuchMatcher      = "no_such_matcher"
	ErrCodeTransferFailed     = "transfer_failed"
	ErrCodeInvariantViolation = "invariant_violation"
	ErrCodeUnknownTransfer    = "unknown_transfer"
)

// NewLedgerError creates a new ledger error
func NewLedgerError(code, message string, details map[string]interface{}) *LedgerError {
	return &LedgerError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

func newValidationError(format string, args ...interface{}) *LedgerError {
	return NewLedgerError(ErrCodeValidationFailed, fmt.Sprintf(format, args...), nil)
}

func newNoSuchRecipient(recipient AccountID) *LedgerError {
	return NewLedgerError(ErrCodeNoSuchRecipient,
		fmt.Sprintf("could not find any matchers for recipient `%s`", recipient), nil)
}

func newNoSuchMatcher(recipient, matcher AccountID) *LedgerError {
	return NewLedgerError(ErrCodeNoSuchMatcher,
		fmt.Sprintf("%s does not currently have any funds committed to %s", matcher, recipient), nil)
}

func newInvariantViolation(format string, args ...interface{}) *LedgerError {
	return NewLedgerError(ErrCodeInvariantViolation, fmt.Sprintf(format, args...), nil)
}

// ErrorCode extracts the LedgerError code from err, unwrapping as needed, or
// "" if no LedgerError is in the chain.
func ErrorCode(err error) string {
	var le *LedgerError
	if errors.As(err, &le) {
		return le.Code
	}
	return ""
}

// Package errors holds the error sentinels shared across the invoice studio
// packages and the helpers that map them to notices and HTTP statuses.
package errors

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

var (
	ErrNotFound         = new(ErrCodeNotFound, "resource not found")
	ErrValidation       = new(ErrCodeValidation, "validation error")
	ErrInvalidOperation = new(ErrCodeInvalidOperation, "invalid operation")
	ErrPermissionDenied = new(ErrCodePermissionDenied, "permission denied")
	ErrDatabase         = new(ErrCodeDatabase, "database error")
	ErrHTTPClient       = new(ErrCodeHTTPClient, "http client error")
	ErrSystem           = new(ErrCodeSystemError, "system error")

	// Invoice editing errors. None of them is fatal: the document stays
	// consistent and the caller only surfaces a notice.
	ErrLimitReached        = new(ErrCodeLimitReached, "free plan item limit reached")
	ErrMinimumViolation    = new(ErrCodeMinimumViolation, "at least one line item required")
	ErrInvalidNumericInput = new(ErrCodeInvalidNumericInput, "invalid numeric input")
	ErrExportFailure       = new(ErrCodeExportFailure, "export failed")
	ErrUnknownCurrency     = new(ErrCodeUnknownCurrency, "unknown currency")
	ErrUnknownTemplate     = new(ErrCodeUnknownTemplate, "unknown template")

	// statuses maps sentinels to HTTP statuses, most specific first. An error
	// marked with several sentinels is classified by the first match.
	statuses = []struct {
		sentinel error
		status   int
	}{
		{ErrLimitReached, http.StatusConflict},
		{ErrMinimumViolation, http.StatusConflict},
		{ErrInvalidNumericInput, http.StatusBadRequest},
		{ErrUnknownTemplate, http.StatusBadRequest},
		{ErrUnknownCurrency, http.StatusBadRequest},
		{ErrExportFailure, http.StatusBadGateway},
		{ErrPermissionDenied, http.StatusForbidden},
		{ErrNotFound, http.StatusNotFound},
		{ErrInvalidOperation, http.StatusBadRequest},
		{ErrValidation, http.StatusBadRequest},
		{ErrHTTPClient, http.StatusInternalServerError},
		{ErrDatabase, http.StatusInternalServerError},
		{ErrSystem, http.StatusInternalServerError},
	}
)

const (
	ErrCodeNotFound            = "not_found"
	ErrCodeValidation          = "validation_error"
	ErrCodeInvalidOperation    = "invalid_operation"
	ErrCodePermissionDenied    = "permission_denied"
	ErrCodeDatabase            = "database_error"
	ErrCodeHTTPClient          = "http_client_error"
	ErrCodeSystemError         = "system_error"
	ErrCodeLimitReached        = "limit_reached"
	ErrCodeMinimumViolation    = "minimum_violation"
	ErrCodeInvalidNumericInput = "invalid_numeric_input"
	ErrCodeExportFailure       = "export_failure"
	ErrCodeUnknownCurrency     = "unknown_currency"
	ErrCodeUnknownTemplate     = "unknown_template"
)

// InternalError is a sentinel carrying a machine-readable code.
type InternalError struct {
	Code    string
	Message string
	Err     error
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return e.DisplayError()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Err.Error())
}

func (e *InternalError) DisplayError() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// Is implements error matching for wrapped errors
func (e *InternalError) Is(target error) bool {
	if target == nil {
		return false
	}

	t, ok := target.(*InternalError)
	if !ok {
		return errors.Is(e.Err, target)
	}

	return e.Code == t.Code
}

func new(code string, message string) *InternalError {
	return &InternalError{
		Code:    code,
		Message: message,
	}
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

func Is(err, reference error) bool {
	return errors.Is(err, reference)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsLimitReached(err error) bool {
	return errors.Is(err, ErrLimitReached)
}

func IsMinimumViolation(err error) bool {
	return errors.Is(err, ErrMinimumViolation)
}

func IsExportFailure(err error) bool {
	return errors.Is(err, ErrExportFailure)
}

// classify returns the first sentinel in statuses that err is marked with.
func classify(err error) (*InternalError, int, bool) {
	for _, e := range statuses {
		if errors.Is(err, e.sentinel) {
			return e.sentinel.(*InternalError), e.status, true
		}
	}
	return nil, http.StatusInternalServerError, false
}

// Code returns the code of the most specific sentinel err is marked with, or
// the system error code when it carries none.
func Code(err error) string {
	if sentinel, _, ok := classify(err); ok {
		return sentinel.Code
	}
	return ErrCodeSystemError
}

// Notice returns the user-facing text attached to err with WithHint. When
// several hints are attached the outermost wins. Errors without hints fall
// back to the sentinel message.
func Notice(err error) string {
	if err == nil {
		return ""
	}
	if hints := errors.GetAllHints(err); len(hints) > 0 {
		return hints[len(hints)-1]
	}
	if sentinel, _, ok := classify(err); ok {
		return sentinel.Message
	}
	return err.Error()
}

func HTTPStatusFromErr(err error) int {
	_, status, _ := classify(err)
	return status
}

package errorutil

import (
	"errors"
	"fmt"
	"net/http"
)

// DomainError standardizes application errors surfaced by the engine.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Error codes surfaced by the report lifecycle engine.
const (
	CodeIllegalTransition = "ILLEGAL_TRANSITION"
	CodeAlreadyRated      = "ALREADY_RATED"
	CodeValidationFailed  = "VALIDATION_FAILED"
	CodePermissionDenied  = "PERMISSION_DENIED"
	CodeConflict          = "CONFLICT"
	CodeNotFound          = "NOT_FOUND"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeInternal          = "INTERNAL_ERROR"
)

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

// NewIllegalTransition flags a (from,to) pair outside the transition table or
// a failed guard on an otherwise legal transition.
func NewIllegalTransition(message string, details map[string]any) error {
	return NewDomainError(CodeIllegalTransition, message, http.StatusConflict, details)
}

// NewAlreadyRated flags a rate attempt on a report not in COMPLETED or rated before.
func NewAlreadyRated() error {
	return NewDomainError(CodeAlreadyRated, "report already rated / only completed reports can be rated", http.StatusConflict, nil)
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

// NewWrongRole rejects an actor whose role cannot perform the action at all.
func NewWrongRole(message string) error {
	return NewDomainError(CodePermissionDenied, message, http.StatusForbidden, map[string]any{"reason": "wrong_role"})
}

// NewNotOwner rejects an actor with the right role acting on someone else's report.
func NewNotOwner(message string) error {
	return NewDomainError(CodePermissionDenied, message, http.StatusForbidden, map[string]any{"reason": "not_owner"})
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// HasCode reports whether err is a DomainError carrying the given code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

func MapError(err error) error {
	return ToDomainError(err)
}

// Package apperrors defines the client-facing error taxonomy of the admin API.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a class of failure. It is sent to clients verbatim.
type Code string

const (
	CodeDuplicateAccount   Code = "DUPLICATE_ACCOUNT"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeVerificationFailed Code = "VERIFICATION_FAILED"
	CodeNotFound           Code = "NOT_FOUND"
	CodeSamePassword       Code = "SAME_PASSWORD"
	CodeInvalidStatus      Code = "INVALID_STATUS"
	CodeMissingParameter   Code = "MISSING_PARAMETER"
	CodeValidationFailed   Code = "VALIDATION_FAILED"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeForbidden          Code = "FORBIDDEN"
	CodeTooManyRequests    Code = "TOO_MANY_REQUESTS"
	CodeServiceUnavailable Code = "SERVICE_UNAVAILABLE"
	CodeServerError        Code = "SERVER_ERROR"
)

// ServerErrorMessage is the only message clients see for infrastructure failures.
const ServerErrorMessage = "Server error. Please try again later."

// Error is a structured application error. Err holds the underlying cause and
// is never exposed to clients.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Code so callers can write errors.Is(err, apperrors.ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is comparisons.
var (
	ErrDuplicateAccount   = &Error{Code: CodeDuplicateAccount}
	ErrInvalidCredentials = &Error{Code: CodeInvalidCredentials}
	ErrVerificationFailed = &Error{Code: CodeVerificationFailed}
	ErrNotFound           = &Error{Code: CodeNotFound}
	ErrSamePassword       = &Error{Code: CodeSamePassword}
	ErrInvalidStatus      = &Error{Code: CodeInvalidStatus}
	ErrMissingParameter   = &Error{Code: CodeMissingParameter}
	ErrServerError        = &Error{Code: CodeServerError}
)

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func DuplicateAccount() *Error {
	return New(CodeDuplicateAccount, "Admin with this email already exists.")
}

// InvalidCredentials deliberately does not say whether the account exists.
func InvalidCredentials() *Error {
	return New(CodeInvalidCredentials, "Invalid email or password.")
}

func IncorrectCurrentPassword() *Error {
	return New(CodeInvalidCredentials, "Current password is incorrect.")
}

func VerificationFailed() *Error {
	return New(CodeVerificationFailed, "reCAPTCHA verification failed!")
}

func NotFound(message string) *Error {
	return New(CodeNotFound, message)
}

func SamePassword() *Error {
	return New(CodeSamePassword, "New password cannot be the same as the old password.")
}

func InvalidStatus() *Error {
	return New(CodeInvalidStatus, "Invalid status value.")
}

func MissingParameter(message string) *Error {
	return New(CodeMissingParameter, message)
}

func Validation(message string) *Error {
	return New(CodeValidationFailed, message)
}

func Unauthorized(message string) *Error {
	return New(CodeUnauthorized, message)
}

func Forbidden(message string) *Error {
	return New(CodeForbidden, message)
}

func TooManyRequests() *Error {
	return New(CodeTooManyRequests, "Too many requests. Please slow down.")
}

func ServiceUnavailable(message string) *Error {
	return New(CodeServiceUnavailable, message)
}

// Internal wraps an infrastructure failure. The cause is kept for logging only.
func Internal(err error) *Error {
	return &Error{Code: CodeServerError, Message: ServerErrorMessage, Err: err}
}

// From normalizes any error into an *Error; unknown errors become SERVER_ERROR.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// HTTPStatus maps a code to its response status.
func HTTPStatus(code Code) int {
	switch code {
	case CodeDuplicateAccount, CodeVerificationFailed, CodeSamePassword,
		CodeInvalidStatus, CodeMissingParameter, CodeValidationFailed:
		return http.StatusBadRequest
	case CodeInvalidCredentials, CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	case CodeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

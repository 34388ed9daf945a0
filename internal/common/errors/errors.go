// internal/common/errors/errors.go
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"time"
)

type ErrorCode string

const (
	ErrCodeValidationFailed   ErrorCode = "VALIDATION_FAILED"
	ErrCodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrCodeNotFound           ErrorCode = "NOT_FOUND"
	ErrCodeStorageFailure     ErrorCode = "STORAGE_FAILURE"
	ErrCodeNotificationFailed ErrorCode = "NOTIFICATION_FAILED"
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
)

// StandardError is the error envelope every handler reports through.
// Details and Metadata stay server side; only Message (and the field list for
// validation failures) reaches the caller.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Fields    []string               `json:"fields,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// HTTPStatus maps the error code onto a response status.
func (e *StandardError) HTTPStatus() int {
	return HTTPStatus(e.Code)
}

func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeValidationFailed:
		return http.StatusBadRequest
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// GetErrorCategory groups codes for logs and metrics labels.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeValidationFailed, ErrCodeNotFound:
		return "client"
	case ErrCodeUnauthorized:
		return "auth"
	case ErrCodeStorageFailure:
		return "storage"
	case ErrCodeNotificationFailed:
		return "notification"
	default:
		return "internal"
	}
}

// AsStandardError reports whether err (or anything it wraps) is a StandardError.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

func NewValidationFailedError(fields []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "validation failed",
		Fields:    fields,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidRequestError(message string, err error) *StandardError {
	e := &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   message,
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
	if err != nil {
		e.Details = err.Error()
	}
	return e
}

func NewUnauthorizedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnauthorized,
		Message:   "unauthorized",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewNotFoundError(resource, id string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotFound,
		Message:   fmt.Sprintf("%s not found", resource),
		Details:   fmt.Sprintf("id: %s", id),
		Retryable: false,
		Metadata:  map[string]interface{}{"resource": resource, "id": id},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewStorageFailureError(operation string, err error) *StandardError {
	e := &StandardError{
		Code:      ErrCodeStorageFailure,
		Message:   "internal server error",
		Retryable: true,
		Metadata:  map[string]interface{}{"operation": operation},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
	if err != nil {
		e.Details = err.Error()
	}
	return e
}

func NewNotificationFailedError(channel string, err error) *StandardError {
	e := &StandardError{
		Code:      ErrCodeNotificationFailed,
		Message:   "notification send failed",
		Retryable: false,
		Metadata:  map[string]interface{}{"channel": channel},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
	if err != nil {
		e.Details = err.Error()
	}
	return e
}

func NewInternalError(err error) *StandardError {
	e := &StandardError{
		Code:      ErrCodeInternal,
		Message:   "internal server error",
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
	if err != nil {
		e.Details = err.Error()
	}
	return e
}

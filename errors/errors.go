package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/helloiwashere/guestbook-backend/logger"
	"github.com/helloiwashere/guestbook-backend/store"
)

type ErrorType string

const (
	ValidationError ErrorType = "VALIDATION_ERROR"
	RateLimitError  ErrorType = "RATE_LIMITED"
	StoreError      ErrorType = "STORE_ERROR"
	NotFoundError   ErrorType = "NOT_FOUND"
	ServerError     ErrorType = "SERVER_ERROR"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Code       string    `json:"code"`
	Message    string    `json:"message"`
	Detail     string    `json:"detail,omitempty"`
	HTTPStatus int       `json:"-"`
	Raw        error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap exposes the underlying error, if any.
func (e *AppError) Unwrap() error {
	return e.Raw
}

// GetHTTPStatus returns the status code the error should be rendered with.
func (e *AppError) GetHTTPStatus() int {
	if e.HTTPStatus != 0 {
		return e.HTTPStatus
	}
	return getHTTPStatus(e.Type)
}

// New creates a new AppError
func New(errType ErrorType, message string, detail string) *AppError {
	return &AppError{
		Type:       errType,
		Message:    message,
		Detail:     detail,
		HTTPStatus: getHTTPStatus(errType),
	}
}

// Wrap wraps a raw error with AppError context
func Wrap(err error, errType ErrorType, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Type:       errType,
		Message:    message,
		Detail:     err.Error(),
		HTTPStatus: getHTTPStatus(errType),
		Raw:        err,
	}
}

func ValidationFailed(message string, details string) *AppError {
	return &AppError{
		Type:       ValidationError,
		Message:    message,
		Detail:     details,
		HTTPStatus: http.StatusBadRequest,
	}
}

// RateLimited is returned when a submission is rejected for arriving too soon
// after an identical one.
func RateLimited(message string, details string) *AppError {
	return &AppError{
		Type:       RateLimitError,
		Message:    message,
		Detail:     details,
		HTTPStatus: http.StatusTooManyRequests,
	}
}

// NewStoreError sanitizes a record store failure. The original error is
// logged and kept in Raw but never rendered to clients.
func NewStoreError(message string, err error) *AppError {
	logger.GetLogger().Errorw("Record store error", "error", err)
	return &AppError{
		Type:       StoreError,
		Message:    message,
		Detail:     "Please try again later",
		HTTPStatus: http.StatusInternalServerError,
		Raw:        err,
	}
}

func NotFound(entity string) *AppError {
	return &AppError{
		Type:       NotFoundError,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
	}
}

func InternalServerError(message string) *AppError {
	return &AppError{
		Type:       ServerError,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
	}
}

// FromStoreError maps record store sentinel errors onto AppErrors.
// message is used for store failures; validation and rate limit errors keep
// their own description as detail.
func FromStoreError(err error, message string) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	switch {
	case stderrors.Is(err, store.ErrValidation):
		return &AppError{
			Type:       ValidationError,
			Message:    "Invalid input",
			Detail:     err.Error(),
			HTTPStatus: http.StatusBadRequest,
			Raw:        err,
		}
	case stderrors.Is(err, store.ErrRateLimited):
		return &AppError{
			Type:       RateLimitError,
			Message:    "Duplicate submission, please try again later",
			Detail:     err.Error(),
			HTTPStatus: http.StatusTooManyRequests,
			Raw:        err,
		}
	default:
		return NewStoreError(message, err)
	}
}

func getHTTPStatus(errType ErrorType) int {
	switch errType {
	case ValidationError:
		return http.StatusBadRequest
	case RateLimitError:
		return http.StatusTooManyRequests
	case NotFoundError:
		return http.StatusNotFound
	case StoreError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Package types provides the error and paging types shared by handlers and services
package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorCode represents standardized error codes across the application
type ErrorCode string

const (
	// General errors
	ErrorCodeUnknown    ErrorCode = "UNKNOWN_ERROR"
	ErrorCodeInternal   ErrorCode = "INTERNAL_ERROR"
	ErrorCodeValidation ErrorCode = "VALIDATION_ERROR"
	ErrorCodeNotFound   ErrorCode = "NOT_FOUND"
	ErrorCodeConflict   ErrorCode = "CONFLICT"
	ErrorCodeRateLimit  ErrorCode = "RATE_LIMIT"
	ErrorCodeTimeout    ErrorCode = "TIMEOUT"
	ErrorCodeCancelled  ErrorCode = "CANCELLED"

	// Access errors
	ErrorCodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrorCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrorCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"
	ErrorCodeForbidden          ErrorCode = "FORBIDDEN"
	ErrorCodeAccountDisabled    ErrorCode = "ACCOUNT_DISABLED"
	ErrorCodeResetTokenInvalid  ErrorCode = "RESET_TOKEN_INVALID"
	ErrorCodeResetTokenUsed     ErrorCode = "RESET_TOKEN_USED"
	ErrorCodeResetTokenExpired  ErrorCode = "RESET_TOKEN_EXPIRED"

	// Content errors
	ErrorCodeVIPRequired        ErrorCode = "VIP_REQUIRED"
	ErrorCodeContentUnavailable ErrorCode = "CONTENT_UNAVAILABLE"

	// Billing errors
	ErrorCodePayment         ErrorCode = "PAYMENT_ERROR"
	ErrorCodeBillingDisabled ErrorCode = "BILLING_DISABLED"

	// Upstream errors
	ErrorCodeUpstream            ErrorCode = "UPSTREAM_ERROR"
	ErrorCodeUpstreamUnavailable ErrorCode = "UPSTREAM_UNAVAILABLE"
)

// ErrorSeverity indicates the severity of an error
type ErrorSeverity string

const (
	SeverityInfo     ErrorSeverity = "info"
	SeverityWarning  ErrorSeverity = "warning"
	SeverityError    ErrorSeverity = "error"
	SeverityCritical ErrorSeverity = "critical"
)

// AppError represents a structured error with metadata
type AppError struct {
	Code        ErrorCode              `json:"code"`
	Message     string                 `json:"message"`
	Details     string                 `json:"details,omitempty"`
	Severity    ErrorSeverity          `json:"severity"`
	HTTPStatus  int                    `json:"http_status"`
	Context     map[string]interface{} `json:"context,omitempty"`
	StackTrace  string                 `json:"stack_trace,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
	RequestID   string                 `json:"request_id,omitempty"`
	UserMessage string                 `json:"user_message,omitempty"` // User-friendly message
	Retryable   bool                   `json:"retryable"`
	RetryAfter  *time.Duration         `json:"retry_after,omitempty"`

	// Chain of errors for debugging
	Cause       error  `json:"-"`
	CauseString string `json:"cause,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithRequestID adds a request ID to the error
func (e *AppError) WithRequestID(requestID string) *AppError {
	e.RequestID = requestID
	return e
}

// WithUserMessage sets a user-friendly error message
func (e *AppError) WithUserMessage(message string) *AppError {
	e.UserMessage = message
	return e
}

// WithRetryAfter marks the error as retryable after a specific duration
func (e *AppError) WithRetryAfter(duration time.Duration) *AppError {
	e.Retryable = true
	e.RetryAfter = &duration
	return e
}

// ToJSON converts the error to JSON
func (e *AppError) ToJSON() []byte {
	data, _ := json.Marshal(e)
	return data
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Severity:   SeverityError,
		HTTPStatus: httpStatus,
		Timestamp:  time.Now(),
		Retryable:  false,
	}
}

// NewAppErrorWithCause creates an error with an underlying cause
func NewAppErrorWithCause(code ErrorCode, message string, httpStatus int, cause error) *AppError {
	err := NewAppError(code, message, httpStatus)
	err.Cause = cause
	if cause != nil {
		err.CauseString = cause.Error()
	}
	return err
}

// Common error constructors

// NewValidationError creates a validation error
func NewValidationError(message string, details ...string) *AppError {
	err := NewAppError(ErrorCodeValidation, message, http.StatusBadRequest)
	if len(details) > 0 {
		err.Details = details[0]
	}
	err.Severity = SeverityWarning
	return err
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string, id string) *AppError {
	return NewAppError(
		ErrorCodeNotFound,
		fmt.Sprintf("%s not found", resource),
		http.StatusNotFound,
	).WithContext("resource", resource).WithContext("id", id)
}

// NewInternalError creates an internal server error
func NewInternalError(message string, cause error) *AppError {
	err := NewAppErrorWithCause(ErrorCodeInternal, message, http.StatusInternalServerError, cause)
	err.Severity = SeverityCritical
	return err
}

// NewConflictError creates a conflict error for a duplicate resource
func NewConflictError(message string) *AppError {
	err := NewAppError(ErrorCodeConflict, message, http.StatusConflict)
	err.Severity = SeverityWarning
	return err
}

// NewUnauthorizedError creates an authentication error
func NewUnauthorizedError(message string) *AppError {
	err := NewAppError(ErrorCodeUnauthorized, message, http.StatusUnauthorized)
	err.Severity = SeverityInfo
	return err
}

// NewForbiddenError creates an authorization error
func NewForbiddenError(message string) *AppError {
	err := NewAppError(ErrorCodeForbidden, message, http.StatusForbidden)
	err.Severity = SeverityWarning
	return err
}

// NewVIPRequiredError is returned when non-VIP users request VIP content
func NewVIPRequiredError(contentType, id string) *AppError {
	err := NewAppError(ErrorCodeVIPRequired, "an active VIP subscription is required", http.StatusForbidden).
		WithContext("content_type", contentType).
		WithContext("id", id).
		WithUserMessage("This title is reserved for VIP members.")
	err.Severity = SeverityInfo
	return err
}

// NewRateLimitError creates a throttling error with a retry hint
func NewRateLimitError(message string, retryAfter time.Duration) *AppError {
	err := NewAppError(ErrorCodeRateLimit, message, http.StatusTooManyRequests).WithRetryAfter(retryAfter)
	err.Severity = SeverityInfo
	return err
}

// NewUpstreamError wraps a failure from an external service
func NewUpstreamError(service string, cause error) *AppError {
	err := NewAppErrorWithCause(ErrorCodeUpstream, fmt.Sprintf("%s request failed", service), http.StatusBadGateway, cause)
	err.WithContext("service", service)
	return err
}

// NewPaymentError wraps a billing provider failure
func NewPaymentError(message string, cause error) *AppError {
	return NewAppErrorWithCause(ErrorCodePayment, message, http.StatusPaymentRequired, cause)
}

// HTTPStatusFromErrorCode maps error codes to HTTP status codes
func HTTPStatusFromErrorCode(code ErrorCode) int {
	switch code {
	case ErrorCodeValidation:
		return http.StatusBadRequest
	case ErrorCodeUnauthorized, ErrorCodeInvalidCredentials, ErrorCodeTokenExpired, ErrorCodeAccountDisabled:
		return http.StatusUnauthorized
	case ErrorCodeForbidden, ErrorCodeVIPRequired:
		return http.StatusForbidden
	case ErrorCodeNotFound, ErrorCodeContentUnavailable:
		return http.StatusNotFound
	case ErrorCodeConflict:
		return http.StatusConflict
	case ErrorCodePayment:
		return http.StatusPaymentRequired
	case ErrorCodeRateLimit:
		return http.StatusTooManyRequests
	case ErrorCodeTimeout:
		return http.StatusGatewayTimeout
	case ErrorCodeCancelled:
		return http.StatusRequestTimeout
	case ErrorCodeUpstream:
		return http.StatusBadGateway
	case ErrorCodeUpstreamUnavailable, ErrorCodeBillingDisabled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// AsAppError finds an AppError anywhere in err's chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsCode reports whether err carries the given code
func IsCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Retryable
	}
	return false
}

// GetRetryAfter gets the retry-after duration from an error
func GetRetryAfter(err error) *time.Duration {
	if appErr, ok := AsAppError(err); ok {
		return appErr.RetryAfter
	}
	return nil
}

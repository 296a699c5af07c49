// Package api provides the JSON error envelope and helpers shared by all handlers
package api

import (
	"errors"
	"math"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/streamflow/internal/database"
	"github.com/mantonx/streamflow/internal/logger"
	"github.com/mantonx/streamflow/internal/telemetry"
	"github.com/mantonx/streamflow/internal/types"
	"gorm.io/gorm"
)

// ErrorResponse represents the standard error response format
type ErrorResponse struct {
	Error   ErrorDetails `json:"error"`
	Success bool         `json:"success"`
}

// ErrorDetails contains detailed error information
type ErrorDetails struct {
	Code        string                 `json:"code"`
	Message     string                 `json:"message"`
	Details     string                 `json:"details,omitempty"`
	UserMessage string                 `json:"user_message,omitempty"`
	Retryable   bool                   `json:"retryable"`
	RetryAfter  int                    `json:"retry_after,omitempty"` // seconds
	Context     map[string]interface{} `json:"context,omitempty"`
	RequestID   string                 `json:"request_id,omitempty"`
}

// RespondWithError sends a structured error response
func RespondWithError(c *gin.Context, err error) {
	requestID := c.GetString(RequestIDKey)
	if requestID == "" {
		requestID = c.GetHeader("X-Request-ID")
	}

	// Check if it's an AppError
	var appErr *types.AppError
	if errors.As(err, &appErr) {
		// Use the structured error information
		response := ErrorResponse{
			Success: false,
			Error: ErrorDetails{
				Code:        string(appErr.Code),
				Message:     appErr.Message,
				Details:     appErr.Details,
				UserMessage: appErr.UserMessage,
				Retryable:   appErr.Retryable,
				Context:     appErr.Context,
				RequestID:   requestID,
			},
		}

		if appErr.RetryAfter != nil {
			seconds := int(math.Ceil(appErr.RetryAfter.Seconds()))
			response.Error.RetryAfter = seconds
			c.Header("Retry-After", strconv.Itoa(seconds))
		}

		logError(appErr, requestID)
		if appErr.Severity == types.SeverityCritical {
			telemetry.CaptureError(appErr, map[string]string{
				"code":       string(appErr.Code),
				"path":       c.FullPath(),
				"request_id": requestID,
			})
		}

		c.JSON(appErr.HTTPStatus, response)
		return
	}

	// Driver errors that escaped a repository
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		RespondWithError(c, types.NewAppErrorWithCause(types.ErrorCodeNotFound, "resource not found", http.StatusNotFound, err))
		return
	case database.IsUniqueViolation(err):
		RespondWithError(c, types.NewAppErrorWithCause(types.ErrorCodeConflict, "resource already exists", http.StatusConflict, err))
		return
	}

	// Handle generic errors
	httpStatus := http.StatusInternalServerError
	errorCode := types.ErrorCodeInternal

	// Try to determine error type from error message
	errMsg := err.Error()
	switch {
	case strings.Contains(errMsg, "not found"):
		httpStatus = http.StatusNotFound
		errorCode = types.ErrorCodeNotFound
	case strings.Contains(errMsg, "invalid") || strings.Contains(errMsg, "required"):
		httpStatus = http.StatusBadRequest
		errorCode = types.ErrorCodeValidation
	case strings.Contains(errMsg, "timeout"):
		httpStatus = http.StatusGatewayTimeout
		errorCode = types.ErrorCodeTimeout
	case strings.Contains(errMsg, "cancelled") || strings.Contains(errMsg, "canceled"):
		httpStatus = http.StatusRequestTimeout
		errorCode = types.ErrorCodeCancelled
	}

	if httpStatus == http.StatusInternalServerError {
		// Internal details stay in the logs
		telemetry.CaptureError(err, map[string]string{"path": c.FullPath(), "request_id": requestID})
		errMsg = "internal server error"
	}

	response := ErrorResponse{
		Success: false,
		Error: ErrorDetails{
			Code:      string(errorCode),
			Message:   errMsg,
			RequestID: requestID,
		},
	}

	logger.Error("unstructured error", "error", err, "request_id", requestID)
	c.JSON(httpStatus, response)
}

// RespondWithAppError sends a structured AppError response
func RespondWithAppError(c *gin.Context, code types.ErrorCode, message string, httpStatus int) {
	appErr := types.NewAppError(code, message, httpStatus)
	RespondWithError(c, appErr)
}

// RespondWithValidationError sends a validation error response
func RespondWithValidationError(c *gin.Context, message string, details ...string) {
	appErr := types.NewValidationError(message, details...)
	RespondWithError(c, appErr)
}

// RespondWithNotFound sends a not found error response
func RespondWithNotFound(c *gin.Context, resource string, id string) {
	appErr := types.NewNotFoundError(resource, id)
	RespondWithError(c, appErr)
}

// RespondWithInternalError sends an internal error response
func RespondWithInternalError(c *gin.Context, message string, cause error) {
	appErr := types.NewInternalError(message, cause)
	RespondWithError(c, appErr)
}

// logError logs the error with appropriate severity
func logError(err *types.AppError, requestID string) {
	fields := []interface{}{
		"error_code", err.Code,
		"error_message", err.Message,
		"request_id", requestID,
	}

	if err.Details != "" {
		fields = append(fields, "details", err.Details)
	}

	if err.Context != nil {
		for k, v := range err.Context {
			fields = append(fields, k, v)
		}
	}

	if err.Cause != nil {
		fields = append(fields, "cause", err.Cause.Error())
	}

	switch err.Severity {
	case types.SeverityCritical:
		logger.Error("critical error", fields...)
	case types.SeverityError:
		logger.Error("error occurred", fields...)
	case types.SeverityWarning:
		logger.Warn("warning", fields...)
	case types.SeverityInfo:
		logger.Info("info", fields...)
	default:
		logger.Error("error occurred", fields...)
	}
}

// ErrorMiddleware is a middleware that recovers from panics and handles errors
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				// Convert panic to error
				var err error
				switch v := r.(type) {
				case error:
					err = v
				case string:
					err = errors.New(v)
				default:
					err = errors.New("unknown panic")
				}

				appErr := types.NewInternalError("panic recovered", err)

				logger.Error("panic recovered",
					"error", err,
					"request_path", c.Request.URL.Path,
					"request_method", c.Request.Method,
					"stack", string(debug.Stack()),
				)
				telemetry.CapturePanic(r, c.Request)

				// Not reported twice
				appErr.Severity = types.SeverityError
				RespondWithError(c, appErr)
				c.Abort()
			}
		}()

		c.Next()
	}
}

package helpers

import (
	"errors"
	"fmt"
	"net/http"

	"nepse-observer/src/logger"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type NepseError struct {
	Message string
	Cause   error
}

func (e *NepseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *NepseError) Unwrap() error {
	return e.Cause
}

// Distinct error types for errors.As
type ConfigurationError struct{ NepseError }
type DataSourceError struct{ NepseError }
type DatabaseError struct{ NepseError }
type ValidationError struct{ NepseError }

// NetworkError is a failed upstream call. StatusCode is 0 for transport errors.
type NetworkError struct {
	NepseError
	StatusCode int
}

func NewNetworkError(message string, status int, cause error) *NetworkError {
	return &NetworkError{NepseError: NepseError{Message: message, Cause: cause}, StatusCode: status}
}

func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{NepseError{Message: fmt.Sprintf(format, args...)}}
}

func NewDatabaseError(message string, cause error) *DatabaseError {
	return &DatabaseError{NepseError{Message: message, Cause: cause}}
}

func NewDataSourceError(message string, cause error) *DataSourceError {
	return &DataSourceError{NepseError{Message: message, Cause: cause}}
}

// -----------------------------------------------------------------------------

// FetchError is the terminal outcome of FetchWithRetry after every attempt failed.
type FetchError struct {
	Operation string
	Attempts  int
	Cause     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s failed after %d attempts: %v", e.Operation, e.Attempts, e.Cause)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// -----------------------------------------------------------------------------

// StatusCode digs the upstream HTTP status out of err, or returns fallback.
func StatusCode(err error, fallback int) int {
	var netErr *NetworkError
	if errors.As(err, &netErr) && netErr.StatusCode >= http.StatusBadRequest {
		return netErr.StatusCode
	}
	return fallback
}

// -----------------------------------------------------------------------------
// Error Handler
// -----------------------------------------------------------------------------

type ErrorHandler struct {
	Logger *logger.Logger
}

func NewErrorHandler(log *logger.Logger) *ErrorHandler {
	if log == nil {
		log = logger.NewLogger(nil, "ErrorHandler")
	}
	return &ErrorHandler{Logger: log}
}

// -----------------------------------------------------------------------------

// Handle logs err for best-effort operations where the caller carries on.
func (e *ErrorHandler) Handle(err error, context string) {
	if err == nil {
		return
	}

	var cfgErr *ConfigurationError
	var valErr *ValidationError
	switch {
	case errors.As(err, &cfgErr):
		e.Logger.Error("Configuration error in %s: %v", context, err)
	case errors.As(err, &valErr):
		e.Logger.Warning("Rejected input in %s: %v", context, err)
	default:
		e.Logger.Error("Error in %s: %v", context, err)
	}
}

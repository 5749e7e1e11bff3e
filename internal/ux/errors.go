package ux

import (
	"errors"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/eventpro/internal/api"
	apperrors "github.com/felixgeelhaar/eventpro/internal/errors"
)

// ErrorWithSuggestion wraps an error with helpful recovery suggestions
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

// Error implements the error interface
func (e *ErrorWithSuggestion) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%v\n\n💡 Suggestion: %s", e.Err, e.Suggestion)
	}
	return e.Err.Error()
}

// Unwrap provides access to the underlying error
func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// NewErrorWithSuggestion creates a new error with a suggestion
func NewErrorWithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: suggestion,
	}
}

// EnhanceError analyzes an error and adds contextual suggestions.
// Coded errors already carry their own suggestions and pass through as is.
func EnhanceError(err error) error {
	if err == nil {
		return nil
	}

	var coded *apperrors.AppError
	if errors.As(err, &coded) && len(coded.Suggestions) > 0 {
		return err
	}

	var reqErr *api.RequestError
	if errors.As(err, &reqErr) {
		switch {
		case reqErr.IsNetwork():
			return NewErrorWithSuggestion(err,
				"Check your network connection, or point EVENTPRO_API_URL at a reachable backend")
		case reqErr.IsAuthorization():
			return NewErrorWithSuggestion(err,
				"Your session may have expired: run 'eventpro auth logout' then 'eventpro auth login'")
		case reqErr.IsNotFound():
			return NewErrorWithSuggestion(err,
				"Run 'eventpro events list' to see valid IDs")
		case reqErr.Kind == api.KindContract || reqErr.Kind == api.KindDecode:
			return NewErrorWithSuggestion(err,
				"The backend answered with an unexpected payload; set api.validate_responses=false to skip the contract check")
		}
	}

	errMsg := err.Error()

	// File errors
	if strings.Contains(errMsg, "no such file or directory") && strings.Contains(errMsg, "config.yaml") {
		return NewErrorWithSuggestion(err,
			"Create a configuration with 'eventpro config set api.url <url>'")
	}

	// Permission errors
	if strings.Contains(errMsg, "permission denied") {
		return NewErrorWithSuggestion(err,
			"Check permissions on the EventPro home directory (EVENTPRO_HOME, default ~/.eventpro)")
	}

	// Network errors
	if strings.Contains(errMsg, "connection refused") || strings.Contains(errMsg, "no route to host") {
		return NewErrorWithSuggestion(err,
			"Check your network connection and firewall settings")
	}

	// Redis session backend
	if strings.Contains(errMsg, "redis") {
		return NewErrorWithSuggestion(err,
			"Check session.redis.addr, or use --session-backend file")
	}

	return err
}

// FormatError provides consistent error formatting with context
func FormatError(err error, context string) error {
	if err == nil {
		return nil
	}

	enhanced := EnhanceError(err)
	if context != "" {
		return fmt.Errorf("%s: %w", context, enhanced)
	}
	return enhanced
}

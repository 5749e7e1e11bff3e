package errors

import (
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Authentication errors (AUTH-001 to AUTH-099)
	ErrCodeNotLoggedIn        ErrorCode = "AUTH-001"
	ErrCodeLoginFailed        ErrorCode = "AUTH-002"
	ErrCodeRegisterFailed     ErrorCode = "AUTH-003"
	ErrCodeUnauthorized       ErrorCode = "AUTH-004"
	ErrCodeRoleRequired       ErrorCode = "AUTH-005"
	ErrCodeCredentialsMissing ErrorCode = "AUTH-006"

	// Request errors (REQ-001 to REQ-099)
	ErrCodeRequestFailed  ErrorCode = "REQ-001"
	ErrCodeRequestInvalid ErrorCode = "REQ-002"
	ErrCodeNotFound       ErrorCode = "REQ-003"
	ErrCodeContract       ErrorCode = "REQ-004"

	// Network errors (NET-001 to NET-099)
	ErrCodeNetworkUnreachable ErrorCode = "NET-001"
	ErrCodeNetworkTimeout     ErrorCode = "NET-002"

	// Session storage errors (STORE-001 to STORE-099)
	ErrCodeStoreRead    ErrorCode = "STORE-001"
	ErrCodeStoreWrite   ErrorCode = "STORE-002"
	ErrCodeStoreBackend ErrorCode = "STORE-003"

	// Configuration errors (CONFIG-001 to CONFIG-099)
	ErrCodeConfigInvalid  ErrorCode = "CONFIG-001"
	ErrCodeConfigRead     ErrorCode = "CONFIG-002"
	ErrCodeConfigWrite    ErrorCode = "CONFIG-003"
	ErrCodeConfigKeyUnset ErrorCode = "CONFIG-004"
)

const docsBase = "https://github.com/felixgeelhaar/eventpro"

// AppError represents an enhanced error with code, suggestions, and documentation
type AppError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	DocsURL     string
	Cause       error
}

// Error implements the error interface
func (e *AppError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	if e.DocsURL != "" {
		b.WriteString(fmt.Sprintf("\n\nDocumentation: %s", e.DocsURL))
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Category returns the code prefix (AUTH, REQ, NET, ...)
func (e *AppError) Category() string {
	code := string(e.Code)
	if i := strings.IndexByte(code, '-'); i > 0 {
		return code[:i]
	}
	return code
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new AppError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *AppError) WithSuggestion(suggestion string) *AppError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *AppError) WithSuggestions(suggestions ...string) *AppError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// WithDocs adds a documentation URL to the error
func (e *AppError) WithDocs(url string) *AppError {
	e.DocsURL = url
	return e
}

// NewNotLoggedInError is returned when a protected command runs without a token
func NewNotLoggedInError() *AppError {
	return New(ErrCodeNotLoggedIn, "not logged in").
		WithSuggestion("Run 'eventpro auth login' to authenticate").
		WithSuggestion("Check EVENTPRO_HOME if you logged in with a different profile")
}

// NewRoleRequiredError is returned when the stored role does not match the route
func NewRoleRequiredError(role, route string) *AppError {
	return New(ErrCodeRoleRequired, fmt.Sprintf("%s role required for %s", role, route)).
		WithSuggestion("Run 'eventpro dashboard' to see what you can access").
		WithSuggestion("Ask an administrator to grant you the role")
}

// NewUnauthorizedError wraps a 401/403 response from the backend
func NewUnauthorizedError(cause error) *AppError {
	return Wrap(ErrCodeUnauthorized, "the backend rejected the stored credentials", cause).
		WithSuggestion("Your token may be expired or revoked").
		WithSuggestion("Run 'eventpro auth logout' then 'eventpro auth login'").
		WithDocs(docsBase + "#authentication")
}

// NewNetworkError wraps a transport failure
func NewNetworkError(baseURL string, cause error) *AppError {
	return Wrap(ErrCodeNetworkUnreachable, fmt.Sprintf("backend unreachable: %s", baseURL), cause).
		WithSuggestion("Check your network connection").
		WithSuggestion("Set EVENTPRO_API_URL if the backend moved").
		WithDocs(docsBase + "#configuration")
}

// NewStoreError wraps a session storage failure
func NewStoreError(code ErrorCode, backend string, cause error) *AppError {
	return Wrap(code, fmt.Sprintf("session storage (%s) failed", backend), cause).
		WithSuggestion("Check permissions on the EventPro home directory").
		WithSuggestion("Use --session-backend memory to run without persistence")
}

// NewConfigInvalidError creates a configuration validation error
func NewConfigInvalidError(details string) *AppError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", details)).
		WithSuggestion("Run 'eventpro config view' to inspect the effective configuration").
		WithDocs(docsBase + "#configuration")
}

package api

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Messages used when the backend gives no usable explanation.
const (
	DefaultErrorMessage  = "request failed"
	NetworkErrorMessage  = "could not reach the server"
	InvalidResponseError = "invalid response from server"
)

// Error kinds, used as metric labels and for exit code mapping.
const (
	KindNetwork  = "network"
	KindAuth     = "auth"
	KindClient   = "client"
	KindServer   = "server"
	KindDecode   = "decode"
	KindContract = "contract"
	KindCanceled = "canceled"
)

// ErrorResponse is the failure body the backend sends
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// RequestError is returned for every failed call: non-2xx responses,
// transport failures and undecodable bodies. Message is safe to show to
// the user as-is.
type RequestError struct {
	Method string
	Path   string
	// Status is zero when no response was received.
	Status  int
	Message string
	Kind    string
	Err     error
}

// Error implements the error interface
func (e *RequestError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Method, e.Path, e.Message, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Message)
}

// Unwrap returns the underlying transport or decode error
func (e *RequestError) Unwrap() error {
	return e.Err
}

// IsAuthorization reports a 401 or 403 response
func (e *RequestError) IsAuthorization() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// IsNotFound reports a 404 response
func (e *RequestError) IsNotFound() bool {
	return e.Status == http.StatusNotFound
}

// IsNetwork reports that no response was received
func (e *RequestError) IsNetwork() bool {
	return e.Kind == KindNetwork
}

// Message extracts a user-facing message from any error. RequestErrors
// yield their backend message; anything else yields DefaultErrorMessage.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var reqErr *RequestError
	if stderrors.As(err, &reqErr) && reqErr.Message != "" {
		return reqErr.Message
	}
	return DefaultErrorMessage
}

func kindForStatus(status int) string {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	case status >= 500:
		return KindServer
	default:
		return KindClient
	}
}

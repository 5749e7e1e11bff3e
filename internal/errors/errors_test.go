package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeNotLoggedIn, "test error message")

	if err.Code != ErrCodeNotLoggedIn {
		t.Errorf("expected code %s, got %s", ErrCodeNotLoggedIn, err.Code)
	}

	if err.Message != "test error message" {
		t.Errorf("expected message 'test error message', got '%s'", err.Message)
	}

	if err.Cause != nil {
		t.Errorf("expected nil cause, got %v", err.Cause)
	}
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("underlying error")
	err := Wrap(ErrCodeStoreRead, "failed to read session", cause)

	if err.Cause != cause {
		t.Errorf("expected cause to be set")
	}

	if !errors.Is(err, cause) {
		t.Errorf("Wrap should support errors.Is")
	}
}

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		wantCode string
		wantMsg  string
	}{
		{
			name:     "simple error",
			err:      New(ErrCodeRequestInvalid, "invalid request"),
			wantCode: "REQ-002",
			wantMsg:  "invalid request",
		},
		{
			name:     "error with cause",
			err:      Wrap(ErrCodeStoreWrite, "write failed", fmt.Errorf("permission denied")),
			wantCode: "STORE-002",
			wantMsg:  "permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errStr := tt.err.Error()

			if !strings.Contains(errStr, tt.wantCode) {
				t.Errorf("error string should contain code %s, got: %s", tt.wantCode, errStr)
			}

			if !strings.Contains(errStr, tt.wantMsg) {
				t.Errorf("error string should contain message '%s', got: %s", tt.wantMsg, errStr)
			}
		})
	}
}

func TestSuggestionsAndDocs(t *testing.T) {
	err := New(ErrCodeLoginFailed, "login failed").
		WithSuggestion("first").
		WithSuggestions("second", "third").
		WithDocs("https://example.com/docs")

	if len(err.Suggestions) != 3 {
		t.Fatalf("expected 3 suggestions, got %d", len(err.Suggestions))
	}

	errStr := err.Error()
	for _, want := range []string{"Suggestions:", "• second", "Documentation: https://example.com/docs"} {
		if !strings.Contains(errStr, want) {
			t.Errorf("error string should contain %q, got: %s", want, errStr)
		}
	}
}

func TestCategory(t *testing.T) {
	tests := map[ErrorCode]string{
		ErrCodeNotLoggedIn:        "AUTH",
		ErrCodeNetworkUnreachable: "NET",
		ErrCodeStoreBackend:       "STORE",
		ErrorCode("plain"):        "plain",
	}

	for code, want := range tests {
		if got := New(code, "x").Category(); got != want {
			t.Errorf("Category(%s) = %s, want %s", code, got, want)
		}
	}
}

func TestCommonConstructors(t *testing.T) {
	cause := fmt.Errorf("status 401")

	tests := []struct {
		name string
		err  *AppError
		code ErrorCode
	}{
		{"not logged in", NewNotLoggedInError(), ErrCodeNotLoggedIn},
		{"role required", NewRoleRequiredError("ADMIN", "/events/edit/1"), ErrCodeRoleRequired},
		{"unauthorized", NewUnauthorizedError(cause), ErrCodeUnauthorized},
		{"network", NewNetworkError("http://localhost", cause), ErrCodeNetworkUnreachable},
		{"store", NewStoreError(ErrCodeStoreRead, "file", cause), ErrCodeStoreRead},
		{"config", NewConfigInvalidError("bad url"), ErrCodeConfigInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, tt.err.Code)
			}
			if len(tt.err.Suggestions) == 0 {
				t.Error("expected at least one suggestion")
			}
		})
	}
}

package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldPrompt(t *testing.T) {
	tests := []struct {
		name        string
		envVars     map[string]string
		interactive bool
		wantPrompt  bool
	}{
		{"terminal outside CI", nil, true, true},
		{"piped stdin", nil, false, false},
		{"GitHub Actions", map[string]string{"GITHUB_ACTIONS": "true"}, true, false},
		{"GitLab CI", map[string]string{"GITLAB_CI": "true"}, true, false},
		{"Jenkins", map[string]string{"JENKINS_URL": "http://jenkins.local"}, true, false},
		{"Generic CI", map[string]string{"CI": "true"}, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			getenv := func(k string) string { return tt.envVars[k] }
			got := shouldPrompt(getenv, func() bool { return tt.interactive })
			assert.Equal(t, tt.wantPrompt, got)
		})
	}
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, validateEmail("a@b.com"))
	assert.EqualError(t, validateEmail("  "), "email is required")
	assert.Error(t, validateEmail("not-an-address"))
}

func TestPromptCredentialsSkipsFilledFields(t *testing.T) {
	in := Credentials{Email: "a@b.com", Password: "x"}
	got, err := PromptCredentials(in)
	assert.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestPromptRegistrationSkipsFilledFields(t *testing.T) {
	in := Registration{Name: "A", Email: "a@b.com", Password: "x", Role: "ADMIN"}
	got, err := PromptRegistration(in)
	assert.NoError(t, err)
	assert.Equal(t, in, got)
}

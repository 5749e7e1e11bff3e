package tui

import (
	"errors"
	"fmt"
	"net/mail"
	"os"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/felixgeelhaar/eventpro/pkg/eventpro/types"
)

// Credentials are the values collected by the login form
type Credentials struct {
	Email    string
	Password string
}

// Registration are the values collected by the register form
type Registration struct {
	Name     string
	Email    string
	Password string
	Role     types.Role
}

func validateEmail(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("email is required")
	}
	if _, err := mail.ParseAddress(s); err != nil {
		return errors.New("not a valid email address")
	}
	return nil
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

// PromptCredentials asks for the fields of c that are still empty
func PromptCredentials(c Credentials) (Credentials, error) {
	var fields []huh.Field
	if c.Email == "" {
		fields = append(fields, huh.NewInput().
			Title("Email").
			Placeholder("you@example.com").
			Validate(validateEmail).
			Value(&c.Email))
	}
	if c.Password == "" {
		fields = append(fields, huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Validate(required("password")).
			Value(&c.Password))
	}
	if len(fields) == 0 {
		return c, nil
	}

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return c, fmt.Errorf("prompt failed: %w", err)
	}
	c.Email = strings.TrimSpace(c.Email)
	return c, nil
}

// PromptRegistration asks for the fields of r that are still empty
func PromptRegistration(r Registration) (Registration, error) {
	var fields []huh.Field
	role := string(r.Role)
	if r.Name == "" {
		fields = append(fields, huh.NewInput().Title("Name").Validate(required("name")).Value(&r.Name))
	}
	if r.Email == "" {
		fields = append(fields, huh.NewInput().Title("Email").Validate(validateEmail).Value(&r.Email))
	}
	if r.Password == "" {
		fields = append(fields, huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Validate(required("password")).
			Value(&r.Password))
	}
	if r.Role == "" {
		role = string(types.RoleUser)
		fields = append(fields, huh.NewSelect[string]().
			Title("Role").
			Options(
				huh.NewOption("User", string(types.RoleUser)),
				huh.NewOption("Admin", string(types.RoleAdmin)),
			).
			Value(&role))
	}
	if len(fields) == 0 {
		return r, nil
	}

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return r, fmt.Errorf("prompt failed: %w", err)
	}
	r.Email = strings.TrimSpace(r.Email)
	r.Role = types.Role(role)
	return r, nil
}

// PromptForConfirmation displays a yes/no confirmation prompt
func PromptForConfirmation(message string, defaultValue bool) (bool, error) {
	confirmed := defaultValue

	confirm := huh.NewConfirm().
		Title(message).
		Value(&confirmed)

	form := huh.NewForm(huh.NewGroup(confirm))

	if err := form.Run(); err != nil {
		return false, fmt.Errorf("prompt failed: %w", err)
	}

	return confirmed, nil
}

// IsInteractive returns true if stdin is a terminal (not piped)
func IsInteractive() bool {
	fileInfo, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// ShouldPrompt returns true if prompts should be shown based on environment
// Prompts are disabled in CI environments or when stdin is not a terminal
func ShouldPrompt() bool {
	return shouldPrompt(os.Getenv, IsInteractive)
}

func shouldPrompt(getenv func(string) string, interactive func() bool) bool {
	ciEnvVars := []string{
		"CI",
		"GITHUB_ACTIONS",
		"GITLAB_CI",
		"JENKINS_URL",
		"BUILDKITE",
	}

	for _, envVar := range ciEnvVars {
		if getenv(envVar) != "" {
			return false
		}
	}

	return interactive()
}

package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/eventpro/internal/api"
	"github.com/felixgeelhaar/eventpro/internal/auth"
	"github.com/felixgeelhaar/eventpro/internal/tui"
	"github.com/felixgeelhaar/eventpro/internal/ux"
	"github.com/felixgeelhaar/eventpro/pkg/eventpro/types"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Log in, log out and inspect the stored session",
	Long: `Manage your EventPro login.

The token and user returned by the backend are stored together in
$EVENTPRO_HOME/session.json (or the configured session backend) and sent
as a bearer token with every later request.

Examples:
  eventpro auth login --email you@example.com
  eventpro auth register --name Ada --email ada@example.com
  eventpro auth status --verify
  eventpro auth logout`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in with email and password",
	Long: `Log in with your email and password. Missing values are prompted for
when running in a terminal. Use --password-stdin to pipe the password.`,
	Args: cobra.NoArgs,
	RunE: runAuthLogin,
}

var authRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	Long: `Create an EventPro account. If the backend does not log the new user in
directly, pass --login to log in with the new credentials right away.`,
	Args: cobra.NoArgs,
	RunE: runAuthRegister,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored token and user",
	Args:  cobra.NoArgs,
	RunE:  runAuthLogout,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show who is logged in",
	Long: `Show the stored session. JWT claims are decoded for display only.
With --verify the backend profile is fetched to confirm the token still works.`,
	Args: cobra.NoArgs,
	RunE: runAuthStatus,
}

func init() {
	authLoginCmd.Flags().String("email", "", "account email")
	authLoginCmd.Flags().String("password", "", "account password (prefer --password-stdin)")
	authLoginCmd.Flags().Bool("password-stdin", false, "read the password from stdin")

	authRegisterCmd.Flags().String("name", "", "display name")
	authRegisterCmd.Flags().String("email", "", "account email")
	authRegisterCmd.Flags().String("password", "", "account password (prefer --password-stdin)")
	authRegisterCmd.Flags().Bool("password-stdin", false, "read the password from stdin")
	authRegisterCmd.Flags().String("role", "", "USER or ADMIN (default USER)")
	authRegisterCmd.Flags().Bool("login", false, "log in after registering")

	authStatusCmd.Flags().Bool("verify", false, "check the token against the backend")

	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authRegisterCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)

	rootCmd.AddCommand(authCmd)
}

// readPassword returns the password flag, or the first line of stdin with
// --password-stdin
func readPassword(cmd *cobra.Command) (string, error) {
	password, _ := cmd.Flags().GetString("password")
	fromStdin, _ := cmd.Flags().GetBool("password-stdin")
	if !fromStdin {
		return password, nil
	}
	if password != "" {
		return "", fmt.Errorf("--password and --password-stdin are mutually exclusive")
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("failed to read password from stdin: %w", err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	app := appFrom(cmd)

	email, _ := cmd.Flags().GetString("email")
	password, err := readPassword(cmd)
	if err != nil {
		return err
	}

	if (email == "" || password == "") && shouldPrompt() {
		creds, err := tui.PromptCredentials(tui.Credentials{Email: email, Password: password})
		if err != nil {
			return err
		}
		email, password = creds.Email, creds.Password
	}

	sess, err := app.Auth.Login(cmd.Context(), email, password)
	if err != nil {
		return err
	}

	return app.Render(ux.Message{
		Text: fmt.Sprintf("Logged in as %s (%s)", displayName(sess.User), sess.User.Role),
		Data: sess.User,
	})
}

func runAuthRegister(cmd *cobra.Command, args []string) error {
	app := appFrom(cmd)

	name, _ := cmd.Flags().GetString("name")
	email, _ := cmd.Flags().GetString("email")
	roleFlag, _ := cmd.Flags().GetString("role")
	autoLogin, _ := cmd.Flags().GetBool("login")
	password, err := readPassword(cmd)
	if err != nil {
		return err
	}
	role, err := types.ParseRole(roleFlag)
	if err != nil {
		return err
	}

	if (name == "" || email == "" || password == "") && shouldPrompt() {
		reg, err := tui.PromptRegistration(tui.Registration{Name: name, Email: email, Password: password, Role: role})
		if err != nil {
			return err
		}
		name, email, password, role = reg.Name, reg.Email, reg.Password, reg.Role
	}
	if role == "" {
		role = types.RoleUser
	}

	sess, err := app.Auth.Register(cmd.Context(), api.RegisterRequest{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     role,
	}, autoLogin)
	if err != nil {
		return err
	}

	if sess == nil {
		return app.Render(ux.Message{Text: fmt.Sprintf("Account created for %s; run 'eventpro auth login' to sign in", email)})
	}
	return app.Render(ux.Message{
		Text: fmt.Sprintf("Account created; logged in as %s (%s)", displayName(sess.User), sess.User.Role),
		Data: sess.User,
	})
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	app := appFrom(cmd)
	if err := app.Auth.Logout(cmd.Context()); err != nil {
		return err
	}
	return app.Render(ux.Message{Text: "Logged out"})
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	app := appFrom(cmd)
	verify, _ := cmd.Flags().GetBool("verify")
	return app.Render(statusView(app.Auth.Status(cmd.Context(), verify)))
}

// statusView renders auth.Status as text; JSON and YAML encode it as is
type statusView auth.Status

func (s statusView) Payload() any { return auth.Status(s) }

func (s statusView) RenderText(w io.Writer, _ *ux.FormatterOptions) error {
	if !s.Authenticated {
		_, err := fmt.Fprintf(w, "Not logged in (session backend: %s)\n", s.Backend)
		return err
	}

	fmt.Fprintf(w, "Logged in as %s\n", displayName(s.User))
	fmt.Fprintf(w, "  Role:     %s\n", s.User.Role)
	if s.User.Email != "" {
		fmt.Fprintf(w, "  Email:    %s\n", s.User.Email)
	}
	fmt.Fprintf(w, "  Backend:  %s\n", s.Backend)
	if s.Claims != nil && !s.Claims.ExpiresAt.IsZero() {
		state := "valid until"
		if s.Expired {
			state = "expired at"
		}
		fmt.Fprintf(w, "  Token:    %s %s\n", state, s.Claims.ExpiresAt.Local().Format(time.RFC1123))
	}
	switch {
	case s.Profile != nil:
		fmt.Fprintln(w, "  Verified: backend accepted the token")
	case s.ProfileError != "":
		fmt.Fprintf(w, "  Verified: no (%s)\n", s.ProfileError)
	}
	return nil
}

func displayName(u types.User) string {
	switch {
	case u.Name != "":
		return u.Name
	case u.Email != "":
		return u.Email
	case u.ID != "":
		return "user " + u.ID
	}
	return "unknown user"
}

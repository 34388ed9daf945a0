package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// ---------- login ----------

func newLoginCmd(h *appHolder) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in with the shared admin secret",
		Long: `Prompt for the admin secret, confirm it against the server and start a local
session. Piped input is read as the secret, e.g.

  printf '%s' "$ADMIN_TOKEN" | lead-admin login`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, h.app)
		},
	}
}

func runLogin(cmd *cobra.Command, a *app) error {
	secret, err := a.readSecret("Admin secret: ")
	if err != nil {
		return fmt.Errorf("failed to read secret: %w", err)
	}

	s, err := a.sessions.Login(cmd.Context(), secret)
	if err != nil {
		return a.remoteError(err)
	}

	color.New(color.FgGreen).Fprintln(a.out, "Logged in.")
	fmt.Fprintf(a.out, "  Idle expiry:  %s\n", s.ExpiresAt.Local().Format(time.Kitchen))
	return nil
}

// ---------- logout ----------

func newLogoutCmd(h *appHolder) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the local session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := h.app.sessions.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(h.app.out, "Logged out.")
			return nil
		},
	}
}

// ---------- status ----------

func newStatusCmd(h *appHolder) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the local session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(h.app)
		},
	}
}

func runStatus(a *app) error {
	s, err := a.sessions.Check()
	if err != nil {
		return sessionError(err)
	}

	const layout = "Jan 02 15:04:05"
	cyan := color.New(color.FgCyan)
	cyan.Fprintln(a.out, "Session active")
	fmt.Fprintf(a.out, "  Started:      %s\n", s.CreatedAt.Local().Format(layout))
	fmt.Fprintf(a.out, "  Last active:  %s\n", s.LastActiveAt.Local().Format(layout))
	fmt.Fprintf(a.out, "  Idle expiry:  %s\n", s.ExpiresAt.Local().Format(layout))
	return nil
}

// readSecret prompts on errOut. A terminal gets a no-echo prompt; anything
// else is read up to the first newline.
func readSecret(in io.Reader, errOut io.Writer, prompt string) (string, error) {
	if f, ok := stdinFile(in); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(errOut, prompt)
		raw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(errOut)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

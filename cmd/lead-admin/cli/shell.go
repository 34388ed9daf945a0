package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newShellCmd(h *appHolder) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive review session",
		Long: `Start an interactive prompt for the current session. Commands are the same
as the leads subcommands (list, set-status) plus status, logout, help and exit.
The session is checked every poll interval; when it expires the shell exits
with a notice.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd.Context(), h)
		},
	}
}

func runShell(ctx context.Context, h *appHolder) error {
	a := h.app
	if err := a.activity(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	expired := make(chan struct{})
	go a.sessions.Watch(ctx, func() { close(expired) })

	lines := make(chan string)
	scanDone := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(a.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanDone <- scanner.Err()
	}()

	fmt.Fprintln(a.out, "Type help for commands, exit to quit.")
	prompt := color.New(color.FgCyan)
	for {
		prompt.Fprint(a.out, "leads> ")

		select {
		case <-ctx.Done():
			fmt.Fprintln(a.out)
			return nil
		case <-expired:
			fmt.Fprintln(a.out)
			color.New(color.FgYellow).Fprintln(a.out, "Session expired. Run `lead-admin login` to sign in again.")
			return nil
		case err := <-scanDone:
			fmt.Fprintln(a.out)
			return err
		case line := <-lines:
			done, err := runShellLine(ctx, h, line)
			if err != nil {
				color.New(color.FgRed).Fprintf(a.errOut, "error: %v\n", err)
			}
			if done {
				return nil
			}
		}
	}
}

// runShellLine executes one prompt line on a fresh command tree so flag
// values never leak between lines. It reports whether the shell should exit.
func runShellLine(ctx context.Context, h *appHolder, line string) (bool, error) {
	args := strings.Fields(line)
	if len(args) == 0 {
		return false, nil
	}
	switch args[0] {
	case "exit", "quit":
		return true, nil
	}

	root := &cobra.Command{
		Use:           "shell",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.AddCommand(
		newLeadsListCmd(h),
		newLeadsSetStatusCmd(h),
		newLeadsCmd(h),
		newStatusCmd(h),
		newLogoutCmd(h),
	)
	root.SetArgs(args)
	root.SetIn(h.app.in)
	root.SetOut(h.app.out)
	root.SetErr(h.app.errOut)

	if err := root.ExecuteContext(ctx); err != nil {
		return false, err
	}
	return args[0] == "logout", nil
}

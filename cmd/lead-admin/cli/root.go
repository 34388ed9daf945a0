// Package cli implements lead-admin, the operator's terminal client for
// reviewing franchise leads.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"franchise-leads/internal/adminclient"
	"franchise-leads/internal/common/config"
	"franchise-leads/internal/common/logger"
	"franchise-leads/internal/session"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configFile  string
	sessionFile string
	serverURL   string
	verbose     bool
}

// app carries everything a command needs. It is built once per process in
// the root command's PersistentPreRunE.
type app struct {
	sessions *session.Manager
	client   *adminclient.Client
	in       io.Reader
	out      io.Writer
	errOut   io.Writer

	// readSecret prompts for the admin secret without echoing it.
	readSecret func(prompt string) (string, error)
}

type appFactory func(opts *rootOptions, cmd *cobra.Command) (*app, error)

// appHolder lets subcommands be constructed before the app exists.
type appHolder struct {
	app *app
}

// Execute creates the root command tree and runs it.
func Execute(version string) error {
	return newRootCmd(version, defaultApp).Execute()
}

func newRootCmd(version string, build appFactory) *cobra.Command {
	opts := &rootOptions{}
	h := &appHolder{}

	cmd := &cobra.Command{
		Use:   "lead-admin",
		Short: "Review franchise leads from the terminal",
		Long: `lead-admin signs in with the shared admin secret and lets an operator list
franchise leads and triage them by interest status.

The local session idles out after 30 minutes without activity and ends after
8 hours regardless. The server checks the secret on every request.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if h.app != nil {
				return nil
			}
			a, err := build(opts, cmd)
			if err != nil {
				return err
			}
			h.app = a
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default is ./configs/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.sessionFile, "session-file", "", "session file (default is <user config dir>/lead-admin/session.json)")
	cmd.PersistentFlags().StringVar(&opts.serverURL, "server", "", "lead server base URL (overrides session.server_url)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log session events to stderr")

	cmd.AddCommand(newLoginCmd(h))
	cmd.AddCommand(newLogoutCmd(h))
	cmd.AddCommand(newStatusCmd(h))
	cmd.AddCommand(newLeadsCmd(h))
	cmd.AddCommand(newShellCmd(h))

	return cmd
}

func defaultApp(opts *rootOptions, cmd *cobra.Command) (*app, error) {
	cfg, err := config.LoadClient(opts.configFile)
	if err != nil {
		return nil, err
	}

	level := "error"
	if opts.verbose {
		level = "debug"
	}
	log := logger.NewStructured(level, "console", "stderr")

	path := opts.sessionFile
	if path == "" {
		path = cfg.Session.File
	}
	if path == "" {
		if path, err = session.DefaultPath(); err != nil {
			return nil, err
		}
	}

	serverURL := cfg.Session.ServerURL
	if opts.serverURL != "" {
		serverURL = opts.serverURL
	}

	return newApp(appConfig{
		ServerURL: serverURL,
		Store:     session.NewFileStore(path),
		Options: session.Options{
			IdleTimeout:  config.GetDuration(cfg.Session.IdleTimeout),
			MaxAge:       config.GetDuration(cfg.Session.MaxAge),
			PollInterval: config.GetDuration(cfg.Session.PollInterval),
		},
		In:     cmd.InOrStdin(),
		Out:    cmd.OutOrStdout(),
		ErrOut: cmd.ErrOrStderr(),
	}, log), nil
}

type appConfig struct {
	ServerURL string
	Timeout   time.Duration
	Store     session.Store
	Options   session.Options
	In        io.Reader
	Out       io.Writer
	ErrOut    io.Writer
}

func newApp(cfg appConfig, log logger.Logger) *app {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	var sessions *session.Manager
	client := adminclient.New(cfg.ServerURL, cfg.Timeout, func() (string, error) {
		return sessions.Token()
	})
	sessions = session.NewManager(cfg.Store, client, cfg.Options, log)

	a := &app{
		sessions: sessions,
		client:   client,
		in:       cfg.In,
		out:      cfg.Out,
		errOut:   cfg.ErrOut,
	}
	a.readSecret = func(prompt string) (string, error) {
		return readSecret(a.in, a.errOut, prompt)
	}
	return a
}

// activity records an operator action against the session. It checks
// expiry first so that an idle session is evicted rather than revived.
func (a *app) activity() error {
	if _, err := a.sessions.Check(); err != nil {
		return sessionError(err)
	}
	return a.sessions.Touch()
}

// remoteError turns a server rejection of the stored secret into a local
// logout, since the session can no longer do anything useful.
func (a *app) remoteError(err error) error {
	if errors.Is(err, adminclient.ErrUnauthorized) {
		_ = a.sessions.Logout()
		return fmt.Errorf("the server rejected the admin secret; you have been logged out")
	}
	return sessionError(err)
}

func sessionError(err error) error {
	switch {
	case errors.Is(err, session.ErrSessionExpired):
		return fmt.Errorf("your session expired; run `lead-admin login` to sign in again")
	case errors.Is(err, session.ErrNotLoggedIn):
		return fmt.Errorf("not logged in; run `lead-admin login` first")
	}
	return err
}

// stdinFile reports the reader as an *os.File when it is one, so that
// terminal prompts can disable echo.
func stdinFile(r io.Reader) (*os.File, bool) {
	f, ok := r.(*os.File)
	return f, ok
}

package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"shortdash-cli/internal/api"
	"shortdash-cli/internal/config"
	"shortdash-cli/internal/format"
	"shortdash-cli/internal/logging"
	"shortdash-cli/internal/session"
	"shortdash-cli/internal/tui"

	"github.com/spf13/cobra"
)

type App struct {
	APIURL     string
	Token      string
	Role       string
	Access     string
	Format     string
	PrettyJSON bool
	LogLevel   string

	cfg      *config.Config
	log      *slog.Logger
	closeLog func() error
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "shortdash",
		Short:        "Admin dashboard (TUI + CLI) for the link, QR code and file-sharing backend",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive dashboard
  shortdash

  # Scriptable commands
  shortdash links list --search alice --format table

  # Act on one item
  shortdash files reset-counter 42

  # Direct lookup (shortcut for: shortdash links show 42)
  shortdash links/42
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive dashboard.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return writeErr(cmd, err)
		}
		if u := strings.TrimSpace(app.APIURL); u != "" {
			cfg.APIURL = u
			if err := cfg.Validate(); err != nil {
				return writeErr(cmd, err)
			}
		}
		if lvl := strings.TrimSpace(app.LogLevel); lvl != "" {
			cfg.LogLevel = lvl
		}
		app.cfg = cfg

		opts := logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile, W: cmd.ErrOrStderr()}
		if cmd == cmd.Root() && opts.File == "" {
			// The dashboard owns the terminal; keep its log out of the way.
			opts.File = tuiLogPath(cfg)
		}
		log, closeLog, err := logging.New(opts)
		if err != nil {
			return writeErr(cmd, err)
		}
		app.log, app.closeLog = log, closeLog
		return nil
	}

	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if app.closeLog != nil {
			return app.closeLog()
		}
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.APIURL, "api-url", envOr("SHORTDASH_API_URL", ""), "Backend API base URL (default from config)")
	cmd.PersistentFlags().StringVar(&app.Token, "token", envOr("SHORTDASH_TOKEN", ""), "Bearer token (overrides the stored session)")
	cmd.PersistentFlags().StringVar(&app.Role, "role", envOr("SHORTDASH_ROLE", ""), "Role (admin|super_admin); overrides the token's claim")
	cmd.PersistentFlags().StringVar(&app.Access, "access", envOr("SHORTDASH_ACCESS", ""), "Access descriptor for admins (JSON array or {\"permissions\":[...]})")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("SHORTDASH_FORMAT", "json"), "Output format (json|table)")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", "", "Log level (debug|info|warn|error)")

	cmd.AddCommand(newDocsCmd(app))
	cmd.AddCommand(newSessionCmd(app))
	cmd.AddCommand(newNavCmd(app))
	cmd.AddCommand(newOverviewCmd(app))
	cmd.AddCommand(newPlansCmd(app))
	cmd.AddCommand(newUsersCmd(app))
	cmd.AddCommand(newLinksCmd(app))
	cmd.AddCommand(newQRCodesCmd(app))
	cmd.AddCommand(newFilesCmd(app))
	cmd.AddCommand(newSubscriptionsCmd(app))
	cmd.AddCommand(newTransactionsCmd(app))
	cmd.AddCommand(newPostsCmd(app))
	cmd.AddCommand(newNotifyCmd(app))

	return cmd
}

func tuiLogPath(cfg *config.Config) string {
	return filepath.Join(cfg.Dir, "shortdash.log")
}

func runTUI(app *App) error {
	sess, err := resolveSession(app)
	if err != nil {
		return err
	}
	client, err := api.ForSession(app.cfg, sess, app.log)
	if err != nil {
		return err
	}
	return tui.Run(tui.Options{
		Config:  app.cfg,
		Session: sess,
		Client:  client,
		Log:     app.log,
	})
}

// resolveSession merges the stored session with --token/--role/--access.
func resolveSession(app *App) (session.Session, error) {
	stored, err := session.Load(app.cfg.Dir)
	if err != nil && !errors.Is(err, session.ErrNoSession) {
		return session.Session{}, err
	}
	return session.Resolve(stored, session.Overrides{
		Token:  app.Token,
		Role:   app.Role,
		Access: app.Access,
	})
}

// connect resolves the session and builds its client. The session must be
// allowed to see the nav item named key ("" skips the check).
func connect(app *App, key string) (session.Session, *api.Client, error) {
	sess, err := resolveSession(app)
	if err != nil {
		return session.Session{}, nil, err
	}
	if !sess.Privileged() {
		return session.Session{}, nil, errNotPrivileged(sess)
	}
	if key != "" {
		if item, ok := session.FindNav(key); ok && !sess.CanSee(item) {
			return session.Session{}, nil, errForbidden(sess, key)
		}
	}
	client, err := api.ForSession(app.cfg, sess, app.log)
	if err != nil {
		return session.Session{}, nil, err
	}
	return sess, client, nil
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

// writeResult prints env as JSON, or tbl when the table format is selected.
func writeResult(cmd *cobra.Command, app *App, env any, tbl format.Table) error {
	if app.Format == "table" {
		return writeOut(cmd, app, tbl)
	}
	return writeOut(cmd, app, env)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), api.Message(err))
	return err
}

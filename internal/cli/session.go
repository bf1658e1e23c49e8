package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"shortdash-cli/internal/session"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newSessionCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Show or store the identity used for API calls",
	}
	cmd.AddCommand(newSessionShowCmd(app))
	cmd.AddCommand(newSessionSetCmd(app))
	cmd.AddCommand(newSessionClearCmd(app))
	return cmd
}

func newSessionShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective session (stored session + flags + token claims)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := resolveSession(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeSession(cmd, app, sess, "")
		},
	}
}

func newSessionSetCmd(app *App) *cobra.Command {
	var name, email string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store a session (token read from --token, SHORTDASH_TOKEN or a prompt)",
		Long: strings.TrimSpace(`
Store the session used by later commands and by the dashboard.

Role, name, email and access are read from the token's claims when present; the
--role, --name, --email and --access flags override them.
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token := strings.TrimSpace(app.Token)
			if token == "" {
				t, err := readToken(cmd)
				if err != nil {
					return writeErr(cmd, err)
				}
				token = t
			}
			if token == "" {
				return writeErr(cmd, errUsage("missing token"))
			}

			sess, err := session.Resolve(session.Session{}, session.Overrides{
				Token:  token,
				Role:   app.Role,
				Name:   name,
				Email:  email,
				Access: app.Access,
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			if !sess.Privileged() {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: role %q has no dashboard access\n", sess.Role)
			}
			if err := session.Save(app.cfg.Dir, sess); err != nil {
				return writeErr(cmd, err)
			}
			app.log.Info("session stored", "role", sess.Role, "path", session.Path(app.cfg.Dir))
			return writeSession(cmd, app, sess, session.Path(app.cfg.Dir))
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	return cmd
}

func newSessionClearCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := session.Clear(app.cfg.Dir); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"cleared": true}})
		},
	}
}

// readToken prompts without echo on a terminal and reads one line otherwise.
func readToken(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Token: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func writeSession(cmd *cobra.Command, app *App, s session.Session, path string) error {
	perms := s.Access.Permissions
	if perms == nil {
		perms = []string{}
	}
	data := map[string]any{
		"role":       string(s.Role),
		"name":       s.Name,
		"email":      s.Email,
		"access":     perms,
		"token":      maskToken(s.Token),
		"privileged": s.Privileged(),
	}
	if c, err := session.ParseClaims(s.Token); err == nil && !c.ExpiresAt.IsZero() {
		data["expiresAt"] = c.ExpiresAt.UTC().Format(time.RFC3339)
		data["expired"] = c.Expired(time.Now())
	}
	if path != "" {
		data["path"] = path
	}

	tbl := tableOf([]string{"Field", "Value"})
	tbl.Rows = append(tbl.Rows,
		[]string{"Label", s.Label()},
		[]string{"Token", maskToken(s.Token)},
		[]string{"Access", strings.Join(perms, ", ")},
	)
	return writeResult(cmd, app, map[string]any{"data": data}, tbl)
}

func maskToken(t string) string {
	t = strings.TrimSpace(t)
	switch {
	case t == "":
		return ""
	case len(t) <= 8:
		return "****"
	default:
		return t[:4] + "…" + t[len(t)-4:]
	}
}

package cli

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"shortdash-cli/internal/broadcast"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newNotifyCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notify",
		Aliases: []string{"notifications"},
		Short:   "Broadcast notifications to users",
	}
	cmd.AddCommand(newNotifySendCmd(app))
	cmd.AddCommand(newNotifyHistoryCmd(app))
	return cmd
}

func newNotifySendCmd(app *App) *cobra.Command {
	f := broadcast.NewForm()

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a notification",
		Example: strings.TrimSpace(`
  shortdash notify send --title "Maintenance" --message "Back at 22:00" --type warning
  shortdash notify send --audience user --user 42 --title "Hi" --message "Your plan was upgraded"
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Validate before connecting so a bad form never needs a session.
			if err := f.Validate(); err != nil {
				return writeValidation(cmd, err)
			}
			sess, client, err := connect(app, "notifications")
			if err != nil {
				return writeErr(cmd, err)
			}
			n, err := broadcast.NewService(client, sess).Send(cmd.Context(), f)
			if err != nil {
				return writeValidation(cmd, err)
			}
			app.log.Info("notification sent", "id", n.ID, "audience", n.Audience, "recipients", n.Recipients)

			tbl := tableOf([]string{"ID", "Title", "Audience", "Recipients"})
			tbl.Rows = append(tbl.Rows, []string{n.ID, n.Title, n.Audience, humanize.Comma(int64(n.Recipients))})
			return writeResult(cmd, app, map[string]any{"data": n}, tbl)
		},
	}

	cmd.Flags().StringVar(&f.Title, "title", "", fmt.Sprintf("Title (max %d characters)", broadcast.MaxTitle))
	cmd.Flags().StringVar(&f.Message, "message", "", fmt.Sprintf("Message (max %d characters)", broadcast.MaxMessage))
	cmd.Flags().StringVar(&f.Type, "type", f.Type, "Type ("+strings.Join(broadcast.Types, "|")+")")
	cmd.Flags().StringVar(&f.Audience, "audience", f.Audience, "Audience ("+strings.Join(broadcast.Audiences, "|")+")")
	cmd.Flags().StringVar(&f.UserID, "user", "", "Recipient user id (audience user)")
	cmd.Flags().StringVar(&f.Link, "link", "", "Optional http(s) link")
	return cmd
}

// writeValidation prints one line per invalid field, or the error itself.
func writeValidation(cmd *cobra.Command, err error) error {
	var ve *broadcast.ValidationError
	if !errors.As(err, &ve) {
		return writeErr(cmd, err)
	}
	fields := make([]string, 0, len(ve.Fields))
	for k := range ve.Fields {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	for _, k := range fields {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", k, ve.Fields[k])
	}
	return err
}

func newNotifyHistoryCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List sent notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, client, err := connect(app, "notifications")
			if err != nil {
				return writeErr(cmd, err)
			}
			hist, err := broadcast.NewService(client, sess).History(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			tbl := tableOf([]string{"ID", "Title", "Type", "Audience", "Recipients", "Sent by", "Sent"})
			for _, n := range hist {
				tbl.Rows = append(tbl.Rows, []string{
					n.ID, n.Title, n.Type, n.Audience,
					humanize.Comma(int64(n.Recipients)), n.SentBy.Name, humanize.Time(n.CreatedAt),
				})
			}
			return writeResult(cmd, app, map[string]any{"data": hist, "meta": map[string]any{"count": len(hist)}}, tbl)
		},
	}
}

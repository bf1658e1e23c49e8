package cli

import (
	"shortdash-cli/internal/resources"

	"github.com/spf13/cobra"
)

func newNavCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "nav",
		Short: "List the dashboard screens the current session may open",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := resolveSession(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			items := sess.VisibleNav()
			out := make([]map[string]string, 0, len(items))
			tbl := tableOf([]string{"Key", "Title"})
			for _, it := range items {
				out = append(out, map[string]string{"key": it.Key, "title": it.Title})
				tbl.Rows = append(tbl.Rows, []string{it.Key, it.Title})
			}
			return writeResult(cmd, app, map[string]any{"data": out}, tbl)
		},
	}
}

func newPlansCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "plans",
		Short: "List subscription plans (targets of change-plan)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, client, err := connect(app, "")
			if err != nil {
				return writeErr(cmd, err)
			}
			plans, err := resources.FetchPlans(cmd.Context(), client)
			if err != nil {
				return writeErr(cmd, err)
			}
			tbl := tableOf([]string{"ID", "Name", "Price", "Interval"})
			for _, p := range plans {
				tbl.Rows = append(tbl.Rows, []string{p.ID, p.Name, resources.Price(p.Price), p.Interval})
			}
			return writeResult(cmd, app, map[string]any{"data": plans}, tbl)
		},
	}
}

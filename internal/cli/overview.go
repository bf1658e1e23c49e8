package cli

import (
	"fmt"
	"sort"
	"strings"

	"shortdash-cli/internal/resources"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newOverviewCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "overview",
		Short: "Count items per resource and status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, client, err := connect(app, "overview")
			if err != nil {
				return writeErr(cmd, err)
			}
			rows, err := resources.Overview(cmd.Context(), sess, client)
			if err != nil {
				return writeErr(cmd, err)
			}

			tbl := tableOf([]string{"Resource", "Count", "By status"})
			for _, r := range rows {
				tbl.Rows = append(tbl.Rows, []string{r.Title, humanize.Comma(int64(r.Count)), statusSummary(r.ByStatus)})
			}
			return writeResult(cmd, app, map[string]any{"data": rows}, tbl)
		},
	}
}

func statusSummary(m map[string]int) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s %d", k, m[k]))
	}
	return strings.Join(parts, ", ")
}

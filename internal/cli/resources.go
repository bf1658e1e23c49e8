package cli

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"shortdash-cli/internal/api"
	"shortdash-cli/internal/format"
	"shortdash-cli/internal/listsync"
	"shortdash-cli/internal/model"
	"shortdash-cli/internal/resources"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newUsersCmd(app *App) *cobra.Command {
	return newResourceCmd(app, resources.Users())
}

func newLinksCmd(app *App) *cobra.Command {
	return newResourceCmd(app, resources.Links())
}

func newQRCodesCmd(app *App) *cobra.Command {
	cmd := newResourceCmd(app, resources.QRCodes())
	cmd.Aliases = []string{"qr"}
	cmd.AddCommand(newQRDownloadCmd(app))
	return cmd
}

func newFilesCmd(app *App) *cobra.Command {
	return newResourceCmd(app, resources.Files())
}

func newSubscriptionsCmd(app *App) *cobra.Command {
	return newResourceCmd(app, resources.Subscriptions())
}

func newTransactionsCmd(app *App) *cobra.Command {
	return newResourceCmd(app, resources.Transactions())
}

func newPostsCmd(app *App) *cobra.Command {
	return newResourceCmd(app, resources.Posts())
}

var actionShort = map[listsync.Kind]string{
	listsync.KindDelete:        "Delete an item",
	listsync.KindExtendExpiry:  "Set a new expiry date",
	listsync.KindClearExpiry:   "Remove the expiry date",
	listsync.KindResetCounter:  "Reset the download counter",
	listsync.KindReplay:        "Replay payment verification",
	listsync.KindMarkSuccess:   "Mark a payment as successful",
	listsync.KindTogglePublish: "Publish or unpublish a post",
	listsync.KindToggleStatus:  "Activate or deactivate a user",
	listsync.KindChangePlan:    "Change a user's plan",
	listsync.KindUpdateFields:  "Edit name and email",
}

var actionAliases = map[listsync.Kind][]string{
	listsync.KindReplay:       {"replay"},
	listsync.KindExtendExpiry: {"extend"},
	listsync.KindClearExpiry:  {"clear"},
	listsync.KindResetCounter: {"reset"},
}

type resourceCmd[T any] struct {
	app *App
	def *resources.Def[T]
}

func newResourceCmd[T any](app *App, def *resources.Def[T]) *cobra.Command {
	r := resourceCmd[T]{app: app, def: def}
	cmd := &cobra.Command{
		Use:   def.Key,
		Short: "List and manage " + strings.ToLower(def.Title),
	}
	cmd.AddCommand(r.listCmd())
	cmd.AddCommand(r.showCmd())
	for _, k := range def.SupportedKinds() {
		cmd.AddCommand(r.actionCmd(k))
	}
	return cmd
}

// open connects and loads the full list once.
func (r resourceCmd[T]) open(cmd *cobra.Command, onChange func(listsync.Event)) (*listsync.Synchronizer[T], error) {
	sess, client, err := connect(r.app, r.def.Key)
	if err != nil {
		return nil, err
	}
	s := listsync.New(r.def.Resource, client, sess, listsync.Options{
		Locale:   r.app.cfg.Locale,
		Log:      r.app.log,
		OnChange: onChange,
	})
	if err := s.Refresh(cmd.Context()); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (r resourceCmd[T]) listCmd() *cobra.Command {
	var search string
	var filters []string
	var allTime bool
	var owners bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List " + strings.ToLower(r.def.Title),
		Long: strings.TrimSpace(fmt.Sprintf(`
List %s matching the search term and filters.

Filters (--filter name=value, repeatable): %s.
Date filters take YYYY-MM-DD and include the whole day. "all" clears a filter.
`, strings.ToLower(r.def.Title), strings.Join(r.def.FilterNames(), ", "))),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := r.def.DefaultFilters(time.Now())
			if allTime {
				f = f.With(listsync.FilterDateFrom, listsync.All).With(listsync.FilterDateTo, listsync.All)
			}
			for _, kv := range filters {
				name, value, ok := strings.Cut(kv, "=")
				name = strings.TrimSpace(name)
				if !ok || name == "" {
					return writeErr(cmd, errUsage("invalid --filter %q (want name=value)", kv))
				}
				if !r.knownFilter(name) {
					return writeErr(cmd, errUsage("unknown filter %q for %s (known: %s)", name, r.def.Key, strings.Join(r.def.FilterNames(), ", ")))
				}
				f = f.With(name, strings.TrimSpace(value))
			}
			f = f.WithSearch(search)

			s, err := r.open(cmd, nil)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			if owners {
				return r.writeOwners(cmd, s.DistinctUsers())
			}

			snap := s.Snapshot()
			view := s.View(f)
			tbl := tableOf(append([]string{"ID"}, r.def.Headers()...))
			for _, it := range view {
				tbl.Rows = append(tbl.Rows, append([]string{r.def.ID(it)}, r.def.Row(it)...))
			}
			env := map[string]any{
				"data": view,
				"meta": map[string]any{
					"count":   len(view),
					"total":   len(snap.Items),
					"search":  f.Search,
					"filters": activeFilters(f),
				},
			}
			return writeResult(cmd, r.app, env, tbl)
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "Case-insensitive search term")
	cmd.Flags().StringArrayVar(&filters, "filter", nil, "Filter as name=value (repeatable)")
	cmd.Flags().BoolVar(&allTime, "all-time", false, "Drop the default date window")
	cmd.Flags().BoolVar(&owners, "owners", false, "List the distinct owners instead of the items")
	return cmd
}

func (r resourceCmd[T]) knownFilter(name string) bool {
	for _, n := range r.def.FilterNames() {
		if n == name {
			return true
		}
	}
	return false
}

func (r resourceCmd[T]) writeOwners(cmd *cobra.Command, users []model.User) error {
	tbl := tableOf([]string{"ID", "Name", "Email"})
	for _, u := range users {
		tbl.Rows = append(tbl.Rows, []string{u.ID, u.Name, u.Email})
	}
	return writeResult(cmd, r.app, map[string]any{"data": users, "meta": map[string]any{"count": len(users)}}, tbl)
}

func activeFilters(f listsync.Filters) map[string]string {
	out := map[string]string{}
	for k, v := range f.Values {
		if listsync.Active(v) {
			out[k] = v
		}
	}
	return out
}

func (r resourceCmd[T]) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			s, err := r.open(cmd, nil)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			item, ok := s.Item(id)
			if !ok {
				return writeErr(cmd, errNotFound(r.def.Key, id))
			}
			return writeResult(cmd, r.app, map[string]any{"data": item}, r.detailTable(item))
		},
	}
}

func (r resourceCmd[T]) detailTable(item T) format.Table {
	tbl := tableOf([]string{"Field", "Value"})
	for _, d := range r.def.Details(item) {
		tbl.Rows = append(tbl.Rows, []string{d.Label, d.Value})
	}
	return tbl
}

func (r resourceCmd[T]) actionCmd(kind listsync.Kind) *cobra.Command {
	var (
		yes   bool
		until string
		days  int
		plan  string
		name  string
		email string
	)

	cmd := &cobra.Command{
		Use:     string(kind) + " <id>",
		Aliases: actionAliases[kind],
		Short:   actionShort[kind],
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])

			var p listsync.Payload
			switch kind {
			case listsync.KindDelete:
				if !yes {
					return writeErr(cmd, errUsage("refusing to delete %s %s without --yes", r.def.Key, id))
				}
			case listsync.KindExtendExpiry:
				t, err := parseUntil(until, days, time.Now())
				if err != nil {
					return writeErr(cmd, err)
				}
				p.Until = t
			case listsync.KindUpdateFields:
				fields := map[string]string{}
				if v := strings.TrimSpace(name); v != "" {
					fields[resources.FieldName] = v
				}
				if v := strings.TrimSpace(email); v != "" {
					fields[resources.FieldEmail] = v
				}
				if len(fields) == 0 {
					return writeErr(cmd, errUsage("nothing to update: pass --name and/or --email"))
				}
				p.Fields = fields
			}

			var notice listsync.Notice
			s, err := r.open(cmd, func(ev listsync.Event) {
				if ev.Kind == listsync.EventNotice {
					notice = ev.Notice
				}
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			if kind == listsync.KindChangePlan {
				pp, err := r.planPayload(cmd, plan)
				if err != nil {
					return writeErr(cmd, err)
				}
				p = pp
			}

			if err := s.Dispatch(cmd.Context(), kind, id, p); err != nil {
				if errors.Is(err, listsync.ErrNotFound) {
					return writeErr(cmd, errNotFound(r.def.Key, id))
				}
				return writeErr(cmd, err)
			}

			meta := map[string]any{"action": string(kind), "notice": notice.Text}
			if item, ok := s.Item(id); ok {
				return writeResult(cmd, r.app, map[string]any{"data": item, "meta": meta}, r.detailTable(item))
			}
			tbl := tableOf([]string{"ID", "Result"})
			tbl.Rows = append(tbl.Rows, []string{id, notice.Text})
			return writeResult(cmd, r.app, map[string]any{"data": map[string]any{"id": id, "deleted": true}, "meta": meta}, tbl)
		},
	}

	switch kind {
	case listsync.KindDelete:
		cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the deletion")
	case listsync.KindExtendExpiry:
		cmd.Flags().StringVar(&until, "until", "", "New expiry date (YYYY-MM-DD)")
		cmd.Flags().IntVar(&days, "days", 0, "Expire this many days from now (instead of --until)")
	case listsync.KindChangePlan:
		cmd.Flags().StringVar(&plan, "plan", "", "Plan id or name")
		_ = cmd.MarkFlagRequired("plan")
	case listsync.KindUpdateFields:
		cmd.Flags().StringVar(&name, "name", "", "New display name")
		cmd.Flags().StringVar(&email, "email", "", "New email address")
	}
	return cmd
}

func (r resourceCmd[T]) planPayload(cmd *cobra.Command, key string) (listsync.Payload, error) {
	_, client, err := connect(r.app, "")
	if err != nil {
		return listsync.Payload{}, err
	}
	plans, err := resources.FetchPlans(cmd.Context(), client)
	if err != nil {
		return listsync.Payload{}, err
	}
	p, ok := resources.FindPlan(plans, key)
	if !ok {
		names := make([]string, 0, len(plans))
		for _, pl := range plans {
			names = append(names, pl.Name)
		}
		sort.Strings(names)
		return listsync.Payload{}, errUsage("unknown plan %q (available: %s)", key, strings.Join(names, ", "))
	}
	return resources.PlanPayload(p), nil
}

// parseUntil picks the expiry from --until or --days. The date must be in the future.
func parseUntil(until string, days int, now time.Time) (time.Time, error) {
	until = strings.TrimSpace(until)
	switch {
	case until != "" && days != 0:
		return time.Time{}, errUsage("pass either --until or --days, not both")
	case until != "":
		t, err := time.ParseInLocation(listsync.DateLayout, until, time.Local)
		if err != nil {
			return time.Time{}, errUsage("invalid --until %q (want YYYY-MM-DD)", until)
		}
		// The chosen day stays valid until its end.
		t = t.AddDate(0, 0, 1).Add(-time.Second)
		if !t.After(now) {
			return time.Time{}, errUsage("--until must be in the future")
		}
		return t, nil
	case days > 0:
		return now.AddDate(0, 0, days), nil
	default:
		return time.Time{}, errUsage("missing --until or --days")
	}
}

func newQRDownloadCmd(app *App) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "download <id>",
		Short: "Download a QR code image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			_, client, err := connect(app, "qrcodes")
			if err != nil {
				return writeErr(cmd, err)
			}
			blob, err := client.DownloadQRCode(cmd.Context(), id)
			if err != nil {
				if api.IsStatus(err, 404) {
					return writeErr(cmd, errNotFound("qrcodes", id))
				}
				return writeErr(cmd, err)
			}
			p, err := blob.Save(dir)
			if err != nil {
				return writeErr(cmd, err)
			}
			app.log.Info("qr code saved", "id", id, "path", p)

			tbl := tableOf([]string{"ID", "Path", "Size"})
			tbl.Rows = append(tbl.Rows, []string{id, p, humanize.Bytes(uint64(len(blob.Data)))})
			return writeResult(cmd, app, map[string]any{"data": map[string]any{
				"id":          id,
				"path":        p,
				"url":         api.FileURL(p),
				"contentType": blob.ContentType,
				"bytes":       len(blob.Data),
			}}, tbl)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "Directory to save into")
	return cmd
}

func tableOf(headers []string) format.Table {
	return format.Table{Headers: headers, Rows: [][]string{}}
}

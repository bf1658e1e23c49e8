// Package resources declares the dashboard's collections as thin configurations
// of listsync.Resource: the raw-to-view mapping, search fields, filter
// predicates, actions, and how items are shown as rows and details.
package resources

import (
	"context"
	"fmt"
	"strings"
	"time"

	"shortdash-cli/internal/api"
	"shortdash-cli/internal/listsync"
	"shortdash-cli/internal/model"
	"shortdash-cli/internal/viewmodel"

	"github.com/dustin/go-humanize"
)

// Def is one resource plus its presentation.
type Def[T any] struct {
	*listsync.Resource[T]
	// Key matches the session nav key.
	Key   string
	Title string
	// Status is the label the overview groups items by.
	Status  func(T) string
	Columns []Column[T]
	Details func(T) []Detail
	// Choices lists the values a filter cycles through. Free-form filters (dates,
	// ranges) are absent.
	Choices map[string][]string
}

type Column[T any] struct {
	Title string
	Width int
	Value func(T) string
}

type Detail struct {
	Label string
	Value string
}

// Keys lists every resource in navigation order.
var Keys = []string{"users", "links", "qrcodes", "files", "subscriptions", "transactions", "posts"}

// Row renders item with the def's columns.
func (d *Def[T]) Row(item T) []string {
	out := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		out[i] = c.Value(item)
	}
	return out
}

func (d *Def[T]) Headers() []string {
	out := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		out[i] = c.Title
	}
	return out
}

// Decode maps raw records through m. Finish, when set, fixes up derived fields.
func Decode[T any](m viewmodel.Mapping, raws []api.Record, finish func(*T)) ([]T, error) {
	items, err := viewmodel.DecodeAll[T](m, raws)
	if err != nil {
		return nil, err
	}
	if finish != nil {
		for i := range items {
			finish(&items[i])
		}
	}
	return items, nil
}

func fetcher[T any](get func(*api.Client, context.Context) ([]api.Record, error), m viewmodel.Mapping, finish func(*T)) func(context.Context, *api.Client) ([]T, error) {
	return func(ctx context.Context, c *api.Client) ([]T, error) {
		raws, err := get(c, ctx)
		if err != nil {
			return nil, err
		}
		return Decode(m, raws, finish)
	}
}

// PlanPayload is the change-plan payload for p.
func PlanPayload(p model.Plan) listsync.Payload {
	return listsync.Payload{PlanID: p.ID, Fields: map[string]string{"plan": p.Name}}
}

func planLabel(p listsync.Payload) string {
	if name := strings.TrimSpace(p.Fields["plan"]); name != "" {
		return name
	}
	return p.PlanID
}

// planName accepts either a plan name or a nested plan object.
func planName(v any) any {
	if m, ok := v.(map[string]any); ok {
		return viewmodel.NonEmpty(m["name"])
	}
	return viewmodel.NonEmpty(v)
}

func planID(v any) any {
	if m, ok := v.(map[string]any); ok {
		return viewmodel.String(m["id"])
	}
	return nil
}

// notNull is true for any present value; used for *_verified_at style timestamps.
func notNull(v any) any {
	return v != nil
}

const (
	StatusActive   = "active"
	StatusExpired  = "expired"
	StatusInactive = "inactive"
)

// expiryStatus reports expired for items whose expiry has passed, whatever the
// backend last computed.
func expiryStatus(status string, expires *time.Time, now time.Time) string {
	if expires != nil && expires.Before(now) {
		return StatusExpired
	}
	if status == "" {
		return StatusActive
	}
	return status
}

func owner(u model.User) string {
	if u.Email == "" {
		return u.Name
	}
	return u.Name + " <" + u.Email + ">"
}

func date(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.In(time.Local).Format("2006-01-02 15:04")
}

func optDate(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return date(*t)
}

func count(n int) string {
	return humanize.Comma(int64(n))
}

func money(amount float64, currency string) string {
	return strings.TrimSpace(humanize.CommafWithDigits(amount, 2) + " " + strings.ToUpper(currency))
}

// Price formats a plan price without currency.
func Price(amount float64) string {
	return humanize.CommafWithDigits(amount, 2)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func removeAction[T any](call func(*api.Client, context.Context, string) error, id func(T) string, done string) listsync.Action[T] {
	return listsync.Action[T]{
		Call: func(ctx context.Context, c *api.Client, item T, _ listsync.Payload) error {
			return call(c, ctx, id(item))
		},
		Remove: true,
		Done:   done,
	}
}

func requireUntil(p listsync.Payload) error {
	if p.Until.IsZero() {
		return fmt.Errorf("missing expiry date")
	}
	return nil
}

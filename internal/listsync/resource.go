package listsync

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"shortdash-cli/internal/api"
	"shortdash-cli/internal/model"
)

// Kind names a mutation a screen can dispatch.
type Kind string

const (
	KindDelete        Kind = "delete"
	KindExtendExpiry  Kind = "extend-expiry"
	KindClearExpiry   Kind = "clear-expiry"
	KindResetCounter  Kind = "reset-counter"
	KindReplay        Kind = "replay-verification"
	KindMarkSuccess   Kind = "mark-success"
	KindTogglePublish Kind = "toggle-publish"
	KindToggleStatus  Kind = "toggle-status"
	KindChangePlan    Kind = "change-plan"
	KindUpdateFields  Kind = "update-fields"
)

// Kinds lists every action kind in display order.
var Kinds = []Kind{
	KindDelete, KindExtendExpiry, KindClearExpiry, KindResetCounter, KindReplay,
	KindMarkSuccess, KindTogglePublish, KindToggleStatus, KindChangePlan, KindUpdateFields,
}

// Payload carries the arguments of an action. Each kind reads only its own field.
type Payload struct {
	Until  time.Time         // extend-expiry
	PlanID string            // change-plan
	Fields map[string]string // update-fields
}

// Transition is an optimistic status change: Optimistic is applied before the
// request, Rollback replaces it when the request fails.
type Transition struct {
	Optimistic string
	Rollback   string
}

// Transitions holds the only optimistic actions. Rollback targets are fixed
// values, not the status the item had before the action.
var Transitions = map[Kind]Transition{
	KindReplay:      {Optimistic: string(model.TransactionPending), Rollback: string(model.TransactionFailed)},
	KindMarkSuccess: {Optimistic: string(model.TransactionCompleted), Rollback: string(model.TransactionPending)},
}

// Action binds a kind to its endpoint and to the local patch applied on success.
type Action[T any] struct {
	Call func(ctx context.Context, c *api.Client, item T, p Payload) error
	// Remove drops the item from the list on success. Otherwise Apply patches it.
	Remove bool
	Apply  func(item *T, p Payload)
	// Done is the success notice.
	Done string
}

// Predicate reports whether item passes a filter set to value.
type Predicate[T any] func(item T, value string) bool

// Resource is everything the synchronizer needs to know about one collection.
type Resource[T any] struct {
	Name  string
	Fetch func(ctx context.Context, c *api.Client) ([]T, error)
	ID    func(T) string
	Owner func(T) model.User
	// Search fields, matched case-insensitively; any match passes.
	Search  []func(T) string
	Filters map[string]Predicate[T]
	Actions map[Kind]Action[T]
	// SetStatus is required by resources that declare optimistic actions.
	SetStatus func(item *T, status string)
	Defaults  func(now time.Time) Filters
}

func (r *Resource[T]) Supports(k Kind) bool {
	_, ok := r.Actions[k]
	return ok
}

// SupportedKinds returns the resource's actions in Kinds order.
func (r *Resource[T]) SupportedKinds() []Kind {
	var out []Kind
	for _, k := range Kinds {
		if r.Supports(k) {
			out = append(out, k)
		}
	}
	return out
}

// FilterNames returns the declared filter names, sorted.
func (r *Resource[T]) FilterNames() []string {
	out := make([]string, 0, len(r.Filters))
	for k := range r.Filters {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// DefaultFilters returns the initial filter state.
func (r *Resource[T]) DefaultFilters(now time.Time) Filters {
	if r.Defaults == nil {
		return Filters{}
	}
	return r.Defaults(now)
}

// Match reports whether item passes the search term and every active filter.
// Filters the resource does not declare are ignored.
func (r *Resource[T]) Match(item T, f Filters) bool {
	if term := strings.ToLower(strings.TrimSpace(f.Search)); term != "" {
		hit := false
		for _, field := range r.Search {
			if strings.Contains(strings.ToLower(field(item)), term) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	for name, value := range f.Values {
		if !Active(value) {
			continue
		}
		pred, ok := r.Filters[name]
		if !ok {
			continue
		}
		if !pred(item, strings.TrimSpace(value)) {
			return false
		}
	}
	return true
}

// Filter is the uncached O(n) scan behind Synchronizer.View. Order is preserved.
func Filter[T any](r *Resource[T], items []T, f Filters) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if r.Match(it, f) {
			out = append(out, it)
		}
	}
	return out
}

// Filters is the search term plus filter name to value. "all" and "" mean no
// constraint.
type Filters struct {
	Search string
	Values map[string]string
}

const All = "all"

func Active(value string) bool {
	v := strings.TrimSpace(value)
	return v != "" && v != All
}

// With returns a copy with name set to value.
func (f Filters) With(name, value string) Filters {
	vals := make(map[string]string, len(f.Values)+1)
	for k, v := range f.Values {
		vals[k] = v
	}
	vals[name] = value
	return Filters{Search: f.Search, Values: vals}
}

func (f Filters) WithSearch(term string) Filters {
	vals := make(map[string]string, len(f.Values))
	for k, v := range f.Values {
		vals[k] = v
	}
	return Filters{Search: term, Values: vals}
}

func (f Filters) Get(name string) string {
	if v, ok := f.Values[name]; ok {
		return v
	}
	return All
}

// key is a canonical form: two filter states with the same key select the same items.
func (f Filters) key() string {
	var b strings.Builder
	b.WriteString(strings.ToLower(strings.TrimSpace(f.Search)))
	names := make([]string, 0, len(f.Values))
	for k, v := range f.Values {
		if Active(v) {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	for _, k := range names {
		b.WriteByte(0)
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(strings.TrimSpace(f.Values[k]))
	}
	return b.String()
}

// Filter names shared by every resource.
const (
	FilterUserID   = "userId"
	FilterStatus   = "status"
	FilterType     = "type"
	FilterDateFrom = "dateFrom"
	FilterDateTo   = "dateTo"
	FilterMin      = "min"
	FilterMax      = "max"
)

const DateLayout = "2006-01-02"

// Equals matches when get(item) is exactly the filter value. Mappings
// lowercase enum-like fields, so chip values compare as-is; ids stay
// case-sensitive.
func Equals[T any](get func(T) string) Predicate[T] {
	return func(item T, value string) bool {
		return strings.TrimSpace(get(item)) == value
	}
}

// DateFrom keeps items on or after the local date in value. An unparsable
// value does not constrain.
func DateFrom[T any](get func(T) time.Time) Predicate[T] {
	return func(item T, value string) bool {
		from, err := time.ParseInLocation(DateLayout, value, time.Local)
		if err != nil {
			return true
		}
		return !get(item).Before(from)
	}
}

// DateTo keeps items on or before the local date in value, the whole day included.
func DateTo[T any](get func(T) time.Time) Predicate[T] {
	return func(item T, value string) bool {
		to, err := time.ParseInLocation(DateLayout, value, time.Local)
		if err != nil {
			return true
		}
		return get(item).Before(to.AddDate(0, 0, 1))
	}
}

func Min[T any](get func(T) float64) Predicate[T] {
	return func(item T, value string) bool {
		n, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return true
		}
		return get(item) >= n
	}
}

func Max[T any](get func(T) float64) Predicate[T] {
	return func(item T, value string) bool {
		n, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return true
		}
		return get(item) <= n
	}
}

// LastDays is the default date window: the n days up to and including now.
func LastDays(now time.Time, n int) map[string]string {
	now = now.In(time.Local)
	return map[string]string{
		FilterDateFrom: now.AddDate(0, 0, -n).Format(DateLayout),
		FilterDateTo:   now.Format(DateLayout),
	}
}

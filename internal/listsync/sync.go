// Package listsync keeps a local copy of one remote collection in sync with the
// backend: debounced fetches, an in-memory filter index, the distinct owners used
// by filter pickers, and action dispatch with optimistic status transitions.
//
// One Synchronizer serves one screen (or one CLI command) and owns its list.
package listsync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"shortdash-cli/internal/api"
	"shortdash-cli/internal/model"
	"shortdash-cli/internal/session"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const DefaultDebounce = 500 * time.Millisecond

var (
	ErrNotPrivileged = errors.New("listsync: role may not use the dashboard")
	ErrUnknownAction = errors.New("listsync: action not supported by resource")
	ErrNotFound      = errors.New("listsync: item not in list")
	ErrClosed        = errors.New("listsync: synchronizer closed")
)

type EventKind int

const (
	EventLoading EventKind = iota
	EventRefreshed
	EventFailed
	EventMutated
	EventNotice
)

func (k EventKind) String() string {
	switch k {
	case EventLoading:
		return "loading"
	case EventRefreshed:
		return "refreshed"
	case EventFailed:
		return "failed"
	case EventMutated:
		return "mutated"
	case EventNotice:
		return "notice"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Notice is a transient message for the user.
type Notice struct {
	Text  string
	Error bool
}

type Event struct {
	Kind     EventKind
	Resource string
	Notice   Notice
	Err      error
}

type Options struct {
	Debounce time.Duration
	// Locale orders DistinctUsers. Defaults to "fr".
	Locale string
	Log    *slog.Logger
	// OnChange is called outside the synchronizer's lock, possibly from the
	// debounce goroutine.
	OnChange func(Event)
}

// State is a snapshot of the synchronizer. Items is a copy.
type State[T any] struct {
	Items     []T
	Loading   bool
	Err       string
	Version   uint64
	FetchedAt time.Time
}

type Synchronizer[T any] struct {
	res      *Resource[T]
	client   *api.Client
	sess     session.Session
	log      *slog.Logger
	onChange func(Event)
	deb      *debouncer

	mu        sync.Mutex
	items     []T
	version   uint64
	inflight  int
	errMsg    string
	fetchedAt time.Time
	closed    bool

	viewKey   string
	viewVer   uint64
	viewValid bool
	view      []T

	usersVer   uint64
	usersValid bool
	users      []model.User
	collator   *collate.Collator
}

func New[T any](res *Resource[T], client *api.Client, sess session.Session, opts Options) *Synchronizer[T] {
	locale := opts.Locale
	if locale == "" {
		locale = "fr"
	}
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.French
	}
	log := opts.Log
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Synchronizer[T]{
		res:      res,
		client:   client,
		sess:     sess,
		log:      log.With("resource", res.Name),
		onChange: opts.OnChange,
		items:    []T{},
		collator: collate.New(tag),
	}
	s.deb = newDebouncer(opts.Debounce, func() {
		_ = s.Refresh(context.Background())
	})
	return s
}

func (s *Synchronizer[T]) Resource() *Resource[T] { return s.res }

// ScheduleRefresh asks for a fetch after the quiet period. Calls inside the
// period collapse into one fetch. Roles without dashboard access are ignored.
func (s *Synchronizer[T]) ScheduleRefresh() {
	if !s.sess.Privileged() {
		return
	}
	s.deb.Notify()
}

// Refresh fetches immediately. On failure the previous list is kept and the
// error message is stored for display.
//
// Overlapping refreshes are not cancelled; the last one to finish wins.
func (s *Synchronizer[T]) Refresh(ctx context.Context) error {
	if !s.sess.Privileged() {
		return ErrNotPrivileged
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.inflight++
	s.mu.Unlock()
	s.emit(Event{Kind: EventLoading})

	start := time.Now()
	items, err := s.res.Fetch(ctx, s.client)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.log.Debug("fetch finished after close", "dur", time.Since(start))
		return ErrClosed
	}
	s.inflight--
	if err != nil {
		s.errMsg = api.Message(err)
		s.mu.Unlock()
		s.log.Warn("fetch failed", "err", err)
		s.emit(Event{Kind: EventFailed, Err: err})
		return err
	}
	if items == nil {
		items = []T{}
	}
	s.items = items
	s.version++
	s.errMsg = ""
	s.fetchedAt = time.Now()
	n := len(items)
	s.mu.Unlock()
	s.log.Debug("fetched", "count", n, "dur", time.Since(start))
	s.emit(Event{Kind: EventRefreshed})
	return nil
}

// Close cancels a pending fetch. Fetches still in flight complete but no
// longer change state or notify.
func (s *Synchronizer[T]) Close() {
	s.deb.Stop()
	s.mu.Lock()
	s.closed = true
	s.inflight = 0
	s.mu.Unlock()
}

func (s *Synchronizer[T]) Snapshot() State[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State[T]{
		Items:     append([]T(nil), s.items...),
		Loading:   s.inflight > 0,
		Err:       s.errMsg,
		Version:   s.version,
		FetchedAt: s.fetchedAt,
	}
}

func (s *Synchronizer[T]) Item(id string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.items[i], true
	}
	var zero T
	return zero, false
}

// View returns the items passing f, in list order. The result is cached until
// the list or the filter state changes; callers must not modify it.
func (s *Synchronizer[T]) View(f Filters) []T {
	key := f.key()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.viewValid && s.viewVer == s.version && s.viewKey == key {
		return s.view
	}
	s.view = Filter(s.res, s.items, f)
	s.viewKey, s.viewVer, s.viewValid = key, s.version, true
	return s.view
}

// DistinctUsers lists item owners, deduplicated by id (first occurrence kept) and
// sorted by name with locale-aware collation. The result is a fresh copy.
func (s *Synchronizer[T]) DistinctUsers() []model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.usersValid || s.usersVer != s.version {
		s.users = distinctUsers(s.collator, s.res.Owner, s.items)
		s.usersVer, s.usersValid = s.version, true
	}
	return append([]model.User(nil), s.users...)
}

func distinctUsers[T any](c *collate.Collator, owner func(T) model.User, items []T) []model.User {
	if owner == nil {
		return []model.User{}
	}
	seen := make(map[string]struct{}, len(items))
	out := make([]model.User, 0, len(items))
	for _, it := range items {
		u := owner(it)
		if _, ok := seen[u.ID]; ok {
			continue
		}
		seen[u.ID] = struct{}{}
		out = append(out, u)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return c.CompareString(out[i].Name, out[j].Name) < 0
	})
	return out
}

// Dispatch runs one action against the item with the given id and applies the
// local mutation on success. Replay and mark-success set their optimistic
// status first and fall back to a fixed status on failure.
func (s *Synchronizer[T]) Dispatch(ctx context.Context, kind Kind, id string, p Payload) error {
	if !s.sess.Privileged() {
		return ErrNotPrivileged
	}
	act, ok := s.res.Actions[kind]
	if !ok {
		return fmt.Errorf("%w: %s %s", ErrUnknownAction, s.res.Name, kind)
	}

	tr, optimistic := Transitions[kind]
	optimistic = optimistic && s.res.SetStatus != nil

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s %q", ErrNotFound, s.res.Name, id)
	}
	item := s.items[i]
	if optimistic {
		s.res.SetStatus(&s.items[i], tr.Optimistic)
		s.version++
	}
	s.mu.Unlock()
	if optimistic {
		s.emit(Event{Kind: EventMutated})
	}

	err := act.Call(ctx, s.client, item, p)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return err
	}
	if err != nil {
		if optimistic {
			if j := s.indexLocked(id); j >= 0 {
				s.res.SetStatus(&s.items[j], tr.Rollback)
				s.version++
			}
		}
		s.mu.Unlock()
		s.log.Warn("action failed", "kind", kind, "id", id, "err", err)
		if optimistic {
			s.emit(Event{Kind: EventMutated})
		}
		s.emit(Event{Kind: EventNotice, Notice: Notice{Text: api.Message(err), Error: true}, Err: err})
		return err
	}
	if j := s.indexLocked(id); j >= 0 {
		switch {
		case act.Remove:
			s.items = append(s.items[:j:j], s.items[j+1:]...)
		case act.Apply != nil:
			act.Apply(&s.items[j], p)
		}
		s.version++
	}
	s.mu.Unlock()
	s.log.Info("action done", "kind", kind, "id", id)

	done := act.Done
	if done == "" {
		done = fmt.Sprintf("%s: %s done", s.res.Name, kind)
	}
	s.emit(Event{Kind: EventMutated})
	s.emit(Event{Kind: EventNotice, Notice: Notice{Text: done}})
	return nil
}

func (s *Synchronizer[T]) indexLocked(id string) int {
	for i, it := range s.items {
		if s.res.ID(it) == id {
			return i
		}
	}
	return -1
}

func (s *Synchronizer[T]) emit(ev Event) {
	if s.onChange == nil {
		return
	}
	ev.Resource = s.res.Name
	s.onChange(ev)
}

package tui

import (
	"context"
	"io"
	"log/slog"

	"shortdash-cli/internal/api"
	"shortdash-cli/internal/config"
	"shortdash-cli/internal/listsync"
	"shortdash-cli/internal/session"

	tea "github.com/charmbracelet/bubbletea"
)

type Options struct {
	Config  *config.Config
	Session session.Session
	Client  *api.Client
	Log     *slog.Logger
}

func Run(opts Options) error {
	applyColorProfilePreference()
	applyThemePreference()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	final, err := tea.NewProgram(newAppModel(ctx, opts), tea.WithAltScreen()).Run()
	if m, ok := final.(appModel); ok {
		m.closeScreen()
	}
	return err
}

// eventBuffer bounds synchronizer events waiting for the update loop. Events
// beyond it are dropped; screens re-read the snapshot on the next one anyway.
const eventBuffer = 256

// env is shared by every screen.
type env struct {
	ctx    context.Context
	cfg    *config.Config
	sess   session.Session
	client *api.Client
	log    *slog.Logger
	events chan listsync.Event
}

func newEnv(ctx context.Context, opts Options) *env {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Defaults()
	}
	log := opts.Log
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &env{
		ctx:    ctx,
		cfg:    cfg,
		sess:   opts.Session,
		client: opts.Client,
		log:    log,
		events: make(chan listsync.Event, eventBuffer),
	}
}

// onChange feeds synchronizer events into the update loop without blocking
// the synchronizer.
func (e *env) onChange(ev listsync.Event) {
	if e.events == nil {
		return
	}
	select {
	case e.events <- ev:
	default:
		e.log.Debug("dropped sync event", "resource", ev.Resource, "kind", ev.Kind)
	}
}

func waitForEvent(ch <-chan listsync.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return syncEventMsg{ev: ev}
	}
}

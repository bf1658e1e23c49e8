package tui

import (
	"context"
	"strings"
	"time"

	"shortdash-cli/internal/resources"
	"shortdash-cli/internal/session"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type navItem struct {
	item session.NavItem
}

var navDescriptions = map[string]string{
	"overview":      "Counts per resource and status",
	"users":         "Accounts, roles, plans and activation",
	"links":         "Short links and their expiry",
	"qrcodes":       "QR codes, expiry and image downloads",
	"files":         "Shared files, expiry and download counters",
	"subscriptions": "Plans subscribed by users",
	"transactions":  "Payments, verification replays",
	"notifications": "Broadcast a notification, sent history",
	"posts":         "Blog posts and publication",
	"docs":          "REST API reference",
}

func (n navItem) Title() string       { return n.item.Title }
func (n navItem) Description() string { return navDescriptions[n.item.Key] }
func (n navItem) FilterValue() string { return n.item.Title }

func newList(title string, items []list.Item) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	// The app renders its own header and footer.
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetShowPagination(false)
	l.SetFilteringEnabled(true)
	// esc is "back" everywhere.
	l.KeyMap.Quit.SetKeys("q")
	l.KeyMap.CursorUp.SetKeys(append(l.KeyMap.CursorUp.Keys(), "ctrl+p")...)
	l.KeyMap.CursorDown.SetKeys(append(l.KeyMap.CursorDown.Keys(), "ctrl+n")...)
	return l
}

type appModel struct {
	env *env

	nav    list.Model
	screen screen

	width  int
	height int

	flash    string
	flashErr bool
	flashSeq int
}

func newAppModel(ctx context.Context, opts Options) appModel {
	e := newEnv(ctx, opts)
	var items []list.Item
	for _, it := range e.sess.VisibleNav() {
		items = append(items, navItem{item: it})
	}
	return appModel{env: e, nav: newList("Navigation", items)}
}

func (m appModel) Init() tea.Cmd {
	return waitForEvent(m.env.events)
}

// chromeHeight is the header plus the footer.
const chromeHeight = 3

func (m appModel) bodyHeight() int {
	return max(m.height-chromeHeight, 1)
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.nav.SetSize(m.width, m.bodyHeight())
		if m.screen != nil {
			m.screen.SetSize(m.width, m.bodyHeight())
		}
		return m, nil

	case flashMsg:
		m.flashSeq++
		m.flash = msg.text
		m.flashErr = msg.err
		seq := m.flashSeq
		return m, tea.Tick(m.env.cfg.FlashDuration, func(time.Time) tea.Msg { return flashDoneMsg{seq: seq} })

	case flashDoneMsg:
		if msg.seq == m.flashSeq {
			m.flash = ""
			m.flashErr = false
		}
		return m, nil

	case syncEventMsg:
		next := waitForEvent(m.env.events)
		if m.screen == nil {
			return m, next
		}
		var cmd tea.Cmd
		m.screen, cmd = m.screen.Update(msg)
		return m, tea.Batch(cmd, next)

	case tea.KeyMsg:
		return m.updateKey(msg)
	}

	if m.screen != nil {
		var cmd tea.Cmd
		m.screen, cmd = m.screen.Update(msg)
		return m, cmd
	}
	var cmd tea.Cmd
	m.nav, cmd = m.nav.Update(msg)
	return m, cmd
}

func (m appModel) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.screen != nil {
		if msg.String() == "esc" && !m.screen.Capturing() {
			m.closeScreen()
			m.screen = nil
			return m, nil
		}
		var cmd tea.Cmd
		m.screen, cmd = m.screen.Update(msg)
		return m, cmd
	}

	if !m.env.sess.Privileged() {
		switch msg.String() {
		case "q", "esc":
			return m, tea.Quit
		}
		return m, nil
	}

	if m.nav.FilterState() != list.Filtering {
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "enter":
			it, ok := m.nav.SelectedItem().(navItem)
			if !ok {
				return m, nil
			}
			return m.open(it.item.Key)
		}
	}
	var cmd tea.Cmd
	m.nav, cmd = m.nav.Update(msg)
	return m, cmd
}

// open replaces the current screen with the one for key.
func (m appModel) open(key string) (appModel, tea.Cmd) {
	if it, ok := session.FindNav(key); !ok || !m.env.sess.CanSee(it) {
		return m, flashError("no access to " + key)
	}
	m.closeScreen()
	m.screen = m.newScreen(key)
	if m.screen == nil {
		return m, flashError("unknown screen " + key)
	}
	m.screen.SetSize(m.width, m.bodyHeight())
	m.env.log.Debug("open screen", "key", key)
	return m, m.screen.Init()
}

func (m appModel) newScreen(key string) screen {
	e := m.env
	switch key {
	case "overview":
		return newOverviewScreen(e)
	case "notifications":
		return newBroadcastScreen(e)
	case "docs":
		return newDocsScreen(e)
	case "users":
		return newResourceScreen(e, resources.Users())
	case "links":
		return newResourceScreen(e, resources.Links())
	case "qrcodes":
		return newResourceScreen(e, resources.QRCodes())
	case "files":
		return newResourceScreen(e, resources.Files())
	case "subscriptions":
		return newResourceScreen(e, resources.Subscriptions())
	case "transactions":
		return newResourceScreen(e, resources.Transactions())
	case "posts":
		return newResourceScreen(e, resources.Posts())
	}
	return nil
}

func (m appModel) closeScreen() {
	if m.screen != nil {
		m.screen.Close()
	}
}

func (m appModel) View() string {
	title := "shortdash"
	if m.screen != nil {
		title += " › " + m.screen.Title()
	}
	left := styleTitle.Render(title)
	right := styleMuted().Render(m.env.sess.Label())
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	header := left + strings.Repeat(" ", gap) + right

	var body string
	switch {
	case !m.env.sess.Privileged():
		body = "\n  " + styleError.Render("This account has no dashboard access.") +
			"\n\n  " + styleMuted().Render("Sign in with an admin or super_admin token: shortdash session set")
	case m.screen != nil:
		body = m.screen.View()
	default:
		body = m.nav.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		"",
		fitPane(body, max(m.width, 1), m.bodyHeight()),
		m.footer(),
	)
}

func (m appModel) footer() string {
	if m.flash != "" {
		st := lipgloss.NewStyle().Foreground(colorFlashOK)
		if m.flashErr {
			st = lipgloss.NewStyle().Foreground(colorFlashError)
		}
		return st.Render(m.flash)
	}
	switch {
	case !m.env.sess.Privileged():
		return styleMuted().Render("q: quit")
	case m.screen != nil:
		return styleMuted().Render("esc: back   ctrl+c: quit")
	}
	return styleMuted().Render("enter: open   /: filter   q: quit")
}

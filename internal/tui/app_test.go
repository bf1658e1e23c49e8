package tui

import (
	"context"
	"strings"
	"testing"

	"shortdash-cli/internal/api/apitest"
	"shortdash-cli/internal/listsync"
	"shortdash-cli/internal/model"
	"shortdash-cli/internal/session"

	tea "github.com/charmbracelet/bubbletea"
)

func newTestApp(t *testing.T, srv *apitest.Server, sess session.Session) appModel {
	t.Helper()
	e := testEnv(t, srv, sess)
	m := newAppModel(context.Background(), Options{Config: e.cfg, Session: sess, Client: e.client})
	m.env.events = nil
	mm, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = mm.(appModel)
	return m
}

func navKeys(m appModel) []string {
	var out []string
	for _, it := range m.nav.Items() {
		out = append(out, it.(navItem).item.Key)
	}
	return out
}

func TestApp_NavFollowsAccess(t *testing.T) {
	m := newTestApp(t, nil, superAdmin())
	if got := len(navKeys(m)); got != len(session.NavItems) {
		t.Fatalf("super admin: got %d nav items", got)
	}

	admin := session.Session{Role: model.RoleAdmin, Token: apitest.Token, Access: session.Access{Permissions: []string{"links"}}}
	m = newTestApp(t, nil, admin)
	if got := strings.Join(navKeys(m), ","); got != "overview,links,docs" {
		t.Fatalf("admin with links: got %q", got)
	}
}

func TestApp_NonPrivilegedSeesNoAccess(t *testing.T) {
	m := newTestApp(t, nil, session.Session{Role: "user", Token: "x"})
	if len(navKeys(m)) != 0 {
		t.Fatalf("expected no nav items")
	}
	if !strings.Contains(m.View(), "no dashboard access") {
		t.Fatalf("expected the no-access message:\n%s", m.View())
	}

	mm, _ := m.Update(keyMsg("enter"))
	if mm.(appModel).screen != nil {
		t.Fatalf("enter must not open a screen")
	}
	_, cmd := m.Update(keyMsg("q"))
	if cmd == nil {
		t.Fatalf("expected q to quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}

func TestApp_OpenScreenAndEscBack(t *testing.T) {
	srv := apitest.New(t)
	seedLinks(srv)
	m := newTestApp(t, srv, superAdmin())

	// overview, users, links
	mm, _ := m.Update(keyMsg("down"))
	mm, _ = mm.(appModel).Update(keyMsg("down"))
	mm, cmd := mm.(appModel).Update(keyMsg("enter"))
	m = mm.(appModel)
	if m.screen == nil || m.screen.Title() != "Links" {
		t.Fatalf("expected the links screen")
	}
	m.screen, _ = drive(t, m.screen, cmd)
	if !strings.Contains(m.View(), "abc") {
		t.Fatalf("expected links in the view:\n%s", m.View())
	}

	// esc leaves the search first, then the screen.
	mm, _ = m.Update(keyMsg("/"))
	mm, _ = mm.(appModel).Update(keyMsg("esc"))
	m = mm.(appModel)
	if m.screen == nil {
		t.Fatalf("esc while searching must stay on the screen")
	}
	mm, _ = m.Update(keyMsg("esc"))
	m = mm.(appModel)
	if m.screen != nil {
		t.Fatalf("esc should return to the navigation")
	}
}

func TestApp_OpenRefusesHiddenScreens(t *testing.T) {
	admin := session.Session{Role: model.RoleAdmin, Token: apitest.Token, Access: session.Access{Permissions: []string{"links"}}}
	m := newTestApp(t, nil, admin)

	m, cmd := m.open("users")
	if m.screen != nil {
		t.Fatalf("users must not open for this admin")
	}
	if msg, ok := cmd().(flashMsg); !ok || !msg.err {
		t.Fatalf("expected an error flash, got %#v", msg)
	}
}

func TestApp_FlashExpiresBySequence(t *testing.T) {
	m := newTestApp(t, nil, superAdmin())

	mm, cmd := m.Update(flashMsg{text: "first"})
	if cmd == nil {
		t.Fatalf("expected a flash timer")
	}
	mm, _ = mm.(appModel).Update(flashMsg{text: "second", err: true})
	m = mm.(appModel)

	// The first timer fires late and must not clear the second flash.
	mm, _ = m.Update(flashDoneMsg{seq: 1})
	m = mm.(appModel)
	if m.flash != "second" || !m.flashErr {
		t.Fatalf("stale timer cleared the flash: %q", m.flash)
	}
	if !strings.Contains(m.View(), "second") {
		t.Fatalf("expected the flash in the footer")
	}

	mm, _ = m.Update(flashDoneMsg{seq: 2})
	if mm.(appModel).flash != "" {
		t.Fatalf("expected the flash to clear")
	}
}

func TestApp_CtrlCQuitsFromScreens(t *testing.T) {
	m := newTestApp(t, nil, superAdmin())
	m, _ = m.open("docs")
	if m.screen == nil {
		t.Fatalf("expected the docs screen")
	}
	_, cmd := m.Update(keyMsg("ctrl+c"))
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}

func TestOnChangeDoesNotBlock(t *testing.T) {
	e := newEnv(context.Background(), Options{Session: superAdmin()})
	e.events = make(chan listsync.Event, 1)
	e.onChange(listsync.Event{Resource: "links"})
	// The buffer is full; a second event is dropped, not blocked on.
	e.onChange(listsync.Event{Resource: "links"})

	msg := waitForEvent(e.events)()
	if ev, ok := msg.(syncEventMsg); !ok || ev.ev.Resource != "links" {
		t.Fatalf("unexpected message %#v", msg)
	}
}

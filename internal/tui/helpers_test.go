package tui

import (
	"context"
	"testing"
	"time"

	"shortdash-cli/internal/api"
	"shortdash-cli/internal/api/apitest"
	"shortdash-cli/internal/config"
	"shortdash-cli/internal/model"
	"shortdash-cli/internal/session"

	tea "github.com/charmbracelet/bubbletea"
)

func superAdmin() session.Session {
	return session.Session{Role: model.RoleSuperAdmin, Token: apitest.Token, Name: "Root"}
}

// testEnv wires screens to the fake backend. Sync events are not bridged; screens
// reload on their own completion messages.
func testEnv(t *testing.T, srv *apitest.Server, sess session.Session) *env {
	t.Helper()
	cfg := config.Defaults()
	cfg.Dir = t.TempDir()
	cfg.Debounce = time.Hour
	prefix := "/super-admin"
	if sess.Role == model.RoleAdmin {
		prefix = "/admin"
	}
	var client *api.Client
	if srv != nil {
		client = srv.Client(prefix)
	}
	e := newEnv(context.Background(), Options{Config: cfg, Session: sess, Client: client})
	e.events = nil
	return e
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEscape}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+u":
		return tea.KeyMsg{Type: tea.KeyCtrlU}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// runCmd executes cmd, giving up on commands that wait (blink and flash timers).
func runCmd(cmd tea.Cmd) tea.Msg {
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(time.Second):
		return nil
	}
}

// drive runs cmd and feeds the screen's own messages back until nothing is
// left. Flash messages are collected instead of delivered.
func drive(t *testing.T, s screen, cmd tea.Cmd) (screen, []flashMsg) {
	t.Helper()
	var flashes []flashMsg
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 100 {
			t.Fatalf("drive: too many steps")
		}
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := runCmd(c).(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case flashMsg:
			flashes = append(flashes, msg)
		case loadedMsg, actionDoneMsg, plansMsg, overviewMsg, historyMsg, sentMsg, syncEventMsg:
			var next tea.Cmd
			s, next = s.Update(msg)
			queue = append(queue, next)
		}
	}
	return s, flashes
}

// press sends keys one by one, driving each resulting command.
func press(t *testing.T, s screen, keys ...string) (screen, []flashMsg) {
	t.Helper()
	var all []flashMsg
	for _, k := range keys {
		var cmd tea.Cmd
		s, cmd = s.Update(keyMsg(k))
		var flashes []flashMsg
		s, flashes = drive(t, s, cmd)
		all = append(all, flashes...)
	}
	return s, all
}

func lastFlash(t *testing.T, flashes []flashMsg) flashMsg {
	t.Helper()
	if len(flashes) == 0 {
		t.Fatalf("expected a flash message")
	}
	return flashes[len(flashes)-1]
}

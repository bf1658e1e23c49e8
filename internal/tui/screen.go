package tui

import (
	"shortdash-cli/internal/listsync"
	"shortdash-cli/internal/model"

	tea "github.com/charmbracelet/bubbletea"
)

// screen is one page opened from the navigation list.
type screen interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (screen, tea.Cmd)
	View() string
	SetSize(width, height int)
	Title() string
	// Capturing is true while the screen owns esc and q (inputs, modals).
	Capturing() bool
	Close()
}

type (
	syncEventMsg struct{ ev listsync.Event }

	loadedMsg struct {
		resource string
		err      error
	}

	actionDoneMsg struct {
		resource string
		kind     listsync.Kind
		id       string
		err      error
	}

	plansMsg struct {
		plans []model.Plan
		err   error
	}

	flashMsg struct {
		text string
		err  bool
	}

	flashDoneMsg struct{ seq int }
)

func flash(text string) tea.Cmd {
	return func() tea.Msg { return flashMsg{text: text} }
}

func flashError(text string) tea.Cmd {
	return func() tea.Msg { return flashMsg{text: text, err: true} }
}

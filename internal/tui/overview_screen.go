package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"shortdash-cli/internal/api"
	"shortdash-cli/internal/resources"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
)

type overviewMsg struct {
	rows []resources.Count
	err  error
}

type overviewScreen struct {
	env *env

	rows      []resources.Count
	errText   string
	loading   bool
	fetchedAt time.Time
	spin      spinner.Model

	width  int
	height int
}

func newOverviewScreen(e *env) *overviewScreen {
	return &overviewScreen{env: e, spin: spinner.New(spinner.WithSpinner(spinner.MiniDot))}
}

func (s *overviewScreen) Title() string   { return "Overview" }
func (s *overviewScreen) Capturing() bool { return false }
func (s *overviewScreen) Close()          {}

func (s *overviewScreen) SetSize(width, height int) {
	s.width, s.height = width, height
}

func (s *overviewScreen) Init() tea.Cmd {
	return s.load()
}

func (s *overviewScreen) load() tea.Cmd {
	s.loading = true
	ctx, sess, client := s.env.ctx, s.env.sess, s.env.client
	return tea.Batch(s.spin.Tick, func() tea.Msg {
		rows, err := resources.Overview(ctx, sess, client)
		return overviewMsg{rows: rows, err: err}
	})
}

func (s *overviewScreen) Update(msg tea.Msg) (screen, tea.Cmd) {
	switch msg := msg.(type) {
	case overviewMsg:
		s.loading = false
		if msg.err != nil {
			// Keep the last counts.
			s.errText = api.Message(msg.err)
			return s, nil
		}
		s.errText = ""
		s.rows = msg.rows
		s.fetchedAt = time.Now()
		return s, nil
	case spinner.TickMsg:
		if !s.loading {
			return s, nil
		}
		var cmd tea.Cmd
		s.spin, cmd = s.spin.Update(msg)
		return s, cmd
	case tea.KeyMsg:
		if msg.String() == "r" && !s.loading {
			return s, s.load()
		}
	}
	return s, nil
}

func (s *overviewScreen) View() string {
	var b strings.Builder
	switch {
	case s.loading:
		b.WriteString(s.spin.View() + " counting…\n\n")
	case s.errText != "":
		b.WriteString(styleError.Render(s.errText) + "  " + styleMuted().Render("r: retry") + "\n\n")
	}

	if len(s.rows) > 0 {
		t := ltable.New().
			Border(lipgloss.RoundedBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(colorBorder)).
			Headers("Resource", "Items", "By status").
			StyleFunc(func(row, col int) lipgloss.Style {
				st := lipgloss.NewStyle().Padding(0, 1)
				if row == ltable.HeaderRow {
					return st.Bold(true).Foreground(colorAccent)
				}
				if col == 1 {
					return st.Align(lipgloss.Right)
				}
				return st
			})
		for _, r := range s.rows {
			t.Row(r.Title, humanize.Comma(int64(r.Count)), byStatus(r.ByStatus))
		}
		b.WriteString(t.Render())
		b.WriteString("\n")
	}

	if !s.fetchedAt.IsZero() {
		b.WriteString(styleMuted().Render("updated " + humanize.Time(s.fetchedAt)))
		b.WriteString("\n")
	}
	b.WriteString(styleMuted().Render("r: refresh"))
	return b.String()
}

func byStatus(m map[string]int) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = statusStyle(k).Render(fmt.Sprintf("%s %d", k, m[k]))
	}
	return strings.Join(parts, ", ")
}

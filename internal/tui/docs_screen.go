package tui

import (
	"shortdash-cli/internal/docs"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type topicItem struct{ topic string }

func (t topicItem) Title() string       { return docs.Title(t.topic) }
func (t topicItem) Description() string { return t.topic }
func (t topicItem) FilterValue() string { return docs.Title(t.topic) }

// docsScreen shows the topic list on the left and the rendered page on the right.
type docsScreen struct {
	env *env

	topics  list.Model
	page    viewport.Model
	current string
	reading bool

	width  int
	height int
}

const docsListWidth = 28

func newDocsScreen(e *env) *docsScreen {
	var items []list.Item
	for _, t := range docs.Topics() {
		items = append(items, topicItem{topic: t})
	}
	s := &docsScreen{env: e, topics: newList("API docs", items), page: viewport.New(0, 0)}
	return s
}

func (s *docsScreen) Title() string { return "API docs" }

// Capturing holds esc while the page has focus so the first esc returns to the
// topic list.
func (s *docsScreen) Capturing() bool {
	return s.reading || s.topics.FilterState() == list.Filtering
}

func (s *docsScreen) Close() {}

func (s *docsScreen) SetSize(width, height int) {
	s.width, s.height = width, height
	s.topics.SetSize(docsListWidth, max(height-1, 1))
	s.page.Width = max(width-docsListWidth-2, 20)
	s.page.Height = max(height-1, 1)
	s.render()
}

func (s *docsScreen) Init() tea.Cmd {
	s.showSelected()
	return nil
}

func (s *docsScreen) showSelected() {
	it, ok := s.topics.SelectedItem().(topicItem)
	if !ok || it.topic == s.current {
		return
	}
	s.current = it.topic
	s.render()
	s.page.GotoTop()
}

func (s *docsScreen) render() {
	if s.current == "" {
		return
	}
	md, _ := docs.Get(s.current)
	s.page.SetContent(renderMarkdown(md, s.page.Width))
}

func (s *docsScreen) Update(msg tea.Msg) (screen, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}
	if s.reading {
		switch key.String() {
		case "esc", "tab", "left", "h":
			s.reading = false
			return s, nil
		}
		var cmd tea.Cmd
		s.page, cmd = s.page.Update(key)
		return s, cmd
	}
	if s.topics.FilterState() != list.Filtering {
		switch key.String() {
		case "enter", "tab", "right", "l":
			s.showSelected()
			s.reading = true
			return s, nil
		}
	}
	var cmd tea.Cmd
	s.topics, cmd = s.topics.Update(key)
	s.showSelected()
	return s, cmd
}

func (s *docsScreen) View() string {
	left := fitPane(s.topics.View(), docsListWidth, max(s.height-1, 1))
	right := s.page.View()
	help := "enter: read   /: filter   esc: back"
	if s.reading {
		help = "j/k: scroll   esc: topics"
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right) + "\n" + styleMuted().Render(help)
}

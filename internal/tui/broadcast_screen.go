package tui

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"shortdash-cli/internal/api"
	"shortdash-cli/internal/broadcast"
	"shortdash-cli/internal/model"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
)

type (
	historyMsg struct {
		items []model.Notification
		err   error
	}
	sentMsg struct {
		n   model.Notification
		err error
	}
)

// Focusable form fields, in tab order.
var broadcastOrder = []string{
	broadcast.FieldTitle,
	broadcast.FieldMessage,
	broadcast.FieldType,
	broadcast.FieldAudience,
	broadcast.FieldUserID,
	broadcast.FieldLink,
}

const historyRows = 8

type broadcastScreen struct {
	env *env
	svc *broadcast.Service

	title    textinput.Model
	message  textarea.Model
	userID   textinput.Model
	link     textinput.Model
	typ      string
	audience string
	focus    string
	errs     map[string]string
	sending  bool

	history    []model.Notification
	historyErr string

	width  int
	height int
}

func newBroadcastScreen(e *env) *broadcastScreen {
	s := &broadcastScreen{
		env:    e,
		svc:    broadcast.NewService(e.client, e.sess),
		title:  newInput("Scheduled maintenance"),
		userID: newInput("user id"),
		link:   newInput("https://…"),
	}
	s.title.CharLimit = broadcast.MaxTitle
	s.message = textarea.New()
	s.message.Placeholder = "Message shown to recipients"
	s.message.ShowLineNumbers = false
	s.message.CharLimit = broadcast.MaxMessage
	s.message.SetHeight(4)
	s.reset()
	return s
}

func (s *broadcastScreen) reset() {
	f := broadcast.NewForm()
	s.typ, s.audience = f.Type, f.Audience
	s.title.SetValue("")
	s.message.SetValue("")
	s.userID.SetValue("")
	s.link.SetValue("")
	s.errs = nil
	s.setFocus(broadcast.FieldTitle)
}

func (s *broadcastScreen) Title() string   { return "Notifications" }
func (s *broadcastScreen) Capturing() bool { return s.sending }
func (s *broadcastScreen) Close()          {}

func (s *broadcastScreen) SetSize(width, height int) {
	s.width, s.height = width, height
	w := max(min(width-14, 80), 20)
	s.title.Width = w
	s.userID.Width = w
	s.link.Width = w
	s.message.SetWidth(w)
}

func (s *broadcastScreen) Init() tea.Cmd {
	return s.loadHistory()
}

func (s *broadcastScreen) loadHistory() tea.Cmd {
	svc, ctx := s.svc, s.env.ctx
	return func() tea.Msg {
		items, err := svc.History(ctx)
		return historyMsg{items: items, err: err}
	}
}

func (s *broadcastScreen) form() broadcast.Form {
	return broadcast.Form{
		Title:    s.title.Value(),
		Message:  s.message.Value(),
		Type:     s.typ,
		Audience: s.audience,
		UserID:   s.userID.Value(),
		Link:     s.link.Value(),
	}
}

// order skips the user id unless the audience targets one user.
func (s *broadcastScreen) order() []string {
	out := make([]string, 0, len(broadcastOrder))
	for _, f := range broadcastOrder {
		if f == broadcast.FieldUserID && s.audience != broadcast.AudienceUser {
			continue
		}
		out = append(out, f)
	}
	return out
}

func (s *broadcastScreen) setFocus(field string) tea.Cmd {
	s.focus = field
	s.title.Blur()
	s.message.Blur()
	s.userID.Blur()
	s.link.Blur()
	switch field {
	case broadcast.FieldTitle:
		return s.title.Focus()
	case broadcast.FieldMessage:
		return s.message.Focus()
	case broadcast.FieldUserID:
		return s.userID.Focus()
	case broadcast.FieldLink:
		return s.link.Focus()
	}
	return nil
}

func (s *broadcastScreen) move(delta int) tea.Cmd {
	order := s.order()
	i := 0
	for j, f := range order {
		if f == s.focus {
			i = j
		}
	}
	i = (i + delta + len(order)) % len(order)
	return s.setFocus(order[i])
}

func cycle(list []string, cur string, delta int) string {
	for i, v := range list {
		if v == cur {
			return list[(i+delta+len(list))%len(list)]
		}
	}
	return list[0]
}

func (s *broadcastScreen) Update(msg tea.Msg) (screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyMsg:
		if msg.err != nil {
			s.historyErr = api.Message(msg.err)
			return s, nil
		}
		s.historyErr = ""
		s.history = msg.items
		return s, nil

	case sentMsg:
		s.sending = false
		if msg.err != nil {
			var ve *broadcast.ValidationError
			if errors.As(msg.err, &ve) {
				s.errs = ve.Fields
				return s, nil
			}
			if errors.Is(msg.err, broadcast.ErrNotPrivileged) {
				return s, nil
			}
			return s, flashError(api.Message(msg.err))
		}
		s.reset()
		text := "Notification sent"
		if msg.n.Recipients > 0 {
			text = fmt.Sprintf("Notification sent to %s recipients", humanize.Comma(int64(msg.n.Recipients)))
		}
		return s, tea.Batch(flash(text), s.loadHistory())

	case tea.KeyMsg:
		if s.sending {
			return s, nil
		}
		return s, s.updateKey(msg)
	}
	return s, nil
}

func (s *broadcastScreen) updateKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+s":
		return s.send()
	case "tab":
		return s.move(1)
	case "shift+tab":
		return s.move(-1)
	}

	switch s.focus {
	case broadcast.FieldType, broadcast.FieldAudience:
		delta := 0
		switch msg.String() {
		case "right", "l", " ", "j", "down":
			delta = 1
		case "left", "h", "k", "up":
			delta = -1
		case "enter":
			return s.move(1)
		}
		if delta == 0 {
			return nil
		}
		if s.focus == broadcast.FieldType {
			s.typ = cycle(broadcast.Types, s.typ, delta)
		} else {
			s.audience = cycle(broadcast.Audiences, s.audience, delta)
		}
		delete(s.errs, s.focus)
		return nil
	case broadcast.FieldMessage:
		var cmd tea.Cmd
		s.message, cmd = s.message.Update(msg)
		delete(s.errs, s.focus)
		return cmd
	}

	if msg.String() == "enter" {
		return s.move(1)
	}
	var cmd tea.Cmd
	switch s.focus {
	case broadcast.FieldTitle:
		s.title, cmd = s.title.Update(msg)
	case broadcast.FieldUserID:
		s.userID, cmd = s.userID.Update(msg)
	case broadcast.FieldLink:
		s.link, cmd = s.link.Update(msg)
	}
	delete(s.errs, s.focus)
	return cmd
}

// send validates locally and posts only a valid form.
func (s *broadcastScreen) send() tea.Cmd {
	f := s.form()
	if err := f.Validate(); err != nil {
		var ve *broadcast.ValidationError
		if errors.As(err, &ve) {
			s.errs = ve.Fields
		}
		return flashError("fix the highlighted fields")
	}
	s.errs = nil
	s.sending = true
	svc, ctx := s.svc, s.env.ctx
	return func() tea.Msg {
		n, err := svc.Send(ctx, f)
		return sentMsg{n: n, err: err}
	}
}

func (s *broadcastScreen) View() string {
	var b strings.Builder
	row := func(field, label, value string) {
		l := fmt.Sprintf("%-9s", label)
		if s.focus == field {
			l = styleHeader.Render(l)
		} else {
			l = styleMuted().Render(l)
		}
		b.WriteString(l + " " + value + "\n")
		if msg := s.errs[field]; msg != "" {
			b.WriteString(strings.Repeat(" ", 10) + styleError.Render(msg) + "\n")
		}
	}

	row(broadcast.FieldTitle, "Title", s.title.View())
	row(broadcast.FieldMessage, "Message", "")
	b.WriteString(s.message.View() + "\n")
	row(broadcast.FieldType, "Type", choiceView(broadcast.Types, s.typ))
	row(broadcast.FieldAudience, "Audience", choiceView(broadcast.Audiences, s.audience))
	if s.audience == broadcast.AudienceUser {
		row(broadcast.FieldUserID, "User id", s.userID.View())
	}
	row(broadcast.FieldLink, "Link", s.link.View())

	// Errors for fields that are not on screen.
	var stray []string
	for f, msg := range s.errs {
		if f == broadcast.FieldUserID && s.audience != broadcast.AudienceUser {
			stray = append(stray, msg)
		}
	}
	sort.Strings(stray)
	for _, msg := range stray {
		b.WriteString(styleError.Render(msg) + "\n")
	}

	status := "tab: next field   ←/→: change choice   ctrl+s: send   esc: back"
	if s.sending {
		status = "sending…"
	}
	b.WriteString("\n" + styleMuted().Render(status) + "\n\n")

	b.WriteString(styleTitle.Render("Sent") + "\n")
	switch {
	case s.historyErr != "":
		b.WriteString(styleError.Render(s.historyErr) + "\n")
	case len(s.history) == 0:
		b.WriteString(styleMuted().Render("nothing sent yet") + "\n")
	}
	for i, n := range s.history {
		if i == historyRows {
			b.WriteString(styleMuted().Render(fmt.Sprintf("… %d more", len(s.history)-historyRows)) + "\n")
			break
		}
		b.WriteString(fmt.Sprintf("%-16s %-8s %-8s %s %s\n",
			humanize.Time(n.CreatedAt), n.Type, n.Audience, n.Title,
			styleMuted().Render(fmt.Sprintf("(%s)", humanize.Comma(int64(n.Recipients))))))
	}
	return b.String()
}

func choiceView(list []string, cur string) string {
	parts := make([]string, len(list))
	for i, v := range list {
		if v == cur {
			parts[i] = styleChipOn.Render(v)
		} else {
			parts[i] = styleChip.Render(v)
		}
	}
	return strings.Join(parts, " ")
}

package tui

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"shortdash-cli/internal/api"
	"shortdash-cli/internal/listsync"
	"shortdash-cli/internal/modal"
	"shortdash-cli/internal/model"
	"shortdash-cli/internal/resources"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// actionKey binds a key to the modal that confirms an action. The first
// supported kind wins.
type actionKey struct {
	key   string
	kinds []listsync.Kind
	modal modal.Kind
	label string
}

var actionKeys = []actionKey{
	{key: "d", kinds: []listsync.Kind{listsync.KindDelete}, modal: modal.Delete, label: "delete"},
	{key: "e", kinds: []listsync.Kind{listsync.KindExtendExpiry}, modal: modal.Extend, label: "extend"},
	{key: "c", kinds: []listsync.Kind{listsync.KindClearExpiry}, modal: modal.Clear, label: "clear expiry"},
	{key: "z", kinds: []listsync.Kind{listsync.KindResetCounter}, modal: modal.Reset, label: "reset counter"},
	{key: "v", kinds: []listsync.Kind{listsync.KindReplay}, modal: modal.Replay, label: "replay"},
	{key: "s", kinds: []listsync.Kind{listsync.KindMarkSuccess}, modal: modal.Success, label: "mark success"},
	{key: "t", kinds: []listsync.Kind{listsync.KindTogglePublish, listsync.KindToggleStatus}, modal: modal.Toggle, label: "toggle"},
	{key: "p", kinds: []listsync.Kind{listsync.KindChangePlan}, modal: modal.Plan, label: "plan"},
	{key: "E", kinds: []listsync.Kind{listsync.KindUpdateFields}, modal: modal.Edit, label: "edit"},
}

var confirmText = map[listsync.Kind]string{
	listsync.KindDelete:        "Delete %s? This cannot be undone.",
	listsync.KindClearExpiry:   "Remove the expiry date of %s?",
	listsync.KindResetCounter:  "Reset the download counter of %s?",
	listsync.KindReplay:        "Replay the payment verification of %s?",
	listsync.KindMarkSuccess:   "Mark %s as completed?",
	listsync.KindTogglePublish: "Publish or unpublish %s?",
	listsync.KindToggleStatus:  "Activate or deactivate %s?",
}

const defaultExtendDays = 30

var editFields = []string{resources.FieldName, resources.FieldEmail}

type resourceScreen[T any] struct {
	env  *env
	def  *resources.Def[T]
	sync *listsync.Synchronizer[T]

	filters   listsync.Filters
	filterSel int
	items     []T
	total     int
	loading   bool
	spinning  bool
	errText   string
	fetchedAt time.Time

	table     table.Model
	search    textinput.Model
	searching bool
	spin      spinner.Model

	modal    modal.Controller[T]
	pending  listsync.Kind
	focus    confirmFocus
	until    textinput.Model
	fields   []textinput.Model
	fieldSel int
	plans    []model.Plan
	planSel  int
	modalErr string
	// submitting holds the open modal while its action is in flight.
	submitting bool

	width  int
	height int
}

func newResourceScreen[T any](e *env, def *resources.Def[T]) *resourceScreen[T] {
	s := &resourceScreen[T]{
		env:     e,
		def:     def,
		filters: def.DefaultFilters(time.Now()),
	}
	s.sync = listsync.New(def.Resource, e.client, e.sess, listsync.Options{
		Debounce: e.cfg.Debounce,
		Locale:   e.cfg.Locale,
		Log:      e.log,
		OnChange: e.onChange,
	})

	cols := make([]table.Column, len(def.Columns))
	for i, c := range def.Columns {
		cols[i] = table.Column{Title: c.Title, Width: c.Width}
	}
	s.table = table.New(table.WithColumns(cols), table.WithFocused(true))
	// d, f, u, b and space are action keys here.
	km := table.DefaultKeyMap()
	km.PageDown.SetKeys("pgdown")
	km.PageUp.SetKeys("pgup")
	km.HalfPageDown.SetKeys("ctrl+d")
	km.HalfPageUp.SetKeys("ctrl+u")
	s.table.KeyMap = km
	st := table.DefaultStyles()
	st.Header = st.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colorBorder).
		BorderBottom(true).
		Bold(true)
	st.Selected = st.Selected.
		Foreground(colorSelectedFg).
		Background(colorSelectedBg).
		Bold(true)
	s.table.SetStyles(st)

	s.search = newInput("search")
	s.until = newInput(listsync.DateLayout)
	s.until.CharLimit = len(listsync.DateLayout)

	s.spin = spinner.New(spinner.WithSpinner(spinner.MiniDot))
	return s
}

func newInput(placeholder string) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.Prompt = ""
	// A static cursor keeps blink ticks out of the update loop.
	in.Cursor.SetMode(cursor.CursorStatic)
	return in
}

func (s *resourceScreen[T]) Title() string { return s.def.Title }

func (s *resourceScreen[T]) Capturing() bool { return s.searching || s.modal.IsOpen() }

func (s *resourceScreen[T]) Close() { s.sync.Close() }

func (s *resourceScreen[T]) SetSize(width, height int) {
	s.width, s.height = width, height
	// chips, search, error, status, help
	s.table.SetHeight(max(height-6, 3))
	s.table.SetWidth(max(width, 20))
}

func (s *resourceScreen[T]) Init() tea.Cmd {
	return s.startLoad()
}

func (s *resourceScreen[T]) startLoad() tea.Cmd {
	s.loading = true
	sync, key, ctx := s.sync, s.def.Key, s.env.ctx
	load := func() tea.Msg {
		return loadedMsg{resource: key, err: sync.Refresh(ctx)}
	}
	return tea.Batch(s.startSpinner(), load)
}

func (s *resourceScreen[T]) startSpinner() tea.Cmd {
	if s.spinning {
		return nil
	}
	s.spinning = true
	return s.spin.Tick
}

// reload re-reads the synchronizer and keeps the cursor on the same item.
func (s *resourceScreen[T]) reload() {
	selected, hadSel := s.selectedID()
	row := s.table.Cursor()

	snap := s.sync.Snapshot()
	s.loading = snap.Loading
	s.errText = snap.Err
	s.fetchedAt = snap.FetchedAt
	s.total = len(snap.Items)
	s.items = s.sync.View(s.filters)

	rows := make([]table.Row, len(s.items))
	for i, it := range s.items {
		rows[i] = s.def.Row(it)
	}
	s.table.SetRows(rows)

	if hadSel {
		for i, it := range s.items {
			if s.def.ID(it) == selected {
				row = i
				break
			}
		}
	}
	if row >= len(s.items) {
		row = len(s.items) - 1
	}
	s.table.SetCursor(max(row, 0))
}

func (s *resourceScreen[T]) selectedID() (string, bool) {
	it, ok := s.selected()
	if !ok {
		return "", false
	}
	return s.def.ID(it), true
}

func (s *resourceScreen[T]) selected() (T, bool) {
	c := s.table.Cursor()
	if c < 0 || c >= len(s.items) {
		var zero T
		return zero, false
	}
	return s.items[c], true
}

func (s *resourceScreen[T]) Update(msg tea.Msg) (screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.resource != s.def.Key {
			return s, nil
		}
		if errors.Is(msg.err, listsync.ErrNotPrivileged) || errors.Is(msg.err, listsync.ErrClosed) {
			s.loading = false
			return s, nil
		}
		s.reload()
		return s, nil

	case syncEventMsg:
		if msg.ev.Resource != s.def.Resource.Name {
			return s, nil
		}
		s.reload()
		if s.loading {
			return s, s.startSpinner()
		}
		return s, nil

	case actionDoneMsg:
		if msg.resource != s.def.Key {
			return s, nil
		}
		s.reload()
		if s.submitting && msg.kind == s.pending {
			s.submitting = false
			switch {
			case msg.err == nil:
				s.closeModal()
			case !errors.Is(msg.err, listsync.ErrNotPrivileged):
				s.modalErr = api.Message(msg.err)
			}
		}
		return s, s.actionFlash(msg)

	case plansMsg:
		if s.modal.Kind() != modal.Plan {
			return s, nil
		}
		if msg.err != nil {
			s.modalErr = api.Message(msg.err)
			return s, nil
		}
		s.plans = msg.plans
		if s.plans == nil {
			s.plans = []model.Plan{}
		}
		s.planSel = 0
		if item, ok := s.modal.Selected(); ok {
			want := currentPlan(item)
			for i, p := range s.plans {
				if want != "" && (p.ID == want || strings.EqualFold(p.Name, want)) {
					s.planSel = i
					break
				}
			}
		}
		return s, nil

	case spinner.TickMsg:
		if !s.loading {
			s.spinning = false
			return s, nil
		}
		var cmd tea.Cmd
		s.spin, cmd = s.spin.Update(msg)
		return s, cmd

	case tea.KeyMsg:
		if s.modal.IsOpen() {
			return s, s.updateModal(msg)
		}
		if s.searching {
			return s, s.updateSearch(msg)
		}
		return s, s.updateList(msg)
	}
	return s, nil
}

func (s *resourceScreen[T]) actionFlash(msg actionDoneMsg) tea.Cmd {
	switch {
	case msg.err == nil:
		done := s.def.Actions[msg.kind].Done
		if done == "" {
			done = fmt.Sprintf("%s: %s done", s.def.Title, msg.kind)
		}
		return flash(done)
	case errors.Is(msg.err, listsync.ErrNotPrivileged):
		return nil
	case errors.Is(msg.err, listsync.ErrNotFound):
		return flashError("item is no longer in the list")
	default:
		return flashError(api.Message(msg.err))
	}
}

func (s *resourceScreen[T]) updateList(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "/":
		s.searching = true
		s.search.SetValue(s.filters.Search)
		s.search.CursorEnd()
		return s.search.Focus()
	case "r":
		return s.startLoad()
	case "[":
		if n := len(s.chipNames()); n > 0 {
			s.filterSel = (s.filterSel + n - 1) % n
		}
		return nil
	case "]":
		if n := len(s.chipNames()); n > 0 {
			s.filterSel = (s.filterSel + 1) % n
		}
		return nil
	case "f":
		return s.cycleFilter()
	case "a":
		return s.toggleDates(time.Now())
	case "x":
		s.filters = s.def.DefaultFilters(time.Now())
		s.search.SetValue("")
		return s.filtersChanged()
	case "enter":
		if it, ok := s.selected(); ok {
			_ = s.modal.Open(modal.Details, it)
		}
		return nil
	case "y":
		return s.copySelected()
	case "D":
		return s.downloadSelected()
	}

	for _, ak := range actionKeys {
		if msg.String() == ak.key {
			return s.openAction(ak)
		}
	}

	var cmd tea.Cmd
	s.table, cmd = s.table.Update(msg)
	return cmd
}

func (s *resourceScreen[T]) updateSearch(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		s.searching = false
		s.search.Blur()
		return nil
	case "esc":
		s.searching = false
		s.search.Blur()
		s.search.SetValue("")
		s.filters = s.filters.WithSearch("")
		return s.filtersChanged()
	}
	var cmd tea.Cmd
	s.search, cmd = s.search.Update(msg)
	if v := s.search.Value(); v != s.filters.Search {
		s.filters = s.filters.WithSearch(v)
		return tea.Batch(cmd, s.filtersChanged())
	}
	return cmd
}

// filtersChanged recomputes the view now and asks for a debounced refetch.
func (s *resourceScreen[T]) filtersChanged() tea.Cmd {
	s.reload()
	s.sync.ScheduleRefresh()
	return nil
}

// chipNames lists the filters that cycle through fixed values.
func (s *resourceScreen[T]) chipNames() []string {
	var out []string
	for _, name := range s.def.FilterNames() {
		if _, ok := s.def.Choices[name]; ok || name == listsync.FilterUserID {
			out = append(out, name)
		}
	}
	return out
}

func (s *resourceScreen[T]) chipValues(name string) []string {
	if name != listsync.FilterUserID {
		return s.def.Choices[name]
	}
	vals := []string{listsync.All}
	for _, u := range s.sync.DistinctUsers() {
		vals = append(vals, u.ID)
	}
	return vals
}

func (s *resourceScreen[T]) cycleFilter() tea.Cmd {
	names := s.chipNames()
	if len(names) == 0 {
		return nil
	}
	name := names[s.filterSel%len(names)]
	vals := s.chipValues(name)
	if len(vals) == 0 {
		return nil
	}
	cur := s.filters.Get(name)
	next := vals[0]
	for i, v := range vals {
		if v == cur {
			next = vals[(i+1)%len(vals)]
			break
		}
	}
	s.filters = s.filters.With(name, next)
	return s.filtersChanged()
}

func (s *resourceScreen[T]) hasDates() bool {
	_, ok := s.def.Filters[listsync.FilterDateFrom]
	return ok
}

func (s *resourceScreen[T]) toggleDates(now time.Time) tea.Cmd {
	if !s.hasDates() {
		return nil
	}
	if listsync.Active(s.filters.Get(listsync.FilterDateFrom)) || listsync.Active(s.filters.Get(listsync.FilterDateTo)) {
		s.filters = s.filters.With(listsync.FilterDateFrom, listsync.All).With(listsync.FilterDateTo, listsync.All)
	} else {
		for k, v := range listsync.LastDays(now, 30) {
			s.filters = s.filters.With(k, v)
		}
	}
	return s.filtersChanged()
}

func (s *resourceScreen[T]) openAction(ak actionKey) tea.Cmd {
	item, ok := s.selected()
	if !ok {
		return nil
	}
	var kind listsync.Kind
	for _, k := range ak.kinds {
		if s.def.Supports(k) {
			kind = k
			break
		}
	}
	if kind == "" {
		return flashError(fmt.Sprintf("%s cannot %s", strings.ToLower(s.def.Title), ak.label))
	}
	if err := s.modal.Open(ak.modal, item); err != nil {
		return nil
	}
	s.pending = kind
	s.focus = confirmFocusConfirm
	s.modalErr = ""

	switch kind {
	case listsync.KindExtendExpiry:
		s.until.SetValue(time.Now().AddDate(0, 0, defaultExtendDays).Format(listsync.DateLayout))
		s.until.CursorEnd()
		return s.until.Focus()
	case listsync.KindUpdateFields:
		s.fields = make([]textinput.Model, len(editFields))
		current := currentFields(item)
		for i, f := range editFields {
			s.fields[i] = newInput(f)
			s.fields[i].SetValue(current[f])
		}
		s.fieldSel = 0
		return s.fields[0].Focus()
	case listsync.KindChangePlan:
		s.plans = nil
		s.planSel = 0
		client, ctx := s.env.client, s.env.ctx
		return func() tea.Msg {
			plans, err := resources.FetchPlans(ctx, client)
			return plansMsg{plans: plans, err: err}
		}
	}
	return nil
}

func (s *resourceScreen[T]) closeModal() {
	s.modal.Close()
	s.pending = ""
	s.modalErr = ""
	s.submitting = false
	s.until.Blur()
}

func (s *resourceScreen[T]) updateModal(msg tea.KeyMsg) tea.Cmd {
	if s.submitting {
		return nil
	}
	switch s.modal.Kind() {
	case modal.Details:
		switch msg.String() {
		case "esc", "enter", "q":
			s.closeModal()
		}
		return nil
	case modal.Extend:
		return s.updateExtend(msg)
	case modal.Plan:
		return s.updatePlan(msg)
	case modal.Edit:
		return s.updateEdit(msg)
	}

	switch msg.String() {
	case "esc", "n":
		s.closeModal()
		return nil
	case "tab", "shift+tab", "left", "right", "h", "l":
		s.focus = s.focus.toggle()
		return nil
	case "y":
		return s.confirm(listsync.Payload{})
	case "enter":
		if s.focus == confirmFocusConfirm {
			return s.confirm(listsync.Payload{})
		}
		s.closeModal()
	}
	return nil
}

func (s *resourceScreen[T]) updateExtend(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		s.closeModal()
		return nil
	case "enter":
		until, err := parseDay(s.until.Value(), time.Now())
		if err != nil {
			s.modalErr = err.Error()
			return nil
		}
		return s.confirm(listsync.Payload{Until: until})
	}
	var cmd tea.Cmd
	s.until, cmd = s.until.Update(msg)
	s.modalErr = ""
	return cmd
}

// parseDay reads a YYYY-MM-DD date that stays valid until the end of that day.
func parseDay(v string, now time.Time) (time.Time, error) {
	t, err := time.ParseInLocation(listsync.DateLayout, strings.TrimSpace(v), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want %s)", strings.TrimSpace(v), listsync.DateLayout)
	}
	t = t.AddDate(0, 0, 1).Add(-time.Second)
	if !t.After(now) {
		return time.Time{}, errors.New("the new expiry must be in the future")
	}
	return t, nil
}

func (s *resourceScreen[T]) updatePlan(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		s.closeModal()
	case "up", "k":
		if s.planSel > 0 {
			s.planSel--
		}
	case "down", "j":
		if s.planSel < len(s.plans)-1 {
			s.planSel++
		}
	case "enter":
		if s.planSel < 0 || s.planSel >= len(s.plans) {
			return nil
		}
		return s.confirm(resources.PlanPayload(s.plans[s.planSel]))
	}
	return nil
}

func (s *resourceScreen[T]) updateEdit(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		s.closeModal()
		return nil
	case "tab", "down", "shift+tab", "up":
		s.fields[s.fieldSel].Blur()
		if msg.String() == "tab" || msg.String() == "down" {
			s.fieldSel = (s.fieldSel + 1) % len(s.fields)
		} else {
			s.fieldSel = (s.fieldSel + len(s.fields) - 1) % len(s.fields)
		}
		return s.fields[s.fieldSel].Focus()
	case "enter", "ctrl+s":
		return s.saveEdit()
	}
	var cmd tea.Cmd
	s.fields[s.fieldSel], cmd = s.fields[s.fieldSel].Update(msg)
	s.modal.SetDraft(editFields[s.fieldSel], s.fields[s.fieldSel].Value())
	s.modalErr = ""
	return cmd
}

func (s *resourceScreen[T]) saveEdit() tea.Cmd {
	item, ok := s.modal.Selected()
	if !ok {
		return nil
	}
	current := currentFields(item)
	changed := false
	for _, f := range editFields {
		if v, ok := s.modal.Draft(f); ok && strings.TrimSpace(v) != "" && strings.TrimSpace(v) != current[f] {
			changed = true
		}
	}
	if !changed {
		s.modalErr = "nothing changed"
		return nil
	}
	return s.submit(item, listsync.Payload{Fields: s.modal.Edits()})
}

func (s *resourceScreen[T]) confirm(p listsync.Payload) tea.Cmd {
	item, ok := s.modal.Selected()
	if !ok {
		return nil
	}
	return s.submit(item, p)
}

// submit runs the pending action. The modal stays open until the result
// arrives so a failure keeps what was typed.
func (s *resourceScreen[T]) submit(item T, p listsync.Payload) tea.Cmd {
	s.submitting = true
	s.modalErr = ""
	return s.dispatch(s.pending, s.def.ID(item), p)
}

func (s *resourceScreen[T]) dispatch(kind listsync.Kind, id string, p listsync.Payload) tea.Cmd {
	sync, key, ctx := s.sync, s.def.Key, s.env.ctx
	return func() tea.Msg {
		err := sync.Dispatch(ctx, kind, id, p)
		return actionDoneMsg{resource: key, kind: kind, id: id, err: err}
	}
}

func (s *resourceScreen[T]) copySelected() tea.Cmd {
	item, ok := s.selected()
	if !ok {
		return nil
	}
	v := copyValue(item, s.def.ID(item))
	if err := copyToClipboard(v); err != nil {
		return flashError(err.Error())
	}
	return flash("Copied " + v)
}

// copyValue is what y puts on the clipboard for an item.
func copyValue(item any, id string) string {
	switch it := item.(type) {
	case model.Link:
		if it.ShortURL != "" {
			return it.ShortURL
		}
		return it.ShortCode
	case model.QRCode:
		return it.Content
	case model.SharedFile:
		return it.Code
	case model.Account:
		return it.Email
	case model.Transaction:
		return it.Reference
	case model.Post:
		return it.Slug
	}
	return id
}

func (s *resourceScreen[T]) downloadSelected() tea.Cmd {
	item, ok := s.selected()
	if !ok {
		return nil
	}
	qr, ok := any(item).(model.QRCode)
	if !ok {
		return flashError("only QR codes can be downloaded")
	}
	client, ctx, dir := s.env.client, s.env.ctx, s.downloadDir()
	return func() tea.Msg {
		blob, err := client.DownloadQRCode(ctx, qr.ID)
		if err != nil {
			return flashMsg{text: api.Message(err), err: true}
		}
		path, err := blob.Save(dir)
		if err != nil {
			return flashMsg{text: err.Error(), err: true}
		}
		return flashMsg{text: "Saved " + api.FileURL(path)}
	}
}

func (s *resourceScreen[T]) downloadDir() string {
	return filepath.Join(s.env.cfg.Dir, "downloads")
}

func currentFields(item any) map[string]string {
	if a, ok := item.(model.Account); ok {
		return map[string]string{resources.FieldName: a.Name, resources.FieldEmail: a.Email}
	}
	return map[string]string{}
}

func currentPlan(item any) string {
	switch it := item.(type) {
	case model.Subscription:
		if it.PlanID != "" {
			return it.PlanID
		}
		return it.Plan
	case model.Account:
		return it.Plan
	}
	return ""
}

func (s *resourceScreen[T]) View() string {
	if s.modal.IsOpen() {
		return placeCentered(s.width, s.height, s.modalView())
	}

	var b strings.Builder
	b.WriteString(s.chipsView())
	b.WriteString("\n")
	switch {
	case s.searching:
		b.WriteString("/ " + s.search.View())
	case s.filters.Search != "":
		b.WriteString(styleMuted().Render("search: " + s.filters.Search))
	}
	b.WriteString("\n")
	if s.errText != "" {
		b.WriteString(styleError.Render(s.errText) + "  " + styleMuted().Render("r: retry"))
	}
	b.WriteString("\n")
	b.WriteString(s.table.View())
	b.WriteString("\n")
	b.WriteString(s.statusLine())
	b.WriteString("\n")
	b.WriteString(styleMuted().Render(s.helpLine()))
	return b.String()
}

func (s *resourceScreen[T]) chipsView() string {
	var chips []string
	for i, name := range s.chipNames() {
		v := s.filters.Get(name)
		label := name + ": " + s.chipLabel(name, v)
		st := styleChip
		if listsync.Active(v) {
			st = styleChipOn
		}
		if i == s.filterSel {
			st = st.Inherit(styleChipSel)
		}
		chips = append(chips, st.Render(label))
	}
	if s.hasDates() {
		from, to := s.filters.Get(listsync.FilterDateFrom), s.filters.Get(listsync.FilterDateTo)
		label := "dates: all"
		if listsync.Active(from) || listsync.Active(to) {
			label = fmt.Sprintf("dates: %s → %s", dash(from), dash(to))
			chips = append(chips, styleChipOn.Render(label))
		} else {
			chips = append(chips, styleChip.Render(label))
		}
	}
	return strings.Join(chips, " ")
}

func dash(v string) string {
	if !listsync.Active(v) {
		return "…"
	}
	return v
}

func (s *resourceScreen[T]) chipLabel(name, value string) string {
	if name != listsync.FilterUserID || !listsync.Active(value) {
		return value
	}
	for _, u := range s.sync.DistinctUsers() {
		if u.ID == value {
			return u.Name
		}
	}
	return value
}

func (s *resourceScreen[T]) statusLine() string {
	var parts []string
	if s.loading {
		parts = append(parts, s.spin.View()+" loading")
	}
	parts = append(parts, fmt.Sprintf("%s of %s", humanize.Comma(int64(len(s.items))), humanize.Comma(int64(s.total))))
	if !s.fetchedAt.IsZero() {
		parts = append(parts, "updated "+humanize.Time(s.fetchedAt))
	}
	return styleMuted().Render(strings.Join(parts, " · "))
}

func (s *resourceScreen[T]) helpLine() string {
	keys := []string{"enter: details", "/: search", "[ ]: filter", "f: cycle", "a: dates", "x: reset", "r: refresh", "y: copy"}
	for _, ak := range actionKeys {
		for _, k := range ak.kinds {
			if s.def.Supports(k) {
				keys = append(keys, ak.key+": "+ak.label)
				break
			}
		}
	}
	if s.def.Key == "qrcodes" {
		keys = append(keys, "D: download")
	}
	return strings.Join(keys, "  ")
}

func (s *resourceScreen[T]) modalView() string {
	item, _ := s.modal.Selected()
	name := s.itemName(item)

	var title, body string
	switch s.modal.Kind() {
	case modal.Details:
		return renderModalBox(s.width, s.def.Title+" "+s.def.ID(item), s.detailsView(item)+"\n\n"+styleMuted().Render("esc: close"))
	case modal.Extend:
		title = "Extend expiry"
		body = "New expiry date for " + name + ":\n\n" + s.until.View()
		body += "\n\n" + styleMuted().Render("enter: save   esc: cancel")
	case modal.Plan:
		title = "Change plan"
		body = s.plansView(name)
	case modal.Edit:
		title = "Edit " + name
		body = s.editView()
	default:
		text := confirmText[s.pending]
		if text == "" {
			text = "Run " + string(s.pending) + " on %s?"
		}
		return renderConfirmModal(s.width, s.modalTitle(), fmt.Sprintf(text, name)+s.modalStatus(), "Confirm", "Cancel", s.focus)
	}
	body += s.modalStatus()
	return renderModalBox(s.width, title, body)
}

func (s *resourceScreen[T]) modalStatus() string {
	switch {
	case s.submitting:
		return "\n\n" + styleMuted().Render("saving…")
	case s.modalErr != "":
		return "\n\n" + styleError.Render(s.modalErr)
	}
	return ""
}

func (s *resourceScreen[T]) modalTitle() string {
	for _, ak := range actionKeys {
		if ak.modal == s.modal.Kind() {
			return strings.ToUpper(ak.label[:1]) + ak.label[1:]
		}
	}
	return string(s.modal.Kind())
}

// itemName is the first non-empty detail after the id.
func (s *resourceScreen[T]) itemName(item T) string {
	if s.def.Details != nil {
		for _, d := range s.def.Details(item) {
			if d.Label != "ID" && strings.TrimSpace(d.Value) != "" {
				return fmt.Sprintf("%q", d.Value)
			}
		}
	}
	return "#" + s.def.ID(item)
}

func (s *resourceScreen[T]) detailsView(item T) string {
	if s.def.Details == nil {
		return s.def.ID(item)
	}
	details := s.def.Details(item)
	w := 0
	for _, d := range details {
		w = max(w, lipgloss.Width(d.Label))
	}
	lines := make([]string, len(details))
	for i, d := range details {
		label := styleMuted().Render(fmt.Sprintf("%-*s", w, d.Label))
		val := d.Value
		if d.Label == "Status" {
			val = statusStyle(val).Render(val)
		}
		lines[i] = label + "  " + val
	}
	return strings.Join(lines, "\n")
}

func (s *resourceScreen[T]) plansView(name string) string {
	if s.plans == nil && s.modalErr == "" {
		return "Loading plans…"
	}
	var b strings.Builder
	b.WriteString("Plan for " + name + ":\n\n")
	for i, p := range s.plans {
		line := fmt.Sprintf("%s  %s / %s", p.Name, resources.Price(p.Price), p.Interval)
		if i == s.planSel {
			b.WriteString(lipgloss.NewStyle().Background(colorSelectedBg).Foreground(colorSelectedFg).Bold(true).Render("› " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n" + styleMuted().Render("j/k: choose   enter: apply   esc: cancel"))
	return b.String()
}

func (s *resourceScreen[T]) editView() string {
	var b strings.Builder
	for i, f := range editFields {
		label := fmt.Sprintf("%-6s", f)
		if i == s.fieldSel {
			label = styleHeader.Render(label)
		} else {
			label = styleMuted().Render(label)
		}
		b.WriteString(label + "  " + s.fields[i].View() + "\n")
	}
	b.WriteString("\n" + styleMuted().Render("tab: next field   enter: save   esc: cancel"))
	return b.String()
}

package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"shortdash-cli/internal/api"
	"shortdash-cli/internal/api/apitest"
	"shortdash-cli/internal/listsync"
	"shortdash-cli/internal/modal"
	"shortdash-cli/internal/model"
	"shortdash-cli/internal/resources"
)

func seedLinks(srv *apitest.Server) {
	now := time.Now().UTC()
	srv.Set("links",
		api.Record{"id": 1, "short_code": "abc", "short_url": "https://sho.rt/abc", "original_url": "https://a.example", "clicks": 3,
			"user": map[string]any{"id": 3, "name": "Alice", "email": "alice@example.com"}, "created_at": now.Format(time.RFC3339)},
		api.Record{"id": 2, "short_code": "def", "original_url": "https://b.example",
			"user": map[string]any{"id": 4, "name": "Bob", "email": "bob@example.com"}, "created_at": now.Format(time.RFC3339),
			"expires_at": "2020-01-01T00:00:00Z"},
		api.Record{"id": 3, "short_code": "old", "original_url": "https://c.example",
			"user": map[string]any{"id": 3, "name": "Alice", "email": "alice@example.com"}, "created_at": "2019-06-01T00:00:00Z"},
	)
}

func openScreen[T any](t *testing.T, e *env, def *resources.Def[T]) *resourceScreen[T] {
	t.Helper()
	s := newResourceScreen(e, def)
	t.Cleanup(s.Close)
	s.SetSize(120, 30)
	drive(t, s, s.Init())
	return s
}

func ids[T any](s *resourceScreen[T]) []string {
	out := make([]string, len(s.items))
	for i, it := range s.items {
		out[i] = s.def.ID(it)
	}
	return out
}

func TestResourceScreen_LoadsDefaultWindow(t *testing.T) {
	srv := apitest.New(t)
	seedLinks(srv)
	s := openScreen(t, testEnv(t, srv, superAdmin()), resources.Links())

	if got := strings.Join(ids(s), ","); got != "1,2" {
		t.Fatalf("expected links 1,2 in the default window, got %q", got)
	}
	if s.total != 3 {
		t.Fatalf("expected total 3, got %d", s.total)
	}
	if s.loading {
		t.Fatalf("expected loading to be over")
	}
	v := s.View()
	if !strings.Contains(v, "abc") || !strings.Contains(v, "2 of 3") {
		t.Fatalf("unexpected view:\n%s", v)
	}
}

func TestResourceScreen_SearchFiltersAndEscClears(t *testing.T) {
	srv := apitest.New(t)
	seedLinks(srv)
	s := openScreen(t, testEnv(t, srv, superAdmin()), resources.Links())

	press(t, s, "/", "b", "o", "b")
	if !s.Capturing() {
		t.Fatalf("expected the search input to capture keys")
	}
	if got := strings.Join(ids(s), ","); got != "2" {
		t.Fatalf("search bob: got %q", got)
	}

	press(t, s, "enter")
	if s.Capturing() || s.filters.Search != "bob" {
		t.Fatalf("enter should keep the search and release focus (search=%q)", s.filters.Search)
	}

	press(t, s, "/", "esc")
	if s.filters.Search != "" || len(s.items) != 2 {
		t.Fatalf("esc should clear the search, got %q and %d items", s.filters.Search, len(s.items))
	}
}

func TestResourceScreen_FilterChipsAndDateWindow(t *testing.T) {
	srv := apitest.New(t)
	seedLinks(srv)
	s := openScreen(t, testEnv(t, srv, superAdmin()), resources.Links())

	if got := strings.Join(s.chipNames(), ","); got != "status,userId" {
		t.Fatalf("chips: got %q", got)
	}

	// status: all -> active
	press(t, s, "f")
	if s.filters.Get(listsync.FilterStatus) != resources.StatusActive {
		t.Fatalf("status filter: got %q", s.filters.Get(listsync.FilterStatus))
	}
	if got := strings.Join(ids(s), ","); got != "1" {
		t.Fatalf("active links in window: got %q", got)
	}

	press(t, s, "a")
	if got := strings.Join(ids(s), ","); got != "1,3" {
		t.Fatalf("active links of all time: got %q", got)
	}
	if !strings.Contains(s.View(), "dates: all") {
		t.Fatalf("expected the date chip to read all")
	}

	// userId cycles through owners sorted by name: all -> Alice
	press(t, s, "]", "f")
	if s.filters.Get(listsync.FilterUserID) != "3" {
		t.Fatalf("owner filter: got %q", s.filters.Get(listsync.FilterUserID))
	}
	if !strings.Contains(s.chipsView(), "userId: Alice") {
		t.Fatalf("expected the owner chip to show the name, got %q", s.chipsView())
	}

	press(t, s, "x")
	if got := strings.Join(ids(s), ","); got != "1,2" {
		t.Fatalf("reset: got %q", got)
	}
}

func TestResourceScreen_DeleteNeedsConfirmation(t *testing.T) {
	srv := apitest.New(t)
	seedLinks(srv)
	s := openScreen(t, testEnv(t, srv, superAdmin()), resources.Links())

	press(t, s, "d")
	if s.modal.Kind() != modal.Delete {
		t.Fatalf("expected delete modal, got %q", s.modal.Kind())
	}
	press(t, s, "n")
	if s.modal.IsOpen() {
		t.Fatalf("n should cancel")
	}

	// Focus the cancel button, then select it.
	press(t, s, "d", "tab", "enter")
	if s.modal.IsOpen() || len(srv.Records("links")) != 3 {
		t.Fatalf("cancel button should not delete")
	}

	_, flashes := press(t, s, "d", "y")
	if got := lastFlash(t, flashes); got.err || got.text != "Link deleted" {
		t.Fatalf("flash: %+v", got)
	}
	if got := strings.Join(ids(s), ","); got != "2" {
		t.Fatalf("after delete: got %q", got)
	}
	if len(srv.Records("links")) != 2 {
		t.Fatalf("server still has %d links", len(srv.Records("links")))
	}
}

func TestResourceScreen_ExtendValidatesDate(t *testing.T) {
	srv := apitest.New(t)
	seedLinks(srv)
	s := openScreen(t, testEnv(t, srv, superAdmin()), resources.Links())

	press(t, s, "down", "e")
	if s.modal.Kind() != modal.Extend {
		t.Fatalf("expected extend modal, got %q", s.modal.Kind())
	}
	want := time.Now().AddDate(0, 0, defaultExtendDays).Format(listsync.DateLayout)
	if s.until.Value() != want {
		t.Fatalf("default date: got %q want %q", s.until.Value(), want)
	}

	s.until.SetValue("2001-01-01")
	press(t, s, "enter")
	if !s.modal.IsOpen() || !strings.Contains(s.modalErr, "future") {
		t.Fatalf("expected a past-date error, got open=%v err=%q", s.modal.IsOpen(), s.modalErr)
	}

	s.until.SetValue(want)
	_, flashes := press(t, s, "enter")
	if got := lastFlash(t, flashes); got.err || got.text != "Link expiry updated" {
		t.Fatalf("flash: %+v", got)
	}
	l, _ := s.sync.Item("2")
	if l.ExpiresAt == nil || l.Status != resources.StatusActive {
		t.Fatalf("link 2 not extended: %+v", l)
	}
}

func TestResourceScreen_FailedExtendKeepsModal(t *testing.T) {
	srv := apitest.New(t)
	seedLinks(srv)
	srv.Fail("PATCH /super-admin/links/2/expire", 500, "boom")
	s := openScreen(t, testEnv(t, srv, superAdmin()), resources.Links())

	press(t, s, "down", "e")
	want := time.Now().AddDate(0, 0, 45).Format(listsync.DateLayout)
	s.until.SetValue(want)

	_, flashes := press(t, s, "enter")
	if got := lastFlash(t, flashes); !got.err || got.text != "boom" {
		t.Fatalf("flash: %+v", got)
	}
	if s.modal.Kind() != modal.Extend || s.submitting {
		t.Fatalf("a failed extend should keep the modal: kind=%q submitting=%v", s.modal.Kind(), s.submitting)
	}
	if item, _ := s.modal.Selected(); s.def.ID(item) != "2" {
		t.Fatalf("selection lost: %q", s.def.ID(item))
	}
	if s.until.Value() != want || s.modalErr != "boom" {
		t.Fatalf("date=%q err=%q", s.until.Value(), s.modalErr)
	}
	if !strings.Contains(s.View(), "boom") {
		t.Fatalf("expected the error in the modal")
	}

	srv.ClearFailures()
	_, flashes = press(t, s, "enter")
	if got := lastFlash(t, flashes); got.err || got.text != "Link expiry updated" {
		t.Fatalf("retry flash: %+v", got)
	}
	if s.modal.IsOpen() {
		t.Fatalf("success should close the modal")
	}
}

func TestResourceScreen_FailedEditKeepsDraft(t *testing.T) {
	srv := apitest.New(t)
	srv.Set("users", api.Record{"id": 5, "name": "Zoe", "email": "zoe@example.com", "is_active": true, "created_at": time.Now().UTC().Format(time.RFC3339)})
	srv.Fail("PUT /super-admin/users/5", 422, "Email already taken")
	s := openScreen(t, testEnv(t, srv, superAdmin()), resources.Users())

	press(t, s, "E", "tab", "ctrl+u", "x", "@y.z", "enter")
	if s.modal.Kind() != modal.Edit || !strings.Contains(s.modalErr, "Email already taken") {
		t.Fatalf("kind=%q err=%q", s.modal.Kind(), s.modalErr)
	}
	if v, _ := s.modal.Draft("email"); v != "x@y.z" || s.fields[1].Value() != "x@y.z" {
		t.Fatalf("draft lost: %q / %q", v, s.fields[1].Value())
	}
	u, _ := s.sync.Item("5")
	if u.Email != "zoe@example.com" {
		t.Fatalf("failed edit must not change the list: %+v", u)
	}
}

func TestResourceScreen_UnsupportedActionFlashes(t *testing.T) {
	srv := apitest.New(t)
	seedLinks(srv)
	s := openScreen(t, testEnv(t, srv, superAdmin()), resources.Links())

	_, flashes := press(t, s, "v")
	if got := lastFlash(t, flashes); !got.err || got.text != "links cannot replay" {
		t.Fatalf("flash: %+v", got)
	}
	if s.modal.IsOpen() {
		t.Fatalf("no modal expected")
	}
}

func TestResourceScreen_ReplayFailureRollsBack(t *testing.T) {
	srv := apitest.New(t)
	srv.Set("transactions", api.Record{"id": "t1", "reference": "REF-1", "amount": 10, "status": "failed", "created_at": time.Now().UTC().Format(time.RFC3339)})
	srv.Fail("POST /super-admin/transactions/t1/replay", 502, "Provider unreachable")
	s := openScreen(t, testEnv(t, srv, superAdmin()), resources.Transactions())

	_, flashes := press(t, s, "v", "y")
	if got := lastFlash(t, flashes); !got.err || !strings.Contains(got.text, "Provider unreachable") {
		t.Fatalf("flash: %+v", got)
	}
	tx, _ := s.sync.Item("t1")
	if tx.Status != model.TransactionFailed {
		t.Fatalf("status: got %q", tx.Status)
	}
	if s.modal.Kind() != modal.Replay || !strings.Contains(s.modalErr, "Provider unreachable") {
		t.Fatalf("the confirm dialog should stay open with the error: kind=%q err=%q", s.modal.Kind(), s.modalErr)
	}
	press(t, s, "esc")
	if s.modal.IsOpen() {
		t.Fatalf("esc should close the dialog")
	}
}

func TestResourceScreen_EditUser(t *testing.T) {
	srv := apitest.New(t)
	srv.Set("users", api.Record{"id": 5, "name": "Zoe", "email": "zoe@example.com", "is_active": true, "created_at": time.Now().UTC().Format(time.RFC3339)})
	s := openScreen(t, testEnv(t, srv, superAdmin()), resources.Users())

	press(t, s, "E")
	if s.modal.Kind() != modal.Edit || s.fields[0].Value() != "Zoe" {
		t.Fatalf("expected the edit modal prefilled, got %q", s.modal.Kind())
	}

	press(t, s, "enter")
	if s.modalErr != "nothing changed" {
		t.Fatalf("expected nothing changed, got %q", s.modalErr)
	}

	_, flashes := press(t, s, "ctrl+u", "Z", "o", "é", "enter")
	if got := lastFlash(t, flashes); got.err || got.text != "User updated" {
		t.Fatalf("flash: %+v", got)
	}
	u, _ := s.sync.Item("5")
	if u.Name != "Zoé" || u.Email != "zoe@example.com" {
		t.Fatalf("user: %+v", u)
	}
	if got := srv.Records("users")[0]["name"]; got != "Zoé" {
		t.Fatalf("server name: %v", got)
	}
}

func TestResourceScreen_ChangePlanPicker(t *testing.T) {
	srv := apitest.New(t)
	srv.Set("plans", api.Record{"id": "p1", "name": "Free"}, api.Record{"id": "p2", "name": "Premium", "price": 9.99})
	srv.Set("users", api.Record{"id": 5, "name": "Zoé", "email": "zoe@example.com", "plan": "Free", "is_active": true, "created_at": time.Now().UTC().Format(time.RFC3339)})
	s := openScreen(t, testEnv(t, srv, superAdmin()), resources.Users())

	press(t, s, "p")
	if len(s.plans) != 2 || s.planSel != 0 {
		t.Fatalf("plans: %d selected %d", len(s.plans), s.planSel)
	}
	if !strings.Contains(s.View(), "Premium") {
		t.Fatalf("expected the picker to list plans")
	}

	_, flashes := press(t, s, "j", "enter")
	if got := lastFlash(t, flashes); got.err || got.text != "Plan changed" {
		t.Fatalf("flash: %+v", got)
	}
	if got := srv.Records("users")[0]["plan"]; got != "p2" {
		t.Fatalf("server plan: %v", got)
	}
}

func TestResourceScreen_FetchErrorKeepsRetry(t *testing.T) {
	srv := apitest.New(t)
	seedLinks(srv)
	srv.Fail("GET /super-admin/links", 500, "Database down")
	s := openScreen(t, testEnv(t, srv, superAdmin()), resources.Links())

	if !strings.Contains(s.errText, "Database down") {
		t.Fatalf("errText: %q", s.errText)
	}
	if !strings.Contains(s.View(), "r: retry") {
		t.Fatalf("expected a retry hint")
	}

	srv.ClearFailures()
	press(t, s, "r")
	if s.errText != "" || len(s.items) != 2 {
		t.Fatalf("retry: err=%q items=%d", s.errText, len(s.items))
	}
}

func TestResourceScreen_CopyAndDetails(t *testing.T) {
	srv := apitest.New(t)
	seedLinks(srv)
	s := openScreen(t, testEnv(t, srv, superAdmin()), resources.Links())

	var copied string
	orig := copyToClipboard
	copyToClipboard = func(v string) error { copied = v; return nil }
	t.Cleanup(func() { copyToClipboard = orig })

	_, flashes := press(t, s, "y")
	if copied != "https://sho.rt/abc" {
		t.Fatalf("copied %q", copied)
	}
	if got := lastFlash(t, flashes); got.text != "Copied https://sho.rt/abc" {
		t.Fatalf("flash: %+v", got)
	}

	press(t, s, "enter")
	if s.modal.Kind() != modal.Details || !strings.Contains(s.View(), "https://a.example") {
		t.Fatalf("expected details for link 1:\n%s", s.View())
	}
	press(t, s, "esc")
	if s.modal.IsOpen() {
		t.Fatalf("esc should close details")
	}
}

func TestResourceScreen_DownloadQRCode(t *testing.T) {
	srv := apitest.New(t)
	srv.Set("qr_codes", api.Record{"id": 9, "name": "Menu", "type": "url", "content": "https://menu.example", "created_at": time.Now().UTC().Format(time.RFC3339)})
	e := testEnv(t, srv, superAdmin())
	s := openScreen(t, e, resources.QRCodes())

	_, flashes := press(t, s, "D")
	got := lastFlash(t, flashes)
	if got.err || !strings.HasPrefix(got.text, "Saved file://") {
		t.Fatalf("flash: %+v", got)
	}
	b, err := os.ReadFile(filepath.Join(e.cfg.Dir, "downloads", "qr-9.png"))
	if err != nil {
		t.Fatalf("read download: %v", err)
	}
	if string(b) != string(apitest.PNG) {
		t.Fatalf("unexpected body %q", b)
	}
}

func TestParseDay(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)
	got, err := parseDay("2026-03-10", now)
	if err != nil {
		t.Fatalf("today: %v", err)
	}
	if got.Day() != 10 || got.Hour() != 23 {
		t.Fatalf("expected the end of the day, got %v", got)
	}
	if _, err := parseDay("2026-03-09", now); err == nil {
		t.Fatalf("expected yesterday to be rejected")
	}
	if _, err := parseDay("10/03/2026", now); err == nil {
		t.Fatalf("expected a layout error")
	}
}

package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"shortdash-cli/internal/api"
	"shortdash-cli/internal/api/apitest"

	"github.com/golang-jwt/jwt/v5"
)

func runCLI(t *testing.T, args []string) (stdout []byte, stderr []byte, err error) {
	t.Helper()
	return runCLIWithInput(t, nil, args)
}

func runCLIWithInput(t *testing.T, in io.Reader, args []string) (stdout []byte, stderr []byte, err error) {
	t.Helper()

	cmd := NewRootCmd()

	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	if in != nil {
		cmd.SetIn(in)
	}
	cmd.SetArgs(args)

	e := cmd.Execute()
	return outBuf.Bytes(), errBuf.Bytes(), e
}

// isolate points the config dir at a temp dir and clears identity env vars.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SHORTDASH_CONFIG_DIR", dir)
	for _, k := range []string{"SHORTDASH_TOKEN", "SHORTDASH_ROLE", "SHORTDASH_ACCESS", "SHORTDASH_API_URL", "SHORTDASH_FORMAT", "SHORTDASH_LOG_FILE"} {
		t.Setenv(k, "")
	}
	return dir
}

func superAdmin(srv *apitest.Server, args ...string) []string {
	return append([]string{"--api-url", srv.URL, "--token", apitest.Token, "--role", "super_admin"}, args...)
}

func adminWith(srv *apitest.Server, access string, args ...string) []string {
	return append([]string{"--api-url", srv.URL, "--token", apitest.Token, "--role", "admin", "--access", access}, args...)
}

func decodeEnvelope(t *testing.T, out []byte) map[string]any {
	t.Helper()
	var env map[string]any
	if err := json.Unmarshal(out, &env); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, string(out))
	}
	if _, ok := env["data"]; !ok {
		t.Fatalf("missing data envelope: %s", string(out))
	}
	return env
}

func dataMap(t *testing.T, env map[string]any) map[string]any {
	t.Helper()
	m, ok := env["data"].(map[string]any)
	if !ok {
		t.Fatalf("data is %T, want object", env["data"])
	}
	return m
}

func dataList(t *testing.T, env map[string]any) []any {
	t.Helper()
	l, ok := env["data"].([]any)
	if !ok {
		t.Fatalf("data is %T, want array", env["data"])
	}
	return l
}

func seedLinks(srv *apitest.Server) {
	now := time.Now().UTC()
	srv.Set("links",
		api.Record{"id": 1, "short_code": "abc", "original_url": "https://a.example", "clicks": 3,
			"user": map[string]any{"id": 3, "name": "Alice", "email": "alice@example.com"}, "created_at": now.Format(time.RFC3339)},
		api.Record{"id": 2, "short_code": "def", "original_url": "https://b.example",
			"user": map[string]any{"id": 4, "name": "Bob", "email": "bob@example.com"}, "created_at": now.Format(time.RFC3339),
			"expires_at": "2020-01-01T00:00:00Z"},
		api.Record{"id": 3, "short_code": "old", "original_url": "https://c.example",
			"user": map[string]any{"id": 3, "name": "Alice", "email": "alice@example.com"}, "created_at": "2019-06-01T00:00:00Z"},
	)
}

func TestLinksList_DefaultWindowSearchAndFilters(t *testing.T) {
	isolate(t)
	srv := apitest.New(t)
	seedLinks(srv)

	out, _, err := runCLI(t, superAdmin(srv, "links", "list"))
	if err != nil {
		t.Fatalf("links list: %v", err)
	}
	env := decodeEnvelope(t, out)
	if got := len(dataList(t, env)); got != 2 {
		t.Fatalf("default window: got %d links, want 2", got)
	}
	meta := env["meta"].(map[string]any)
	if meta["total"].(float64) != 3 {
		t.Fatalf("total: got %v", meta["total"])
	}

	out, _, err = runCLI(t, superAdmin(srv, "links", "list", "--all-time", "--search", "ALICE"))
	if err != nil {
		t.Fatalf("links list --search: %v", err)
	}
	if got := len(dataList(t, decodeEnvelope(t, out))); got != 2 {
		t.Fatalf("search: got %d links, want 2", got)
	}

	out, _, err = runCLI(t, superAdmin(srv, "links", "list", "--all-time", "--filter", "status=expired"))
	if err != nil {
		t.Fatalf("links list --filter: %v", err)
	}
	items := dataList(t, decodeEnvelope(t, out))
	if len(items) != 1 || items[0].(map[string]any)["id"] != "2" {
		t.Fatalf("expired filter: got %v", items)
	}
}

func TestLinksList_OwnersAreDistinct(t *testing.T) {
	isolate(t)
	srv := apitest.New(t)
	seedLinks(srv)

	out, _, err := runCLI(t, superAdmin(srv, "links", "list", "--owners"))
	if err != nil {
		t.Fatalf("links list --owners: %v", err)
	}
	users := dataList(t, decodeEnvelope(t, out))
	if len(users) != 2 {
		t.Fatalf("owners: got %v", users)
	}
	if users[0].(map[string]any)["name"] != "Alice" || users[1].(map[string]any)["name"] != "Bob" {
		t.Fatalf("owners order: got %v", users)
	}
}

func TestLinksList_RejectsUnknownFilter(t *testing.T) {
	isolate(t)
	srv := apitest.New(t)

	_, stderr, err := runCLI(t, superAdmin(srv, "links", "list", "--filter", "colour=red"))
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(string(stderr), `unknown filter "colour"`) {
		t.Fatalf("stderr: %s", string(stderr))
	}
	if srv.Calls("GET /super-admin/links") != 0 {
		t.Fatalf("expected no request for a bad filter")
	}
}

func TestTableFormat(t *testing.T) {
	isolate(t)
	srv := apitest.New(t)
	seedLinks(srv)

	out, _, err := runCLI(t, superAdmin(srv, "--format", "table", "links", "list", "--all-time"))
	if err != nil {
		t.Fatalf("links list: %v", err)
	}
	s := string(out)
	for _, want := range []string{"Code", "Destination", "abc", "https://c.example"} {
		if !strings.Contains(s, want) {
			t.Fatalf("table lacks %q:\n%s", want, s)
		}
	}
}

func TestShow(t *testing.T) {
	isolate(t)
	srv := apitest.New(t)
	seedLinks(srv)

	out, _, err := runCLI(t, superAdmin(srv, "links", "show", "1"))
	if err != nil {
		t.Fatalf("links show: %v", err)
	}
	if got := dataMap(t, decodeEnvelope(t, out))["shortCode"]; got != "abc" {
		t.Fatalf("shortCode: got %v", got)
	}

	_, stderr, err := runCLI(t, superAdmin(srv, "links", "show", "99"))
	if err == nil {
		t.Fatalf("expected not found")
	}
	if _, ok := err.(notFoundError); !ok {
		t.Fatalf("expected notFoundError, got %T", err)
	}
	if !strings.Contains(string(stderr), "links not found: 99") {
		t.Fatalf("stderr: %s", string(stderr))
	}
}

func TestFilesResetCounter(t *testing.T) {
	isolate(t)
	srv := apitest.New(t)
	srv.Set("files", api.Record{"id": "7", "original_name": "b.zip", "download_count": 12, "created_at": time.Now().UTC().Format(time.RFC3339)})

	out, _, err := runCLI(t, superAdmin(srv, "files", "reset", "7"))
	if err != nil {
		t.Fatalf("files reset-counter: %v", err)
	}
	env := decodeEnvelope(t, out)
	if got := dataMap(t, env)["downloads"]; got != float64(0) {
		t.Fatalf("downloads: got %v", got)
	}
	if got := env["meta"].(map[string]any)["notice"]; got == "" {
		t.Fatalf("expected a notice")
	}
	if got := srv.Records("files")[0]["download_count"]; got != float64(0) && got != 0 {
		t.Fatalf("server counter: got %v", got)
	}
}

func TestExtendExpiry(t *testing.T) {
	isolate(t)
	srv := apitest.New(t)
	seedLinks(srv)

	_, _, err := runCLI(t, superAdmin(srv, "links", "extend-expiry", "1", "--until", "2001-01-01"))
	if err == nil {
		t.Fatalf("expected past date to be rejected")
	}
	_, _, err = runCLI(t, superAdmin(srv, "links", "extend-expiry", "1"))
	if err == nil {
		t.Fatalf("expected missing date to be rejected")
	}
	if srv.Calls("PATCH /super-admin/links/1/expire") != 0 {
		t.Fatalf("invalid input must not reach the backend")
	}

	out, _, err := runCLI(t, superAdmin(srv, "links", "extend", "2", "--days", "10"))
	if err != nil {
		t.Fatalf("links extend: %v", err)
	}
	d := dataMap(t, decodeEnvelope(t, out))
	if d["expiresAt"] == nil || d["status"] != "active" {
		t.Fatalf("after extend: %v", d)
	}
}

func TestDelete_RequiresConfirmation(t *testing.T) {
	isolate(t)
	srv := apitest.New(t)
	seedLinks(srv)

	_, stderr, err := runCLI(t, superAdmin(srv, "links", "delete", "1"))
	if err == nil || !strings.Contains(string(stderr), "--yes") {
		t.Fatalf("expected refusal, got err=%v stderr=%s", err, string(stderr))
	}
	if srv.Calls("DELETE /super-admin/links/1") != 0 {
		t.Fatalf("unconfirmed delete reached the backend")
	}

	out, _, err := runCLI(t, superAdmin(srv, "links", "delete", "1", "--yes"))
	if err != nil {
		t.Fatalf("links delete: %v", err)
	}
	if got := dataMap(t, decodeEnvelope(t, out))["deleted"]; got != true {
		t.Fatalf("deleted: got %v", got)
	}
	if len(srv.Records("links")) != 2 {
		t.Fatalf("server still has %d links", len(srv.Records("links")))
	}
}

func TestReplayFailureIsReported(t *testing.T) {
	isolate(t)
	srv := apitest.New(t)
	srv.Set("transactions", api.Record{"id": "t1", "reference": "REF-1", "amount": 10, "status": "failed", "created_at": time.Now().UTC().Format(time.RFC3339)})
	srv.Fail("POST /super-admin/transactions/t1/replay", 502, "Provider unreachable")

	_, stderr, err := runCLI(t, superAdmin(srv, "transactions", "replay", "t1"))
	if err == nil {
		t.Fatalf("expected failure")
	}
	if !strings.Contains(string(stderr), "Provider unreachable") {
		t.Fatalf("stderr: %s", string(stderr))
	}
}

func TestUsersChangePlanByName(t *testing.T) {
	isolate(t)
	srv := apitest.New(t)
	srv.Set("plans", api.Record{"id": "p1", "name": "Free"}, api.Record{"id": "p2", "name": "Premium", "price": 9.99})
	srv.Set("users", api.Record{"id": 5, "name": "Zoé", "email": "zoe@example.com", "plan": "Free", "is_active": true, "created_at": time.Now().UTC().Format(time.RFC3339)})

	out, _, err := runCLI(t, superAdmin(srv, "users", "change-plan", "5", "--plan", "premium"))
	if err != nil {
		t.Fatalf("users change-plan: %v", err)
	}
	if got := dataMap(t, decodeEnvelope(t, out))["plan"]; got != "Premium" {
		t.Fatalf("plan: got %v", got)
	}
	if got := srv.Records("users")[0]["plan"]; got != "p2" {
		t.Fatalf("server plan: got %v", got)
	}

	_, stderr, err := runCLI(t, superAdmin(srv, "users", "change-plan", "5", "--plan", "gold"))
	if err == nil || !strings.Contains(string(stderr), "Free, Premium") {
		t.Fatalf("expected unknown plan, got err=%v stderr=%s", err, string(stderr))
	}
}

func TestUsersUpdateFields(t *testing.T) {
	isolate(t)
	srv := apitest.New(t)
	srv.Set("users", api.Record{"id": 5, "name": "Zoe", "email": "zoe@example.com", "created_at": time.Now().UTC().Format(time.RFC3339)})

	if _, _, err := runCLI(t, superAdmin(srv, "users", "update-fields", "5")); err == nil {
		t.Fatalf("expected an error without fields")
	}
	out, _, err := runCLI(t, superAdmin(srv, "users", "update-fields", "5", "--name", "Zoé"))
	if err != nil {
		t.Fatalf("users update-fields: %v", err)
	}
	d := dataMap(t, decodeEnvelope(t, out))
	if d["name"] != "Zoé" || d["email"] != "zoe@example.com" {
		t.Fatalf("after update: %v", d)
	}
}

func TestAdminAccessGatesResources(t *testing.T) {
	isolate(t)
	srv := apitest.New(t)
	seedLinks(srv)

	_, stderr, err := runCLI(t, adminWith(srv, "", "links", "list"))
	if err == nil {
		t.Fatalf("expected admin without access to be refused")
	}
	if _, ok := err.(forbiddenError); !ok {
		t.Fatalf("expected forbiddenError, got %T: %v", err, err)
	}
	if !strings.Contains(string(stderr), "permission denied") {
		t.Fatalf("stderr: %s", string(stderr))
	}

	out, _, err := runCLI(t, adminWith(srv, `{"permissions":["links"]}`, "links", "list", "--all-time"))
	if err != nil {
		t.Fatalf("admin with links access: %v", err)
	}
	if got := len(dataList(t, decodeEnvelope(t, out))); got != 3 {
		t.Fatalf("got %d links", got)
	}
	if srv.Calls("GET /admin/links") != 1 {
		t.Fatalf("admin must use the /admin prefix")
	}
}

func TestNonPrivilegedRoleIsRefused(t *testing.T) {
	isolate(t)
	srv := apitest.New(t)

	_, _, err := runCLI(t, []string{"--api-url", srv.URL, "--token", apitest.Token, "--role", "member", "overview"})
	if err == nil {
		t.Fatalf("expected refusal")
	}
	if len(srv.Records("links")) != 0 || srv.Calls("GET /admin/links") != 0 {
		t.Fatalf("no request expected")
	}
}

func TestNav(t *testing.T) {
	isolate(t)
	srv := apitest.New(t)

	out, _, err := runCLI(t, adminWith(srv, `["links","notifications"]`, "nav"))
	if err != nil {
		t.Fatalf("nav: %v", err)
	}
	var keys []string
	for _, it := range dataList(t, decodeEnvelope(t, out)) {
		keys = append(keys, it.(map[string]any)["key"].(string))
	}
	if got := strings.Join(keys, ","); got != "overview,links,notifications,docs" {
		t.Fatalf("nav: got %s", got)
	}
}

func TestOverview(t *testing.T) {
	isolate(t)
	srv := apitest.New(t)
	seedLinks(srv)
	srv.Set("users", api.Record{"id": 1, "name": "A", "is_active": true}, api.Record{"id": 2, "name": "B", "is_active": false})

	out, _, err := runCLI(t, superAdmin(srv, "overview"))
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	rows := dataList(t, decodeEnvelope(t, out))
	if len(rows) != 7 {
		t.Fatalf("super admin should see 7 resources, got %d", len(rows))
	}
	byKey := map[string]map[string]any{}
	for _, r := range rows {
		m := r.(map[string]any)
		byKey[m["resource"].(string)] = m
	}
	links := byKey["links"]
	if links["count"].(float64) != 3 {
		t.Fatalf("links count: %v", links["count"])
	}
	if st := links["byStatus"].(map[string]any); st["expired"].(float64) != 1 || st["active"].(float64) != 2 {
		t.Fatalf("links by status: %v", st)
	}
	if st := byKey["users"]["byStatus"].(map[string]any); st["inactive"].(float64) != 1 {
		t.Fatalf("users by status: %v", st)
	}

	out, _, err = runCLI(t, adminWith(srv, `["users"]`, "overview"))
	if err != nil {
		t.Fatalf("admin overview: %v", err)
	}
	if rows := dataList(t, decodeEnvelope(t, out)); len(rows) != 1 {
		t.Fatalf("admin with users access should see 1 row, got %d", len(rows))
	}
}

func TestOverview_FailsWhenAResourceFails(t *testing.T) {
	isolate(t)
	srv := apitest.New(t)
	srv.Fail("GET /super-admin/posts", 500, "Database down")

	_, stderr, err := runCLI(t, superAdmin(srv, "overview"))
	if err == nil {
		t.Fatalf("expected failure")
	}
	if !strings.Contains(string(stderr), "Database down") {
		t.Fatalf("stderr: %s", string(stderr))
	}
}

func TestNotifySend(t *testing.T) {
	isolate(t)
	srv := apitest.New(t)

	_, stderr, err := runCLI(t, superAdmin(srv, "notify", "send", "--message", "hello", "--audience", "user"))
	if err == nil {
		t.Fatalf("expected validation error")
	}
	s := string(stderr)
	if !strings.Contains(s, "title: required") || !strings.Contains(s, "userId: required") {
		t.Fatalf("stderr: %s", s)
	}
	if srv.Calls("POST /super-admin/notifications/send") != 0 {
		t.Fatalf("invalid form reached the backend")
	}

	out, _, err := runCLI(t, superAdmin(srv, "notify", "send", "--title", "Maintenance", "--message", "Back at 22:00", "--type", "warning"))
	if err != nil {
		t.Fatalf("notify send: %v", err)
	}
	d := dataMap(t, decodeEnvelope(t, out))
	if d["recipients"] != float64(3) || d["type"] != "warning" {
		t.Fatalf("sent: %v", d)
	}

	out, _, err = runCLI(t, superAdmin(srv, "notify", "history"))
	if err != nil {
		t.Fatalf("notify history: %v", err)
	}
	if got := len(dataList(t, decodeEnvelope(t, out))); got != 1 {
		t.Fatalf("history: got %d", got)
	}
}

func TestQRCodeDownload(t *testing.T) {
	isolate(t)
	srv := apitest.New(t)
	dir := t.TempDir()

	out, _, err := runCLI(t, superAdmin(srv, "qr", "download", "9", "--dir", dir))
	if err != nil {
		t.Fatalf("qrcodes download: %v", err)
	}
	d := dataMap(t, decodeEnvelope(t, out))
	p := d["path"].(string)
	if filepath.Base(p) != "qr-9.png" {
		t.Fatalf("path: %s", p)
	}
	b, err := os.ReadFile(p)
	if err != nil || !bytes.Equal(b, apitest.PNG) {
		t.Fatalf("saved file: %v %q", err, b)
	}
	if !strings.HasPrefix(d["url"].(string), "file://") {
		t.Fatalf("url: %v", d["url"])
	}
}

func TestSessionLifecycle(t *testing.T) {
	dir := isolate(t)
	srv := apitest.New(t)
	seedLinks(srv)

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"role":   "admin",
		"name":   "Ana",
		"access": `["links"]`,
		"exp":    time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	out, _, err := runCLIWithInput(t, strings.NewReader(tok+"\n"), []string{"session", "set", "--email", "ana@example.com"})
	if err != nil {
		t.Fatalf("session set: %v", err)
	}
	d := dataMap(t, decodeEnvelope(t, out))
	if d["role"] != "admin" || d["name"] != "Ana" || d["email"] != "ana@example.com" || d["expired"] != false {
		t.Fatalf("stored: %v", d)
	}
	if strings.Contains(string(out), tok) {
		t.Fatalf("token must be masked")
	}
	if _, err := os.Stat(filepath.Join(dir, "session.json")); err != nil {
		t.Fatalf("session file: %v", err)
	}

	out, _, err = runCLI(t, []string{"session", "show"})
	if err != nil {
		t.Fatalf("session show: %v", err)
	}
	access := dataMap(t, decodeEnvelope(t, out))["access"].([]any)
	if len(access) != 1 || access[0] != "links" {
		t.Fatalf("access: %v", access)
	}

	// The stored session drives API calls: the fake backend only accepts its own
	// token, so a stored JWT is refused with the backend's message.
	_, stderr, err := runCLI(t, []string{"--api-url", srv.URL, "links", "list"})
	if err == nil || !strings.Contains(string(stderr), "Unauthenticated.") {
		t.Fatalf("expected backend refusal, got err=%v stderr=%s", err, string(stderr))
	}

	if _, _, err := runCLI(t, []string{"session", "clear"}); err != nil {
		t.Fatalf("session clear: %v", err)
	}
	out, _, err = runCLI(t, []string{"session", "show"})
	if err != nil {
		t.Fatalf("session show after clear: %v", err)
	}
	if got := dataMap(t, decodeEnvelope(t, out))["privileged"]; got != false {
		t.Fatalf("privileged after clear: %v", got)
	}
}

func TestDocs(t *testing.T) {
	isolate(t)

	out, _, err := runCLI(t, []string{"docs"})
	if err != nil {
		t.Fatalf("docs: %v", err)
	}
	topics := dataMap(t, decodeEnvelope(t, out))["topics"].([]any)
	if len(topics) == 0 || topics[0] != "overview" {
		t.Fatalf("topics: %v", topics)
	}

	out, _, err = runCLI(t, []string{"docs", "links", "--raw"})
	if err != nil {
		t.Fatalf("docs links --raw: %v", err)
	}
	if !strings.Contains(string(out), "/links/{id}/expire") {
		t.Fatalf("raw docs: %s", string(out))
	}

	if _, _, err := runCLI(t, []string{"docs", "nope"}); err == nil {
		t.Fatalf("expected unknown topic error")
	}
}

func TestParseUntil(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.Local)

	got, err := parseUntil("2025-03-10", 0, now)
	if err != nil {
		t.Fatalf("today stays valid until midnight: %v", err)
	}
	if got.Day() != 10 || got.Hour() != 23 {
		t.Fatalf("until: %v", got)
	}
	if _, err := parseUntil("2025-03-09", 0, now); err == nil {
		t.Fatalf("expected past date error")
	}
	if _, err := parseUntil("2025-03-20", 5, now); err == nil {
		t.Fatalf("expected both-flags error")
	}
	got, err = parseUntil("", 7, now)
	if err != nil || !got.Equal(now.AddDate(0, 0, 7)) {
		t.Fatalf("days: %v %v", got, err)
	}
}

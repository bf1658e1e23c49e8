// Package apitest runs an in-memory backend with the dashboard's REST routes.
// Tests use it to exercise the real api.Client end to end.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"shortdash-cli/internal/api"

	"github.com/go-chi/chi/v5"
)

const Token = "test-token"

// PNG is the body served by the QR code download route.
var PNG = []byte("\x89PNG\r\n\x1a\nfake")

type failure struct {
	status  int
	message string
}

type Server struct {
	*httptest.Server

	mu          sync.Mutex
	collections map[string][]api.Record
	calls       []string
	failures    map[string]failure
	delay       time.Duration
	sent        int
}

// New starts a server and registers its shutdown with t.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		collections: map[string][]api.Record{},
		failures:    map[string]failure{},
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)
	r.Use(s.auth)
	r.Use(s.failInjected)

	mount := func(r chi.Router) {
		s.collection(r, "links", "links")
		s.collection(r, "qr-codes", "qr_codes")
		s.collection(r, "files", "files")
		s.collection(r, "users", "users")
		s.collection(r, "transactions", "transactions")
		s.collection(r, "subscriptions", "subscriptions")
		s.collection(r, "posts", "posts")
		r.Get("/plans", s.listHandler("plans"))

		r.Patch("/links/{id}/expire", s.patch("links", setExpiry))
		r.Patch("/qr-codes/{id}/expire", s.patch("qr_codes", setExpiry))
		r.Get("/qr-codes/{id}/download", s.downloadQR)
		r.Patch("/files/{id}/extend", s.patch("files", setExpiry))
		r.Post("/files/{id}/reset-downloads", s.patch("files", func(rec api.Record, _ map[string]any) { rec["download_count"] = 0 }))
		r.Put("/users/{id}", s.patch("users", func(rec api.Record, body map[string]any) {
			for _, k := range []string{"name", "email"} {
				if v, ok := body[k]; ok && v != "" {
					rec[k] = v
				}
			}
		}))
		r.Patch("/users/{id}/toggle-status", s.patch("users", func(rec api.Record, _ map[string]any) {
			active, _ := rec["is_active"].(bool)
			rec["is_active"] = !active
		}))
		r.Patch("/users/{id}/plan", s.patch("users", func(rec api.Record, body map[string]any) { rec["plan"] = body["plan_id"] }))
		r.Post("/transactions/{id}/replay", s.patch("transactions", func(rec api.Record, _ map[string]any) { rec["status"] = "pending" }))
		r.Post("/transactions/{id}/mark-success", s.patch("transactions", func(rec api.Record, _ map[string]any) { rec["status"] = "completed" }))
		r.Patch("/posts/{id}/toggle-publish", s.patch("posts", func(rec api.Record, _ map[string]any) {
			pub, _ := rec["is_published"].(bool)
			rec["is_published"] = !pub
		}))
		r.Post("/notifications/send", s.sendNotification)
		r.Get("/notifications/history", s.listHandler("notifications"))
	}
	r.Route("/admin", mount)
	r.Route("/super-admin", mount)
	return r
}

func (s *Server) collection(r chi.Router, route, name string) {
	r.Get("/"+route, s.listHandler(name))
	r.Get("/"+route+"/{id}", s.getHandler(name))
	r.Delete("/"+route+"/{id}", s.deleteHandler(name))
}

// Set replaces a collection ("links", "qr_codes", "files", "users", "transactions",
// "subscriptions", "posts", "plans", "notifications").
func (s *Server) Set(name string, recs ...api.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[name] = append([]api.Record{}, recs...)
}

func (s *Server) Records(name string) []api.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.Record, 0, len(s.collections[name]))
	for _, rec := range s.collections[name] {
		cp := make(api.Record, len(rec))
		for k, v := range rec {
			cp[k] = v
		}
		out = append(out, cp)
	}
	return out
}

// Fail makes every request matching "METHOD /path" answer with status and message.
func (s *Server) Fail(route string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = failure{status: status, message: message}
}

func (s *Server) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = map[string]failure{}
}

// SetDelay slows every answer down, to keep requests in flight.
func (s *Server) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// Calls returns how many requests matched "METHOD /path".
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c == route {
			n++
		}
	}
	return n
}

func (s *Server) Client(prefix string) *api.Client {
	level := api.LevelAdmin
	if prefix == "/super-admin" {
		level = api.LevelSuperAdmin
	}
	return api.New(s.URL+prefix, level, Token)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls = append(s.calls, r.Method+" "+r.URL.Path)
		d := s.delay
		s.mu.Unlock()
		if d > 0 {
			time.Sleep(d)
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+Token {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Unauthenticated."})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) failInjected(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		f, ok := s.failures[r.Method+" "+r.URL.Path]
		s.mu.Unlock()
		if ok {
			writeJSON(w, f.status, map[string]any{"message": f.message})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) listHandler(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"data": s.Records(name)})
	}
}

func (s *Server) getHandler(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		rec, _ := s.findLocked(name, chi.URLParam(r, "id"))
		if rec == nil {
			writeJSON(w, http.StatusNotFound, map[string]any{"message": "Not found."})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": rec})
	}
}

func (s *Server) deleteHandler(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		_, i := s.findLocked(name, chi.URLParam(r, "id"))
		if i < 0 {
			writeJSON(w, http.StatusNotFound, map[string]any{"message": "Not found."})
			return
		}
		recs := s.collections[name]
		s.collections[name] = append(recs[:i:i], recs[i+1:]...)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) patch(name string, apply func(rec api.Record, body map[string]any)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{}
		if r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Malformed body.", "errors": []string{err.Error()}})
				return
			}
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		rec, _ := s.findLocked(name, chi.URLParam(r, "id"))
		if rec == nil {
			writeJSON(w, http.StatusNotFound, map[string]any{"message": "Not found."})
			return
		}
		apply(rec, body)
		writeJSON(w, http.StatusOK, map[string]any{"data": rec})
	}
}

func (s *Server) downloadQR(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="qr-%s.png"`, id))
	_, _ = w.Write(PNG)
}

func (s *Server) sendNotification(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Malformed body."})
		return
	}
	if title, _ := body["title"].(string); strings.TrimSpace(title) == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"message": "The given data was invalid.",
			"errors":  map[string][]string{"title": {"The title field is required."}},
		})
		return
	}
	s.mu.Lock()
	s.sent++
	rec := api.Record{
		"id":               fmt.Sprintf("n-%d", s.sent),
		"title":            body["title"],
		"message":          body["message"],
		"type":             body["type"],
		"audience":         body["audience"],
		"recipients_count": 3,
		"created_at":       time.Now().UTC().Format(time.RFC3339),
	}
	s.collections["notifications"] = append([]api.Record{rec}, s.collections["notifications"]...)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, map[string]any{"data": rec})
}

func (s *Server) findLocked(name, id string) (api.Record, int) {
	for i, rec := range s.collections[name] {
		if fmt.Sprint(rec["id"]) == id {
			return rec, i
		}
	}
	return nil, -1
}

func setExpiry(rec api.Record, body map[string]any) {
	rec["expires_at"] = body["expires_at"]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

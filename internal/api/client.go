// Package api is the dashboard's REST client.
//
// There is one client per privilege level: admins talk to the ADMIN base path and
// super admins to the SUPER_ADMIN one. Every method returns raw JSON records (or a
// Blob for downloads); mapping to view models happens in internal/resources.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"shortdash-cli/internal/config"
	"shortdash-cli/internal/session"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const requestIDHeader = "X-Request-ID"

type Level string

const (
	LevelAdmin      Level = "ADMIN"
	LevelSuperAdmin Level = "SUPER_ADMIN"
)

// Record is one raw backend object.
type Record = map[string]any

var ErrNoToken = errors.New("api: missing bearer token")

type Client struct {
	base    string
	level   Level
	token   string
	http    *http.Client
	limiter *rate.Limiter
	log     *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRateLimit caps the request rate. rps <= 0 disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New builds a client for baseURL (already including the level's path prefix).
func New(baseURL string, level Level, token string, opts ...Option) *Client {
	c := &Client{
		base:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		level: level,
		token: strings.TrimSpace(token),
		http:  &http.Client{Timeout: 15 * time.Second},
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// LevelFor maps a role to the client level it must use.
func LevelFor(s session.Session) Level {
	if s.SuperAdmin() {
		return LevelSuperAdmin
	}
	return LevelAdmin
}

// ForSession builds the client matching the session's privilege level.
func ForSession(cfg *config.Config, s session.Session, log *slog.Logger) (*Client, error) {
	if strings.TrimSpace(s.Token) == "" {
		return nil, ErrNoToken
	}
	level := LevelFor(s)
	prefix := cfg.AdminPath
	if level == LevelSuperAdmin {
		prefix = cfg.SuperAdminPath
	}
	base := strings.TrimRight(cfg.APIURL, "/") + "/" + strings.TrimLeft(prefix, "/")
	return New(base, level, s.Token,
		WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}),
		WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		WithLogger(log),
	), nil
}

func (c *Client) Level() Level { return c.level }

func (c *Client) BaseURL() string { return c.base }

func (c *Client) newRequest(ctx context.Context, method, p string, body any) (*http.Request, error) {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("api: encode body: %w", err)
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+p, rdr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set(requestIDHeader, uuid.NewString())
	return req, nil
}

// send performs the request and returns the response for 2xx statuses. The caller
// closes the body.
func (c *Client) send(ctx context.Context, method, p string, body any) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	req, err := c.newRequest(ctx, method, p, body)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("api request failed", "method", method, "path", p, "err", err, "request_id", req.Header.Get(requestIDHeader))
		return nil, err
	}
	c.log.Debug("api request", "method", method, "path", p, "status", resp.StatusCode, "dur", time.Since(start), "request_id", req.Header.Get(requestIDHeader))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		apiErr := decodeError(resp)
		if e, ok := apiErr.(*Error); ok && e.RequestID == "" {
			e.RequestID = req.Header.Get(requestIDHeader)
		}
		return nil, apiErr
	}
	return resp, nil
}

// do sends a JSON request and decodes the JSON answer into out (when non-nil).
func (c *Client) do(ctx context.Context, method, p string, body, out any) error {
	resp, err := c.send(ctx, method, p, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("api: decode %s %s: %w", method, p, err)
	}
	return nil
}

// list fetches a collection. The backend answers with a bare array, {"data": [...]},
// a paginated {"data": {"data": [...]}} or {"<key>": [...]}.
func (c *Client) list(ctx context.Context, p, key string) ([]Record, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, p, nil, &raw); err != nil {
		return nil, err
	}
	return decodeList(raw, key)
}

func decodeList(raw json.RawMessage, key string) ([]Record, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []Record{}, nil
	}
	if raw[0] == '[' {
		var out []Record
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("api: decode list: %w", err)
		}
		return nonNil(out), nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("api: decode list: %w", err)
	}
	for _, k := range []string{"data", key, "items", "results"} {
		if k == "" {
			continue
		}
		if inner, ok := obj[k]; ok {
			inner = bytes.TrimSpace(inner)
			if len(inner) > 0 && (inner[0] == '[' || inner[0] == '{') {
				return decodeList(inner, "")
			}
		}
	}
	return nil, fmt.Errorf("api: decode list: no collection in response")
}

// decodeOne unwraps {"data": {...}} when present.
func decodeOne(raw json.RawMessage) (Record, error) {
	var obj Record
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("api: decode record: %w", err)
	}
	if inner, ok := obj["data"].(map[string]any); ok {
		return inner, nil
	}
	return obj, nil
}

func nonNil(in []Record) []Record {
	if in == nil {
		return []Record{}
	}
	return in
}

func (c *Client) get(ctx context.Context, p string) (Record, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, p, nil, &raw); err != nil {
		return nil, err
	}
	return decodeOne(raw)
}

func pathID(prefix, id string, rest ...string) string {
	p := prefix + "/" + url.PathEscape(strings.TrimSpace(id))
	for _, r := range rest {
		p += "/" + r
	}
	return p
}

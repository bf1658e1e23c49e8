package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
)

// Error is a non-2xx backend response. Message and Details are shown to the
// user verbatim.
type Error struct {
	Status    int
	Message   string
	Details   []string
	Fields    map[string][]string
	RequestID string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if d := e.detailText(); d != "" {
		return fmt.Sprintf("%d %s (%s)", e.Status, msg, d)
	}
	return fmt.Sprintf("%d %s", e.Status, msg)
}

func (e *Error) detailText() string {
	parts := append([]string{}, e.Details...)
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], ", "))
	}
	return strings.Join(parts, "; ")
}

// IsStatus reports whether err is an *Error with the given HTTP status.
func IsStatus(err error, status int) bool {
	var e *Error
	return errors.As(err, &e) && e.Status == status
}

// Message converts any error into the string shown to dashboard users.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		msg := strings.TrimSpace(e.Message)
		if msg == "" {
			msg = http.StatusText(e.Status)
		}
		if d := e.detailText(); d != "" {
			return msg + ": " + d
		}
		return msg
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "the server did not answer in time"
	}
	if errors.Is(err, context.Canceled) {
		return "request canceled"
	}
	return err.Error()
}

const maxErrorBody = 1 << 20

func decodeError(resp *http.Response) error {
	e := &Error{Status: resp.StatusCode, RequestID: resp.Header.Get(requestIDHeader)}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var body struct {
		Message string          `json:"message"`
		Error   string          `json:"error"`
		Errors  json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(b, &body); err != nil {
		if s := strings.TrimSpace(string(b)); s != "" && len(s) < 300 && !strings.HasPrefix(s, "<") {
			e.Message = s
		}
		return e
	}
	e.Message = strings.TrimSpace(body.Message)
	if e.Message == "" {
		e.Message = strings.TrimSpace(body.Error)
	}
	parseErrorsField(e, body.Errors)
	if e.Message == "" && len(e.Details) == 1 && len(e.Fields) == 0 {
		e.Message, e.Details = e.Details[0], nil
	}
	return e
}

// parseErrorsField accepts "errors" as a string, an array of strings or a map of
// field name to string or array of strings.
func parseErrorsField(e *Error, raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return
	}
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			e.Details = append(e.Details, s)
		}
	case []any:
		for _, it := range t {
			if s, ok := it.(string); ok && strings.TrimSpace(s) != "" {
				e.Details = append(e.Details, strings.TrimSpace(s))
			}
		}
	case map[string]any:
		e.Fields = map[string][]string{}
		for k, fv := range t {
			switch ft := fv.(type) {
			case string:
				e.Fields[k] = append(e.Fields[k], ft)
			case []any:
				for _, it := range ft {
					if s, ok := it.(string); ok {
						e.Fields[k] = append(e.Fields[k], s)
					}
				}
			}
		}
	}
}

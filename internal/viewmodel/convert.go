package viewmodel

import (
	"encoding/json"
	"path"
	"strconv"
	"strings"
	"time"

	"shortdash-cli/internal/model"
)

// String accepts strings and JSON numbers (numeric ids are common on the backend).
func String(v any) any {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return nil
	}
}

func Int(v any) any {
	switch t := v.(type) {
	case float64:
		return int64(t)
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		if f, err := t.Float64(); err == nil {
			return int64(f)
		}
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64); err == nil {
			return n
		}
	}
	return nil
}

func Float(v any) any {
	switch t := v.(type) {
	case float64:
		return t
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return f
		}
	}
	return nil
}

func Bool(v any) any {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "1", "true", "yes", "active", "published":
			return true
		case "0", "false", "no", "inactive", "draft":
			return false
		}
	}
	return nil
}

func Lower(v any) any {
	s, ok := String(v).(string)
	if !ok {
		return nil
	}
	return strings.ToLower(strings.TrimSpace(s))
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses the backend's timestamp variants. Values without a zone
// (including date-only values) are read as local time.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if layout == time.RFC3339Nano {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
			continue
		}
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Timestamp normalizes a timestamp to RFC 3339 so it decodes into time.Time.
func Timestamp(v any) any {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	t, ok := ParseTimestamp(s)
	if !ok {
		return nil
	}
	return t.Format(time.RFC3339Nano)
}

// Extension derives a file type from a file name ("Report.PDF" -> "pdf").
func Extension(v any) any {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	ext := strings.TrimPrefix(path.Ext(strings.TrimSpace(s)), ".")
	if ext == "" {
		return nil
	}
	return strings.ToLower(ext)
}

var ownerMapping = Mapping{
	{From: "id", To: "id", Default: "", Convert: String},
	{From: "name", To: "name", Default: model.UnknownUserName, Convert: NonEmpty},
	{From: "email", To: "email", Default: "", Convert: String},
}

// Owner maps a nested user object. Anything that is not an object maps to the
// unknown-user sentinel.
func Owner(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return ownerMapping.Apply(m)
}

// UnknownOwner is the Default for owner fields.
func UnknownOwner() map[string]any {
	u := model.UnknownUser()
	return map[string]any{"id": u.ID, "name": u.Name, "email": u.Email}
}

func NonEmpty(v any) any {
	s, ok := String(v).(string)
	if !ok || strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

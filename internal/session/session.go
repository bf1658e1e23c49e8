// Package session adapts the identity produced by the external auth collaborator
// (role, token, name, email, access descriptor) into a read-only value that is
// injected into every screen and command.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"shortdash-cli/internal/model"
)

type Session struct {
	Role   model.Role `json:"role"`
	Token  string     `json:"token"`
	Name   string     `json:"name,omitempty"`
	Email  string     `json:"email,omitempty"`
	Access Access     `json:"access,omitempty"`
}

// Privileged reports whether the role may use the dashboard at all.
func (s Session) Privileged() bool {
	return s.Role == model.RoleAdmin || s.Role == model.RoleSuperAdmin
}

func (s Session) SuperAdmin() bool {
	return s.Role == model.RoleSuperAdmin
}

func (s Session) Label() string {
	name := strings.TrimSpace(s.Name)
	if name == "" {
		name = strings.TrimSpace(s.Email)
	}
	if name == "" {
		name = "anonymous"
	}
	return fmt.Sprintf("%s (%s)", name, emptyAsDash(string(s.Role)))
}

func emptyAsDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// Access is the permission descriptor attached to an admin account.
//
// The backend has shipped three encodings over time and all are still in the wild:
//   - a JSON string holding either an array or an object with "permissions"
//   - an object {"permissions": [...]}
//   - a native array
type Access struct {
	Permissions []string
}

var errAccessShape = errors.New("access: unsupported shape")

func (a *Access) UnmarshalJSON(b []byte) error {
	perms, err := parseAccess(b, 0)
	if err != nil {
		return err
	}
	a.Permissions = perms
	return nil
}

func (a Access) MarshalJSON() ([]byte, error) {
	perms := a.Permissions
	if perms == nil {
		perms = []string{}
	}
	return json.Marshal(map[string]any{"permissions": perms})
}

// ParseAccess parses any of the accepted encodings. Empty input yields no permissions.
func ParseAccess(raw string) (Access, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Access{}, nil
	}
	var a Access
	if err := a.UnmarshalJSON([]byte(raw)); err != nil {
		return Access{}, err
	}
	return a, nil
}

func parseAccess(b []byte, depth int) ([]string, error) {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("access: %w", err)
	}
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil, nil
		}
		// A string wraps one of the other shapes; never more than once.
		if depth > 0 {
			return nil, errAccessShape
		}
		return parseAccess([]byte(s), depth+1)
	case []any:
		return stringsOf(t), nil
	case map[string]any:
		p, ok := t["permissions"]
		if !ok || p == nil {
			return nil, nil
		}
		arr, ok := p.([]any)
		if !ok {
			return nil, errAccessShape
		}
		return stringsOf(arr), nil
	default:
		return nil, errAccessShape
	}
}

func stringsOf(arr []any) []string {
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		s, ok := v.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (a Access) Has(perm string) bool {
	perm = strings.TrimSpace(perm)
	for _, p := range a.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

package session

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"shortdash-cli/internal/model"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is what the dashboard reads from the bearer token. The signature is not
// verified here: the backend verifies every request, the dashboard only needs the
// identity to decide what to show.
type Claims struct {
	Role      model.Role
	Name      string
	Email     string
	Access    Access
	ExpiresAt time.Time
}

func ParseClaims(token string) (Claims, error) {
	token = strings.TrimSpace(token)
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return Claims{}, fmt.Errorf("token: %w", err)
	}

	var c Claims
	if v, ok := mc["role"].(string); ok {
		c.Role = model.Role(strings.TrimSpace(v))
	}
	if v, ok := mc["name"].(string); ok {
		c.Name = v
	}
	if v, ok := mc["email"].(string); ok {
		c.Email = v
	}
	if raw, ok := mc["access"]; ok && raw != nil {
		b, err := json.Marshal(raw)
		if err != nil {
			return Claims{}, err
		}
		if err := c.Access.UnmarshalJSON(b); err != nil {
			return Claims{}, err
		}
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, nil
}

// Expired reports whether claims carry an expiry that has passed.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// Overrides are explicit values from flags or environment.
type Overrides struct {
	Token  string
	Role   string
	Name   string
	Email  string
	Access string
}

// Resolve builds the effective session. Precedence: explicit overrides, then the
// token's claims, then the stored session.
func Resolve(stored Session, o Overrides) (Session, error) {
	s := stored
	if t := strings.TrimSpace(o.Token); t != "" && t != s.Token {
		// A different token invalidates the identity stored alongside the old one.
		s = Session{Token: t}
	}
	if s.Token != "" {
		if c, err := ParseClaims(s.Token); err == nil {
			if c.Role != "" {
				s.Role = c.Role
			}
			if c.Name != "" {
				s.Name = c.Name
			}
			if c.Email != "" {
				s.Email = c.Email
			}
			if len(c.Access.Permissions) > 0 {
				s.Access = c.Access
			}
		}
	}
	if r := strings.TrimSpace(o.Role); r != "" {
		s.Role = model.Role(r)
	}
	if n := strings.TrimSpace(o.Name); n != "" {
		s.Name = n
	}
	if e := strings.TrimSpace(o.Email); e != "" {
		s.Email = e
	}
	if a := strings.TrimSpace(o.Access); a != "" {
		acc, err := ParseAccess(a)
		if err != nil {
			return Session{}, err
		}
		s.Access = acc
	}
	return s, nil
}

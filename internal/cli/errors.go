package cli

import (
	"fmt"

	"shortdash-cli/internal/session"
)

type notFoundError struct {
	kind string
	id   string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.kind, e.id)
}

func errNotFound(kind, id string) error {
	return notFoundError{kind: kind, id: id}
}

type forbiddenError struct {
	who      string
	resource string
}

func (e forbiddenError) Error() string {
	if e.resource == "" {
		return fmt.Sprintf("permission denied: %s has no dashboard access", e.who)
	}
	return fmt.Sprintf("permission denied: %s may not open %s", e.who, e.resource)
}

func errNotPrivileged(s session.Session) error {
	return forbiddenError{who: s.Label()}
}

func errForbidden(s session.Session, resource string) error {
	return forbiddenError{who: s.Label(), resource: resource}
}

type usageError struct {
	msg string
}

func (e usageError) Error() string { return e.msg }

func errUsage(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

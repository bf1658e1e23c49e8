// Package modal tracks the one modal a screen may show and the item it acts on.
package modal

import (
	"errors"
	"strings"
)

// Kind names a modal. Most kinds are the action they confirm.
type Kind string

const (
	None    Kind = ""
	Details Kind = "details"
	Delete  Kind = "delete"
	Extend  Kind = "extend"
	Clear   Kind = "clear"
	Reset   Kind = "reset"
	Replay  Kind = "replay"
	Success Kind = "mark-success"
	Plan    Kind = "plan"
	Edit    Kind = "edit"
	Toggle  Kind = "toggle"
)

var ErrBusy = errors.New("modal: another modal is open")

// Controller is either idle or open on exactly one (kind, item) pair. Draft
// edits live only while the modal is open.
type Controller[T any] struct {
	kind     Kind
	selected T
	draft    map[string]string
}

func (c *Controller[T]) IsOpen() bool { return c.kind != None }

func (c *Controller[T]) Kind() Kind { return c.kind }

// Selected returns the item the open modal acts on.
func (c *Controller[T]) Selected() (T, bool) {
	if c.kind == None {
		var zero T
		return zero, false
	}
	return c.selected, true
}

// Open shows a modal for item. It fails while another modal is open.
func (c *Controller[T]) Open(kind Kind, item T) error {
	if kind == None {
		return errors.New("modal: empty kind")
	}
	if c.kind != None {
		return ErrBusy
	}
	c.kind = kind
	c.selected = item
	c.draft = nil
	return nil
}

// Close returns to idle and discards drafts.
func (c *Controller[T]) Close() {
	var zero T
	c.kind = None
	c.selected = zero
	c.draft = nil
}

func (c *Controller[T]) SetDraft(field, value string) {
	if c.kind == None {
		return
	}
	if c.draft == nil {
		c.draft = map[string]string{}
	}
	c.draft[field] = value
}

func (c *Controller[T]) Draft(field string) (string, bool) {
	v, ok := c.draft[field]
	return v, ok
}

// Edits returns the trimmed, non-blank draft values without closing the modal.
func (c *Controller[T]) Edits() map[string]string {
	out := make(map[string]string, len(c.draft))
	for k, v := range c.draft {
		if strings.TrimSpace(v) != "" {
			out[k] = strings.TrimSpace(v)
		}
	}
	return out
}

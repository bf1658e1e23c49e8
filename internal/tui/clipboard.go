package tui

import (
	"errors"
	"strings"

	"github.com/atotto/clipboard"
)

var errNoClipboard = errors.New("no clipboard available (install xclip, xsel or wl-clipboard)")

// copyToClipboard is a variable so tests can capture copies.
var copyToClipboard = func(s string) error {
	if clipboard.Unsupported {
		return errNoClipboard
	}
	return clipboard.WriteAll(strings.ReplaceAll(s, "\r\n", "\n"))
}

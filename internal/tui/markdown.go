package tui

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

const minMarkdownWidth = 20

// rendererCache holds one glamour renderer per style and wrap width. Styles are
// fixed names; WithAutoStyle may block on terminal background queries.
type rendererCache struct {
	mu sync.Mutex
	by map[string]*glamour.TermRenderer
}

var docRenderers = &rendererCache{by: map[string]*glamour.TermRenderer{}}

func (c *rendererCache) get(style string, width int) (*glamour.TermRenderer, error) {
	key := fmt.Sprintf("%s:%d", style, width)
	c.mu.Lock()
	defer c.mu.Unlock()
	if r, ok := c.by[key]; ok {
		return r, nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	c.by[key] = r
	return r, nil
}

func (c *rendererCache) has(style string, width int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.by[fmt.Sprintf("%s:%d", style, width)]
	return ok
}

// renderMarkdown renders a docs page for the reading pane. On any renderer
// failure the raw markdown is shown instead.
func renderMarkdown(md string, width int) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	width = max(width, minMarkdownWidth)

	r, err := docRenderers.get(markdownStyle(), width)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

func markdownStyle() string {
	switch v := strings.ToLower(strings.TrimSpace(os.Getenv("SHORTDASH_TUI_THEME"))); v {
	case "light", "dark":
		return v
	}
	if lipgloss.HasDarkBackground() {
		return "dark"
	}
	return "light"
}

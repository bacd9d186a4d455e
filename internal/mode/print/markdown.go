// ABOUTME: Markdown renderer wrapper around glamour for the pretty output format
// ABOUTME: Caches rendered results keyed by content hash + width; safe for concurrent replays

package print

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

var sharedRenderer = newMarkdownRenderer()

// markdownRenderer wraps glamour to render markdown with caching.
type markdownRenderer struct {
	mu    sync.Mutex
	cache map[string]string // "hash:width" -> rendered
}

func newMarkdownRenderer() *markdownRenderer {
	return &markdownRenderer{cache: make(map[string]string)}
}

// Render returns the terminal-styled rendering of md. On renderer failure
// the raw text is returned.
func (r *markdownRenderer) Render(md string, width int) string {
	if md == "" {
		return ""
	}

	key := cacheKey(md, width)
	r.mu.Lock()
	cached, ok := r.cache[key]
	r.mu.Unlock()
	if ok {
		return cached
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}

	rendered, err := renderer.Render(md)
	if err != nil {
		return md
	}

	// glamour pads with trailing blank lines
	rendered = strings.TrimRight(rendered, "\n ")

	r.mu.Lock()
	r.cache[key] = rendered
	r.mu.Unlock()
	return rendered
}

func cacheKey(content string, width int) string {
	h := sha256.Sum256([]byte(content))
	return fmt.Sprintf("%x:%d", h[:8], width)
}

// Package tui renders conversation output for terminals.
package tui

import (
	"os"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

const defaultWidth = 100

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// NewRenderer returns a markdown renderer for f. It returns nil when f is not
// a terminal so piped output stays plain markdown.
func NewRenderer(f *os.File) func(string) (string, error) {
	if !IsTerminal(f) {
		return nil
	}
	width := defaultWidth
	if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 && w < width {
		width = w
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-4),
	)
	if err != nil {
		return nil
	}
	return r.Render
}

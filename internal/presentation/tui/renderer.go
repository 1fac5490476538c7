package tui

import (
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
// Question text is treated as markdown so authors can use emphasis and
// lists in scenes.
func NewRenderer() func(string) (string, error) {
	r, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // detect light/dark background
	)

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

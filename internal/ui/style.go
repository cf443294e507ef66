// Package ui renders human-readable command output with lipgloss.
package ui

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// Semantic colors.
var (
	ColorPass   = lipgloss.AdaptiveColor{Light: "#2E7D32", Dark: "#7FD962"}
	ColorWarn   = lipgloss.AdaptiveColor{Light: "#B26A00", Dark: "#FFB454"}
	ColorFail   = lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#F07178"}
	ColorAccent = lipgloss.AdaptiveColor{Light: "#1565C0", Dark: "#59C2FF"}
	ColorMuted  = lipgloss.AdaptiveColor{Light: "#6C7680", Dark: "#8A9199"}
)

// Icons.
const (
	IconPass = "✓"
	IconWarn = "!"
	IconFail = "✗"
)

// Styles is a set of styles bound to one output stream.
type Styles struct {
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style
	Dim     lipgloss.Style
	Bold    lipgloss.Style
	Header  lipgloss.Style
	Border  lipgloss.Style

	renderer *lipgloss.Renderer
}

// NewStyles builds styles for w. Color is used only when w is a terminal.
func NewStyles(w io.Writer) Styles {
	r := lipgloss.NewRenderer(w)
	if !IsTerminal(w) {
		r.SetColorProfile(termenv.Ascii)
	}
	return Styles{
		Success:  r.NewStyle().Foreground(ColorPass).Bold(true),
		Warning:  r.NewStyle().Foreground(ColorWarn).Bold(true),
		Error:    r.NewStyle().Foreground(ColorFail).Bold(true),
		Info:     r.NewStyle().Foreground(ColorAccent),
		Dim:      r.NewStyle().Foreground(ColorMuted),
		Bold:     r.NewStyle().Bold(true),
		Header:   r.NewStyle().Bold(true).Foreground(ColorAccent).Padding(0, 1),
		Border:   r.NewStyle().Foreground(ColorMuted),
		renderer: r,
	}
}

// IsTerminal reports whether stream is a terminal. Streams that are not
// files never are.
func IsTerminal(stream any) bool {
	f, ok := stream.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Check renders a pass or fail icon.
func (s Styles) Check(ok bool) string {
	if ok {
		return s.Success.Render(IconPass)
	}
	return s.Error.Render(IconFail)
}

// YesNo renders a boolean as a colored yes/no.
func (s Styles) YesNo(ok bool) string {
	if ok {
		return s.Success.Render("yes")
	}
	return s.Dim.Render("no")
}

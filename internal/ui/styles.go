// Package ui renders search results, suggestions and analytics for the
// terminal, and provides the interactive search screen.
package ui

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Color palette - single lime accent.
const (
	ColorLime     = "154"
	ColorLimeDim  = "106"
	ColorWhite    = "255"
	ColorGray     = "245"
	ColorDarkGray = "238"
	ColorRed      = "196"
	ColorYellow   = "220"
)

// Styles holds the render styles.
type Styles struct {
	Header lipgloss.Style
	Title  lipgloss.Style
	Score  lipgloss.Style
	Source lipgloss.Style
	Label  lipgloss.Style
	Dim    lipgloss.Style
	Error  lipgloss.Style
	Panel  lipgloss.Style
}

// DefaultStyles returns the styled palette for TTY output.
func DefaultStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorLime)),
		Title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorWhite)),
		Score:  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLimeDim)),
		Source: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorYellow)),
		Label:  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		Dim:    lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),
		Error:  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed)),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(ColorDarkGray)).
			Padding(0, 1),
	}
}

// NoColorStyles returns unstyled output for pipes and CI.
func NoColorStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle(),
		Title:  lipgloss.NewStyle(),
		Score:  lipgloss.NewStyle(),
		Source: lipgloss.NewStyle(),
		Label:  lipgloss.NewStyle(),
		Dim:    lipgloss.NewStyle(),
		Error:  lipgloss.NewStyle(),
		Panel:  lipgloss.NewStyle(),
	}
}

// IsTTY reports whether w is an interactive terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// StylesFor picks styled or plain output for the writer.
func StylesFor(w io.Writer) Styles {
	if IsTTY(w) && os.Getenv("NO_COLOR") == "" {
		return DefaultStyles()
	}
	return NoColorStyles()
}

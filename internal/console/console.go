// Package console prints colored status lines for the terminal.
package console

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Category selects the color of a printed line.
type Category int

const (
	Generic Category = iota
	Info
	Error
)

// Printer writes one line per message. The message is styled by category;
// the optional detail follows uncolored after ": ".
type Printer struct {
	out    io.Writer
	styles map[Category]lipgloss.Style
}

// New returns a Printer for w. The color profile is detected from w, so a
// redirected stream receives plain text.
func New(w io.Writer) *Printer {
	return newPrinter(w, lipgloss.NewRenderer(w))
}

// NewWithProfile is like New but forces the color profile.
func NewWithProfile(w io.Writer, profile termenv.Profile) *Printer {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(profile)
	return newPrinter(w, r)
}

func newPrinter(w io.Writer, r *lipgloss.Renderer) *Printer {
	return &Printer{
		out: w,
		styles: map[Category]lipgloss.Style{
			Generic: r.NewStyle().Foreground(lipgloss.Color("10")),
			Info:    r.NewStyle().Foreground(lipgloss.Color("12")),
			Error:   r.NewStyle().Foreground(lipgloss.Color("9")),
		},
	}
}

// Format renders a line without the trailing newline.
func (p *Printer) Format(cat Category, message, detail string) string {
	style, ok := p.styles[cat]
	if !ok {
		style = p.styles[Generic]
	}
	line := style.Render(message)
	if detail != "" {
		line += ": " + detail
	}
	return line
}

// Print writes a formatted line.
func (p *Printer) Print(cat Category, message, detail string) {
	fmt.Fprintln(p.out, p.Format(cat, message, detail))
}

// Printf writes a generic line built from a format.
func (p *Printer) Printf(format string, args ...any) {
	p.Print(Generic, fmt.Sprintf(format, args...), "")
}

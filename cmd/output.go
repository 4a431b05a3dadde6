package cmd

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	ok    lipgloss.Style
	fail  lipgloss.Style
	name  lipgloss.Style
	faint lipgloss.Style
	box   lipgloss.Style
}

func newStyles(color bool) styles {
	if !color {
		plain := lipgloss.NewStyle()
		return styles{ok: plain, fail: plain, name: plain, faint: plain, box: plain}
	}
	return styles{
		ok:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		fail:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		name:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")),
		faint: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1),
	}
}

// failure styles a formatted diagnostic line by line; the first line is
// the headline.
func (s styles) failure(text string) string {
	head, rest, found := strings.Cut(text, "\n")
	out := s.fail.Render(head)
	if !found || rest == "" {
		return out + "\n"
	}
	for _, line := range strings.Split(strings.TrimRight(rest, "\n"), "\n") {
		out += "\n" + s.faint.Render(line)
	}
	return out + "\n"
}

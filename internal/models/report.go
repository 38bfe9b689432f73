package models

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	modelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	presentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	missingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// WriteStatus prints one line per required model.
func WriteStatus(out io.Writer, statuses []Status) {
	if len(statuses) == 0 {
		fmt.Fprintln(out, "No Ollama models configured.")
		return
	}
	for _, s := range statuses {
		state := presentStyle.Render("installed")
		switch {
		case s.Err != nil:
			state = missingStyle.Render("unreachable: " + s.Err.Error())
		case !s.Present:
			state = missingStyle.Render("missing (run `reviewrag models pull`)")
		}
		fmt.Fprintf(out, "%-10s %s @ %s  %s\n", s.Role, modelStyle.Render(s.Model), s.Host, state)
	}
}

package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Echo writes the "[host] verb: command" line shown before a command runs.
// verb is "run", "sudo" or "local".
func Echo(w io.Writer, host, verb, cmd string) {
	hostStyle := lipgloss.NewStyle().Foreground(ColorInfo)
	verbStyle := lipgloss.NewStyle().Foreground(ColorMuted)
	fmt.Fprintf(w, "%s %s %s\n",
		hostStyle.Render("["+host+"]"),
		verbStyle.Render(verb+":"),
		cmd,
	)
}

// Note writes an indented informational line (e.g. "Found no tags for today").
func Note(w io.Writer, msg string) {
	fmt.Fprintf(w, "  %s\n", MutedStyle().Render(msg))
}

// RenderSimpleTable renders rows under bold column titles, padding each
// column to its width.
func RenderSimpleTable(columns []TableColumn, rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)

	var out string
	var header string
	for _, c := range columns {
		header += padRight(c.Title, c.Width)
	}
	out += headerStyle.Render(header) + "\n"

	for _, row := range rows {
		var line string
		for i, cell := range row {
			if i < len(columns) {
				line += padRight(cell, columns[i].Width)
			} else {
				line += cell
			}
		}
		out += line + "\n"
	}
	return out
}

// TableColumn defines a table column with name and width.
type TableColumn struct {
	Title string
	Width int
}

// padRight pads a string to the specified width.
func padRight(s string, width int) string {
	// Account for ANSI codes when calculating visible length
	visibleLen := lipgloss.Width(s)
	if visibleLen >= width {
		return s
	}
	padding := width - visibleLen
	for i := 0; i < padding; i++ {
		s += " "
	}
	return s
}

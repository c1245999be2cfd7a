package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F45E6E"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F4C06E"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6EF4A1"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6EC4F4"))

	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// printS writes a styled line. Unknown styles fall back to the title colour.
func printS(w io.Writer, style string, format string, a ...interface{}) {
	text := fmt.Sprintf(format, a...)
	switch style {
	case "error":
		text = errorStyle.Render(text)
	case "warning":
		text = warningStyle.Render(text)
	case "success":
		text = successStyle.Render(text)
	case "info":
		text = infoStyle.Render(text)
	default:
		text = titleStyle.Render(text)
	}
	fmt.Fprintln(w, text)
}

// renderTable draws rows under a header with a rounded border
func renderTable(w io.Writer, headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)
	fmt.Fprintln(w, t.Render())
}

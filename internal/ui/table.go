package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	plainHeader = lipgloss.NewStyle().Bold(false).Padding(0, 1)
)

// Table renders rows under headers as a bordered table. Styling is dropped
// when colors are disabled.
func Table(headers []string, rows [][]string) string {
	hdr, border := headerStyle, borderStyle
	if !IsColorEnabled() {
		hdr, border = plainHeader, lipgloss.NewStyle()
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(border).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return hdr
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)

	return t.String()
}

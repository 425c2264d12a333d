package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"yashubustudio/segmenter/segmenter"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	labelStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8A8F98"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#E53935"))
	strategyBox  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#8A8F98")).
			Padding(0, 1)
)

// bannerStyle fills the segment name with the profile color.
func bannerStyle(hex string) lipgloss.Style {
	fg := lipgloss.Color("#FFFFFF")
	if segmenter.IsLightColor(hex) {
		fg = lipgloss.Color("#000000")
	}
	return lipgloss.NewStyle().
		Bold(true).
		Padding(0, 2).
		Foreground(fg).
		Background(lipgloss.Color(hex))
}

// renderCard lays out a prediction the way the desktop form does.
func renderCard(rm segmenter.RenderModel) string {
	var b strings.Builder
	b.WriteString(bannerStyle(rm.Profile.Color).Render(rm.Profile.Name))
	b.WriteString("\n\n")
	b.WriteString(headingStyle.Render(rm.Profile.Description))
	b.WriteString("\n\n")
	b.WriteString(headingStyle.Render("Average Segment Characteristics"))
	b.WriteString("\n")
	for _, line := range rm.Characteristics {
		fmt.Fprintf(&b, "  - %s %s\n", labelStyle.Render(line.Label+":"), line.Value)
	}
	b.WriteString("\n")
	b.WriteString(strategyBox.Render(rm.Profile.Strategy))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(rm.Headline()))
	b.WriteString("\n")
	return b.String()
}

// renderTable aligns a header and rows into fixed width columns; highlight marks a row, or -1.
func renderTable(headers []string, rows [][]string, highlight int) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}
	format := func(cells []string) string {
		padded := make([]string, len(widths))
		for i := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			padded[i] = cell + strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
		}
		return strings.TrimRight(strings.Join(padded, "  "), " ")
	}

	var b strings.Builder
	b.WriteString(headingStyle.Render(format(headers)))
	b.WriteString("\n")
	for i, row := range rows {
		line := format(row)
		if i == highlight {
			line = headingStyle.Render(line + "  <")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

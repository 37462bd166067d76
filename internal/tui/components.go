package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// listingHeader is the title line naming the listing with the rendered
// summary under it. The summary line is left out when empty.
func listingHeader(title, summaryLine string, width int) string {
	rows := []string{HeaderStyle.Render(truncateEnd(CompactLogo+" "+title, width-2))}
	if summaryLine != "" {
		rows = append(rows, SummaryStyle.Render(summaryLine))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// searchPrompt is the body of the search view.
func searchPrompt(input string, focused bool, width int) string {
	border := MutedColor
	if focused {
		border = PrimaryColor
	}
	frame := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Width(width + 2).
		Render(input)

	return lipgloss.JoinVertical(lipgloss.Center,
		TitleStyle.Render("› search"),
		"",
		frame,
		"",
		HelpStyle.Render("Enter: search • Esc: cancel • empty query: all posts"),
	)
}

func centered(width, height int, content string) string {
	return lipgloss.Place(max(width, 0), max(height, 0), lipgloss.Center, lipgloss.Center, content)
}

func muted(text string) string {
	return lipgloss.NewStyle().Foreground(MutedColor).Render(text)
}

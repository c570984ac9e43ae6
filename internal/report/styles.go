package report

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Colors
var (
	primaryColor   = lipgloss.Color("#7C3AED") // Purple
	secondaryColor = lipgloss.Color("#10B981") // Green
	warningColor   = lipgloss.Color("#F59E0B") // Amber
	errorColor     = lipgloss.Color("#EF4444") // Red
	mutedColor     = lipgloss.Color("#6B7280") // Gray
	textColor      = lipgloss.Color("#F9FAFB") // Light gray
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(secondaryColor)

	metricLabelStyle = lipgloss.NewStyle().
				Foreground(mutedColor).
				Width(16)

	metricValueStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(textColor)

	tableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(primaryColor)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	successStyle = lipgloss.NewStyle().
			Foreground(secondaryColor)

	warningStyle = lipgloss.NewStyle().
			Foreground(warningColor)

	progressFullStyle = lipgloss.NewStyle().
				Foreground(secondaryColor)

	progressEmptyStyle = lipgloss.NewStyle().
				Foreground(mutedColor)
)

// RenderMetric renders a label and its value on one line
func RenderMetric(label, value string) string {
	return lipgloss.JoinHorizontal(
		lipgloss.Left,
		metricLabelStyle.Render(label),
		metricValueStyle.Render(value),
	)
}

// RenderProgressBar renders a bar for a 0-100 percentage
func RenderProgressBar(percent, width int) string {
	filled := percent * width / 100
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	var b strings.Builder
	for i := 0; i < width; i++ {
		if i < filled {
			b.WriteString(progressFullStyle.Render("█"))
		} else {
			b.WriteString(progressEmptyStyle.Render("░"))
		}
	}
	return b.String()
}

// sectionHeader renders "── Title ─────" padded to width
func sectionHeader(title string, width int) string {
	dividerLen := width - len([]rune(title)) - 4
	if dividerLen < 0 {
		dividerLen = 0
	}
	return sectionStyle.Render("── " + title + " " + strings.Repeat("─", dividerLen))
}

// RenderError renders an error line
func RenderError(err error) string {
	return errorStyle.Render("Error: " + err.Error())
}

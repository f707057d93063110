package report

import "github.com/charmbracelet/lipgloss"

// Color palette shared by every console view.
var (
	salmonPink  = lipgloss.Color("#FFB3BA") // Failures
	mintGreen   = lipgloss.Color("#A8E6CF") // Passes
	softYellow  = lipgloss.Color("#FDFD96") // Skipped and not run
	mutedGray   = lipgloss.Color("#6B7280") // Secondary text
	brightWhite = lipgloss.Color("#F9FAFB") // Primary text
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(salmonPink).
			Bold(true)

	scenarioStyle = lipgloss.NewStyle().
			Foreground(brightWhite).
			Bold(true)

	passStyle = lipgloss.NewStyle().
			Foreground(mintGreen)

	failStyle = lipgloss.NewStyle().
			Foreground(salmonPink)

	skipStyle = lipgloss.NewStyle().
			Foreground(softYellow)

	detailStyle = lipgloss.NewStyle().
			Foreground(mutedGray).
			PaddingLeft(6)

	summaryBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedGray).
			Padding(0, 1)
)

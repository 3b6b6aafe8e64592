package lipgloss

import "github.com/charmbracelet/lipgloss"

// Shared terminal styles used across commands.
var (
	Red    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	Green  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	Yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	Cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	Gray   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	Info = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1)
)

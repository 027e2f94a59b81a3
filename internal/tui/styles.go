package tui

import "github.com/charmbracelet/lipgloss"

var (
	activeTabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(lipgloss.Color("236")).
			Padding(0, 1).
			Bold(true)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 1)

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true)

	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	statNameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Width(10)
)

package tui

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles used by the display.
type Styles struct {
	Title     lipgloss.Style
	Spinner   lipgloss.Style
	JobID     lipgloss.Style
	Kind      lipgloss.Style
	Counter   lipgloss.Style
	Failed    lipgloss.Style
	LogLine   lipgloss.Style
	Container lipgloss.Style
	Dim       lipgloss.Style
}

// DefaultStyles returns the standard color scheme.
func DefaultStyles() Styles {
	return Styles{
		Title:     lipgloss.NewStyle().Bold(true),
		Spinner:   lipgloss.NewStyle().Foreground(lipgloss.Color("205")),
		JobID:     lipgloss.NewStyle().Foreground(lipgloss.Color("86")),
		Kind:      lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Counter:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Failed:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		LogLine:   lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		Container: lipgloss.NewStyle().Foreground(lipgloss.Color("75")),
		Dim:       lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

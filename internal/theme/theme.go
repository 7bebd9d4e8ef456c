package theme

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme captures the lipgloss styles used across the TUI.
type Theme struct {
	Message     lipgloss.Style
	Header      lipgloss.Style
	Normal      lipgloss.Style
	Dim         lipgloss.Style
	Starred     lipgloss.Style
	Downloaded  lipgloss.Style
	Completed   lipgloss.Style
	Description lipgloss.Style
	Duration    lipgloss.Style
	Date        lipgloss.Style
	Error       lipgloss.Style
}

// Default is the canonical name of the built-in default theme.
const Default = "default"

var themes = map[string]Theme{
	Default: {
		Message:     lipgloss.NewStyle().Foreground(lipgloss.Color("69")),
		Header:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")),
		Normal:      lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		Dim:         lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Starred:     lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true),
		Downloaded:  lipgloss.NewStyle().Foreground(lipgloss.Color("46")),
		Completed:   lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Strikethrough(true),
		Description: lipgloss.NewStyle().Foreground(lipgloss.Color("246")).Italic(true),
		Duration:    lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Date:        lipgloss.NewStyle().Foreground(lipgloss.Color("246")),
		Error:       lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	},
	"high_contrast": {
		Message:     lipgloss.NewStyle().Foreground(lipgloss.Color("51")).Bold(true),
		Header:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		Normal:      lipgloss.NewStyle().Foreground(lipgloss.Color("15")),
		Dim:         lipgloss.NewStyle().Foreground(lipgloss.Color("7")),
		Starred:     lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true),
		Downloaded:  lipgloss.NewStyle().Foreground(lipgloss.Color("118")).Bold(true),
		Completed:   lipgloss.NewStyle().Foreground(lipgloss.Color("7")).Strikethrough(true),
		Description: lipgloss.NewStyle().Foreground(lipgloss.Color("45")).Italic(true),
		Duration:    lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true),
		Date:        lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
		Error:       lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	},
}

// Names returns the sorted list of available theme names.
func Names() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ForName returns the theme with the provided name, defaulting if unknown.
func ForName(name string) Theme {
	key := strings.ToLower(strings.TrimSpace(name))
	if theme, ok := themes[key]; ok {
		return theme
	}
	return themes[Default]
}

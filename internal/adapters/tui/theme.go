package tui

import "github.com/charmbracelet/lipgloss"

type theme struct {
	panel     lipgloss.Style
	title     lipgloss.Style
	subtitle  lipgloss.Style
	text      lipgloss.Style
	muted     lipgloss.Style
	ok        lipgloss.Style
	warn      lipgloss.Style
	danger    lipgloss.Style
	highlight lipgloss.Style
	help      lipgloss.Style
	tabOn     lipgloss.Style
	tabOff    lipgloss.Style
	toast     lipgloss.Style
	stale     lipgloss.Style
}

func newTheme() theme {
	return theme{
		panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#445060")).
			Padding(0, 1),
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#8EC9F5")),
		subtitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#C7CEDA")),
		text: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#DDE2E9")),
		muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#75818F")),
		ok: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7FC98B")),
		warn: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E5BA63")),
		danger: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E0707A")),
		highlight: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#10141B")).
			Background(lipgloss.Color("#8EC9F5")),
		help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#93A2B4")),
		tabOn: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#10141B")).
			Background(lipgloss.Color("#8EC9F5")).
			Padding(0, 2),
		tabOff: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#75818F")).
			Padding(0, 2),
		toast: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#10141B")).
			Background(lipgloss.Color("#E5BA63")).
			Padding(0, 1),
		stale: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#10141B")).
			Background(lipgloss.Color("#75818F")).
			Padding(0, 1),
	}
}

// Package tui implements the Bubble Tea history browser for morph.
package tui

import "github.com/charmbracelet/lipgloss"

// Tokyo Night color palette.
var (
	colorGreen  = lipgloss.Color("#9ece6a") // green
	colorYellow = lipgloss.Color("#e0af68") // yellow
	colorBlue   = lipgloss.Color("#7aa2f7") // blue
	colorGray   = lipgloss.Color("#565f89") // comment
	colorWhite  = lipgloss.Color("#c0caf5") // foreground
	colorRed    = lipgloss.Color("#f7768e") // red
)

// Styles used for rendering the browser.
var (
	// Tab bar entry for the active view.
	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBlue).
			PaddingLeft(1)

	// Tab bar entry for inactive views.
	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(colorGray).
				PaddingLeft(1)

	// Selected row title.
	selectedStyle = lipgloss.NewStyle().
			Foreground(colorBlue).
			Bold(true)

	// Normal row title (terminal default).
	normalStyle = lipgloss.NewStyle()

	// Subtle URL text under the title.
	urlStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	// Domain column.
	domainStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	// Visit counter in the top sites view.
	visitsStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	// Left accent bar for the selected row.
	selectedBorderStyle = lipgloss.NewStyle().
				Foreground(colorBlue)

	// Row count and status line.
	statusStyle = lipgloss.NewStyle().
			Foreground(colorGray).
			PaddingLeft(1)

	// Status line after a failed action.
	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			PaddingLeft(1)

	emptyStyle = lipgloss.NewStyle().
			Foreground(colorGray).
			Italic(true).
			PaddingLeft(2)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorGray).
			PaddingLeft(1)
)

// Icons and symbols.
const (
	iconBar = "┃"
	iconDot = "•"
)

// Banner ASCII art for the header.
const banner = `
 ╔╦╗╔═╗╦═╗╔═╗╦ ╦
 ║║║║ ║╠╦╝╠═╝╠═╣
 ╩ ╩╚═╝╩╚═╩  ╩ ╩`

// bannerStyle styles the ASCII art banner.
var bannerStyle = lipgloss.NewStyle().
	Foreground(colorBlue).
	Bold(true).
	PaddingLeft(1).
	PaddingBottom(1)

// Modal styles.
var (
	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBlue).
			Padding(1, 2)

	modalTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite)

	modalHelpStyle = lipgloss.NewStyle().
			Foreground(colorGray).
			MarginTop(1)

	modalButtonStyle = lipgloss.NewStyle().
				Padding(0, 1).
				Background(lipgloss.Color("#3b4261")).
				Foreground(lipgloss.Color("#a9b1d6"))

	modalButtonSelectedStyle = lipgloss.NewStyle().
					Padding(0, 1).
					Background(colorBlue).
					Foreground(lipgloss.Color("#1a1b26")).
					Bold(true)
)

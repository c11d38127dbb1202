package tui

import "github.com/charmbracelet/lipgloss"

// ---------------------------------------------------------------------------
// Catppuccin Mocha palette
// ---------------------------------------------------------------------------

const (
	colorPink     lipgloss.Color = "#f5c2e7"
	colorRed      lipgloss.Color = "#f38ba8"
	colorPeach    lipgloss.Color = "#fab387"
	colorYellow   lipgloss.Color = "#f9e2af"
	colorGreen    lipgloss.Color = "#a6e3a1"
	colorTeal     lipgloss.Color = "#94e2d5"
	colorBlue     lipgloss.Color = "#89b4fa"
	colorLavender lipgloss.Color = "#b4befe"

	colorText     lipgloss.Color = "#cdd6f4"
	colorSubtext0 lipgloss.Color = "#a6adc8"
	colorOverlay1 lipgloss.Color = "#7f849c"
	colorSurface1 lipgloss.Color = "#45475a"
	colorSurface0 lipgloss.Color = "#313244"
)

const (
	colorBrand   = colorPink
	colorFocus   = colorLavender
	colorSuccess = colorGreen
	colorError   = colorRed
	colorWarning = colorYellow
	colorInfo    = colorTeal

	barColor = colorBlue
)

const cardWidth = 30

var (
	titleStyle    = lipgloss.NewStyle().Foreground(colorBrand).Bold(true)
	subtitleStyle = lipgloss.NewStyle().Foreground(colorSubtext0)
	labelStyle    = lipgloss.NewStyle().Foreground(colorText).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(colorOverlay1)
	textStyle     = lipgloss.NewStyle().Foreground(colorText)
	errorStyle    = lipgloss.NewStyle().Foreground(colorError)
	warnStyle     = lipgloss.NewStyle().Foreground(colorWarning)
	successStyle  = lipgloss.NewStyle().Foreground(colorSuccess)
	infoStyle     = lipgloss.NewStyle().Foreground(colorInfo)
	spinnerStyle  = lipgloss.NewStyle().Foreground(colorPeach)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSurface1).
			Padding(0, 1).
			Width(cardWidth)
	cardActiveStyle = cardStyle.BorderForeground(colorFocus)

	fieldStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(colorSurface1).
			Padding(0, 1)
	fieldFocusStyle = fieldStyle.BorderForeground(colorFocus)

	buttonStyle = lipgloss.NewStyle().
			Foreground(colorSurface0).
			Background(colorBlue).
			Bold(true).
			Padding(0, 2)
	buttonDisabledStyle = lipgloss.NewStyle().
				Foreground(colorOverlay1).
				Background(colorSurface0).
				Padding(0, 2)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSurface1).
			Padding(0, 1)
	modalStyle = panelStyle.BorderForeground(colorFocus)
	badgeStyle = lipgloss.NewStyle().Foreground(colorSurface0).Background(colorWarning).Padding(0, 1)
)

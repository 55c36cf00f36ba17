// internal/tui/styles.go
package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/dbdeck/dbdeck/internal/config"
)

var (
	// Colors (exported via getter functions below)
	textPrimary   lipgloss.Color
	textSecondary lipgloss.Color
	textFaint     lipgloss.Color

	accentColor    lipgloss.Color
	successColor   lipgloss.Color
	errorColor     lipgloss.Color
	highlightColor lipgloss.Color
	warningColor   lipgloss.Color

	bgPrimary   lipgloss.Color
	bgSecondary lipgloss.Color
	cardBg      lipgloss.Color

	// Styles
	StatusBarStyle  lipgloss.Style
	ModeStyle       lipgloss.Style
	LoadingStyle    lipgloss.Style
	ConnectionStyle lipgloss.Style
	MetaStyle       lipgloss.Style
	TitleStyle      lipgloss.Style
	BreadcrumbStyle lipgloss.Style
	ItemStyle       lipgloss.Style
	ItemDetailStyle lipgloss.Style
	SelectedStyle   lipgloss.Style
	SelectedDetail  lipgloss.Style
	InputStyle      lipgloss.Style
	SuccessStyle    lipgloss.Style
	ErrorStyle      lipgloss.Style
	WarningStyle    lipgloss.Style
	PopupStyle      lipgloss.Style
	PopupTitleStyle lipgloss.Style
	HelpStyle       lipgloss.Style
	HelpKeyStyle    lipgloss.Style
	LogoStyle       lipgloss.Style

	EnvDevStyle     lipgloss.Style
	EnvStagingStyle lipgloss.Style
	EnvProdStyle    lipgloss.Style
)

// Color getter functions for use in components
func TextPrimary() lipgloss.Color    { return textPrimary }
func TextSecondary() lipgloss.Color  { return textSecondary }
func TextFaint() lipgloss.Color      { return textFaint }
func AccentColor() lipgloss.Color    { return accentColor }
func SuccessColor() lipgloss.Color   { return successColor }
func ErrorColor() lipgloss.Color     { return errorColor }
func HighlightColor() lipgloss.Color { return highlightColor }
func WarningColor() lipgloss.Color   { return warningColor }
func BgPrimary() lipgloss.Color      { return bgPrimary }
func BgSecondary() lipgloss.Color    { return bgSecondary }
func CardBg() lipgloss.Color         { return cardBg }

// InitStyles initializes the global styles from the configured theme.
func InitStyles(theme config.Theme) {
	textPrimary = lipgloss.Color(theme.TextPrimary)
	textSecondary = lipgloss.Color(theme.TextSecondary)
	textFaint = lipgloss.Color(theme.TextFaint)

	accentColor = lipgloss.Color(theme.Accent)
	successColor = lipgloss.Color(theme.Success)
	errorColor = lipgloss.Color(theme.Error)
	highlightColor = lipgloss.Color(theme.Highlight)
	warningColor = lipgloss.Color(theme.Warning)

	bgPrimary = lipgloss.Color(theme.BgPrimary)
	bgSecondary = lipgloss.Color(theme.BgSecondary)
	cardBg = lipgloss.Color(theme.CardBg)

	StatusBarStyle = lipgloss.NewStyle().
		Foreground(textPrimary).
		Background(bgSecondary)

	ModeStyle = lipgloss.NewStyle().
		Bold(true).
		Padding(0, 1).
		Background(successColor).
		Foreground(bgPrimary)

	LoadingStyle = lipgloss.NewStyle().
		Bold(true).
		Padding(0, 1).
		Background(warningColor).
		Foreground(bgPrimary)

	ConnectionStyle = lipgloss.NewStyle().
		Padding(0, 1).
		Background(cardBg).
		Foreground(textPrimary)

	MetaStyle = lipgloss.NewStyle().
		Foreground(textFaint).
		Italic(true)

	TitleStyle = lipgloss.NewStyle().
		Bold(true).
		Padding(0, 1).
		Background(highlightColor).
		Foreground(bgPrimary)

	BreadcrumbStyle = lipgloss.NewStyle().
		Foreground(textSecondary)

	ItemStyle = lipgloss.NewStyle().
		Foreground(textPrimary)

	ItemDetailStyle = lipgloss.NewStyle().
		Foreground(textFaint)

	SelectedStyle = lipgloss.NewStyle().
		Foreground(highlightColor).
		Bold(true)

	SelectedDetail = lipgloss.NewStyle().
		Foreground(textSecondary)

	InputStyle = lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), true, false, false, false).
		BorderForeground(textFaint)

	SuccessStyle = lipgloss.NewStyle().
		Foreground(successColor)

	ErrorStyle = lipgloss.NewStyle().
		Foreground(errorColor).
		Bold(true)

	WarningStyle = lipgloss.NewStyle().
		Foreground(bgPrimary).
		Background(warningColor).
		Bold(true).
		Padding(0, 1)

	PopupStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(highlightColor).
		Padding(1, 2)

	PopupTitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(highlightColor)

	HelpStyle = lipgloss.NewStyle().
		Foreground(textFaint)

	HelpKeyStyle = lipgloss.NewStyle().
		Foreground(textSecondary).
		Bold(true)

	LogoStyle = lipgloss.NewStyle().
		Foreground(accentColor).
		Bold(true)

	EnvDevStyle = lipgloss.NewStyle().
		Padding(0, 1).
		Background(successColor).
		Foreground(bgPrimary)

	EnvStagingStyle = lipgloss.NewStyle().
		Padding(0, 1).
		Background(warningColor).
		Foreground(bgPrimary)

	EnvProdStyle = lipgloss.NewStyle().
		Padding(0, 1).
		Background(errorColor).
		Foreground(bgPrimary).
		Bold(true)
}

// EnvStyle returns the chip style for an environment tag.
func EnvStyle(env string) lipgloss.Style {
	switch env {
	case config.EnvProd:
		return EnvProdStyle
	case config.EnvStaging:
		return EnvStagingStyle
	default:
		return EnvDevStyle
	}
}

package report

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/pterm/pterm"
)

var (
	successColor = lipgloss.AdaptiveColor{Light: "#28A745", Dark: "#4CDD76"}
	errorColor   = lipgloss.AdaptiveColor{Light: "#DC3545", Dark: "#FF6B7D"}
	warningColor = lipgloss.AdaptiveColor{Light: "#FFC107", Dark: "#FFD54F"}
	headingColor = lipgloss.AdaptiveColor{Light: "#212529", Dark: "#F8F9FA"}
	mutedColor   = lipgloss.AdaptiveColor{Light: "#6C757D", Dark: "#ADB5BD"}
	pathColor    = lipgloss.AdaptiveColor{Light: "#6C757D", Dark: "#A0A8B0"}
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(headingColor).Bold(true)
	pathStyle    = lipgloss.NewStyle().Foreground(pathColor).Italic(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(mutedColor)
	successStyle = lipgloss.NewStyle().Foreground(successColor).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(warningColor).Bold(true)
)

// statusBadge returns the pterm style for a run status
func statusBadge(status Status) *pterm.Style {
	switch status {
	case StatusSuccess:
		return pterm.NewStyle(pterm.BgGreen, pterm.FgWhite)
	case StatusPartial:
		return pterm.NewStyle(pterm.BgYellow, pterm.FgBlack)
	case StatusHalted:
		return pterm.NewStyle(pterm.BgRed, pterm.FgWhite, pterm.Bold)
	default:
		return pterm.NewStyle(pterm.FgGray)
	}
}

func outcomeStyle(outcome string) lipgloss.Style {
	switch outcome {
	case "applied":
		return successStyle
	case "failed":
		return errorStyle
	default:
		return warningStyle
	}
}

// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/tendkit/tend/internal/initializer"

	"github.com/charmbracelet/lipgloss"
)

// Color palette shared by all CLI output.
const (
	ColorPrimary   = lipgloss.Color("#7C3AED")
	ColorMuted     = lipgloss.Color("#6B7280")
	ColorSuccess   = lipgloss.Color("#10B981")
	ColorError     = lipgloss.Color("#EF4444")
	ColorWarning   = lipgloss.Color("#F59E0B")
	ColorHighlight = lipgloss.Color("#3B82F6")
	ColorVerbose   = lipgloss.Color("#9CA3AF")
)

var (
	// TitleStyle is for primary headers and section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// SubtitleStyle is for secondary headers and descriptions.
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// CmdStyle is for commands, IDs and paths.
	CmdStyle = lipgloss.NewStyle().
			Foreground(ColorHighlight)

	VerboseStyle = lipgloss.NewStyle().
			Foreground(ColorVerbose)

	// outcomeLabelStyle pads outcome labels so report columns line up.
	outcomeLabelStyle = lipgloss.NewStyle().Width(10)
)

// outcomeStyle returns the style and icon an outcome is rendered with.
func outcomeStyle(o initializer.Outcome) (lipgloss.Style, string) {
	switch o {
	case initializer.OutcomeCreated, initializer.OutcomeRepaired:
		return SuccessStyle, "✓"
	case initializer.OutcomeUnchanged:
		return SubtitleStyle, "•"
	case initializer.OutcomeOptedOut:
		return VerboseStyle, "○"
	case initializer.OutcomeFatal, initializer.OutcomeMissing, initializer.OutcomeIncorrect:
		return ErrorStyle, "✗"
	case initializer.OutcomePlanned:
		return CmdStyle, "→"
	default:
		return WarningStyle, "-"
	}
}

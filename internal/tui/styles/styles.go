// Package styles provides Lip Gloss styles for the TUI.
package styles

import "github.com/charmbracelet/lipgloss"

// Terminal-adaptive colors that work in both light and dark terminals.
var (
	// Subtle is a muted color for secondary text
	Subtle = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#999999"}

	// Highlight is the accent color for the prompt and selections
	Highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#FFCC00"}
)

var (
	// Prompt is the style for the prompt before the edit buffer.
	Prompt = lipgloss.NewStyle().
		Foreground(Highlight).
		Bold(true)

	// Input is the style for the edit buffer.
	Input = lipgloss.NewStyle()

	// Cursor marks the insertion point at the end of the buffer.
	Cursor = lipgloss.NewStyle().
		Reverse(true)

	// Transcript is the style for committed lines.
	Transcript = lipgloss.NewStyle()

	// Candidate is the style for a completion candidate.
	Candidate = lipgloss.NewStyle().
			Foreground(Subtle)

	// CandidateSelected is the style for the candidate currently applied.
	CandidateSelected = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(lipgloss.Color("#444444"))
)

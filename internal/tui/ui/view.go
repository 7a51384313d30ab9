// Package ui renders the transcript, the completion candidates and the
// input line.
package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/hy4ri/rfsh/internal/tui/state"
	"github.com/hy4ri/rfsh/internal/tui/styles"
	"github.com/mattn/go-runewidth"
)

// Renderer draws the state. It only reads the state apart from the viewport.
type Renderer struct {
	*state.State
}

func NewRenderer(s *state.State) *Renderer {
	return &Renderer{State: s}
}

func (r *Renderer) View() string {
	if r.Exited {
		return ""
	}

	// Before the first size report render the input line alone.
	if r.Width == 0 {
		return r.renderInputLine(0)
	}

	input := r.renderInputLine(r.Width)
	candidates := r.renderCandidates(r.Width)

	height := r.Height - lipgloss.Height(input)
	if candidates != "" {
		height -= lipgloss.Height(candidates)
	}
	height = max(height, 0)

	r.syncViewport(r.Width, height)

	parts := []string{}
	if height > 0 {
		parts = append(parts, r.Viewport.View())
	}
	if candidates != "" {
		parts = append(parts, candidates)
	}
	parts = append(parts, input)

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// syncViewport sizes the viewport and scrolls it to the latest line.
func (r *Renderer) syncViewport(width, height int) {
	if !r.ViewportReady {
		r.Viewport = viewport.New(width, height)
		r.ViewportReady = true
	} else {
		r.Viewport.Width = width
		r.Viewport.Height = height
	}

	lines := make([]string, len(r.Transcript))
	for i, line := range r.Transcript {
		lines[i] = styles.Transcript.Render(truncateString(line, width))
	}

	r.Viewport.SetContent(strings.Join(lines, "\n"))
	r.Viewport.GotoBottom()
}

// renderInputLine draws prompt, buffer and cursor. When the line is wider
// than width the start of the buffer scrolls out of view.
func (r *Renderer) renderInputLine(width int) string {
	buffer := r.Buffer
	if width > 0 {
		room := width - runewidth.StringWidth(r.Prompt) - 1 // -1 for cursor
		buffer = tailString(buffer, room)
	}

	return styles.Prompt.Render(r.Prompt) +
		styles.Input.Render(buffer) +
		styles.Cursor.Render(" ")
}

// renderCandidates lists the candidates of an active completion with the
// applied one highlighted. Candidates that don't fit are dropped.
func (r *Renderer) renderCandidates(width int) string {
	if !r.Completion.Active || len(r.Completion.Candidates) < 2 {
		return ""
	}

	var b strings.Builder
	used := 0
	for i, c := range r.Completion.Candidates {
		w := runewidth.StringWidth(c)
		if used > 0 {
			w++
		}
		if used+w > width {
			break
		}
		if used > 0 {
			b.WriteString(" ")
		}

		style := styles.Candidate
		if i == r.Completion.Index {
			style = styles.CandidateSelected
		}
		b.WriteString(style.Render(c))
		used += w
	}
	return b.String()
}

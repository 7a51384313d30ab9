// Package state holds the data shared by the input handler and the renderer.
package state

import (
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/hy4ri/rfsh/internal/completion"
	"github.com/hy4ri/rfsh/internal/history"
)

// DefaultPrompt is shown before the edit buffer.
const DefaultPrompt = ">>: "

// ResizeMarker is appended to the buffer when the terminal is resized.
const ResizeMarker = "KEY_RESIZE"

// State holds the application state.
// All fields are exported to allow access from logic and ui packages.
type State struct {
	Prompt string

	// Transcript is every line shown so far, oldest first.
	Transcript []string

	// Buffer is the line being edited.
	Buffer string

	History    *history.Navigator
	Completion completion.State
	Keymap     KeymapData

	// Terminal size; zero until the first size report.
	Width  int
	Height int

	// Viewport scrolls the transcript.
	Viewport      viewport.Model
	ViewportReady bool

	// Exited is set once the loop stops.
	Exited bool
}

// New returns the initial state with the given prompt and saved history.
func New(prompt string, entries []string) *State {
	if prompt == "" {
		prompt = DefaultPrompt
	}
	return &State{
		Prompt:  prompt,
		History: history.New(entries),
		Keymap:  DefaultKeymap(),
	}
}

// Commit appends lines to the transcript.
func (s *State) Commit(lines ...string) {
	s.Transcript = append(s.Transcript, lines...)
}

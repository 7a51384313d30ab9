package state

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Key represents a key binding.
type Key struct {
	Key  string
	Alt  string // optional second key with the same effect
	Help string
}

// Matches reports whether name selects this binding.
func (k Key) Matches(name string) bool {
	return name != "" && (name == k.Key || name == k.Alt)
}

// Label returns the key names shown in help.
func (k Key) Label() string {
	if k.Alt == "" {
		return k.Key
	}
	return k.Key + "/" + k.Alt
}

// Action names returned by KeymapData.Action.
const (
	ActionInsert      = ""
	ActionInterrupt   = "interrupt"
	ActionHistoryPrev = "history_prev"
	ActionHistoryNext = "history_next"
	ActionEndOfInput  = "end_of_input"
	ActionSubmit      = "submit"
	ActionBackspace   = "backspace"
	ActionComplete    = "complete"
	ActionClearScreen = "clear_screen"
)

// KeymapData contains all key bindings of the input line.
type KeymapData struct {
	Interrupt   Key
	HistoryPrev Key
	HistoryNext Key
	EndOfInput  Key
	Submit      Key
	Backspace   Key
	Complete    Key
	ClearScreen Key
}

// DefaultKeymap returns the default key bindings.
func DefaultKeymap() KeymapData {
	return KeymapData{
		Interrupt:   Key{Key: "ctrl+c", Help: "discard the line"},
		HistoryPrev: Key{Key: "up", Alt: "left", Help: "previous history entry"},
		HistoryNext: Key{Key: "down", Alt: "right", Help: "next history entry"},
		EndOfInput:  Key{Key: "ctrl+d", Help: "quit"},
		Submit:      Key{Key: "enter", Help: "run the line"},
		Backspace:   Key{Key: "backspace", Alt: "ctrl+h", Help: "delete the last character"},
		Complete:    Key{Key: "tab", Help: "complete the path, again to cycle"},
		ClearScreen: Key{Key: "ctrl+l", Help: "ignored"},
	}
}

// Action maps a key press to the action it triggers. Keys without a binding
// yield ActionInsert.
func (k KeymapData) Action(msg tea.KeyMsg) string {
	name := msg.String()

	switch {
	case k.Interrupt.Matches(name):
		return ActionInterrupt
	case k.HistoryPrev.Matches(name):
		return ActionHistoryPrev
	case k.HistoryNext.Matches(name):
		return ActionHistoryNext
	case k.EndOfInput.Matches(name):
		return ActionEndOfInput
	case k.Submit.Matches(name):
		return ActionSubmit
	case k.Backspace.Matches(name):
		return ActionBackspace
	case k.Complete.Matches(name):
		return ActionComplete
	case k.ClearScreen.Matches(name):
		return ActionClearScreen
	}
	return ActionInsert
}

// KeyText returns the text an unbound key inserts: the typed runes for
// printable keys, the key name otherwise.
func KeyText(msg tea.KeyMsg) string {
	switch msg.Type {
	case tea.KeyRunes, tea.KeySpace:
		return string(msg.Runes)
	}
	return msg.String()
}

// HelpItems returns a slice of key-description pairs for the help view.
func (k KeymapData) HelpItems() [][]string {
	return [][]string{
		{k.Submit.Label(), k.Submit.Help},
		{k.Complete.Label(), k.Complete.Help},
		{k.HistoryPrev.Label(), k.HistoryPrev.Help},
		{k.HistoryNext.Label(), k.HistoryNext.Help},
		{k.Backspace.Label(), k.Backspace.Help},
		{k.Interrupt.Label(), k.Interrupt.Help},
		{k.EndOfInput.Label(), k.EndOfInput.Help},
		{k.ClearScreen.Label(), k.ClearScreen.Help},
	}
}

// HelpLines formats HelpItems as aligned text lines.
func (k KeymapData) HelpLines() []string {
	items := k.HelpItems()

	width := 0
	for _, item := range items {
		width = max(width, len(item[0]))
	}

	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, fmt.Sprintf("%-*s  %s", width, item[0], item[1]))
	}
	return lines
}

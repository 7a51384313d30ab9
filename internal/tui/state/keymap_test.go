package state

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestKeymapAction(t *testing.T) {
	km := DefaultKeymap()

	tests := []struct {
		msg  tea.KeyMsg
		want string
	}{
		{tea.KeyMsg{Type: tea.KeyCtrlC}, ActionInterrupt},
		{tea.KeyMsg{Type: tea.KeyUp}, ActionHistoryPrev},
		{tea.KeyMsg{Type: tea.KeyLeft}, ActionHistoryPrev},
		{tea.KeyMsg{Type: tea.KeyDown}, ActionHistoryNext},
		{tea.KeyMsg{Type: tea.KeyRight}, ActionHistoryNext},
		{tea.KeyMsg{Type: tea.KeyCtrlD}, ActionEndOfInput},
		{tea.KeyMsg{Type: tea.KeyEnter}, ActionSubmit},
		{tea.KeyMsg{Type: tea.KeyBackspace}, ActionBackspace},
		{tea.KeyMsg{Type: tea.KeyCtrlH}, ActionBackspace},
		{tea.KeyMsg{Type: tea.KeyTab}, ActionComplete},
		{tea.KeyMsg{Type: tea.KeyCtrlL}, ActionClearScreen},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}, ActionInsert},
		{tea.KeyMsg{Type: tea.KeyEsc}, ActionInsert},
		{tea.KeyMsg{Type: tea.KeyHome}, ActionInsert},
	}

	for _, tt := range tests {
		t.Run(tt.msg.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, km.Action(tt.msg))
		})
	}
}

func TestKeyText(t *testing.T) {
	assert.Equal(t, "héllo", KeyText(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("héllo")}))
	assert.Equal(t, "pasted text", KeyText(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("pasted text"), Paste: true}))
	assert.Equal(t, " ", KeyText(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}))
	assert.Equal(t, "esc", KeyText(tea.KeyMsg{Type: tea.KeyEsc}))
	assert.Equal(t, "ctrl+a", KeyText(tea.KeyMsg{Type: tea.KeyCtrlA}))
}

func TestKeyMatches(t *testing.T) {
	k := Key{Key: "up", Alt: "left"}
	assert.True(t, k.Matches("up"))
	assert.True(t, k.Matches("left"))
	assert.False(t, k.Matches("down"))
	assert.False(t, Key{Key: "up"}.Matches(""))
	assert.Equal(t, "up/left", k.Label())
}

func TestHelpLines(t *testing.T) {
	lines := DefaultKeymap().HelpLines()
	assert.Len(t, lines, len(DefaultKeymap().HelpItems()))
	assert.Contains(t, lines, "tab"+strings.Repeat(" ", 15)+"complete the path, again to cycle")
	assert.Contains(t, lines, "backspace/ctrl+h  delete the last character")
}

func TestCommit(t *testing.T) {
	s := New("", nil)
	assert.Equal(t, DefaultPrompt, s.Prompt)

	s.Commit("a", "b")
	s.Commit()
	assert.Equal(t, []string{"a", "b"}, s.Transcript)
}

package logic

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hy4ri/rfsh/internal/command"
	"github.com/hy4ri/rfsh/internal/completion"
	"github.com/hy4ri/rfsh/internal/tui/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	program string
	args    command.Args
}

type fakeExecutor struct {
	calls       []call
	output      map[string][]string
	stop        map[string]bool
	hadDeadline bool
}

func (f *fakeExecutor) Execute(ctx context.Context, program string, args command.Args) ([]string, bool) {
	f.calls = append(f.calls, call{program: program, args: args})
	_, f.hadDeadline = ctx.Deadline()
	return f.output[program], !f.stop[program]
}

type fakeLister struct {
	names []string
}

func (f fakeLister) Candidates(context.Context, string) ([]string, error) {
	return f.names, nil
}

func newTestHandler(t *testing.T, opts Options, names ...string) (*Handler, *fakeExecutor) {
	t.Helper()
	exec := &fakeExecutor{output: map[string][]string{}, stop: map[string]bool{}}
	d := command.NewDispatcher()
	engine := completion.NewEngine(d, fakeLister{names: names}, nil)
	return NewHandler(state.New(state.DefaultPrompt, nil), d, exec, engine, opts), exec
}

func typeText(h *Handler, text string) {
	h.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

func press(h *Handler, k tea.KeyType) tea.Cmd {
	return h.Update(tea.KeyMsg{Type: k})
}

func submit(h *Handler, line string) tea.Cmd {
	h.Buffer = ""
	typeText(h, line)
	return press(h, tea.KeyEnter)
}

func TestSubmitRunsCommand(t *testing.T) {
	h, exec := newTestHandler(t, Options{})
	exec.output["ls"] = []string{"a.txt", "dir/"}

	typeText(h, "ls /tmp")
	assert.Equal(t, "ls /tmp", h.Buffer)

	cmd := press(h, tea.KeyEnter)
	assert.Nil(t, cmd)

	assert.Equal(t, []string{">>: ls /tmp", "a.txt", "dir/"}, h.Transcript)
	assert.Empty(t, h.Buffer)
	require.Len(t, exec.calls, 1)
	assert.Equal(t, "ls", exec.calls[0].program)
	assert.Equal(t, command.Args{command.PathKey: "/tmp", "all": false, "long": false}, exec.calls[0].args)
	assert.Equal(t, []string{"ls /tmp"}, h.History.Entries())
	assert.Equal(t, 1, h.History.Cursor())
}

func TestInterruptCommitsPartialLine(t *testing.T) {
	h, exec := newTestHandler(t, Options{})

	typeText(h, "abc")
	cmd := press(h, tea.KeyCtrlC)
	assert.Nil(t, cmd)

	assert.Equal(t, []string{">>: abc"}, h.Transcript)
	assert.Empty(t, h.Buffer)
	assert.Zero(t, h.History.Len())
	assert.Empty(t, exec.calls)
	assert.False(t, h.Exited)
}

func TestHistoryNavigation(t *testing.T) {
	for _, keys := range [][2]tea.KeyType{
		{tea.KeyUp, tea.KeyDown},
		{tea.KeyLeft, tea.KeyRight},
	} {
		prev, next := keys[0], keys[1]

		h, _ := newTestHandler(t, Options{})
		submit(h, "one")
		submit(h, "two")

		press(h, prev)
		assert.Equal(t, "two", h.Buffer)
		press(h, prev)
		assert.Equal(t, "one", h.Buffer)
		press(h, prev)
		assert.Equal(t, "one", h.Buffer)
		assert.Equal(t, 0, h.History.Cursor())

		press(h, next)
		assert.Equal(t, "two", h.Buffer)
		press(h, next)
		assert.Empty(t, h.Buffer)
		assert.Equal(t, 2, h.History.Cursor())
	}
}

func TestHistoryNextSkipsEmptyEntry(t *testing.T) {
	h, _ := newTestHandler(t, Options{})
	submit(h, "a")
	submit(h, "")
	submit(h, "b")

	press(h, tea.KeyUp)
	press(h, tea.KeyUp)
	press(h, tea.KeyUp)
	assert.Equal(t, "a", h.Buffer)

	press(h, tea.KeyDown)
	assert.Equal(t, "a", h.Buffer, "empty entry leaves the buffer alone")
	assert.Equal(t, 1, h.History.Cursor())

	press(h, tea.KeyDown)
	assert.Equal(t, "b", h.Buffer)
}

func TestHistoryPrevOnEmptyHistory(t *testing.T) {
	h, _ := newTestHandler(t, Options{})
	typeText(h, "draft")

	press(h, tea.KeyUp)
	assert.Equal(t, "draft", h.Buffer)
	assert.Equal(t, 0, h.History.Cursor())
}

func TestEndOfInputQuits(t *testing.T) {
	h, _ := newTestHandler(t, Options{})
	typeText(h, "ls")

	cmd := press(h, tea.KeyCtrlD)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, h.Exited)
}

func TestExecutorStopsLoop(t *testing.T) {
	h, exec := newTestHandler(t, Options{})
	exec.stop["exit"] = true

	cmd := submit(h, "exit")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, h.Exited)
	assert.Equal(t, []string{">>: exit"}, h.Transcript)
}

func TestEmptyLineIsSubmitted(t *testing.T) {
	h, exec := newTestHandler(t, Options{})

	press(h, tea.KeyEnter)
	assert.Equal(t, []string{">>: "}, h.Transcript)
	require.Len(t, exec.calls, 1)
	assert.Equal(t, "", exec.calls[0].program)
	assert.Equal(t, []string{""}, h.History.Entries())
}

func TestBackspace(t *testing.T) {
	h, _ := newTestHandler(t, Options{})

	press(h, tea.KeyBackspace)
	assert.Empty(t, h.Buffer)

	typeText(h, "héé")
	press(h, tea.KeyBackspace)
	assert.Equal(t, "hé", h.Buffer)
	press(h, tea.KeyBackspace)
	press(h, tea.KeyBackspace)
	press(h, tea.KeyBackspace)
	assert.Empty(t, h.Buffer)
}

func TestCtrlHDeletes(t *testing.T) {
	h, _ := newTestHandler(t, Options{})

	typeText(h, "ls")
	press(h, tea.KeyCtrlH)
	assert.Equal(t, "l", h.Buffer)
}

func TestOtherKeysAppendText(t *testing.T) {
	h, _ := newTestHandler(t, Options{})

	typeText(h, "a")
	h.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	press(h, tea.KeyEsc)
	press(h, tea.KeyCtrlA)
	press(h, tea.KeyCtrlL)

	assert.Equal(t, "a escctrl+a", h.Buffer)
	assert.Empty(t, h.Transcript)
}

func TestUsageErrorBecomesTranscript(t *testing.T) {
	h, exec := newTestHandler(t, Options{})

	cmd := submit(h, "get")
	assert.Nil(t, cmd)

	assert.Equal(t, []string{
		">>: get",
		"get: missing required argument: path",
		"usage: get [-f] [-o output] path",
	}, h.Transcript)
	assert.Empty(t, exec.calls)
	assert.Empty(t, h.Buffer)
	assert.Equal(t, []string{"get"}, h.History.Entries())
}

func TestTokenizeErrorBecomesTranscript(t *testing.T) {
	h, exec := newTestHandler(t, Options{})

	submit(h, `ls "unterminated`)
	require.Len(t, h.Transcript, 2)
	assert.True(t, strings.HasPrefix(h.Transcript[1], "error: "))
	assert.Empty(t, exec.calls)
}

func TestTabCyclesCandidates(t *testing.T) {
	h, _ := newTestHandler(t, Options{}, "docs/", "downloads/", "notes.md")

	typeText(h, "cd d")
	press(h, tea.KeyTab)
	assert.Equal(t, "cd docs/", h.Buffer)
	assert.True(t, h.Completion.Active)

	press(h, tea.KeyTab)
	assert.Equal(t, "cd downloads/", h.Buffer)

	press(h, tea.KeyTab)
	assert.Equal(t, "cd docs/", h.Buffer)

	typeText(h, "x")
	assert.False(t, h.Completion.Active)
	assert.Equal(t, "cd docs/x", h.Buffer)
}

func TestTabWithoutMatchesKeepsBuffer(t *testing.T) {
	h, _ := newTestHandler(t, Options{}, "notes.md")

	typeText(h, "ls zz")
	press(h, tea.KeyTab)
	assert.Equal(t, "ls zz", h.Buffer)

	h.Buffer = ""
	typeText(h, "pwd")
	press(h, tea.KeyTab)
	assert.Equal(t, "pwd", h.Buffer)
	assert.False(t, h.Completion.Active)
}

func TestTabEscapesCandidate(t *testing.T) {
	h, _ := newTestHandler(t, Options{}, "my folder/")

	typeText(h, "cd my")
	press(h, tea.KeyTab)
	assert.Equal(t, `cd my\ folder/`, h.Buffer)
}

func TestResize(t *testing.T) {
	h, _ := newTestHandler(t, Options{})
	typeText(h, "ls")

	h.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	assert.Equal(t, "ls", h.Buffer)
	assert.Equal(t, 80, h.Width)

	h.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	assert.Equal(t, "ls"+state.ResizeMarker, h.Buffer)
	assert.Equal(t, 100, h.Width)
	assert.Equal(t, 30, h.Height)
}

func TestHistoryFileAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history")
	h, _ := newTestHandler(t, Options{HistoryFile: path})

	submit(h, "pwd")
	submit(h, "ls -a")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "pwd\nls -a\n", string(data))
}

func TestCommandTimeout(t *testing.T) {
	h, exec := newTestHandler(t, Options{CommandTimeout: time.Minute})
	submit(h, "pwd")
	assert.True(t, exec.hadDeadline)

	h, exec = newTestHandler(t, Options{})
	submit(h, "pwd")
	assert.False(t, exec.hadDeadline)
}

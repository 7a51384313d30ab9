// Package tui provides the interactive shell front end.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hy4ri/rfsh/internal/tui/logic"
	"github.com/hy4ri/rfsh/internal/tui/state"
	"github.com/hy4ri/rfsh/internal/tui/ui"
	"go.uber.org/zap"
)

// Options configures an App.
type Options struct {
	Prompt         string
	History        []string
	HistoryFile    string
	CommandTimeout time.Duration
	Logger         *zap.Logger
}

// App is the main Bubble Tea model for the application.
type App struct {
	state    *state.State
	handler  *logic.Handler
	renderer *ui.Renderer
}

// NewApp creates a new App wired to the command parser, executor and
// completion engine.
func NewApp(parser logic.Parser, executor logic.Executor, completer logic.Completer, opts Options) *App {
	s := state.New(opts.Prompt, opts.History)

	return &App{
		state: s,
		handler: logic.NewHandler(s, parser, executor, completer, logic.Options{
			HistoryFile:    opts.HistoryFile,
			CommandTimeout: opts.CommandTimeout,
			Logger:         opts.Logger,
		}),
		renderer: ui.NewRenderer(s),
	}
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return a, a.handler.Update(msg)
}

// View implements tea.Model.
func (a *App) View() string {
	return a.renderer.View()
}

// Transcript returns the lines shown so far.
func (a *App) Transcript() []string {
	return append([]string(nil), a.state.Transcript...)
}

// KeyHelp returns the key binding lines for the help command.
func KeyHelp() []string {
	return state.DefaultKeymap().HelpLines()
}

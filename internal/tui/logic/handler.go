// Package logic implements the input loop: one synchronous state transition
// per key press.
package logic

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hy4ri/rfsh/internal/command"
	"github.com/hy4ri/rfsh/internal/completion"
	"github.com/hy4ri/rfsh/internal/history"
	"github.com/hy4ri/rfsh/internal/logging"
	"github.com/hy4ri/rfsh/internal/tui/state"
	"go.uber.org/zap"
)

// Parser turns a submitted line into a program and its arguments.
type Parser interface {
	Parse(line string) (string, command.Args, error)
}

// Executor runs a parsed command and returns the lines to show. keepRunning
// is false when the command asks the loop to stop.
type Executor interface {
	Execute(ctx context.Context, program string, args command.Args) (lines []string, keepRunning bool)
}

// Completer computes the next completion state for the buffer.
type Completer interface {
	Prepare(ctx context.Context, st completion.State, buffer string) completion.State
}

// Options configures a Handler.
type Options struct {
	// HistoryFile receives every submitted line. Empty disables persistence.
	HistoryFile string

	// CommandTimeout bounds each command and completion lookup. Zero means
	// no limit.
	CommandTimeout time.Duration

	Logger *zap.Logger
}

// Handler applies messages to the shared state.
type Handler struct {
	*state.State
	parser    Parser
	executor  Executor
	completer Completer
	opts      Options
	logger    *zap.Logger
}

// NewHandler returns a handler operating on s.
func NewHandler(s *state.State, parser Parser, executor Executor, completer Completer, opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Handler{
		State:     s,
		parser:    parser,
		executor:  executor,
		completer: completer,
		opts:      opts,
		logger:    logger,
	}
}

// Update handles one message.
func (h *Handler) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return h.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		return h.handleWindowSizeMsg(msg)
	}
	return nil
}

func (h *Handler) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	action := h.Keymap.Action(msg)
	if action != state.ActionComplete {
		h.Completion = h.Completion.Deactivate()
	}

	switch action {
	case state.ActionInterrupt:
		h.Commit(h.Prompt + h.Buffer)
		h.Buffer = ""

	case state.ActionHistoryPrev:
		if entry, ok := h.History.Prev(); ok {
			h.Buffer = entry
		}

	case state.ActionHistoryNext:
		if entry, ok := h.History.Next(); ok {
			h.Buffer = entry
		}

	case state.ActionEndOfInput:
		return h.quit()

	case state.ActionSubmit:
		return h.submit()

	case state.ActionBackspace:
		if h.Buffer != "" {
			_, size := utf8.DecodeLastRuneInString(h.Buffer)
			h.Buffer = h.Buffer[:len(h.Buffer)-size]
		}

	case state.ActionComplete:
		h.complete()

	case state.ActionClearScreen:
		// Inert.

	default:
		h.Buffer += state.KeyText(msg)
	}

	return nil
}

func (h *Handler) handleWindowSizeMsg(msg tea.WindowSizeMsg) tea.Cmd {
	// bubbletea reports the starting size once; only later reports are
	// resizes.
	initial := h.Width == 0 && h.Height == 0

	h.Width = msg.Width
	h.Height = msg.Height

	if !initial {
		h.Completion = h.Completion.Deactivate()
		h.Buffer += state.ResizeMarker
	}

	h.logger.Debug("window size", zap.Int("width", msg.Width), zap.Int("height", msg.Height), zap.Bool("initial", initial))
	return nil
}

func (h *Handler) submit() tea.Cmd {
	line := h.Buffer
	h.Commit(h.Prompt + line)
	h.Buffer = ""

	h.History.Record(line)
	if h.opts.HistoryFile != "" {
		if err := history.Append(h.opts.HistoryFile, line); err != nil {
			h.logger.Warn("failed to save history", zap.Error(err))
		}
	}

	program, args, err := h.parser.Parse(line)
	if err != nil {
		h.Commit(errorLines(err)...)
		return nil
	}

	ctx, cancel := h.commandContext()
	defer cancel()

	start := time.Now()
	lines, keepRunning := h.executor.Execute(ctx, program, args)
	h.logger.Debug("command finished", zap.String("program", program), zap.Int("lines", len(lines)), zap.Duration("elapsed", time.Since(start)))

	h.Commit(lines...)
	if !keepRunning {
		return h.quit()
	}
	return nil
}

func (h *Handler) complete() {
	ctx, cancel := h.commandContext()
	defer cancel()

	h.Completion = h.completer.Prepare(ctx, h.Completion, h.Buffer)
	if buffer, ok := h.Completion.Apply(); ok {
		h.Buffer = buffer
	}
}

func (h *Handler) quit() tea.Cmd {
	h.Exited = true
	return tea.Quit
}

func (h *Handler) commandContext() (context.Context, context.CancelFunc) {
	if h.opts.CommandTimeout > 0 {
		return context.WithTimeout(context.Background(), h.opts.CommandTimeout)
	}
	return context.WithCancel(context.Background())
}

func errorLines(err error) []string {
	var usageErr *command.UsageError
	if errors.As(err, &usageErr) {
		return usageErr.Lines()
	}
	return []string{"error: " + err.Error()}
}

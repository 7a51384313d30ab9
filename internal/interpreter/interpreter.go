// Package interpreter executes parsed commands against the remote host.
package interpreter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/gen2brain/beeep"
	"github.com/google/uuid"
	"github.com/hy4ri/rfsh/internal/command"
	"github.com/hy4ri/rfsh/internal/logging"
	"github.com/hy4ri/rfsh/internal/remote"
	"go.uber.org/zap"
)

// Remote is the remote host as seen by the interpreter.
type Remote interface {
	Cwd() string
	Target() string
	Port() int
	Resolve(p string) string
	List(ctx context.Context, dir string, flags ...string) ([]string, error)
	ChangeDir(ctx context.Context, dir string) (string, error)
	Fetch(ctx context.Context, p string, w io.Writer) (int64, error)
}

// Runner runs a local program and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Options configures an Interpreter.
type Options struct {
	DownloadDir  string
	RsyncPath    string
	IdentityFile string

	// Notify sends a desktop notification when a transfer finishes.
	Notify bool

	// KeyHelp lines are shown by the help builtin above the command list.
	KeyHelp []string

	Logger *zap.Logger
}

// Interpreter runs one command at a time. It is not safe for concurrent use.
type Interpreter struct {
	remote     Remote
	commands   []command.Def
	opts       Options
	logger     *zap.Logger
	lastOutput []string

	// Replaced in tests.
	run      Runner
	copyText func(string) error
	notify   func(title, message string) error
	newID    func() string
}

// New returns an interpreter for rem. commands feeds the help builtin.
func New(rem Remote, commands []command.Def, opts Options) *Interpreter {
	if opts.RsyncPath == "" {
		opts.RsyncPath = "rsync"
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	return &Interpreter{
		remote:   rem,
		commands: commands,
		opts:     opts,
		logger:   logger,
		run:      runLocal,
		copyText: clipboard.WriteAll,
		notify: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
		newID: func() string { return uuid.New().String() },
	}
}

// Execute runs program with args and returns the lines to show. keepRunning
// is false once the user asked to leave.
func (i *Interpreter) Execute(ctx context.Context, program string, args command.Args) ([]string, bool) {
	if program == "" {
		return nil, true
	}

	i.logger.Debug("execute", zap.String("program", program), zap.Any("args", args))

	var lines []string
	switch program {
	case "ls":
		lines = i.list(ctx, args)
	case "cd":
		lines = i.changeDir(ctx, args)
	case "pwd":
		lines = []string{i.remote.Cwd()}
	case "get":
		lines = i.get(ctx, args)
	case "rsync":
		lines = i.rsync(ctx, args)
	case "copy":
		// copy never replaces the output it copies.
		return i.copyOutput(), true
	case "help":
		lines = i.help()
	case "exit", "quit":
		return nil, false
	default:
		lines = []string{"unknown command: " + program}
	}

	i.lastOutput = lines
	return lines, true
}

// Candidates lists remote entries in the directory part of prefix. Each
// candidate keeps that directory part; directories end with "/".
func (i *Interpreter) Candidates(ctx context.Context, prefix string) ([]string, error) {
	dir := ""
	if idx := strings.LastIndex(prefix, "/"); idx >= 0 {
		dir = prefix[:idx+1]
	}

	entries, err := i.remote.List(ctx, dir, "-1Ap")
	if err != nil {
		return nil, err
	}

	candidates := make([]string, 0, len(entries))
	for _, e := range entries {
		candidates = append(candidates, dir+e)
	}
	return candidates, nil
}

func (i *Interpreter) list(ctx context.Context, args command.Args) []string {
	path, _ := args.Path()
	flags := []string{"-1p"}
	if args.Bool("all") {
		flags = append(flags, "-A")
	}
	if args.Bool("long") {
		flags = append(flags, "-l")
	}

	lines, err := i.remote.List(ctx, path, flags...)
	if err != nil {
		return i.errorLines("ls", path, err)
	}
	return lines
}

func (i *Interpreter) changeDir(ctx context.Context, args command.Args) []string {
	path, _ := args.Path()
	if _, err := i.remote.ChangeDir(ctx, path); err != nil {
		return i.errorLines("cd", path, err)
	}
	return nil
}

func (i *Interpreter) copyOutput() []string {
	if len(i.lastOutput) == 0 {
		return []string{"copy: nothing to copy"}
	}

	if err := i.copyText(strings.Join(i.lastOutput, "\n")); err != nil {
		return i.errorLines("copy", "", err)
	}
	return []string{fmt.Sprintf("copied %d lines to clipboard", len(i.lastOutput))}
}

func (i *Interpreter) help() []string {
	lines := []string{"Keys:"}
	for _, k := range i.opts.KeyHelp {
		lines = append(lines, "  "+k)
	}

	lines = append(lines, "", "Commands:")
	for _, def := range i.commands {
		lines = append(lines, "  "+def.Usage)
	}
	lines = append(lines,
		"  pwd",
		"  copy",
		"  help",
		"  exit | quit",
	)
	return lines
}

// errorLines formats err as "<program>: <message>", one line per message
// line. Well-known remote failures are reported against subject.
func (i *Interpreter) errorLines(program, subject string, err error) []string {
	i.logger.Warn("command failed", zap.String("program", program), zap.String("subject", subject), zap.Error(err))

	msg := err.Error()
	if remoteErr, ok := remote.IsRemoteError(err); ok {
		switch {
		case remoteErr.IsNotFound():
			msg = "no such file or directory"
		case remoteErr.IsPermissionDenied():
			msg = "permission denied"
		case remoteErr.IsDirectory():
			msg = "is a directory"
		}
		if msg != remoteErr.Error() && subject != "" {
			msg = subject + ": " + msg
		}
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		msg = "command timed out"
	case errors.Is(err, context.Canceled):
		msg = "command cancelled"
	}

	var lines []string
	for _, l := range strings.Split(strings.TrimRight(msg, "\n"), "\n") {
		lines = append(lines, program+": "+l)
	}
	return lines
}

func runLocal(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

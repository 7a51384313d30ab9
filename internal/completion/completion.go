// Package completion cycles tab-completion candidates for the path argument of
// the command being typed.
package completion

import (
	"context"
	"strings"

	"github.com/hy4ri/rfsh/internal/command"
	"github.com/hy4ri/rfsh/internal/logging"
	"github.com/hy4ri/rfsh/internal/shellwords"
	"go.uber.org/zap"
)

// Lister lists completion candidates for a partial path, in listing order.
type Lister interface {
	Candidates(ctx context.Context, prefix string) ([]string, error)
}

// Parser parses a command line into a program and its arguments.
type Parser interface {
	Parse(line string) (string, command.Args, error)
}

// State is one completion sequence. The zero value is inactive.
type State struct {
	Candidates []string
	Index      int
	// Anchor holds the decoded words of the buffer when the sequence started.
	Anchor []string
	// Prefix is the decoded partial path being completed.
	Prefix string
	// PathIndex is the anchor position of the path word, or 0 when unknown.
	PathIndex int
	Active bool
}

// Current returns the selected candidate.
func (s State) Current() (string, bool) {
	if len(s.Candidates) == 0 || s.Index < 0 || s.Index >= len(s.Candidates) {
		return "", false
	}
	return s.Candidates[s.Index], true
}

// Deactivate ends the sequence; the next Prepare starts a fresh one.
func (s State) Deactivate() State {
	s.Active = false
	return s
}

// Apply substitutes the current candidate for the prefix in the anchor and
// returns the re-encoded buffer.
func (s State) Apply() (string, bool) {
	candidate, ok := s.Current()
	if !ok || len(s.Anchor) == 0 {
		return "", false
	}

	candidate = bareName(candidate)

	words := append([]string(nil), s.Anchor...)
	if i := s.pathIndex(); i > 0 {
		words[i] = candidate
		return shellwords.Join(words), true
	}

	// "cd a b" joins its bare words into one path.
	if len(words) > 2 && strings.Join(words[1:], " ") == s.Prefix {
		return shellwords.Join([]string{words[0], candidate}), true
	}

	return shellwords.Join(append(words, candidate)), true
}

func (s State) pathIndex() int {
	if s.PathIndex > 0 && s.PathIndex < len(s.Anchor) {
		return s.PathIndex
	}
	for i := 1; i < len(s.Anchor); i++ {
		if s.Anchor[i] == s.Prefix {
			return i
		}
	}
	return 0
}

// bareName keeps a name starting with "-" from being read as a flag.
func bareName(name string) string {
	if strings.HasPrefix(name, "-") {
		return "./" + name
	}
	return name
}

// Engine produces completion states.
type Engine struct {
	parser Parser
	lister Lister
	logger *zap.Logger
}

// NewEngine creates an Engine. A nil logger discards log output.
func NewEngine(parser Parser, lister Lister, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Engine{parser: parser, lister: lister, logger: logger}
}

// Prepare advances the completion sequence st for buffer. A fresh sequence
// starts at the first candidate; an active one moves to the next, wrapping
// around. Commands without a path argument yield an inactive state.
func (e *Engine) Prepare(ctx context.Context, st State, buffer string) State {
	_, args, err := e.parser.Parse(buffer)
	if err != nil {
		e.logger.Debug("completion parse failed", zap.String("buffer", buffer), zap.Error(err))
		return State{}
	}

	path, ok := args.Path()
	if !ok {
		return State{}
	}

	continuing := st.Active
	if !continuing {
		anchor, err := shellwords.Split(buffer)
		if err != nil {
			return State{}
		}
		st = State{Anchor: anchor, Prefix: path, PathIndex: e.locatePath(anchor, path)}
	}

	st.Candidates = e.candidates(ctx, st.Prefix)

	if continuing {
		st.Index++
		if st.Index >= len(st.Candidates) {
			st.Index = 0
		}
	}

	st.Active = true
	return st
}

// pathMarker stands in for a word while locating the path argument.
const pathMarker = "\x00path\x00"

// locatePath finds which word of words the parser takes as the path. Flag
// values and rsync's destination can spell the same text.
func (e *Engine) locatePath(words []string, path string) int {
	for i := 1; i < len(words); i++ {
		if words[i] != path {
			continue
		}
		trial := append([]string(nil), words...)
		trial[i] = pathMarker
		_, args, err := e.parser.Parse(shellwords.Join(trial))
		if err != nil {
			continue
		}
		if p, ok := args.Path(); ok && p == pathMarker {
			return i
		}
	}
	return 0
}

func (e *Engine) candidates(ctx context.Context, prefix string) []string {
	names, err := e.lister.Candidates(ctx, prefix)
	if err != nil {
		e.logger.Warn("completion listing failed", zap.String("prefix", prefix), zap.Error(err))
		return nil
	}

	var matches []string
	for _, name := range names {
		if strings.HasPrefix(name, prefix) {
			matches = append(matches, name)
		}
	}
	return matches
}

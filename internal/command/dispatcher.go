// Package command turns a typed command line into a program name and a parsed
// argument map.
package command

import (
	"sort"
	"strings"

	"github.com/hy4ri/rfsh/internal/shellwords"
)

// parseFunc parses the tokens that follow the program name.
type parseFunc func(tokens []string) (Args, error)

// prepareFunc rewrites tokens before they reach the parser.
type prepareFunc func(tokens []string) []string

// Def binds a program name to its sub-parser.
type Def struct {
	Name    string
	Usage   string
	prepare prepareFunc
	parse   parseFunc
}

// Dispatcher selects a sub-parser by program name.
type Dispatcher struct {
	defs map[string]Def
}

// NewDispatcher returns a dispatcher with the ls, cd, get and rsync parsers
// registered.
func NewDispatcher() *Dispatcher {
	d := &Dispatcher{defs: make(map[string]Def)}
	for _, def := range []Def{
		{Name: "ls", Usage: lsUsage, parse: parseLs},
		{Name: "cd", Usage: cdUsage, prepare: joinWords, parse: parseCd},
		{Name: "get", Usage: getUsage, parse: parseGet},
		{Name: "rsync", Usage: rsyncUsage, prepare: stripRsyncFixup, parse: parseRsync},
	} {
		d.defs[def.Name] = def
	}
	return d
}

// Parse tokenizes line and runs the parser registered for its first word.
// Programs without a parser yield an empty Args and no error; reporting them
// is left to the executor.
func (d *Dispatcher) Parse(line string) (string, Args, error) {
	tokens, err := shellwords.Split(line)
	if err != nil {
		return "", nil, err
	}
	if len(tokens) == 0 {
		return "", Args{}, nil
	}

	program, rest := tokens[0], tokens[1:]
	def, ok := d.defs[program]
	if !ok {
		return program, Args{}, nil
	}

	if def.prepare != nil {
		rest = def.prepare(rest)
	}

	args, err := def.parse(rest)
	if err != nil {
		return program, nil, err
	}
	return program, args, nil
}

// Defs returns the registered programs sorted by name.
func (d *Dispatcher) Defs() []Def {
	defs := make([]Def, 0, len(d.defs))
	for _, def := range d.defs {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool {
		return defs[i].Name < defs[j].Name
	})
	return defs
}

// joinWords treats several bare words as one path, so "cd my dir" works
// without escaping.
func joinWords(tokens []string) []string {
	if len(tokens) <= 1 {
		return tokens
	}
	return []string{strings.Join(tokens, " ")}
}

// stripRsyncFixup removes "e." from short flag clusters. rsync's server-side
// option strings carry protocol capabilities as "e.xxx" inside the cluster,
// which the flag grammar would otherwise read as -e with a value.
func stripRsyncFixup(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		if strings.HasPrefix(tok, "-") && !strings.HasPrefix(tok, "--") && strings.Contains(tok, "e.") {
			tok = strings.ReplaceAll(tok, "e.", "")
		}
		out[i] = tok
	}
	return out
}

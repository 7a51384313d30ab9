package command

import (
	"fmt"
	"strings"
)

// PathKey is the argument name under which path-taking programs store their path.
const PathKey = "path"

// Args maps argument names to parsed values (string, bool or []string).
type Args map[string]any

// Path returns the path argument, if the program has one.
func (a Args) Path() (string, bool) {
	v, ok := a[PathKey]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// String returns the string value for key, or "" when missing.
func (a Args) String(key string) string {
	s, _ := a[key].(string)
	return s
}

// Bool returns the bool value for key, or false when missing.
func (a Args) Bool(key string) bool {
	b, _ := a[key].(bool)
	return b
}

// Strings returns the []string value for key.
func (a Args) Strings(key string) []string {
	s, _ := a[key].([]string)
	return s
}

// UsageError reports a command line a sub-parser rejected.
type UsageError struct {
	Program string
	Message string
	Usage   string
}

// Error implements the error interface.
func (e *UsageError) Error() string {
	return fmt.Sprintf("%s: %s", e.Program, e.Message)
}

// Lines renders the error for the transcript.
func (e *UsageError) Lines() []string {
	lines := []string{e.Error()}
	if e.Usage != "" {
		lines = append(lines, "usage: "+e.Usage)
	}
	return lines
}

func usageErrorf(program, usage, format string, a ...any) *UsageError {
	return &UsageError{
		Program: program,
		Message: strings.TrimSpace(fmt.Sprintf(format, a...)),
		Usage:   usage,
	}
}

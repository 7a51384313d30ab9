// Package shellwords splits command lines into words and encodes path words so
// that whitespace and reserved characters survive the round trip through Split.
package shellwords

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kballard/go-shellquote"
)

// reserved lists the characters Escape prefixes with a backslash. Whitespace is
// handled separately.
const reserved = "\\'\"$`;&|<>()*?[]{}#~!"

// Split breaks line into words using shell quoting rules: whitespace separates
// words, single and double quotes group, and a backslash escapes the next rune.
func Split(line string) ([]string, error) {
	words, err := shellquote.Split(line)
	if err != nil {
		return nil, fmt.Errorf("failed to split %q: %w", line, err)
	}
	return words, nil
}

// Escape encodes s as exactly one word. Split(Escape(s)) yields [s] for any
// non-empty s, and Unescape(Escape(s)) == s for every s.
func Escape(s string) string {
	if s == "" {
		return "''"
	}

	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case r == '\n':
			// A backslash before a newline is a line continuation, so quote it.
			b.WriteString("'\n'")
		case r == ' ' || r == '\t' || strings.ContainsRune(reserved, r):
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			// Invalid bytes are copied as they are; remote names are byte strings.
			b.WriteString(s[i : i+size])
		}
		i += size
	}
	return b.String()
}

// Unescape decodes an escaped word. Malformed input (an unterminated quote or a
// trailing backslash) is returned unchanged.
func Unescape(s string) string {
	words, err := shellquote.Split(s)
	if err != nil {
		return s
	}
	return strings.Join(words, " ")
}

// Join escapes every word and joins them with single spaces, producing a line
// that Split turns back into words.
func Join(words []string) string {
	escaped := make([]string, len(words))
	for i, w := range words {
		escaped[i] = Escape(w)
	}
	return strings.Join(escaped, " ")
}

// Quote builds a command line for a remote POSIX shell.
func Quote(words ...string) string {
	return shellquote.Join(words...)
}

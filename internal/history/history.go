// Package history keeps the submitted command lines and the recall cursor.
package history

// Navigator is an append-only log of submitted lines with a cursor in
// [0, Len()]. A cursor equal to Len() means no entry is recalled.
type Navigator struct {
	entries []string
	cursor  int
}

// New creates a Navigator seeded with previously saved entries. The cursor
// starts past the last entry.
func New(entries []string) *Navigator {
	n := &Navigator{entries: append([]string(nil), entries...)}
	n.cursor = len(n.entries)
	return n
}

// Record appends text and resets the cursor to Len(). Duplicates and empty
// lines are kept.
func (n *Navigator) Record(text string) {
	n.entries = append(n.entries, text)
	n.cursor = len(n.entries)
}

// Prev moves the cursor back one entry, stopping at 0. It returns the entry
// to load, or false when there is nothing to load.
func (n *Navigator) Prev() (string, bool) {
	n.cursor--
	if n.cursor < 0 {
		n.cursor = 0
	}
	if n.cursor < len(n.entries) {
		return n.entries[n.cursor], true
	}
	return "", false
}

// Next moves the cursor forward one entry. Reaching Len() returns ("", true)
// so the caller clears its buffer. An empty entry is skipped over without
// touching the buffer.
func (n *Navigator) Next() (string, bool) {
	n.cursor++
	if n.cursor >= len(n.entries) {
		n.cursor = len(n.entries)
		return "", true
	}
	if entry := n.entries[n.cursor]; entry != "" {
		return entry, true
	}
	return "", false
}

// Cursor returns the current cursor position.
func (n *Navigator) Cursor() int {
	return n.cursor
}

// Len returns the number of recorded entries.
func (n *Navigator) Len() int {
	return len(n.entries)
}

// Entries returns a copy of the recorded entries, oldest first.
func (n *Navigator) Entries() []string {
	return append([]string(nil), n.entries...)
}

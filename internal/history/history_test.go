package history

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorStaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for size := 0; size < 5; size++ {
		entries := make([]string, size)
		for i := range entries {
			entries[i] = string(rune('a' + i))
		}
		n := New(entries)

		for i := 0; i < 500; i++ {
			if rng.Intn(2) == 0 {
				n.Prev()
			} else {
				n.Next()
			}
			require.GreaterOrEqual(t, n.Cursor(), 0)
			require.LessOrEqual(t, n.Cursor(), n.Len())
		}
	}
}

func TestRecordThenPrev(t *testing.T) {
	n := New(nil)
	n.Record("ls")
	n.Record("cd /tmp")

	assert.Equal(t, 2, n.Cursor())

	got, ok := n.Prev()
	assert.True(t, ok)
	assert.Equal(t, "cd /tmp", got)

	got, ok = n.Prev()
	assert.True(t, ok)
	assert.Equal(t, "ls", got)

	// Clamped at the oldest entry.
	got, ok = n.Prev()
	assert.True(t, ok)
	assert.Equal(t, "ls", got)
	assert.Equal(t, 0, n.Cursor())
}

func TestNextClearsAtEnd(t *testing.T) {
	n := New([]string{"one", "two"})

	n.Prev()
	n.Prev()

	got, ok := n.Next()
	assert.True(t, ok)
	assert.Equal(t, "two", got)

	got, ok = n.Next()
	assert.True(t, ok)
	assert.Equal(t, "", got)
	assert.Equal(t, 2, n.Cursor())

	got, ok = n.Next()
	assert.True(t, ok)
	assert.Equal(t, "", got)
	assert.Equal(t, 2, n.Cursor())
}

func TestNextSkipsEmptyEntry(t *testing.T) {
	n := New([]string{"one", "", "three"})
	n.Prev()
	n.Prev()
	n.Prev()
	require.Equal(t, 0, n.Cursor())

	_, ok := n.Next()
	assert.False(t, ok)
	assert.Equal(t, 1, n.Cursor())
}

func TestPrevOnEmptyHistory(t *testing.T) {
	n := New(nil)
	_, ok := n.Prev()
	assert.False(t, ok)
	assert.Equal(t, 0, n.Cursor())
}

func TestRecordKeepsDuplicatesAndEmpty(t *testing.T) {
	n := New(nil)
	n.Record("ls")
	n.Record("ls")
	n.Record("")
	assert.Equal(t, []string{"ls", "ls", ""}, n.Entries())
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history")

	entries, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, Append(path, "ls /tmp"))
	require.NoError(t, Append(path, ""))
	require.NoError(t, Append(path, "multi\nline"))
	require.NoError(t, Append(path, `cd my\ dir`))

	entries, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"ls /tmp", "", `cd my\ dir`}, entries)
}

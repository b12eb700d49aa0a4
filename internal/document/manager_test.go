package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenThenLatestRoundTrips(t *testing.T) {
	m := NewManager()
	snap := m.Open("file:///a.swift", "swift", 1, "let x = 1\n")

	got, err := m.Latest("file:///a.swift")
	require.NoError(t, err)
	assert.Same(t, snap, got)
	assert.Equal(t, 1, got.Version)
	assert.Equal(t, "swift", got.Language)
}

func TestLatestOnUnopenedURIFails(t *testing.T) {
	m := NewManager()
	_, err := m.Latest("file:///missing.swift")
	require.Error(t, err)
	assert.True(t, IsNotOpen(err))
}

func TestEditOnUnopenedURIFails(t *testing.T) {
	m := NewManager()
	_, err := m.Edit("file:///missing.swift", 2, []Change{{IsFull: true, Text: "x"}})
	require.Error(t, err)
	assert.True(t, IsNotOpen(err))
}

func TestEditRejectsNonIncreasingVersion(t *testing.T) {
	m := NewManager()
	m.Open("file:///a.swift", "swift", 5, "abc")

	_, err := m.Edit("file:///a.swift", 5, []Change{{IsFull: true, Text: "xyz"}})
	require.Error(t, err)
	assert.True(t, IsVersionError(err))

	_, err = m.Edit("file:///a.swift", 4, []Change{{IsFull: true, Text: "xyz"}})
	require.Error(t, err)
	assert.True(t, IsVersionError(err))
}

func TestFullSyncReplacesText(t *testing.T) {
	m := NewManager()
	m.Open("file:///a.swift", "swift", 1, "one\ntwo\n")

	snap, err := m.Edit("file:///a.swift", 2, []Change{{IsFull: true, Text: "replaced\n"}})
	require.NoError(t, err)
	assert.Equal(t, "replaced\n", snap.Text)
	assert.Equal(t, 2, snap.Lines.LineCount())
}

func TestIncrementalEditSplicesRange(t *testing.T) {
	m := NewManager()
	m.Open("file:///a.swift", "swift", 1, "hello world\n")

	// Replace "world" (line 0, cols 6..11) with "there".
	snap, err := m.Edit("file:///a.swift", 2, []Change{{
		Range: Range{StartLine: 0, StartCol: 6, EndLine: 0, EndCol: 11},
		Text:  "there",
	}})
	require.NoError(t, err)
	assert.Equal(t, "hello there\n", snap.Text)
}

func TestIncrementalEditAtEndOfFileAppends(t *testing.T) {
	m := NewManager()
	m.Open("file:///a.swift", "swift", 1, "abc")

	// Insert at the very end (col == line's UTF-16 length) must not
	// require or create an extra line.
	snap, err := m.Edit("file:///a.swift", 2, []Change{{
		Range: Range{StartLine: 0, StartCol: 3, EndLine: 0, EndCol: 3},
		Text:  "def",
	}})
	require.NoError(t, err)
	assert.Equal(t, "abcdef", snap.Text)
	assert.Equal(t, 1, snap.Lines.LineCount())
}

func TestIncrementalEditMultipleChangesApplySequentially(t *testing.T) {
	m := NewManager()
	m.Open("file:///a.swift", "swift", 1, "aaa bbb\n")

	snap, err := m.Edit("file:///a.swift", 2, []Change{
		{Range: Range{StartLine: 0, StartCol: 0, EndLine: 0, EndCol: 3}, Text: "xxx"},
		{Range: Range{StartLine: 0, StartCol: 4, EndLine: 0, EndCol: 7}, Text: "yyy"},
	})
	require.NoError(t, err)
	assert.Equal(t, "xxx yyy\n", snap.Text)
}

func TestIncrementalEditRejectsInvertedRange(t *testing.T) {
	m := NewManager()
	m.Open("file:///a.swift", "swift", 1, "hello\n")

	_, err := m.Edit("file:///a.swift", 2, []Change{{
		Range: Range{StartLine: 0, StartCol: 4, EndLine: 0, EndCol: 1},
		Text:  "x",
	}})
	require.Error(t, err)
	assert.True(t, IsInvalidRange(err))
}

func TestIncrementalEditRejectsColumnPastEndOfLine(t *testing.T) {
	m := NewManager()
	m.Open("file:///a.swift", "swift", 1, "hi\n")

	_, err := m.Edit("file:///a.swift", 2, []Change{{
		Range: Range{StartLine: 0, StartCol: 0, EndLine: 0, EndCol: 99},
		Text:  "x",
	}})
	require.Error(t, err)
	assert.True(t, IsInvalidRange(err))
}

func TestIncrementalEditRejectsLineOutOfRange(t *testing.T) {
	m := NewManager()
	m.Open("file:///a.swift", "swift", 1, "hi\n")

	_, err := m.Edit("file:///a.swift", 2, []Change{{
		Range: Range{StartLine: 7, StartCol: 0, EndLine: 7, EndCol: 0},
		Text:  "x",
	}})
	require.Error(t, err)
	assert.True(t, IsInvalidRange(err))
}

func TestCloseThenReopenIsIdenticalModuloVersion(t *testing.T) {
	m := NewManager()
	m.Open("file:///a.swift", "swift", 1, "same text\n")
	m.Close("file:///a.swift")

	_, err := m.Latest("file:///a.swift")
	require.Error(t, err)
	assert.True(t, IsNotOpen(err))

	snap := m.Open("file:///a.swift", "swift", 1, "same text\n")
	assert.Equal(t, "same text\n", snap.Text)
	assert.Equal(t, 1, snap.Version)
}

func TestOpenURIsListsEveryOpenDocument(t *testing.T) {
	m := NewManager()
	m.Open("file:///a.swift", "swift", 1, "a")
	m.Open("file:///b.swift", "swift", 1, "b")

	uris := m.OpenURIs()
	assert.ElementsMatch(t, []URI{"file:///a.swift", "file:///b.swift"}, uris)

	m.Close("file:///a.swift")
	assert.ElementsMatch(t, []URI{"file:///b.swift"}, m.OpenURIs())
}

func TestSurrogatePairColumnArithmetic(t *testing.T) {
	m := NewManager()
	// U+1F600 (grinning face) is a surrogate pair: 2 UTF-16 units, 4 UTF-8 bytes.
	m.Open("file:///a.swift", "swift", 1, "a\U0001F600b\n")

	// Replace the emoji (cols 1..3) with "X".
	snap, err := m.Edit("file:///a.swift", 2, []Change{{
		Range: Range{StartLine: 0, StartCol: 1, EndLine: 0, EndCol: 3},
		Text:  "X",
	}})
	require.NoError(t, err)
	assert.Equal(t, "aXb\n", snap.Text)
}

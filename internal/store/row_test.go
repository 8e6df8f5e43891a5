package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowWithKeepsOrder(t *testing.T) {
	r := NewRow().With("a", 1).With("b", 2).With("c", 3)
	assert.Equal(t, []string{"a", "b", "c"}, r.Columns())

	r2 := r.With("b", 20)
	assert.Equal(t, []string{"a", "b", "c"}, r2.Columns())
	assert.Equal(t, 20, r2.Get("b"))
	assert.Equal(t, 2, r.Get("b"))
}

func TestRowRenamePreservesPosition(t *testing.T) {
	r := NewRow().With("agent_id", "x").With("name", "n").With("created_at", "t")

	renamed := r.Rename("agent_id", "id")
	assert.Equal(t, []string{"id", "name", "created_at"}, renamed.Columns())
	assert.Equal(t, "x", renamed.Get("id"))
	assert.False(t, renamed.Has("agent_id"))

	// source row untouched
	assert.True(t, r.Has("agent_id"))
}

func TestRowRenameOntoExistingColumn(t *testing.T) {
	r := NewRow().With("a", 1).With("b", 2)

	renamed := r.Rename("a", "b")
	assert.Equal(t, []string{"b"}, renamed.Columns())
	assert.Equal(t, 1, renamed.Get("b"))
}

func TestRowRenameMissingSourceIsNoop(t *testing.T) {
	r := NewRow().With("a", 1)
	renamed := r.Rename("zzz", "id")
	assert.Equal(t, []string{"a"}, renamed.Columns())
}

func TestRowWithout(t *testing.T) {
	r := NewRow().With("a", 1).With("b", 2).With("c", 3)
	out := r.Without("b")
	assert.Equal(t, []string{"a", "c"}, out.Columns())
	assert.True(t, r.Has("b"))

	same := out.Without("missing")
	require.Equal(t, out.Columns(), same.Columns())
}

func TestRowValue(t *testing.T) {
	r := NewRow().With("a", nil)
	v, ok := r.Value("a")
	assert.True(t, ok)
	assert.Nil(t, v)

	_, ok = r.Value("b")
	assert.False(t, ok)
}

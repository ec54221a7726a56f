package sheetimport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewColumns(t *testing.T) {
	cols := NewColumns("C", "A", "C", "B")
	assert.Equal(t, 3, cols.Len())
	assert.Equal(t, []string{"C", "A", "B"}, cols.Letters())

	idx, ok := cols.Index("A")
	assert.True(t, ok)
	assert.Equal(t, 1, idx)
	_, ok = cols.Index("Z")
	assert.False(t, ok)

	letters := cols.Letters()
	letters[0] = "X"
	assert.Equal(t, "C", cols.Letters()[0])
}

func TestMaterialize(t *testing.T) {
	doc := newMemDoc("shared")
	cols := NewColumns("A", "B", "C", "D")

	tests := []struct {
		name  string
		cells []string
		want  []string
	}{
		{"dense", []string{"A2=1", "B2=2", "C2=3", "D2=4"}, []string{"1", "2", "3", "4"}},
		{"gaps", []string{"B2=2", "D2=4"}, []string{"", "2", "", "4"}},
		{"no cells", nil, []string{"", "", "", ""}},
		{"shared string", []string{"C2=#0"}, []string{"", "", "shared", ""}},
		{"unknown column ends the row", []string{"A2=1", "F2=x", "C2=3"}, []string{"1", "", "", ""}},
		{"cell behind the cursor is skipped", []string{"C2=3", "B2=2", "D2=4"}, []string{"", "", "3", "4"}},
		{"repeated column keeps the first", []string{"A2=1", "A2=again", "B2=2"}, []string{"1", "2", "", ""}},
		{"whitespace kept", []string{"A2= x "}, []string{" x ", "", "", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Materialize(doc, sparseRow(2, tt.cells...), cols)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Len(t, got, cols.Len())
		})
	}
}

func TestMaterialize_FollowsHeaderOrder(t *testing.T) {
	doc := newMemDoc()
	cols := NewColumns("B", "A")

	got, err := Materialize(doc, sparseRow(2, "B2=b", "A2=a"), cols)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, got)
}

func TestMaterialize_Error(t *testing.T) {
	doc := newMemDoc()
	_, err := Materialize(doc, sparseRow(2, "A2=#9"), NewColumns("A"))
	assert.ErrorIs(t, err, ErrMalformedDocument)
}

func TestRowCursor(t *testing.T) {
	doc := newMemDoc()
	cur := NewRowCursor(doc, sparseRow(3, "B3=x"), NewColumns("A", "B"))

	require.True(t, cur.Next())
	assert.Equal(t, "", cur.Value())
	require.True(t, cur.Next())
	assert.Equal(t, "x", cur.Value())
	assert.False(t, cur.Next())
	assert.NoError(t, cur.Err())
}

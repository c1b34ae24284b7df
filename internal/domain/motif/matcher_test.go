package motif

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/poslist/internal/domain/structure"
	"github.com/turtacn/poslist/internal/testutil"
)

func load(t *testing.T, b *testutil.PDBBuilder) *structure.Structure {
	t.Helper()
	s, err := structure.Read(strings.NewReader(b.String()), "motif")
	require.NoError(t, err)
	return s
}

// AGGTAG at residue numbers 1..6.
func agg(t *testing.T) *structure.Structure {
	return load(t, testutil.NewPDB().Chain('A', 1, 0, "ALA", "GLY", "GLY", "THR", "ALA", "GLY"))
}

func TestSearch_ExactSingleMatch(t *testing.T) {
	matches := Search(agg(t), "GG", 0)
	require.Len(t, matches, 1)
	assert.Equal(t, Match{Chain: "A", Start: 2, End: 3, Mismatches: 0, Sequence: "GG"}, matches[0])
}

func TestSearch_CaseInsensitive(t *testing.T) {
	matches := Search(agg(t), "gTa", 0)
	require.Len(t, matches, 1)
	assert.Equal(t, 3, matches[0].Start)
	assert.Equal(t, 5, matches[0].End)
	assert.Equal(t, "GTA", matches[0].Sequence)
}

func TestSearch_MismatchesReportHammingDistance(t *testing.T) {
	s := agg(t)
	query := "AG"
	matches := Search(s, query, 1)

	// Windows: AG(0) GG(1) GT(2) TA(2) AG(0)
	require.Len(t, matches, 3)
	assert.Equal(t, []int{1, 2, 5}, []int{matches[0].Start, matches[1].Start, matches[2].Start})
	for _, m := range matches {
		assert.Equal(t, Hamming([]byte(query), []byte(m.Sequence)), m.Mismatches)
		assert.LessOrEqual(t, m.Mismatches, 1)
	}
}

func TestSearch_ExactMatchProperty(t *testing.T) {
	s := agg(t)
	seq := "AGGTAG"
	for _, query := range []string{"A", "G", "AG", "GG", "GT", "TAG", "AGGTAG", "GA", "TT"} {
		matches := Search(s, strings.ToLower(query), 0)
		assert.Equal(t, countOverlapping(seq, query), len(matches), query)
		for _, m := range matches {
			assert.Equal(t, query, m.Sequence)
			assert.Zero(t, m.Mismatches)
		}
	}
}

func countOverlapping(s, sub string) int {
	n := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			n++
		}
	}
	return n
}

func TestSearch_OverlappingWindowsAllReported(t *testing.T) {
	s := load(t, testutil.NewPDB().Chain('A', 10, 0, "GLY", "GLY", "GLY", "GLY"))
	matches := Search(s, "GG", 0)
	require.Len(t, matches, 3)
	assert.Equal(t, 10, matches[0].Start)
	assert.Equal(t, 11, matches[1].Start)
	assert.Equal(t, 12, matches[2].Start)
	assert.Equal(t, 13, matches[2].End)
}

func TestSearch_ShortChainAndEmptyQuery(t *testing.T) {
	s := agg(t)
	assert.Empty(t, Search(s, "AGGTAGG", 3))
	assert.Empty(t, Search(s, "", 0))
}

func TestSearch_SkipsHetAndCountsUnknown(t *testing.T) {
	b := testutil.NewPDB().
		Atom('A', 1, "GLY", "CA", 0, 0, 0).
		Atom('A', 2, "MSE", "CA", 100, 0, 0).
		Atom('A', 3, "GLY", "CA", 200, 0, 0).
		HetAtom('A', 4, "HOH", "O", 300, 0, 0).
		Atom('B', 1, "GLY", "CA", 400, 0, 0).
		Atom('B', 2, "GLY", "CA", 500, 0, 0)
	s := load(t, b)

	matches := Search(s, "GXG", 0)
	require.Len(t, matches, 1)
	assert.Equal(t, Match{Chain: "A", Start: 1, End: 3, Sequence: "GXG"}, matches[0])

	// The het water does not bridge chain A into a longer sequence.
	matches = Search(s, "GG", 0)
	require.Len(t, matches, 1)
	assert.Equal(t, "B", matches[0].Chain)
}

func TestSearch_ChainsInFileOrder(t *testing.T) {
	b := testutil.NewPDB().
		Chain('C', 1, 0, "GLY", "GLY").
		Chain('A', 1, 1000, "GLY", "GLY")
	matches := Search(load(t, b), "GG", 0)
	require.Len(t, matches, 2)
	assert.Equal(t, "C", matches[0].Chain)
	assert.Equal(t, "A", matches[1].Chain)
}

func TestHamming(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"GG", "GG", 0},
		{"GG", "GA", 1},
		{"ABC", "XYZ", 3},
		{"ABC", "AB", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Hamming([]byte(tt.a), []byte(tt.b)), tt.a+"/"+tt.b)
	}
}

func TestHammingBounded_ExactWithinLimit(t *testing.T) {
	assert.Equal(t, 2, hammingBounded([]byte("AAAA"), []byte("ABBA"), 2))
	assert.Equal(t, 2, hammingBounded([]byte("AAAA"), []byte("BBBB"), 1))
}

func TestMatch_String(t *testing.T) {
	m := Match{Chain: "A", Start: 2, End: 3, Sequence: "GG"}
	assert.Equal(t, "Chain A: 2-3 [GG]", m.String())
}

package selection

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/turtacn/poslist/internal/domain/structure"
	"github.com/turtacn/poslist/internal/testutil"
)

// Chain A: SGAGGTKLWDEH numbered 1..12 along x.  Chain B: KSGGT numbered
// 1..5 fifty units off the axis, except B2 which sits 4.0 from A3.
func fixturePDB() *testutil.PDBBuilder {
	b := testutil.NewPDB().Chain('A', 1, 0,
		"SER", "GLY", "ALA", "GLY", "GLY", "THR", "LYS", "LEU", "TRP", "ASP", "GLU", "HIS")
	for i, name := range []string{"LYS", "SER", "GLY", "GLY", "THR"} {
		x, y := float64(i)*100, 50.0
		if i == 1 {
			x, y = 200, 4
		}
		b.Atom('B', i+1, name, "CA", x, y, 0)
	}
	return b
}

func fixtureStructure(t *testing.T) *structure.Structure {
	t.Helper()
	s, err := structure.Read(strings.NewReader(fixturePDB().String()), "fixture")
	require.NoError(t, err)
	return s
}

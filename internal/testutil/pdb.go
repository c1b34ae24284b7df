package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// AtomRecord describes one fixed-column ATOM/HETATM line.
type AtomRecord struct {
	Het     bool
	Serial  int
	Name    string
	AltLoc  byte
	ResName string
	Chain   byte
	ResSeq  int
	ICode   byte
	X, Y, Z float64
	Element string
}

// Line renders the record in PDB column layout.
func (a AtomRecord) Line() string {
	rec := "ATOM"
	if a.Het {
		rec = "HETATM"
	}
	name := a.Name
	if len(name) < 4 {
		name = " " + name
	}
	alt, icode := a.AltLoc, a.ICode
	if alt == 0 {
		alt = ' '
	}
	if icode == 0 {
		icode = ' '
	}
	element := a.Element
	if element == "" && a.Name != "" {
		element = a.Name[:1]
	}
	return fmt.Sprintf("%-6s%5d %-4s%c%3s %c%4d%c   %8.3f%8.3f%8.3f%6.2f%6.2f          %2s",
		rec, a.Serial, name, alt, a.ResName, a.Chain, a.ResSeq, icode,
		a.X, a.Y, a.Z, 1.0, 0.0, element)
}

// PDBBuilder assembles PDB text for tests.
type PDBBuilder struct {
	lines  []string
	serial int
}

// NewPDB returns an empty builder.
func NewPDB() *PDBBuilder {
	return &PDBBuilder{}
}

// Atom appends an ATOM record with an automatically assigned serial.
func (b *PDBBuilder) Atom(chain byte, resSeq int, resName, atomName string, x, y, z float64) *PDBBuilder {
	b.serial++
	b.lines = append(b.lines, AtomRecord{
		Serial: b.serial, Name: atomName, ResName: resName,
		Chain: chain, ResSeq: resSeq, X: x, Y: y, Z: z,
	}.Line())
	return b
}

// HetAtom appends a HETATM record.
func (b *PDBBuilder) HetAtom(chain byte, resSeq int, resName, atomName string, x, y, z float64) *PDBBuilder {
	b.serial++
	b.lines = append(b.lines, AtomRecord{
		Het: true, Serial: b.serial, Name: atomName, ResName: resName,
		Chain: chain, ResSeq: resSeq, X: x, Y: y, Z: z,
	}.Line())
	return b
}

// Record appends a prepared AtomRecord.
func (b *PDBBuilder) Record(a AtomRecord) *PDBBuilder {
	b.lines = append(b.lines, a.Line())
	return b
}

// Raw appends a literal line such as "MODEL        1" or "ENDMDL".
func (b *PDBBuilder) Raw(line string) *PDBBuilder {
	b.lines = append(b.lines, line)
	return b
}

// Chain appends one CA atom per residue for the given sequence of
// three-letter names, numbered from start and spaced 100 units apart along x
// from offset so that no two residues are in contact.
func (b *PDBBuilder) Chain(chain byte, start int, offset float64, resNames ...string) *PDBBuilder {
	for i, name := range resNames {
		b.Atom(chain, start+i, name, "CA", offset+float64(i)*100, 0, 0)
	}
	return b
}

// String returns the PDB text terminated by END.
func (b *PDBBuilder) String() string {
	return strings.Join(append(append([]string{}, b.lines...), "END"), "\n") + "\n"
}

// WriteFile writes the PDB text to a file under t.TempDir() and returns its
// path.
func (b *PDBBuilder) WriteFile(t testing.TB, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

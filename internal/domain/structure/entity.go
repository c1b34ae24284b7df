// Package structure holds the read-only in-memory model of a parsed
// macromolecular structure: chains, residues and atoms of the first model of
// a PDB file.  A Structure is never mutated after Load returns, so it may be
// shared by reference between the interface detector, the motif matcher and
// the formatter without synchronisation.
package structure

import (
	"fmt"
	"math"
	"sort"
)

// Coords is a point in structure-native distance units (Ångström for PDB).
type Coords struct {
	X, Y, Z float64
}

// DistanceSquared returns the squared Euclidean distance between c and o.
func (c Coords) DistanceSquared(o Coords) float64 {
	dx, dy, dz := c.X-o.X, c.Y-o.Y, c.Z-o.Z
	return dx*dx + dy*dy + dz*dz
}

// Distance returns the Euclidean distance between c and o.
func (c Coords) Distance(o Coords) float64 {
	return math.Sqrt(c.DistanceSquared(o))
}

func (c Coords) String() string {
	return fmt.Sprintf("%0.3f %0.3f %0.3f", c.X, c.Y, c.Z)
}

// Atom is a single ATOM or HETATM record.  Residue is a back-reference only.
type Atom struct {
	Serial  int
	Name    string
	Element string
	Coords
	Residue *Residue
}

// Residue is one monomer of a chain.  Standard residues are unique by
// (Chain, SeqNum, Name) within a chain; insertion codes are not kept.
type Residue struct {
	Chain  string
	SeqNum int
	Name   string
	Het    bool
	Atoms  []*Atom
}

// OneLetter returns the one-letter amino-acid code of the residue.
func (r *Residue) OneLetter() (byte, bool) {
	return OneLetter(r.Name)
}

func (r *Residue) String() string {
	return fmt.Sprintf("%s %s%d", r.Name, r.Chain, r.SeqNum)
}

// Chain is a named polymer strand with residues in file order.
type Chain struct {
	ID       string
	Residues []*Residue
}

// Standard returns the non-heteroatom residues of the chain in file order.
func (c *Chain) Standard() []*Residue {
	out := make([]*Residue, 0, len(c.Residues))
	for _, r := range c.Residues {
		if !r.Het {
			out = append(out, r)
		}
	}
	return out
}

// Residue returns the first standard residue with the given sequence number.
func (c *Chain) Residue(seqNum int) (*Residue, bool) {
	for _, r := range c.Residues {
		if !r.Het && r.SeqNum == seqNum {
			return r, true
		}
	}
	return nil, false
}

// Sequence returns the one-letter sequence of the standard residues together
// with the parallel list of residue numbers.  Unmapped names contribute
// Unknown and still occupy a sequence position.
func (c *Chain) Sequence() ([]byte, []int) {
	std := c.Standard()
	seq := make([]byte, len(std))
	nums := make([]int, len(std))
	for i, r := range std {
		seq[i] = OneLetterOrUnknown(r.Name)
		nums[i] = r.SeqNum
	}
	return seq, nums
}

// Structure is one parsed model.  It is immutable after construction.
type Structure struct {
	Name   string
	chains map[string]*Chain
	order  []string
	atoms  int
}

// Chain looks up a chain by id.  ok is false when the chain is absent, which
// callers treat as an empty contribution rather than an error.
func (s *Structure) Chain(id string) (*Chain, bool) {
	c, ok := s.chains[id]
	return c, ok
}

// Chains returns the chains in the order they first appear in the file.
func (s *Structure) Chains() []*Chain {
	out := make([]*Chain, len(s.order))
	for i, id := range s.order {
		out[i] = s.chains[id]
	}
	return out
}

// ChainIDs returns the chain ids in file order.
func (s *Structure) ChainIDs() []string {
	return append([]string(nil), s.order...)
}

// SortedChainIDs returns the chain ids sorted lexically.
func (s *Structure) SortedChainIDs() []string {
	ids := s.ChainIDs()
	sort.Strings(ids)
	return ids
}

// AtomCount returns the number of atoms kept from the first model.
func (s *Structure) AtomCount() int {
	return s.atoms
}

// ResidueCount returns the number of standard residues across all chains.
func (s *Structure) ResidueCount() int {
	n := 0
	for _, c := range s.chains {
		n += len(c.Standard())
	}
	return n
}

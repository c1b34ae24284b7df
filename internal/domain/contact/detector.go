// Package contact finds interface residues between pairs of chains by atom
// distance and reads and writes the intermediate interface listing.
package contact

import (
	"strings"

	"github.com/turtacn/poslist/internal/domain/position"
	"github.com/turtacn/poslist/internal/domain/structure"
)

// DefaultDistanceCutoff is used when no cutoff is configured.
const DefaultDistanceCutoff = 5.0

// Pair is an unordered pair of distinct chain ids, stored in selection order.
type Pair struct {
	X, Y string
}

func (p Pair) String() string {
	return p.X + "_" + p.Y
}

// ParseChainGroups flattens a grouping token such as "AB_CD" into the chain
// ids it names.  Underscores are separators only; the groups are not kept
// apart, so every chain is paired with every other.  Repeated ids keep their
// first occurrence.
func ParseChainGroups(token string) []string {
	var out []string
	seen := make(map[rune]bool)
	for _, r := range strings.TrimSpace(token) {
		if r == '_' || r == ' ' || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, string(r))
	}
	return out
}

// Pairs returns every 2-combination of chains in order.
func Pairs(chains []string) []Pair {
	var out []Pair
	for i := 0; i < len(chains); i++ {
		for j := i + 1; j < len(chains); j++ {
			if chains[i] == chains[j] {
				continue
			}
			out = append(out, Pair{X: chains[i], Y: chains[j]})
		}
	}
	return out
}

// InterfaceHit holds the interfacing positions found on each side of a pair.
type InterfaceHit struct {
	Pair  Pair
	Left  []position.Position
	Right []position.Position
}

// Len returns the number of residues on both sides.
func (h InterfaceHit) Len() int {
	return len(h.Left) + len(h.Right)
}

// DetectPair evaluates one chain pair.  A residue qualifies when any of its
// atoms lies strictly closer than cutoff to an atom of a standard residue on
// the partner chain; each side is evaluated independently.  A chain absent
// from s gives an empty hit.  A non-positive cutoff means DefaultDistanceCutoff.
func DetectPair(s *structure.Structure, p Pair, cutoff float64) InterfaceHit {
	hit := InterfaceHit{Pair: p}
	if p.X == p.Y {
		return hit
	}
	cx, okx := s.Chain(p.X)
	cy, oky := s.Chain(p.Y)
	if !okx || !oky {
		return hit
	}
	if cutoff <= 0 {
		cutoff = DefaultDistanceCutoff
	}
	rx, ry := cx.Standard(), cy.Standard()
	hit.Left = interfacing(rx, ry, cutoff)
	hit.Right = interfacing(ry, rx, cutoff)
	return hit
}

// Detect evaluates every pair of chains sequentially.
func Detect(s *structure.Structure, chains []string, cutoff float64) *Result {
	pairs := Pairs(chains)
	hits := make([]InterfaceHit, len(pairs))
	for i, p := range pairs {
		hits[i] = DetectPair(s, p, cutoff)
	}
	return NewResult(hits)
}

// interfacing returns, in file order, the residues of side that have an atom
// within cutoff of partner.
func interfacing(side, partner []*structure.Residue, cutoff float64) []position.Position {
	limit := cutoff * cutoff
	pbox := boundsOf(partner).grow(cutoff)

	var out []position.Position
	for _, r := range side {
		if !pbox.overlaps(boundsOfResidue(r)) {
			continue
		}
		if touches(r, partner, limit) {
			out = append(out, position.At(r.Chain, r.SeqNum))
		}
	}
	return out
}

func touches(r *structure.Residue, partner []*structure.Residue, limit float64) bool {
	for _, a := range r.Atoms {
		for _, pr := range partner {
			for _, b := range pr.Atoms {
				if a.DistanceSquared(b.Coords) < limit {
					return true
				}
			}
		}
	}
	return false
}

type box struct {
	min, max structure.Coords
	empty    bool
}

func boundsOf(rs []*structure.Residue) box {
	b := box{empty: true}
	for _, r := range rs {
		b = b.union(boundsOfResidue(r))
	}
	return b
}

func boundsOfResidue(r *structure.Residue) box {
	b := box{empty: true}
	for _, a := range r.Atoms {
		if b.empty {
			b = box{min: a.Coords, max: a.Coords}
			continue
		}
		b.min.X, b.max.X = minf(b.min.X, a.X), maxf(b.max.X, a.X)
		b.min.Y, b.max.Y = minf(b.min.Y, a.Y), maxf(b.max.Y, a.Y)
		b.min.Z, b.max.Z = minf(b.min.Z, a.Z), maxf(b.max.Z, a.Z)
	}
	return b
}

func (b box) union(o box) box {
	switch {
	case o.empty:
		return b
	case b.empty:
		return o
	}
	return box{
		min: structure.Coords{X: minf(b.min.X, o.min.X), Y: minf(b.min.Y, o.min.Y), Z: minf(b.min.Z, o.min.Z)},
		max: structure.Coords{X: maxf(b.max.X, o.max.X), Y: maxf(b.max.Y, o.max.Y), Z: maxf(b.max.Z, o.max.Z)},
	}
}

func (b box) grow(d float64) box {
	if b.empty {
		return b
	}
	b.min.X, b.min.Y, b.min.Z = b.min.X-d, b.min.Y-d, b.min.Z-d
	b.max.X, b.max.Y, b.max.Z = b.max.X+d, b.max.Y+d, b.max.Z+d
	return b
}

// overlaps is inclusive on the faces; the exact distance test decides ties.
func (b box) overlaps(o box) bool {
	if b.empty || o.empty {
		return false
	}
	return b.min.X <= o.max.X && o.min.X <= b.max.X &&
		b.min.Y <= o.max.Y && o.min.Y <= b.max.Y &&
		b.min.Z <= o.max.Z && o.min.Z <= b.max.Z
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

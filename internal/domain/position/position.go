// Package position defines the canonical (chain, residue number) identity,
// the set that accumulates positions from every source during a run, and the
// formatter that renders the final set as mutagenesis tokens.
package position

import (
	"fmt"
	"sort"
)

// Position is the canonical residue key.  Equality is defined on Chain and
// ResNum only; insertion codes are not distinguished.
type Position struct {
	Chain  string
	ResNum int
}

// At is shorthand for constructing a Position.
func At(chain string, resNum int) Position {
	return Position{Chain: chain, ResNum: resNum}
}

func (p Position) String() string {
	return fmt.Sprintf("%s%d", p.Chain, p.ResNum)
}

// Less orders positions by chain id then residue number.
func Less(a, b Position) bool {
	if a.Chain != b.Chain {
		return a.Chain < b.Chain
	}
	return a.ResNum < b.ResNum
}

// Range expands an inclusive residue-number range on chain.  An inverted
// range yields no positions.
func Range(chain string, start, end int) []Position {
	if end < start {
		return nil
	}
	out := make([]Position, 0, end-start+1)
	for n := start; n <= end; n++ {
		out = append(out, Position{Chain: chain, ResNum: n})
	}
	return out
}

// Set is an unordered collection of unique positions.  It is not safe for
// concurrent mutation; a run owns exactly one.
type Set struct {
	m map[Position]struct{}
}

// NewSet returns a set holding ps.
func NewSet(ps ...Position) *Set {
	s := &Set{m: make(map[Position]struct{}, len(ps))}
	s.AddAll(ps)
	return s
}

// Add inserts p and reports whether it was not already present.
func (s *Set) Add(p Position) bool {
	if _, ok := s.m[p]; ok {
		return false
	}
	s.m[p] = struct{}{}
	return true
}

// AddAll inserts ps and returns how many were new.
func (s *Set) AddAll(ps []Position) int {
	n := 0
	for _, p := range ps {
		if s.Add(p) {
			n++
		}
	}
	return n
}

// Merge adds every member of o and returns how many were new.
func (s *Set) Merge(o *Set) int {
	if o == nil {
		return 0
	}
	n := 0
	for p := range o.m {
		if s.Add(p) {
			n++
		}
	}
	return n
}

// Contains reports membership.
func (s *Set) Contains(p Position) bool {
	_, ok := s.m[p]
	return ok
}

// Len returns the number of positions.
func (s *Set) Len() int {
	return len(s.m)
}

// Sorted returns the members ordered by Less.
func (s *Set) Sorted() []Position {
	out := make([]Position, 0, len(s.m))
	for p := range s.m {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return Less(out[i], out[j]) })
	return out
}

// Chains returns the distinct chain ids present, sorted.
func (s *Set) Chains() []string {
	seen := make(map[string]bool)
	var out []string
	for p := range s.m {
		if !seen[p.Chain] {
			seen[p.Chain] = true
			out = append(out, p.Chain)
		}
	}
	sort.Strings(out)
	return out
}

// FilterChains returns, sorted, the members whose chain is in chains.
func (s *Set) FilterChains(chains []string) []Position {
	want := make(map[string]bool, len(chains))
	for _, c := range chains {
		want[c] = true
	}
	var out []Position
	for _, p := range s.Sorted() {
		if want[p.Chain] {
			out = append(out, p)
		}
	}
	return out
}

// ByChain groups residue numbers per chain, each list sorted ascending.
func (s *Set) ByChain() map[string][]int {
	out := make(map[string][]int)
	for _, p := range s.Sorted() {
		out[p.Chain] = append(out[p.Chain], p.ResNum)
	}
	return out
}

package position

import (
	"github.com/turtacn/poslist/internal/domain/motif"
)

// Source names where a contribution came from.  It is recorded for reporting
// only; the set itself keeps no provenance.
type Source string

const (
	SourceInterface   Source = "interface"
	SourceMotif       Source = "motif"
	SourceSpan        Source = "span"
	SourceInteractive Source = "interactive"
)

// Builder is the single point of reconciliation for a run.  Every source adds
// into one Set, so a position contributed by several sources appears once.
// Nothing is validated against the structure here; unresolvable positions are
// dropped later by the Formatter.
type Builder struct {
	set     *Set
	offered map[Source]int
	added   map[Source]int
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		set:     NewSet(),
		offered: make(map[Source]int),
		added:   make(map[Source]int),
	}
}

// Add contributes ps from src and returns how many were new to the set.
func (b *Builder) Add(src Source, ps ...Position) int {
	n := b.set.AddAll(ps)
	b.offered[src] += len(ps)
	b.added[src] += n
	return n
}

// AddInterface contributes interface-detected positions.
func (b *Builder) AddInterface(ps []Position) int {
	return b.Add(SourceInterface, ps...)
}

// AddMatches expands every matched window into each residue number from its
// start to its end inclusive.
func (b *Builder) AddMatches(matches []motif.Match) int {
	n := 0
	for _, m := range matches {
		n += b.Add(SourceMotif, Range(m.Chain, m.Start, m.End)...)
	}
	return n
}

// AddSpan contributes an explicit residue span.
func (b *Builder) AddSpan(s Span) int {
	return b.Add(SourceSpan, s.Positions()...)
}

// AddSet contributes a whole set, typically an interactive session's result.
func (b *Builder) AddSet(src Source, s *Set) int {
	if s == nil {
		return 0
	}
	return b.Add(src, s.Sorted()...)
}

// Offered returns how many positions src contributed, duplicates included.
func (b *Builder) Offered(src Source) int {
	return b.offered[src]
}

// Added returns how many of src's positions were new when contributed.
func (b *Builder) Added(src Source) int {
	return b.added[src]
}

// Len returns the size of the accumulated set.
func (b *Builder) Len() int {
	return b.set.Len()
}

// Set returns the accumulated set.  The builder must not be used afterwards.
func (b *Builder) Set() *Set {
	return b.set
}

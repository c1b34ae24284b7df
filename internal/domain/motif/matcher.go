// Package motif locates approximate occurrences of a short one-letter query
// in the chain sequences of a structure.  Matching is substitution-only: every
// window of the query's length is compared position by position.
package motif

import (
	"bytes"
	"fmt"

	"github.com/turtacn/poslist/internal/domain/structure"
)

// Match is one qualifying window.  Start and End are residue numbers, not
// sequence indices.
type Match struct {
	Chain      string
	Start      int
	End        int
	Mismatches int
	Sequence   string
}

func (m Match) String() string {
	return fmt.Sprintf("Chain %s: %d-%d [%s]", m.Chain, m.Start, m.End, m.Sequence)
}

// Hamming counts the positions at which a and b differ.  Only the common
// prefix is compared.
func Hamming(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	d := 0
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			d++
		}
	}
	return d
}

// Search runs the query against every chain of s in file order.  Overlapping
// windows are all reported.  An empty query yields no matches.
func Search(s *structure.Structure, query string, maxMismatches int) []Match {
	var out []Match
	for _, c := range s.Chains() {
		out = append(out, SearchChain(c, query, maxMismatches)...)
	}
	return out
}

// SearchChain runs the query against one chain.  Both sides are upper-cased
// before comparison.
func SearchChain(c *structure.Chain, query string, maxMismatches int) []Match {
	q := bytes.ToUpper([]byte(query))
	seq, nums := c.Sequence()
	seq = bytes.ToUpper(seq)
	if len(q) == 0 || len(seq) < len(q) {
		return nil
	}

	var out []Match
	for i := 0; i+len(q) <= len(seq); i++ {
		window := seq[i : i+len(q)]
		mm := hammingBounded(q, window, maxMismatches)
		if mm > maxMismatches {
			continue
		}
		out = append(out, Match{
			Chain:      c.ID,
			Start:      nums[i],
			End:        nums[i+len(q)-1],
			Mismatches: mm,
			Sequence:   string(window),
		})
	}
	return out
}

// hammingBounded is Hamming with an early exit once limit is exceeded.  The
// returned value is exact whenever it is <= limit.
func hammingBounded(a, b []byte, limit int) int {
	d := 0
	for i := range a {
		if a[i] != b[i] {
			d++
			if d > limit {
				return d
			}
		}
	}
	return d
}

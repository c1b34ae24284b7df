package selection

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/turtacn/poslist/internal/domain/motif"
	"github.com/turtacn/poslist/internal/domain/position"
	"github.com/turtacn/poslist/internal/domain/structure"
	"github.com/turtacn/poslist/internal/infrastructure/monitoring/logging"
)

// summaryLimit is the longest residue list printed in full per chain.
const summaryLimit = 10

// MotifHit is a motif window offered to the operator together with how many
// of its residues are known interface residues.
type MotifHit struct {
	motif.Match
	Overlap int
}

// Session is the interactive selection loop.  It owns its selection set;
// nothing outside the session sees it until Run returns.
type Session struct {
	structure     *structure.Structure
	iface         *position.Set
	maxMismatches int
	selected      *position.Set
	logger        logging.Logger

	in  *bufio.Scanner
	out io.Writer
}

// NewSession creates a session over s.  iface holds the interface positions
// known before the session starts and may be nil.
func NewSession(s *structure.Structure, iface *position.Set, maxMismatches int, logger logging.Logger) *Session {
	if iface == nil {
		iface = position.NewSet()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Session{
		structure:     s,
		iface:         iface,
		maxMismatches: maxMismatches,
		selected:      position.NewSet(),
		logger:        logger,
	}
}

// Selected returns the positions accumulated so far.
func (s *Session) Selected() *position.Set {
	return s.selected
}

// AdoptAll adds every interface position and returns how many were offered.
func (s *Session) AdoptAll() int {
	ps := s.iface.Sorted()
	s.selected.AddAll(ps)
	return len(ps)
}

// FilterByChains adds the interface positions on the given chains and
// returns how many were offered.
func (s *Session) FilterByChains(chains []string) int {
	ps := s.iface.FilterChains(chains)
	s.selected.AddAll(ps)
	return len(ps)
}

// SearchMotif runs the matcher and annotates every window with its interface
// overlap.  It does not change the selection.
func (s *Session) SearchMotif(query string) []MotifHit {
	matches := motif.Search(s.structure, query, s.maxMismatches)
	hits := make([]MotifHit, len(matches))
	for i, m := range matches {
		hits[i] = MotifHit{Match: m}
		for _, p := range position.Range(m.Chain, m.Start, m.End) {
			if s.iface.Contains(p) {
				hits[i].Overlap++
			}
		}
	}
	return hits
}

// SelectMatches expands the chosen windows into the selection.  selection is
// "all" or a comma-separated list of 1-based indices; unknown or out of range
// indices are ignored.  It returns how many positions were offered.
func (s *Session) SelectMatches(hits []MotifHit, selection string) int {
	selection = strings.TrimSpace(selection)
	var chosen []MotifHit
	if strings.EqualFold(selection, "all") {
		chosen = hits
	} else {
		for _, item := range strings.Split(selection, ",") {
			i, err := strconv.Atoi(strings.TrimSpace(item))
			if err != nil || i < 1 || i > len(hits) {
				continue
			}
			chosen = append(chosen, hits[i-1])
		}
	}
	n := 0
	for _, h := range chosen {
		ps := position.Range(h.Chain, h.Start, h.End)
		s.selected.AddAll(ps)
		n += len(ps)
	}
	return n
}

// AddManual parses "A30,A31,B50" style input and adds the valid entries.
func (s *Session) AddManual(input string) (int, []error) {
	ps, errs := position.ParseResidueList(input)
	s.selected.AddAll(ps)
	return len(ps), errs
}

// Run drives the menu until the operator finishes, input ends or ctx is
// cancelled, and returns the selection.
func (s *Session) Run(ctx context.Context, in io.Reader, out io.Writer) (*position.Set, error) {
	s.in = bufio.NewScanner(in)
	s.out = out

	s.printf("\n=== Interactive Mode ===\n")
	s.printSummary()

	for {
		if err := ctx.Err(); err != nil {
			return s.selected, err
		}
		s.printf("\nOptions:\n")
		s.printf("  1. Use all interface residues\n")
		s.printf("  2. Filter interface residues by chain\n")
		s.printf("  3. Search for sequence motif\n")
		s.printf("  4. Add specific residues manually\n")
		s.printf("  5. Done - generate position list\n")

		choice, ok := s.prompt("\nSelect option (1-5): ")
		if !ok {
			s.logger.Debug("input closed, finishing session")
			return s.selected, nil
		}

		switch strings.TrimSpace(choice) {
		case "1":
			s.optionAdoptAll()
		case "2":
			if !s.optionFilter() {
				return s.selected, nil
			}
		case "3":
			if !s.optionMotif() {
				return s.selected, nil
			}
		case "4":
			if !s.optionManual() {
				return s.selected, nil
			}
		case "5":
			return s.selected, nil
		default:
			s.printf("Unknown option %q\n", choice)
		}
	}
}

func (s *Session) optionAdoptAll() {
	if s.iface.Len() == 0 {
		s.printf("No interface residues available\n")
		return
	}
	s.printf("Added %d interface residues\n", s.AdoptAll())
}

func (s *Session) optionFilter() bool {
	if s.iface.Len() == 0 {
		s.printf("No interface residues available\n")
		return true
	}
	s.printf("\nAvailable chains: %s\n", strings.Join(s.iface.Chains(), ", "))
	line, ok := s.prompt("Select chains (comma-separated): ")
	if !ok {
		return false
	}
	var chains []string
	for _, c := range strings.Split(strings.ToUpper(line), ",") {
		if c = strings.TrimSpace(c); c != "" {
			chains = append(chains, c)
		}
	}
	if len(chains) == 0 {
		return true
	}
	n := s.FilterByChains(chains)
	s.printf("Added %d residues from chain(s) %s\n", n, strings.Join(chains, ", "))
	return true
}

func (s *Session) optionMotif() bool {
	line, ok := s.prompt("Enter sequence to search (1-letter code): ")
	if !ok {
		return false
	}
	query := strings.ToUpper(strings.TrimSpace(line))
	if query == "" {
		return true
	}
	hits := s.SearchMotif(query)
	if len(hits) == 0 {
		s.printf("No matches found for '%s'\n", query)
		return true
	}
	s.printf("\nFound %d match(es):\n", len(hits))
	for i, h := range hits {
		info := ""
		if h.Overlap > 0 {
			info = fmt.Sprintf(" (interface: %d residues)", h.Overlap)
		}
		s.printf("  %d. %s%s\n", i+1, h.Match, info)
	}
	sel, ok := s.prompt("\nSelect matches (comma-separated numbers, or 'all'): ")
	if !ok {
		return false
	}
	if n := s.SelectMatches(hits, sel); n > 0 {
		s.printf("Added %d residues\n", n)
	}
	return true
}

func (s *Session) optionManual() bool {
	line, ok := s.prompt("Enter residues (e.g., A30,A31,B50): ")
	if !ok {
		return false
	}
	n, errs := s.AddManual(line)
	for _, err := range errs {
		s.logger.Warn("invalid residue entry", logging.Err(err))
		s.printf("Invalid residue format: %v\n", err)
	}
	if n > 0 {
		s.printf("Added %d residues\n", n)
	}
	return true
}

func (s *Session) printSummary() {
	if s.iface.Len() == 0 {
		return
	}
	s.printf("\nFound %d interface residues:\n", s.iface.Len())
	byChain := s.iface.ByChain()
	for _, chain := range s.iface.Chains() {
		nums := byChain[chain]
		s.printf("  Chain %s: %d residues\n", chain, len(nums))
		if len(nums) <= summaryLimit {
			s.printf("    Residues: %s\n", joinInts(nums))
		} else {
			s.printf("    Residues: %s ... %s\n", joinInts(nums[:5]), joinInts(nums[len(nums)-5:]))
		}
	}
}

func (s *Session) prompt(msg string) (string, bool) {
	s.printf("%s", msg)
	if !s.in.Scan() {
		s.printf("\n")
		return "", false
	}
	return s.in.Text(), true
}

func (s *Session) printf(format string, args ...interface{}) {
	fmt.Fprintf(s.out, format, args...)
}

func joinInts(nums []int) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}

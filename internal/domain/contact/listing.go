package contact

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/turtacn/poslist/internal/domain/position"
	"github.com/turtacn/poslist/pkg/errors"
)

// ListingFile is the listing's name inside the work directory.
const ListingFile = "interface.txt"

// Result is the outcome of interface detection across all chain pairs, in
// pair order.
type Result struct {
	Hits []InterfaceHit
}

// NewResult wraps hits.
func NewResult(hits []InterfaceHit) *Result {
	return &Result{Hits: hits}
}

// Positions returns the union of every side of every hit, sorted.
func (r *Result) Positions() []position.Position {
	return r.Set().Sorted()
}

// Set returns the union of every side of every hit.
func (r *Result) Set() *position.Set {
	s := position.NewSet()
	if r == nil {
		return s
	}
	for _, h := range r.Hits {
		s.AddAll(h.Left)
		s.AddAll(h.Right)
	}
	return s
}

// Lines renders the listing lines "X_Y_chain_resnum" without duplicates.
func (r *Result) Lines() []string {
	if r == nil {
		return nil
	}
	var out []string
	seen := make(map[string]bool)
	for _, h := range r.Hits {
		for _, side := range [][]position.Position{h.Left, h.Right} {
			for _, p := range side {
				line := fmt.Sprintf("%s_%s_%s_%d", h.Pair.X, h.Pair.Y, p.Chain, p.ResNum)
				if !seen[line] {
					seen[line] = true
					out = append(out, line)
				}
			}
		}
	}
	return out
}

// WriteListing writes the listing to w.
func (r *Result) WriteListing(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, line := range r.Lines() {
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// SaveListing creates dir if needed and writes ListingFile into it.
func (r *Result) SaveListing(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.IOError(err, "create work directory "+dir)
	}
	path := filepath.Join(dir, ListingFile)
	f, err := os.Create(path)
	if err != nil {
		return "", errors.IOError(err, "create interface listing")
	}
	if err := r.WriteListing(f); err != nil {
		f.Close()
		return "", errors.IOError(err, "write interface listing")
	}
	if err := f.Close(); err != nil {
		return "", errors.IOError(err, "close interface listing")
	}
	return path, nil
}

// ReadListing parses listing lines back into a Result.  Lines with fewer than
// four fields are ignored; a line whose residue number is not an integer is
// skipped and reported.
func ReadListing(rd io.Reader) (*Result, []error, error) {
	var (
		order []Pair
		byKey = make(map[Pair]*InterfaceHit)
		errs  []error
	)
	sc := bufio.NewScanner(rd)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		parts := strings.Split(strings.TrimSpace(sc.Text()), "_")
		if len(parts) < 4 {
			continue
		}
		n, err := strconv.Atoi(parts[3])
		if err != nil {
			errs = append(errs, errors.New(errors.ErrCodeInvalidListingLine,
				fmt.Sprintf("line %d: residue number %q is not an integer", lineNo, parts[3])).WithCause(err))
			continue
		}
		pair := Pair{X: parts[0], Y: parts[1]}
		h, ok := byKey[pair]
		if !ok {
			h = &InterfaceHit{Pair: pair}
			byKey[pair] = h
			order = append(order, pair)
		}
		p := position.At(parts[2], n)
		if p.Chain == pair.Y && pair.X != pair.Y {
			h.Right = append(h.Right, p)
		} else {
			h.Left = append(h.Left, p)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errs, errors.IOError(err, "read interface listing")
	}
	hits := make([]InterfaceHit, len(order))
	for i, p := range order {
		hits[i] = *byKey[p]
	}
	return NewResult(hits), errs, nil
}

// LoadListing reads a listing file.
func LoadListing(path string) (*Result, []error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.IOError(err, "open interface listing "+path)
	}
	defer f.Close()
	return ReadListing(f)
}

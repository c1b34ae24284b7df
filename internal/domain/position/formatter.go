package position

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/turtacn/poslist/internal/domain/structure"
	"github.com/turtacn/poslist/pkg/errors"
)

// Format selects the token layout of the position list.
type Format string

const (
	// FormatMutatex renders {oneLetter}{chain}{resnum}, e.g. "SA23".
	FormatMutatex Format = "mutatex"
	// FormatRosetta renders {resnum}{chain}, e.g. "23A".
	FormatRosetta Format = "rosetta"
)

// IsValid checks if the format is known.
func (f Format) IsValid() bool {
	switch f {
	case FormatMutatex, FormatRosetta:
		return true
	default:
		return false
	}
}

func (f Format) String() string {
	return string(f)
}

// ParseFormat parses a format name case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f.IsValid() {
		return f, nil
	}
	return "", errors.Errorf("unsupported format %q (expected mutatex or rosetta)", s)
}

// Drop reasons reported by Render.
const (
	ReasonChainAbsent   = "chain not in structure"
	ReasonResidueAbsent = "residue number not in chain"
	ReasonUnmappedName  = "residue name has no one-letter code"
)

// Dropped records a position that produced no token.
type Dropped struct {
	Position Position
	Reason   string
	ResName  string
}

// Token renders a single position.
func Token(f Format, oneLetter byte, p Position) string {
	num := strconv.Itoa(p.ResNum)
	if f == FormatRosetta {
		return num + p.Chain
	}
	return string(oneLetter) + p.Chain + num
}

// Render converts ps into tokens.  Positions whose chain or residue is absent
// from s, or whose residue name is not a standard amino acid, are dropped and
// reported rather than treated as errors.  The tokens are deduplicated and
// sorted lexically as strings, so "A10" sorts before "A2".
func Render(s *structure.Structure, ps []Position, f Format) ([]string, []Dropped) {
	seen := make(map[string]bool, len(ps))
	tokens := make([]string, 0, len(ps))
	var dropped []Dropped

	for _, p := range ps {
		chain, ok := s.Chain(p.Chain)
		if !ok {
			dropped = append(dropped, Dropped{Position: p, Reason: ReasonChainAbsent})
			continue
		}
		res, ok := chain.Residue(p.ResNum)
		if !ok {
			dropped = append(dropped, Dropped{Position: p, Reason: ReasonResidueAbsent})
			continue
		}
		code, ok := res.OneLetter()
		if !ok {
			dropped = append(dropped, Dropped{Position: p, Reason: ReasonUnmappedName, ResName: res.Name})
			continue
		}
		tok := Token(f, code, p)
		if !seen[tok] {
			seen[tok] = true
			tokens = append(tokens, tok)
		}
	}

	sort.Strings(tokens)
	return tokens, dropped
}

// WriteList writes one token per line.
func WriteList(w io.Writer, tokens []string) error {
	bw := bufio.NewWriter(w)
	for _, tok := range tokens {
		if _, err := bw.WriteString(tok + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile writes tokens to path through a temporary file in the same
// directory that is renamed into place, so a failure never leaves a partial
// list behind.
func WriteFile(path string, tokens []string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.IOError(err, "create temporary output in "+dir)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if err := WriteList(tmp, tokens); err != nil {
		tmp.Close()
		cleanup()
		return errors.IOError(err, "write position list")
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return errors.IOError(err, "close position list")
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return errors.IOError(err, "chmod position list")
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return errors.IOError(err, "rename position list to "+path)
	}
	return nil
}

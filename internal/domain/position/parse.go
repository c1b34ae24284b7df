package position

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/turtacn/poslist/pkg/errors"
)

// Span is an explicit inclusive residue range on one chain, written
// "chain:start-end".
type Span struct {
	Chain      string
	Start, End int
}

// Positions expands the span.
func (s Span) Positions() []Position {
	return Range(s.Chain, s.Start, s.End)
}

func (s Span) String() string {
	return s.Chain + ":" + strconv.Itoa(s.Start) + "-" + strconv.Itoa(s.End)
}

var spanRange = regexp.MustCompile(`^(-?\d+)-(-?\d+)$`)

// ParseSpan parses a "chain:start-end" token.  Malformed tokens yield an
// InvalidSpanFormat error.
func ParseSpan(token string) (Span, error) {
	tok := strings.TrimSpace(token)
	chain, rng, ok := strings.Cut(tok, ":")
	if !ok {
		return Span{}, errors.InvalidSpanFormat(token, "missing ':'")
	}
	if !strings.Contains(rng, "-") {
		return Span{}, errors.InvalidSpanFormat(token, "missing '-'")
	}
	if chain == "" || strings.ContainsAny(chain, " \t") {
		return Span{}, errors.InvalidSpanFormat(token, "missing chain id")
	}
	m := spanRange.FindStringSubmatch(rng)
	if m == nil {
		return Span{}, errors.InvalidSpanFormat(token, "range is not start-end")
	}
	start, err := strconv.Atoi(m[1])
	if err != nil {
		return Span{}, errors.InvalidSpanFormat(token, "bad start").WithCause(err)
	}
	end, err := strconv.Atoi(m[2])
	if err != nil {
		return Span{}, errors.InvalidSpanFormat(token, "bad end").WithCause(err)
	}
	if start > end {
		return Span{}, errors.InvalidSpanFormat(token, "start exceeds end")
	}
	return Span{Chain: chain, Start: start, End: end}, nil
}

// ParseResidueToken parses a manual "chain+resnum" entry such as "A30".  The
// token is upper-cased; the first character is the chain id.
func ParseResidueToken(token string) (Position, error) {
	tok := strings.ToUpper(strings.TrimSpace(token))
	if len(tok) < 2 {
		return Position{}, errors.InvalidResidueFormat(token, "expected chain followed by residue number")
	}
	n, err := strconv.Atoi(tok[1:])
	if err != nil {
		return Position{}, errors.InvalidResidueFormat(token, "residue number is not an integer")
	}
	return Position{Chain: tok[:1], ResNum: n}, nil
}

// ParseResidueList parses a comma-separated list of residue tokens.  Empty
// items are ignored; each malformed item produces one error and is skipped.
func ParseResidueList(input string) ([]Position, []error) {
	var (
		out  []Position
		errs []error
	)
	for _, item := range strings.Split(input, ",") {
		if strings.TrimSpace(item) == "" {
			continue
		}
		p, err := ParseResidueToken(item)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, p)
	}
	return out, errs
}

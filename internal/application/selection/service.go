// Package selection runs one position-list generation: it loads the
// structure, gathers positions from interface detection, motif search,
// explicit spans and the interactive session, and writes the formatted list.
package selection

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/turtacn/poslist/internal/domain/contact"
	"github.com/turtacn/poslist/internal/domain/motif"
	"github.com/turtacn/poslist/internal/domain/position"
	"github.com/turtacn/poslist/internal/domain/structure"
	"github.com/turtacn/poslist/internal/infrastructure/monitoring/logging"
	prom "github.com/turtacn/poslist/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/poslist/internal/infrastructure/workerpool"
	"github.com/turtacn/poslist/pkg/errors"
)

// Skip reasons recorded in logs and metrics.
const (
	skipInvalidSpan    = "invalid_span"
	skipUnresolved     = "unresolved_position"
	skipListingLine    = "invalid_listing_line"
	skipAbsentChain    = "absent_chain"
	skipIgnoredSources = "interface_only"
)

// Service defines the selection run.
type Service interface {
	Run(ctx context.Context, input *RunInput) (*RunResult, error)
}

// RunInput contains everything a run needs.
type RunInput struct {
	RunID         string
	PDBPath       string
	Chains        string
	OutputPath    string
	Format        position.Format
	Interactive   bool
	Query         string
	Spans         []string
	InterfaceOnly bool
	// Cutoff is the contact distance; zero selects the detector default.
	Cutoff        float64
	MaxMismatches int
	Workers       int
	Workdir       string
	KeepWorkdir   bool
	FromListing   string
	Strict        bool
}

// Contribution counts what one source offered and how much of it was new.
type Contribution struct {
	Source  position.Source `json:"source"`
	Offered int             `json:"offered"`
	Added   int             `json:"added"`
}

// RunResult summarises a finished run.
type RunResult struct {
	RunID              string             `json:"run_id"`
	Structure          string             `json:"structure"`
	Chains             []string           `json:"chains"`
	InterfacePositions int                `json:"interface_positions"`
	Matches            []motif.Match      `json:"matches,omitempty"`
	Contributions      []Contribution     `json:"contributions"`
	Skipped            int                `json:"skipped"`
	Dropped            []position.Dropped `json:"dropped,omitempty"`
	Tokens             []string           `json:"tokens"`
	OutputPath         string             `json:"output_path,omitempty"`
	ListingPath        string             `json:"listing_path,omitempty"`
}

// Empty reports whether no position list was written.
func (r *RunResult) Empty() bool {
	return len(r.Tokens) == 0
}

// ServiceOption customises the service.
type ServiceOption func(*serviceImpl)

// WithMetrics records run metrics.
func WithMetrics(m *prom.RunMetrics) ServiceOption {
	return func(s *serviceImpl) { s.metrics = m }
}

// WithConsole sets the operator streams used by the interactive session.
func WithConsole(in io.Reader, out io.Writer) ServiceOption {
	return func(s *serviceImpl) {
		s.in = in
		s.out = out
	}
}

type serviceImpl struct {
	logger  logging.Logger
	metrics *prom.RunMetrics
	in      io.Reader
	out     io.Writer
}

// NewService creates the selection service.  A nil logger falls back to
// logging.Default().
func NewService(logger logging.Logger, opts ...ServiceOption) Service {
	if logger == nil {
		logger = logging.Default()
	}
	s := &serviceImpl{logger: logger, in: os.Stdin, out: os.Stdout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validate checks the input before any work is done.
func (in *RunInput) Validate() error {
	if strings.TrimSpace(in.PDBPath) == "" {
		return errors.InvalidParam("structure path is required")
	}
	if strings.TrimSpace(in.Chains) == "" && in.FromListing == "" {
		return errors.InvalidParam("chains are required")
	}
	if !in.Format.IsValid() {
		return errors.InvalidParam(fmt.Sprintf("unsupported format %q", in.Format))
	}
	if in.OutputPath == "" {
		return errors.InvalidParam("output path is required")
	}
	if in.Workdir == "" {
		return errors.InvalidParam("work directory is required")
	}
	if samePath(in.OutputPath, filepath.Join(in.Workdir, contact.ListingFile)) {
		return errors.InvalidParam("output path " + in.OutputPath + " is the interface listing of the work directory")
	}
	if in.Cutoff < 0 {
		return errors.InvalidParam(fmt.Sprintf("cutoff must be positive, got %g", in.Cutoff))
	}
	if in.MaxMismatches < 0 {
		return errors.InvalidParam(fmt.Sprintf("max mismatches must be >= 0, got %d", in.MaxMismatches))
	}
	if in.Query != "" && strings.TrimSpace(in.Query) == "" {
		return errors.InvalidParam("query must not be blank")
	}
	return nil
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

func (s *serviceImpl) Run(ctx context.Context, input *RunInput) (*RunResult, error) {
	if input == nil {
		return nil, errors.InvalidParam("run input is nil")
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if input.RunID == "" {
		input.RunID = uuid.NewString()
	}
	log := s.logger.With(logging.String("run_id", input.RunID))
	res := &RunResult{RunID: input.RunID}

	st, err := s.load(log, input.PDBPath)
	if err != nil {
		return nil, err
	}
	res.Structure = st.Name

	if !input.Interactive && !input.KeepWorkdir {
		_, statErr := os.Stat(input.Workdir)
		created := os.IsNotExist(statErr)
		defer s.cleanWorkdir(log, input.Workdir, created, res)
	}

	iface, err := s.detect(ctx, log, st, input, res)
	if err != nil {
		return nil, err
	}

	b := position.NewBuilder()
	useInterface := input.InterfaceOnly || !(len(input.Spans) > 0 || input.Query != "" || input.Interactive)
	if useInterface {
		b.AddInterface(iface.Sorted())
	}
	if input.InterfaceOnly && (len(input.Spans) > 0 || input.Query != "" || input.Interactive) {
		log.Warn("interface-only set; ignoring spans, query and interactive selection")
		s.skipped(res, skipIgnoredSources)
	} else {
		if input.Interactive {
			sel, err := NewSession(st, iface, input.MaxMismatches, log.Named("session")).Run(ctx, s.in, s.out)
			if err != nil {
				return nil, err
			}
			b.AddSet(position.SourceInteractive, sel)
		}
		if input.Query != "" {
			res.Matches = s.search(log, st, input)
			b.AddMatches(res.Matches)
		}
		if err := s.addSpans(log, b, input, res); err != nil {
			return nil, err
		}
	}

	for _, src := range []position.Source{position.SourceInterface, position.SourceInteractive, position.SourceMotif, position.SourceSpan} {
		c := Contribution{Source: src, Offered: b.Offered(src), Added: b.Added(src)}
		res.Contributions = append(res.Contributions, c)
		if s.metrics != nil {
			prom.RecordContribution(s.metrics, string(src), c.Offered, c.Added)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.render(log, st, b.Set(), input, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *serviceImpl) load(log logging.Logger, path string) (*structure.Structure, error) {
	timer := prom.StageTimer(s.metrics, "load")
	st, err := structure.Load(path)
	if err != nil {
		return nil, err
	}
	d := timer.ObserveDuration()
	log.Info("structure loaded",
		logging.String("structure", st.Name),
		logging.Int("chains", len(st.ChainIDs())),
		logging.Int("atoms", st.AtomCount()),
		logging.Duration("elapsed", d))
	if s.metrics != nil {
		prom.RecordStructure(s.metrics, st.Name, st.AtomCount(), st.ResidueCount(), len(st.ChainIDs()))
	}
	return st, nil
}

// detect computes or reads the interface positions.  A freshly computed
// listing is saved into the work directory; a reused one is left untouched.
func (s *serviceImpl) detect(ctx context.Context, log logging.Logger, st *structure.Structure, input *RunInput, res *RunResult) (*position.Set, error) {
	timer := prom.StageTimer(s.metrics, "detect")
	var result *contact.Result

	if input.FromListing != "" {
		r, lineErrs, err := contact.LoadListing(input.FromListing)
		if err != nil {
			return nil, err
		}
		for _, e := range lineErrs {
			if input.Strict {
				return nil, e
			}
			log.Warn("skipping interface listing line", logging.Err(e))
			s.skipped(res, skipListingLine)
		}
		result = r
		log.Info("interface listing reused", logging.String("path", input.FromListing))
	} else {
		chains := contact.ParseChainGroups(input.Chains)
		res.Chains = chains
		for _, c := range chains {
			if _, ok := st.Chain(c); !ok {
				log.Warn("chain not in structure", logging.String("chain", c), logging.String("structure", st.Name))
				s.skipped(res, skipAbsentChain)
			}
		}
		pairs := contact.Pairs(chains)
		if len(pairs) == 0 {
			log.Warn("fewer than two chains selected; no interface to detect", logging.Strings("chains", chains))
		}
		workers := input.Workers
		if workers < 1 {
			workers = 1
		}
		hits := workerpool.Map(workers, pairs, func(p contact.Pair) contact.InterfaceHit {
			return contact.DetectPair(st, p, input.Cutoff)
		})
		result = contact.NewResult(hits)
		if s.metrics != nil {
			s.metrics.ChainPairsTotal.WithLabelValues().Add(float64(len(pairs)))
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, h := range result.Hits {
		log.Debug("interface pair evaluated",
			logging.String("pair", h.Pair.String()),
			logging.Int("left", len(h.Left)),
			logging.Int("right", len(h.Right)))
		if s.metrics != nil {
			prom.RecordInterfaceSide(s.metrics, h.Pair.String(), h.Pair.X, len(h.Left))
			prom.RecordInterfaceSide(s.metrics, h.Pair.String(), h.Pair.Y, len(h.Right))
		}
	}

	if input.FromListing == "" {
		path, err := result.SaveListing(input.Workdir)
		if err != nil {
			return nil, err
		}
		res.ListingPath = path
	}

	set := result.Set()
	res.InterfacePositions = set.Len()
	d := timer.ObserveDuration()
	log.Info("interface residues found", logging.Int("count", set.Len()), logging.Duration("elapsed", d))
	return set, nil
}

func (s *serviceImpl) search(log logging.Logger, st *structure.Structure, input *RunInput) []motif.Match {
	timer := prom.StageTimer(s.metrics, "motif")
	matches := motif.Search(st, input.Query, input.MaxMismatches)
	log.Info("motif search finished",
		logging.String("query", strings.ToUpper(input.Query)),
		logging.Int("matches", len(matches)))
	for _, m := range matches {
		log.Info("motif match",
			logging.String("chain", m.Chain),
			logging.Int("start", m.Start),
			logging.Int("end", m.End),
			logging.Int("mismatches", m.Mismatches),
			logging.String("sequence", m.Sequence))
		if s.metrics != nil {
			s.metrics.MotifMatchesTotal.WithLabelValues(m.Chain).Inc()
		}
	}
	timer.ObserveDuration()
	return matches
}

func (s *serviceImpl) addSpans(log logging.Logger, b *position.Builder, input *RunInput, res *RunResult) error {
	for _, tok := range input.Spans {
		span, err := position.ParseSpan(tok)
		if err != nil {
			if input.Strict {
				return err
			}
			log.Warn("skipping span", logging.String("token", tok), logging.Err(err))
			s.skipped(res, skipInvalidSpan)
			continue
		}
		b.AddSpan(span)
	}
	return nil
}

func (s *serviceImpl) render(log logging.Logger, st *structure.Structure, set *position.Set, input *RunInput, res *RunResult) error {
	timer := prom.StageTimer(s.metrics, "render")
	tokens, dropped := position.Render(st, set.Sorted(), input.Format)
	res.Dropped = dropped
	for _, d := range dropped {
		if input.Strict {
			return errors.New(errors.CodeUnresolvedPosition, "cannot resolve position "+d.Position.String()).
				WithDetail(d.Reason)
		}
		fields := []logging.Field{
			logging.String("chain", d.Position.Chain),
			logging.Int("resnum", d.Position.ResNum),
			logging.String("reason", d.Reason),
		}
		if d.ResName != "" {
			fields = append(fields, logging.String("resname", d.ResName))
		}
		log.Warn("dropping position", fields...)
		s.skipped(res, skipUnresolved)
	}
	res.Tokens = tokens

	if len(tokens) == 0 {
		log.Warn("no positions selected; no output written", logging.String("output", input.OutputPath))
		return nil
	}
	if err := position.WriteFile(input.OutputPath, tokens); err != nil {
		return err
	}
	res.OutputPath = input.OutputPath

	log.Info("position list written",
		logging.String("output", input.OutputPath),
		logging.String("format", input.Format.String()),
		logging.Int("tokens", len(tokens)),
		logging.Duration("elapsed", timer.ObserveDuration()))
	if s.metrics != nil {
		s.metrics.TokensWritten.WithLabelValues(input.Format.String()).Set(float64(len(tokens)))
	}
	return nil
}

func (s *serviceImpl) skipped(res *RunResult, reason string) {
	res.Skipped++
	if s.metrics != nil {
		prom.RecordSkipped(s.metrics, reason)
	}
}

// cleanWorkdir removes only what the run put into the work directory: the
// listing it wrote, and the directory itself when the run created it and
// nothing else is left in it.
func (s *serviceImpl) cleanWorkdir(log logging.Logger, dir string, created bool, res *RunResult) {
	if res.ListingPath != "" {
		if err := os.Remove(res.ListingPath); err != nil && !os.IsNotExist(err) {
			log.Warn("cannot remove interface listing", logging.String("path", res.ListingPath), logging.Err(err))
		}
	}
	if !created {
		return
	}
	if err := os.Remove(dir); err != nil && !os.IsNotExist(err) {
		log.Debug("work directory kept", logging.String("workdir", dir), logging.Err(err))
	}
}

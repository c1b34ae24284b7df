package selection

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/poslist/internal/domain/contact"
	"github.com/turtacn/poslist/internal/domain/position"
	"github.com/turtacn/poslist/internal/infrastructure/monitoring/logging"
	prom "github.com/turtacn/poslist/internal/infrastructure/monitoring/prometheus"
	tu "github.com/turtacn/poslist/internal/testutil"
	"github.com/turtacn/poslist/pkg/errors"
)

type env struct {
	dir    string
	logger *tu.MockLogger
	input  *RunInput
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()
	pdb := filepath.Join(dir, "complex.pdb")
	require.NoError(t, os.WriteFile(pdb, []byte(fixturePDB().String()), 0o644))
	return &env{
		dir:    dir,
		logger: tu.NewMockLogger(),
		input: &RunInput{
			PDBPath:    pdb,
			Chains:     "A_B",
			OutputPath: filepath.Join(dir, "position_list.txt"),
			Format:     position.FormatMutatex,
			Workdir:    filepath.Join(dir, "temp_interface"),
			Workers:    1,
		},
	}
}

func (e *env) run(t *testing.T, opts ...ServiceOption) (*RunResult, error) {
	t.Helper()
	return NewService(e.logger, opts...).Run(context.Background(), e.input)
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestRun_InterfaceByDefault(t *testing.T) {
	e := newEnv(t)
	res, err := e.run(t)
	require.NoError(t, err)

	assert.Equal(t, []string{"AA3", "SB2"}, res.Tokens)
	assert.Equal(t, []string{"AA3", "SB2"}, readLines(t, e.input.OutputPath))
	assert.Equal(t, 2, res.InterfacePositions)
	assert.Equal(t, "complex", res.Structure)
	assert.Equal(t, []string{"A", "B"}, res.Chains)
	assert.NotEmpty(t, res.RunID)

	_, statErr := os.Stat(e.input.Workdir)
	assert.True(t, os.IsNotExist(statErr), "work directory removed after a non-interactive run")
}

func TestRun_SpansInRosettaFormat(t *testing.T) {
	e := newEnv(t)
	e.input.Spans = []string{"A:10-12"}
	e.input.Format = position.FormatRosetta

	res, err := e.run(t)
	require.NoError(t, err)
	assert.Equal(t, []string{"10A", "11A", "12A"}, readLines(t, e.input.OutputPath))
	assert.Equal(t, Contribution{Source: position.SourceInterface}, res.Contributions[0], "spans suppress interface positions")
}

func TestRun_InterfaceAndSpanOverlapOnce(t *testing.T) {
	e := newEnv(t)
	e.input.Interactive = true
	e.input.Spans = []string{"A:2-4"}

	var out bytes.Buffer
	res, err := e.run(t, WithConsole(strings.NewReader("1\n5\n"), &out))
	require.NoError(t, err)

	lines := readLines(t, e.input.OutputPath)
	assert.Equal(t, []string{"AA3", "GA2", "GA4", "SB2"}, lines)
	assert.Equal(t, 1, strings.Count(strings.Join(lines, "\n"), "AA3"))
	assert.Contains(t, out.String(), "=== Interactive Mode ===")

	_, statErr := os.Stat(res.ListingPath)
	assert.NoError(t, statErr, "interactive runs keep the work directory")
}

func TestRun_EmptyResultWritesNothing(t *testing.T) {
	e := newEnv(t)
	e.input.Chains = "AC"

	res, err := e.run(t)
	require.NoError(t, err)
	assert.True(t, res.Empty())
	assert.Empty(t, res.OutputPath)
	assert.True(t, e.logger.HasMessage("warn", "no positions selected; no output written"))
	assert.True(t, e.logger.HasMessage("warn", "chain not in structure"))

	_, statErr := os.Stat(e.input.OutputPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_QueryExpandsMatches(t *testing.T) {
	e := newEnv(t)
	e.input.Query = "gg"

	res, err := e.run(t)
	require.NoError(t, err)
	require.Len(t, res.Matches, 2)
	assert.Equal(t, []string{"GA4", "GA5", "GB3", "GB4"}, res.Tokens)
}

func TestRun_QueryWithMismatches(t *testing.T) {
	e := newEnv(t)
	e.input.Query = "GGT"
	e.input.MaxMismatches = 1

	res, err := e.run(t)
	require.NoError(t, err)
	for _, m := range res.Matches {
		assert.LessOrEqual(t, m.Mismatches, 1)
	}
	assert.Contains(t, res.Tokens, "TA6")
	assert.Contains(t, res.Tokens, "TB5")
}

func TestRun_BadSpanIsSkippedByDefault(t *testing.T) {
	e := newEnv(t)
	e.input.Spans = []string{"A10-12", "A:1-1"}

	res, err := e.run(t)
	require.NoError(t, err)
	assert.Equal(t, []string{"SA1"}, res.Tokens)
	assert.Equal(t, 1, res.Skipped)
	assert.True(t, e.logger.HasMessage("warn", "skipping span"))
}

func TestRun_BadSpanIsFatalWhenStrict(t *testing.T) {
	e := newEnv(t)
	e.input.Spans = []string{"A10-12"}
	e.input.Strict = true

	_, err := e.run(t)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidSpanFormat))
	_, statErr := os.Stat(e.input.OutputPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_UnresolvedPositions(t *testing.T) {
	e := newEnv(t)
	e.input.Spans = []string{"A:12-13", "Z:1-1"}

	res, err := e.run(t)
	require.NoError(t, err)
	assert.Equal(t, []string{"HA12"}, res.Tokens)
	require.Len(t, res.Dropped, 2)
	assert.Equal(t, 2, e.logger.Count("warn", "dropping position"))

	e = newEnv(t)
	e.input.Spans = []string{"A:12-13"}
	e.input.Strict = true
	_, err = e.run(t)
	assert.True(t, errors.IsCode(err, errors.CodeUnresolvedPosition))
}

func TestRun_InterfaceOnlyIgnoresOtherSources(t *testing.T) {
	e := newEnv(t)
	e.input.InterfaceOnly = true
	e.input.Spans = []string{"A:10-12"}
	e.input.Query = "GG"

	res, err := e.run(t)
	require.NoError(t, err)
	assert.Equal(t, []string{"AA3", "SB2"}, res.Tokens)
	assert.Empty(t, res.Matches)
	assert.True(t, e.logger.HasMessage("warn", "interface-only set; ignoring spans, query and interactive selection"))
}

func TestRun_CutoffIsForwarded(t *testing.T) {
	e := newEnv(t)
	e.input.Cutoff = 3.5

	res, err := e.run(t)
	require.NoError(t, err)
	assert.True(t, res.Empty(), "B2 is 4.0 from A3")
}

func TestRun_KeepWorkdirAndReuseListing(t *testing.T) {
	e := newEnv(t)
	e.input.KeepWorkdir = true
	res, err := e.run(t)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(e.input.Workdir, contact.ListingFile), res.ListingPath)
	assert.Equal(t, []string{"A_B_A_3", "A_B_B_2"}, readLines(t, res.ListingPath))

	listing := filepath.Join(e.dir, "saved.txt")
	require.NoError(t, os.WriteFile(listing, []byte("A_B_A_7\nA_B_B_x\nbad\n"), 0o644))

	e2 := newEnv(t)
	e2.input.FromListing = listing
	e2.input.Chains = ""
	res, err = e2.run(t)
	require.NoError(t, err)
	assert.Equal(t, []string{"KA7"}, res.Tokens)
	assert.Equal(t, 1, res.Skipped)
}

func TestRun_OutputInsideWorkdirSurvivesCleanup(t *testing.T) {
	e := newEnv(t)
	e.input.OutputPath = filepath.Join(e.input.Workdir, "positions.txt")

	res, err := e.run(t)
	require.NoError(t, err)
	assert.Equal(t, e.input.OutputPath, res.OutputPath)
	assert.Equal(t, []string{"AA3", "SB2"}, readLines(t, e.input.OutputPath))
	assert.NoFileExists(t, filepath.Join(e.input.Workdir, contact.ListingFile))
}

func TestRun_ExistingWorkdirContentIsKept(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, os.MkdirAll(e.input.Workdir, 0o755))
	notes := filepath.Join(e.input.Workdir, "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("keep me\n"), 0o644))

	_, err := e.run(t)
	require.NoError(t, err)
	assert.FileExists(t, notes)
	assert.NoFileExists(t, filepath.Join(e.input.Workdir, contact.ListingFile))
}

func TestRun_ExistingEmptyWorkdirIsNotRemoved(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, os.MkdirAll(e.input.Workdir, 0o755))

	_, err := e.run(t)
	require.NoError(t, err)
	assert.DirExists(t, e.input.Workdir)
}

func TestRun_ReusedListingInWorkdirIsLeftIntact(t *testing.T) {
	e := newEnv(t)
	e.input.KeepWorkdir = true
	first, err := e.run(t)
	require.NoError(t, err)
	listing := first.ListingPath
	before, err := os.ReadFile(listing)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		again := newEnv(t)
		again.input.Workdir = e.input.Workdir
		again.input.FromListing = listing
		res, err := again.run(t)
		require.NoError(t, err, "reuse %d", i)
		assert.Equal(t, []string{"AA3", "SB2"}, res.Tokens)
		assert.Empty(t, res.ListingPath)

		after, err := os.ReadFile(listing)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	}
}

func TestRunInput_OutputMustNotBeTheListing(t *testing.T) {
	e := newEnv(t)
	e.input.OutputPath = filepath.Join(e.input.Workdir, ".", contact.ListingFile)
	_, err := e.run(t)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
}

func TestNewService_NilLoggerUsesDefault(t *testing.T) {
	prev := logging.Default()
	t.Cleanup(func() { logging.SetDefault(prev) })
	def := tu.NewMockLogger()
	logging.SetDefault(def)

	e := newEnv(t)
	_, err := NewService(nil).Run(context.Background(), e.input)
	require.NoError(t, err)
	assert.True(t, def.HasMessage("info", "position list written"))
}

func TestRun_ParallelDetectionMatchesSequential(t *testing.T) {
	seq := newEnv(t)
	seq.input.Chains = "AB_AB"
	a, err := seq.run(t)
	require.NoError(t, err)

	par := newEnv(t)
	par.input.Chains = "AB_AB"
	par.input.Workers = 4
	b, err := par.run(t)
	require.NoError(t, err)
	assert.Equal(t, a.Tokens, b.Tokens)
}

func TestRun_ParseErrorIsFatal(t *testing.T) {
	e := newEnv(t)
	e.input.PDBPath = filepath.Join(e.dir, "missing.pdb")
	_, err := e.run(t)
	assert.True(t, errors.IsCode(err, errors.CodeParse))
}

func TestRun_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RunInput)
	}{
		{"no_pdb", func(in *RunInput) { in.PDBPath = "" }},
		{"no_chains", func(in *RunInput) { in.Chains = " " }},
		{"bad_format", func(in *RunInput) { in.Format = "pdb" }},
		{"negative_cutoff", func(in *RunInput) { in.Cutoff = -1 }},
		{"negative_mismatches", func(in *RunInput) { in.MaxMismatches = -1 }},
		{"blank_query", func(in *RunInput) { in.Query = "  " }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			tt.mutate(e.input)
			_, err := e.run(t)
			assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
		})
	}

	_, err := NewService(nil).Run(context.Background(), nil)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
}

func TestRun_RecordsMetrics(t *testing.T) {
	c, err := prom.NewMetricsCollector(prom.CollectorConfig{Namespace: "poslist"}, logging.NewNopLogger())
	require.NoError(t, err)
	m := prom.NewRunMetrics(c)

	e := newEnv(t)
	e.input.Spans = []string{"bad", "A:1-2"}
	_, err = e.run(t, WithMetrics(m))
	require.NoError(t, err)

	expected := `
# HELP poslist_tokens_written Tokens in the written position list
# TYPE poslist_tokens_written gauge
poslist_tokens_written{format="mutatex"} 2
# HELP poslist_skipped_items_total Per-item inputs skipped
# TYPE poslist_skipped_items_total counter
poslist_skipped_items_total{reason="invalid_span"} 1
# HELP poslist_interface_chain_pairs_total Chain pairs evaluated
# TYPE poslist_interface_chain_pairs_total counter
poslist_interface_chain_pairs_total 1
`
	assert.NoError(t, testutil.GatherAndCompare(c.Gatherer(), strings.NewReader(expected),
		"poslist_tokens_written", "poslist_skipped_items_total", "poslist_interface_chain_pairs_total"))

	stages, err := testutil.GatherAndCount(c.Gatherer(), "poslist_stage_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 3, stages, "load, detect and render are timed")
}

package prometheus

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunMetrics_AllRegistered(t *testing.T) {
	m := NewRunMetrics(newTestCollector(t))
	require.NotNil(t, m)
	assert.NotNil(t, m.AtomsParsed)
	assert.NotNil(t, m.InterfaceResidues)
	assert.NotNil(t, m.MotifMatchesTotal)
	assert.NotNil(t, m.SkippedItemsTotal)
	assert.NotNil(t, m.TokensWritten)
	assert.NotNil(t, m.StageDuration)
}

func TestRecordHelpers(t *testing.T) {
	c := newTestCollector(t)
	m := NewRunMetrics(c)

	RecordStructure(m, "1abc", 120, 30, 2)
	RecordInterfaceSide(m, "A_B", "A", 4)
	RecordContribution(m, "span", 3, 2)
	RecordContribution(m, "span", 1, 0)
	RecordSkipped(m, "invalid_span")
	RecordSkipped(m, "invalid_span")
	assert.GreaterOrEqual(t, StageTimer(m, "detect").ObserveDuration(), time.Duration(0))
	StageTimer(nil, "detect").ObserveDuration()

	expected := `
# HELP test_unit_positions_contributed_total Positions offered to the set
# TYPE test_unit_positions_contributed_total counter
test_unit_positions_contributed_total{source="span"} 4
# HELP test_unit_positions_added_total Positions new to the set when offered
# TYPE test_unit_positions_added_total counter
test_unit_positions_added_total{source="span"} 2
# HELP test_unit_skipped_items_total Per-item inputs skipped
# TYPE test_unit_skipped_items_total counter
test_unit_skipped_items_total{reason="invalid_span"} 2
# HELP test_unit_structure_atoms Atoms kept from the first model
# TYPE test_unit_structure_atoms gauge
test_unit_structure_atoms{structure="1abc"} 120
`
	assert.NoError(t, testutil.GatherAndCompare(c.Gatherer(), strings.NewReader(expected),
		"test_unit_positions_contributed_total",
		"test_unit_positions_added_total",
		"test_unit_skipped_items_total",
		"test_unit_structure_atoms",
	))

	n, err := testutil.GatherAndCount(c.Gatherer(), "test_unit_interface_residues", "test_unit_stage_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

package prometheus

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/poslist/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/poslist/pkg/errors"
)

func newTestCollector(t *testing.T) MetricsCollector {
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "test", Subsystem: "unit"}, logging.NewNopLogger())
	require.NoError(t, err)
	return c
}

func TestNewMetricsCollector_EmptyNamespace(t *testing.T) {
	_, err := NewMetricsCollector(CollectorConfig{}, nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
}

func TestRegisterCounter_IncAndGather(t *testing.T) {
	c := newTestCollector(t)
	vec := c.RegisterCounter("events_total", "Events", "kind")
	vec.WithLabelValues("a").Inc()
	vec.WithLabelValues("a").Add(2)

	n, err := testutil.GatherAndCount(c.Gatherer(), "test_unit_events_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	expected := `
# HELP test_unit_events_total Events
# TYPE test_unit_events_total counter
test_unit_events_total{kind="a"} 3
`
	assert.NoError(t, testutil.GatherAndCompare(c.Gatherer(), strings.NewReader(expected), "test_unit_events_total"))
}

func TestRegister_DuplicateReturnsExisting(t *testing.T) {
	c := newTestCollector(t)
	first := c.RegisterGauge("level", "Level")
	second := c.RegisterGauge("level", "Level")
	first.WithLabelValues().Set(4)
	second.WithLabelValues().Add(1)

	expected := `
# HELP test_unit_level Level
# TYPE test_unit_level gauge
test_unit_level 5
`
	assert.NoError(t, testutil.GatherAndCompare(c.Gatherer(), strings.NewReader(expected), "test_unit_level"))
}

func TestRegister_TypeMismatchIsNoop(t *testing.T) {
	c := newTestCollector(t)
	c.RegisterCounter("dual", "Dual")
	h := c.RegisterHistogram("dual", "Dual", nil)
	assert.IsType(t, noopHistogramVec{}, h)
	h.WithLabelValues().Observe(1)
}

func TestWriteTextfile(t *testing.T) {
	c := newTestCollector(t)
	c.RegisterCounter("written_total", "Written").WithLabelValues().Inc()

	path := filepath.Join(t.TempDir(), "run.prom")
	require.NoError(t, c.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "test_unit_written_total 1")

	err = c.WriteTextfile(filepath.Join(t.TempDir(), "missing", "run.prom"))
	assert.True(t, errors.IsCode(err, errors.CodeIO))
}

func TestTimer(t *testing.T) {
	c := newTestCollector(t)
	h := c.RegisterHistogram("op_seconds", "Op", nil, "op")
	timer := NewTimer(h.WithLabelValues("x"))
	time.Sleep(time.Millisecond)
	assert.GreaterOrEqual(t, timer.ObserveDuration(), time.Millisecond)

	n, err := testutil.GatherAndCount(c.Gatherer(), "test_unit_op_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.NotPanics(t, func() { NewTimer(nil).ObserveDuration() })
}

package prometheus

// RunMetrics holds the metrics recorded by one selection run.
type RunMetrics struct {
	// Structure
	AtomsParsed    GaugeVec
	ResiduesParsed GaugeVec
	ChainsParsed   GaugeVec

	// Interface detection
	InterfaceResidues GaugeVec
	ChainPairsTotal   CounterVec

	// Motif search
	MotifMatchesTotal CounterVec

	// Position set
	PositionsContributed CounterVec
	PositionsAdded       CounterVec
	SkippedItemsTotal    CounterVec
	TokensWritten        GaugeVec

	StageDuration HistogramVec
}

// DefaultStageBuckets covers in-memory stages of a single run.
var DefaultStageBuckets = []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5, 30}

// NewRunMetrics registers all run metrics.
func NewRunMetrics(collector MetricsCollector) *RunMetrics {
	m := &RunMetrics{}

	m.AtomsParsed = collector.RegisterGauge("structure_atoms", "Atoms kept from the first model", "structure")
	m.ResiduesParsed = collector.RegisterGauge("structure_residues", "Standard residues in the structure", "structure")
	m.ChainsParsed = collector.RegisterGauge("structure_chains", "Chains in the structure", "structure")

	m.InterfaceResidues = collector.RegisterGauge("interface_residues", "Interface residues found per chain pair and side", "pair", "chain")
	m.ChainPairsTotal = collector.RegisterCounter("interface_chain_pairs_total", "Chain pairs evaluated")

	m.MotifMatchesTotal = collector.RegisterCounter("motif_matches_total", "Motif windows matched", "chain")

	m.PositionsContributed = collector.RegisterCounter("positions_contributed_total", "Positions offered to the set", "source")
	m.PositionsAdded = collector.RegisterCounter("positions_added_total", "Positions new to the set when offered", "source")
	m.SkippedItemsTotal = collector.RegisterCounter("skipped_items_total", "Per-item inputs skipped", "reason")
	m.TokensWritten = collector.RegisterGauge("tokens_written", "Tokens in the written position list", "format")

	m.StageDuration = collector.RegisterHistogram("stage_duration_seconds", "Duration of run stages", DefaultStageBuckets, "stage")

	return m
}

// Helpers

func RecordStructure(m *RunMetrics, name string, atoms, residues, chains int) {
	m.AtomsParsed.WithLabelValues(name).Set(float64(atoms))
	m.ResiduesParsed.WithLabelValues(name).Set(float64(residues))
	m.ChainsParsed.WithLabelValues(name).Set(float64(chains))
}

func RecordInterfaceSide(m *RunMetrics, pair, chain string, residues int) {
	m.InterfaceResidues.WithLabelValues(pair, chain).Set(float64(residues))
}

func RecordContribution(m *RunMetrics, source string, offered, added int) {
	m.PositionsContributed.WithLabelValues(source).Add(float64(offered))
	m.PositionsAdded.WithLabelValues(source).Add(float64(added))
}

func RecordSkipped(m *RunMetrics, reason string) {
	m.SkippedItemsTotal.WithLabelValues(reason).Inc()
}

// StageTimer starts timing a run stage.  A nil m yields a timer that only
// measures.
func StageTimer(m *RunMetrics, stage string) *Timer {
	if m == nil {
		return NewTimer(nil)
	}
	return NewTimer(m.StageDuration.WithLabelValues(stage))
}

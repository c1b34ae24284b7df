// Package config defines the configuration of a selection run.  No I/O lives
// in this file; only plain data types and validation.
package config

import (
	"fmt"

	"github.com/turtacn/poslist/internal/domain/position"
	"github.com/turtacn/poslist/pkg/errors"
)

// InterfaceConfig tunes interface detection.
type InterfaceConfig struct {
	// Cutoff is the contact distance.  Zero selects the detector default.
	Cutoff  float64 `mapstructure:"cutoff"`
	Workers int     `mapstructure:"workers"`
}

// MotifConfig tunes sequence motif search.
type MotifConfig struct {
	MaxMismatches int `mapstructure:"max_mismatches"`
}

// OutputConfig controls where and how the position list is written.
type OutputConfig struct {
	Path        string `mapstructure:"path"`
	Format      string `mapstructure:"format"`
	Workdir     string `mapstructure:"workdir"`
	KeepWorkdir bool   `mapstructure:"keep_workdir"`
}

// PolicyConfig selects how per-item problems are handled.
type PolicyConfig struct {
	// Strict turns skipped items (bad spans, unresolvable positions) into
	// fatal errors.
	Strict bool `mapstructure:"strict"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	// File sends log entries to a file instead of the error stream.
	File string `mapstructure:"file"`
}

// MetricsConfig controls the optional Prometheus text file.
type MetricsConfig struct {
	Textfile  string `mapstructure:"textfile"`
	Namespace string `mapstructure:"namespace"`
}

// Config is the root configuration.
type Config struct {
	Interface InterfaceConfig `mapstructure:"interface"`
	Motif     MotifConfig     `mapstructure:"motif"`
	Output    OutputConfig    `mapstructure:"output"`
	Policy    PolicyConfig    `mapstructure:"policy"`
	Log       LogConfig       `mapstructure:"log"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// Validate performs semantic validation of a fully populated Config and
// returns the first problem found.
func (c *Config) Validate() error {
	if c.Interface.Cutoff < 0 {
		return invalid("interface.cutoff must be >= 0, got %g", c.Interface.Cutoff)
	}
	if c.Interface.Workers < 1 {
		return invalid("interface.workers must be >= 1, got %d", c.Interface.Workers)
	}
	if c.Motif.MaxMismatches < 0 {
		return invalid("motif.max_mismatches must be >= 0, got %d", c.Motif.MaxMismatches)
	}
	if c.Output.Path == "" {
		return invalid("output.path is required")
	}
	if _, err := position.ParseFormat(c.Output.Format); err != nil {
		return invalid("output.format %q is invalid; expected mutatex|rosetta", c.Output.Format)
	}
	if c.Output.Workdir == "" {
		return invalid("output.workdir is required")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return invalid("log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return invalid("log.format %q is invalid; expected json|console", c.Log.Format)
	}
	if c.Metrics.Textfile != "" && c.Metrics.Namespace == "" {
		return invalid("metrics.namespace is required when metrics.textfile is set")
	}
	return nil
}

func invalid(format string, args ...interface{}) error {
	return errors.InvalidParam(fmt.Sprintf("config: "+format, args...))
}

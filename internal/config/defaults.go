package config

const (
	DefaultOutputPath   = "position_list.txt"
	DefaultOutputFormat = "mutatex"
	DefaultWorkdir      = "temp_interface"

	DefaultWorkers = 1

	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"

	DefaultMetricsNamespace = "poslist"
)

// defaultValues lists every key with its default.  Registering them on viper
// also makes each key visible to the POSLIST_* environment lookup.
var defaultValues = map[string]interface{}{
	"interface.cutoff":     0.0,
	"interface.workers":    DefaultWorkers,
	"motif.max_mismatches": 0,
	"output.path":          DefaultOutputPath,
	"output.format":        DefaultOutputFormat,
	"output.workdir":       DefaultWorkdir,
	"output.keep_workdir":  false,
	"policy.strict":        false,
	"log.level":            DefaultLogLevel,
	"log.format":           DefaultLogFormat,
	"log.file":             "",
	"metrics.textfile":     "",
	"metrics.namespace":    DefaultMetricsNamespace,
}

// ApplyDefaults fills zero-value fields in cfg.  Explicit values win.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}
	if cfg.Interface.Workers == 0 {
		cfg.Interface.Workers = DefaultWorkers
	}
	if cfg.Output.Path == "" {
		cfg.Output.Path = DefaultOutputPath
	}
	if cfg.Output.Format == "" {
		cfg.Output.Format = DefaultOutputFormat
	}
	if cfg.Output.Workdir == "" {
		cfg.Output.Workdir = DefaultWorkdir
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
}

// Default returns a Config holding only defaults.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/turtacn/poslist/internal/application/selection"
	"github.com/turtacn/poslist/internal/config"
	"github.com/turtacn/poslist/internal/domain/position"
	"github.com/turtacn/poslist/internal/infrastructure/monitoring/logging"
	prom "github.com/turtacn/poslist/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/poslist/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// cliContextKey is the context key for CLIContext.
type cliContextKey struct{}

// RootOptions holds the command-line flags.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
	LogFile    string
	Verbose    bool
	Report     string

	PDB           string
	Chains        string
	Output        string
	Format        string
	Interactive   bool
	Query         string
	Spans         []string
	InterfaceOnly bool
	Cutoff        float64
	Workdir       string

	MaxMismatches int
	Strict        bool
	Workers       int
	MetricsFile   string
	FromListing   string
	KeepWorkdir   bool
}

// CLIContext carries initialized dependencies to the run.
type CLIContext struct {
	Config  *config.Config
	Logger  logging.Logger
	RunID   string
	Verbose bool
	Report  string
}

// NewRootCommand creates the poslist command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "poslist -p structure.pdb [-c AB_CD | --from-listing FILE] [flags]",
		Short: "Generate mutagenesis position lists from protein interfaces",
		Long: "poslist finds residues at the interfaces between chains of a PDB structure,\n" +
			"optionally adds motif matches, explicit residue spans and interactively chosen\n" +
			"residues, and writes a MutateX or Rosetta position list.",
		Example: `  # Basic interface analysis
  poslist -p structure.pdb -c AB_CD -o positions.txt

  # Interactive mode
  poslist -p structure.pdb -c AB_CD -i

  # Include non-interface residues
  poslist -p structure.pdb -c AB_CD --include-spans A:30-40 B:50-60

  # Search for a motif
  poslist -p structure.pdb -c AB_CD -q EVQLVQ

  # Rosetta format output
  poslist -p structure.pdb -c AB_CD -f rosetta -o resfile.txt

  # Reuse a kept interface listing; -c is not needed
  poslist -p structure.pdb --from-listing temp_interface/interface.txt`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		Args:    cobra.ArbitraryArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelection(cmd, opts, args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	f := cmd.Flags()
	f.StringVarP(&opts.PDB, "pdb", "p", "", "input PDB file (.gz accepted)")
	f.StringVarP(&opts.Chains, "chains", "c", "", "chains for interface detection, e.g. AB_CD (required unless --from-listing)")
	f.StringVarP(&opts.Output, "output", "o", config.DefaultOutputPath, "output file")
	f.StringVarP(&opts.Format, "format", "f", config.DefaultOutputFormat, "output format (mutatex, rosetta)")
	f.BoolVarP(&opts.Interactive, "interactive", "i", false, "interactive mode")
	f.StringVarP(&opts.Query, "query", "q", "", "search for a sequence motif and include every match")
	f.StringSliceVar(&opts.Spans, "include-spans", nil, "additional residue spans chain:start-end")
	f.BoolVar(&opts.InterfaceOnly, "interface-only", false, "only include interface residues")
	f.Float64Var(&opts.Cutoff, "cutoff", 0, "interface distance cutoff; 0 uses the detector default of 5.0")
	f.StringVar(&opts.Workdir, "workdir", config.DefaultWorkdir, "working directory for the interface listing")

	f.IntVar(&opts.MaxMismatches, "max-mismatches", 0, "mismatches allowed in motif matches")
	f.BoolVar(&opts.Strict, "strict", false, "fail on malformed spans and unresolvable positions")
	f.IntVar(&opts.Workers, "workers", config.DefaultWorkers, "chain pairs evaluated in parallel")
	f.StringVar(&opts.MetricsFile, "metrics-file", "", "write run metrics in Prometheus text format")
	f.StringVar(&opts.FromListing, "from-listing", "", "reuse an interface listing instead of detecting")
	f.BoolVar(&opts.KeepWorkdir, "keep-workdir", false, "keep the working directory after the run")

	_ = cmd.MarkFlagRequired("pdb")

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.ConfigPath, "config", "", "config file path (default: ./poslist.yaml)")
	pf.StringVar(&opts.LogLevel, "log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	pf.StringVar(&opts.LogFile, "log-file", "", "write log entries to this file instead of stderr")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "enable verbose output")
	pf.StringVar(&opts.Report, "report", "text", "run report format (text, json, table)")

	return cmd
}

// persistentPreRun loads config and the logger and stores CLIContext.
func persistentPreRun(cmd *cobra.Command, opts *RootOptions) error {
	cfg, configFile, err := initConfig(cmd, opts)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	base, err := initLogger(cmd, cfg, opts)
	if err != nil {
		return err
	}
	logger := base.With(logging.String("run_id", runID))
	logging.SetDefault(logger)
	if configFile != "" {
		logger.Debug("configuration loaded", logging.String("config_file", configFile))
	}

	cliCtx := &CLIContext{
		Config:  cfg,
		Logger:  logger,
		RunID:   runID,
		Verbose: opts.Verbose,
		Report:  opts.Report,
	}
	cmd.SetContext(context.WithValue(cmd.Context(), cliContextKey{}, cliCtx))
	return nil
}

// initConfig loads configuration with priority: flags > env > file > defaults.
// Only flags the user actually set override lower layers.
func initConfig(cmd *cobra.Command, opts *RootOptions) (*config.Config, string, error) {
	overrides := make(map[string]interface{})
	set := func(flag, key string, val interface{}) {
		if cmd.Flags().Changed(flag) {
			overrides[key] = val
		}
	}
	set("output", "output.path", opts.Output)
	set("format", "output.format", opts.Format)
	set("workdir", "output.workdir", opts.Workdir)
	set("keep-workdir", "output.keep_workdir", opts.KeepWorkdir)
	set("cutoff", "interface.cutoff", opts.Cutoff)
	set("workers", "interface.workers", opts.Workers)
	set("max-mismatches", "motif.max_mismatches", opts.MaxMismatches)
	set("strict", "policy.strict", opts.Strict)
	set("metrics-file", "metrics.textfile", opts.MetricsFile)
	set("log-level", "log.level", opts.LogLevel)
	set("log-file", "log.file", opts.LogFile)
	if opts.Verbose {
		overrides["log.level"] = logging.LevelDebug
	}

	loadOpts := []config.LoadOption{config.WithOverrides(overrides)}
	if opts.ConfigPath != "" {
		loadOpts = append(loadOpts, config.WithConfigPath(opts.ConfigPath))
	}
	cfg, err := config.Load(loadOpts...)
	if err != nil {
		return nil, "", fmt.Errorf("config initialization failed: %w", err)
	}
	if opts.Cutoff < 0 {
		return nil, "", errors.InvalidParam("--cutoff must not be negative, got " + strconv.FormatFloat(opts.Cutoff, 'g', -1, 64))
	}
	return cfg, config.ConfigFileUsed(loadOpts...), nil
}

// initLogger creates a console logger on the command's stderr, or a file
// logger when log.file is set.
func initLogger(cmd *cobra.Command, cfg *config.Config, opts *RootOptions) (logging.Logger, error) {
	level := strings.ToLower(cfg.Log.Level)
	if opts.Verbose {
		level = logging.LevelDebug
	}
	if cfg.Log.File == "" {
		return logging.NewWriterLogger(level, cfg.Log.Format, cmd.ErrOrStderr()), nil
	}
	logger, err := logging.NewLogger(logging.LogConfig{
		Level:       level,
		Format:      cfg.Log.Format,
		OutputPaths: []string{cfg.Log.File},
	})
	if err != nil {
		return nil, errors.IOError(err, "open log file "+cfg.Log.File)
	}
	return logger, nil
}

// GetCLIContext extracts CLIContext from a cobra command's context.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.Internal("command context is nil")
	}
	cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, errors.Internal("CLIContext not found in command context")
	}
	return cliCtx, nil
}

func runSelection(cmd *cobra.Command, opts *RootOptions, args []string) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	cfg := cliCtx.Config
	log := cliCtx.Logger
	defer func() { _ = log.Sync() }()

	spans := opts.Spans
	if len(args) > 0 {
		if !cmd.Flags().Changed("include-spans") {
			return errors.InvalidParam("unexpected arguments: " + strings.Join(args, " "))
		}
		spans = append(spans, args...)
	}
	format, err := position.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}

	input := &selection.RunInput{
		RunID:         cliCtx.RunID,
		PDBPath:       opts.PDB,
		Chains:        opts.Chains,
		OutputPath:    cfg.Output.Path,
		Format:        format,
		Interactive:   opts.Interactive,
		Query:         opts.Query,
		Spans:         spans,
		InterfaceOnly: opts.InterfaceOnly,
		Cutoff:        cfg.Interface.Cutoff,
		MaxMismatches: cfg.Motif.MaxMismatches,
		Workers:       cfg.Interface.Workers,
		Workdir:       cfg.Output.Workdir,
		KeepWorkdir:   cfg.Output.KeepWorkdir,
		FromListing:   opts.FromListing,
		Strict:        cfg.Policy.Strict,
	}

	log.Info("analyzing interfaces",
		logging.String("pdb", input.PDBPath),
		logging.String("chains", input.Chains))

	svcOpts := []selection.ServiceOption{selection.WithConsole(cmd.InOrStdin(), cmd.OutOrStdout())}
	var collector prom.MetricsCollector
	if cfg.Metrics.Textfile != "" {
		collector, err = prom.NewMetricsCollector(prom.CollectorConfig{
			Namespace:   cfg.Metrics.Namespace,
			ConstLabels: map[string]string{"run_id": cliCtx.RunID},
		}, log)
		if err != nil {
			return err
		}
		svcOpts = append(svcOpts, selection.WithMetrics(prom.NewRunMetrics(collector)))
	}

	res, runErr := selection.NewService(log, svcOpts...).Run(cmd.Context(), input)

	if collector != nil {
		if err := collector.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			log.Warn("cannot write metrics file", logging.String("path", cfg.Metrics.Textfile), logging.Err(err))
		}
	}
	if runErr != nil {
		return runErr
	}
	return PrintResult(cmd, cliCtx, &runReport{RunResult: res, verbose: cliCtx.Verbose})
}

// runReport renders a RunResult for the operator.
type runReport struct {
	*selection.RunResult
	verbose bool
}

func (r *runReport) String() string {
	var sb strings.Builder
	if r.Empty() {
		sb.WriteString("No positions selected!")
	} else {
		fmt.Fprintf(&sb, "Generated %d positions\nOutput saved to: %s", len(r.Tokens), r.OutputPath)
	}
	if r.verbose {
		sb.WriteString("\n\n")
		sb.WriteString(strings.TrimRight(FormatTable(r.TableHeaders(), r.TableRows()), "\n"))
		if r.Skipped > 0 {
			fmt.Fprintf(&sb, "\n\nSkipped %d item(s); see warnings above", r.Skipped)
		}
	}
	return sb.String()
}

func (r *runReport) TableHeaders() []string {
	return []string{"SOURCE", "OFFERED", "NEW"}
}

func (r *runReport) TableRows() [][]string {
	rows := make([][]string, 0, len(r.Contributions))
	for _, c := range r.Contributions {
		rows = append(rows, []string{string(c.Source), strconv.Itoa(c.Offered), strconv.Itoa(c.Added)})
	}
	return rows
}

// Execute is the main entry point for the CLI application.
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		PrintError(rootCmd, err)
		return err
	}
	return nil
}

// PrintResult outputs data in the report format of the run.
func PrintResult(cmd *cobra.Command, cliCtx *CLIContext, data interface{}) error {
	report := "text"
	if cliCtx != nil {
		report = cliCtx.Report
	}
	switch strings.ToLower(report) {
	case "json":
		if r, ok := data.(*runReport); ok {
			return printJSON(cmd, r.RunResult)
		}
		return printJSON(cmd, data)
	case "table":
		return printTable(cmd, data)
	default:
		return printText(cmd, data)
	}
}

func printJSON(cmd *cobra.Command, data interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func printText(cmd *cobra.Command, data interface{}) error {
	switch v := data.(type) {
	case string:
		fmt.Fprintln(cmd.OutOrStdout(), v)
	case fmt.Stringer:
		fmt.Fprintln(cmd.OutOrStdout(), v.String())
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "%+v\n", v)
	}
	return nil
}

// printTable outputs data as a table when it provides rows, otherwise as text.
func printTable(cmd *cobra.Command, data interface{}) error {
	type tableProvider interface {
		TableHeaders() []string
		TableRows() [][]string
	}
	if tp, ok := data.(tableProvider); ok {
		fmt.Fprint(cmd.OutOrStdout(), FormatTable(tp.TableHeaders(), tp.TableRows()))
		return nil
	}
	return printText(cmd, data)
}

// PrintError writes a formatted error message to stderr.
func PrintError(cmd *cobra.Command, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err.Error())
}

// FormatTable renders headers and rows as an aligned ASCII table.
func FormatTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}

	colWidths := make([]int, len(headers))
	for i, h := range headers {
		colWidths[i] = len(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(colWidths); i++ {
			if len(row[i]) > colWidths[i] {
				colWidths[i] = len(row[i])
			}
		}
	}

	var sb strings.Builder
	writeRow := func(cells []string) {
		for i := range headers {
			if i > 0 {
				sb.WriteString("  ")
			}
			val := ""
			if i < len(cells) {
				val = cells[i]
			}
			sb.WriteString(padRight(val, colWidths[i]))
		}
		sb.WriteString("\n")
	}

	writeRow(headers)
	sep := make([]string, len(colWidths))
	for i, w := range colWidths {
		sep[i] = strings.Repeat("-", w)
	}
	writeRow(sep)
	for _, row := range rows {
		writeRow(row)
	}
	return sb.String()
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

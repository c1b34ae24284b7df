// Command poslist builds mutagenesis position lists from protein interfaces.
package main

import (
	"os"

	"github.com/turtacn/poslist/internal/interfaces/cli"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func init() {
	cli.Version = version
	cli.GitCommit = commit
	cli.BuildDate = buildDate
}

func main() {
	// Execute already reports the error on stderr.
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

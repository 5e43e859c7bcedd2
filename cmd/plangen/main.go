// Package main implements plangen, an offline CLI over the deposit plan generator.
//
// Usage:
//
//	plangen generate --config plan.yaml --count 20 --agents 3 --seed 42 --avoid "50, 75"
//	plangen distribute --total 1000 --count 8 --min 100 --max 150
package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aristath/cpagateway/pkg/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	logLevel string
	log      zerolog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{log: zerolog.Nop()}

	cmd := &cobra.Command{
		Use:          "plangen",
		Short:        "Generate synthetic deposit plans offline",
		Long:         `Runs the deposit plan generator without the HTTP service and prints JSON to stdout.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.log = logger.New(logger.Config{
				Level:  opts.logLevel,
				Pretty: true,
				Out:    cmd.ErrOrStderr(),
			})
		},
	}
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	cmd.AddCommand(newGenerateCmd(opts))
	cmd.AddCommand(newDistributeCmd(opts))
	return cmd
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

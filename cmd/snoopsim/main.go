package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ehrlich-b/go-snoopsim/internal/logging"
)

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "snoopsim",
		Short:         "Cycle-accurate shared-bus cache coherence simulator",
		Long:          "snoopsim replays recorded per-core memory traces against a simulated\nmultiprocessor cache hierarchy and reports hit/miss, sharing and bus\nstatistics for the MSI, MESI and Dragon coherence protocols.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg := logging.DefaultConfig()
			if verbose {
				cfg.Level = logging.LevelDebug
			}
			logging.SetDefault(logging.NewLogger(cfg))
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.AddCommand(newRunCmd())
	root.AddCommand(newSweepCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/trannam110702/lighthouse-sub001/cmd/lantern/commands"
	"github.com/trannam110702/lighthouse-sub001/logger"
)

var rootCmd = &cobra.Command{
	Use:   "lantern",
	Short: "Lantern - simulated page load metrics",
	Long: `Lantern - estimate page load metrics under simulated network and CPU throttling.

Lantern rebuilds the dependency graph of a recorded page load and replays it
under a throttling profile, producing optimistic and pessimistic estimates for
each metric and a blended timing.

Available commands:
  simulate - Estimate metrics for a recorded capture
  am       - Manage lantern configuration
  cache    - Inspect or clear persisted metric estimates
  version  - Show version information

Examples:
  lantern simulate capture.json                   # All metrics, default profile
  lantern simulate capture.json --metric fcp,lcp  # Selected metrics
  lantern simulate capture.json --preset desktopDense4G --json
  lantern am show --format yaml                   # Show current configuration
  lantern cache stats                             # Show persisted estimates`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLogs, _ := cmd.Flags().GetBool("log-json")
		if err := logger.Initialize(jsonLogs, verbosity); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger.Debugw("logging initialized", "verbosity", logger.LevelName(verbosity))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")

	// Add commands
	rootCmd.AddCommand(commands.SimulateCmd)
	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.CacheCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, commands.FormatError(err))
		os.Exit(1)
	}
}

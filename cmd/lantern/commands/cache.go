package commands

import (
	"context"
	"fmt"
	"sort"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// CacheCmd manages persisted metric estimates
var CacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear persisted metric estimates",
	Long: `Inspect or clear the metric estimates persisted when cache.enabled is set.

Examples:
  lantern cache stats                 # Count stored estimates per metric
  lantern cache clear                 # Delete every stored estimate
  lantern cache stats --db other.db   # Use another database file`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count stored estimates per metric",
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every stored estimate",
	RunE:  runCacheClear,
}

var (
	cacheDBPath string
	cacheJSON   bool
)

func init() {
	CacheCmd.PersistentFlags().StringVar(&cacheDBPath, "db", "", "Database path (default: cache.database_path)")
	cacheStatsCmd.Flags().BoolVarP(&cacheJSON, "json", "j", false, "Output as JSON")

	CacheCmd.AddCommand(cacheStatsCmd)
	CacheCmd.AddCommand(cacheClearCmd)
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	database, store, err := openStore(cacheDBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	stats, err := store.Stats(context.Background())
	if err != nil {
		return err
	}
	if cacheJSON {
		return writeJSON(cmd.OutOrStdout(), stats)
	}

	kinds := make([]string, 0, len(stats.ByKind))
	for k := range stats.ByKind {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	rows := pterm.TableData{{"Metric", "Estimates"}}
	for _, k := range kinds {
		rows = append(rows, []string{k, fmt.Sprint(stats.ByKind[k])})
	}
	rows = append(rows, []string{"Total", fmt.Sprint(stats.Total)})
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	database, store, err := openStore(cacheDBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	n, err := store.Clear(context.Background())
	if err != nil {
		return err
	}
	pterm.Success.Printf("Deleted %d stored estimates\n", n)
	return nil
}

package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/trannam110702/lighthouse-sub001/am"
	"github.com/trannam110702/lighthouse-sub001/engine"
	"github.com/trannam110702/lighthouse-sub001/errors"
	"github.com/trannam110702/lighthouse-sub001/logger"
	"github.com/trannam110702/lighthouse-sub001/metrics"
	"github.com/trannam110702/lighthouse-sub001/simulator"
	"github.com/trannam110702/lighthouse-sub001/trace"
)

// SimulateCmd estimates metrics for a recorded capture
var SimulateCmd = &cobra.Command{
	Use:   "simulate <capture.json>",
	Short: "Estimate metrics for a recorded capture",
	Long: `Replay a recorded page load under a throttling profile and estimate its metrics.

The capture is a JSON document with the navigation metadata, the network
records and the main-thread tasks of one page load.

Metrics: fcp, lcp, tti, si, mpfid, tbt (default: all)

Examples:
  lantern simulate capture.json
  lantern simulate capture.json --metric lcp --preset mobileRegular3G
  lantern simulate capture.json --profile-file wifi.toml --json`,
	Args: cobra.ExactArgs(1),
	RunE: runSimulate,
}

var (
	simulatePreset      string
	simulateProfileFile string
	simulateMetrics     []string
	simulateJSON        bool
	simulateWorkers     int
)

func init() {
	SimulateCmd.Flags().StringVar(&simulatePreset, "preset", "", "Throttling profile name (default: throttling.preset)")
	SimulateCmd.Flags().StringVar(&simulateProfileFile, "profile-file", "", "TOML file with a throttling profile")
	SimulateCmd.Flags().StringSliceVarP(&simulateMetrics, "metric", "m", nil, "Metrics to estimate (comma separated)")
	SimulateCmd.Flags().BoolVarP(&simulateJSON, "json", "j", false, "Output results as JSON")
	SimulateCmd.Flags().IntVar(&simulateWorkers, "workers", 0, "Concurrent metric computations (default: engine.workers)")
	SimulateCmd.MarkFlagsMutuallyExclusive("preset", "profile-file")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "configuration validation failed")
	}

	profileName, profile, err := resolveProfile(cfg)
	if err != nil {
		return err
	}

	kinds, err := parseKinds(simulateMetrics)
	if err != nil {
		return err
	}

	capture, err := trace.LoadFile(args[0])
	if err != nil {
		return err
	}

	opts := []engine.Option{engine.WithLogger(logger.Logger)}
	if cfg.Cache.Enabled {
		database, store, err := openStore(cfg.GetDatabasePath())
		if err != nil {
			return err
		}
		defer database.Close()
		opts = append(opts, engine.WithStore(store))
	}

	verbosity, _ := cmd.Flags().GetCount("verbose")
	engineCfg := engineConfig(cfg, verbosity)
	if simulateWorkers > 0 {
		engineCfg.Workers = simulateWorkers
	}
	eng := engine.New(engineCfg, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var spinner *pterm.SpinnerPrinter
	if !simulateJSON {
		spinner, _ = pterm.DefaultSpinner.Start(fmt.Sprintf("Simulating %s under %s...", args[0], profileName))
	}
	report, err := eng.Run(ctx, capture, profile, kinds...)
	if spinner != nil {
		if err != nil {
			spinner.Fail("Simulation failed")
		} else {
			spinner.Success("Simulation complete")
		}
	}
	if err != nil {
		return err
	}

	out := newSimulateOutput(report, profileName)
	if simulateJSON {
		return writeJSON(cmd.OutOrStdout(), out)
	}
	return renderSimulateOutput(out)
}

// engineConfig maps the configuration onto the engine. Trace verbosity
// (-vvv) adds per-node simulation timings to the debug log.
func engineConfig(cfg *am.Config, verbosity int) engine.Config {
	return engine.Config{
		Workers:                   cfg.GetWorkers(),
		LayoutTaskMultiplier:      cfg.Simulation.LayoutTaskMultiplier,
		ConnectionsPerOrigin:      cfg.Simulation.ConnectionsPerOrigin,
		MaximumConcurrentRequests: cfg.Simulation.MaximumConcurrentRequests,
		UseObservedOriginTiming:   cfg.Simulation.UseObservedOriginTiming,
		TraceSimulations:          logger.ShouldLogTrace(verbosity),
	}
}

func resolveProfile(cfg *am.Config) (string, simulator.Profile, error) {
	if simulateProfileFile != "" {
		p, err := am.LoadProfileFile(simulateProfileFile)
		return simulateProfileFile, p, err
	}
	name := simulatePreset
	if name == "" {
		name = cfg.GetPreset()
	}
	p, err := cfg.Profile(name)
	return name, p, err
}

// parseKinds accepts repeated and comma separated metric names. No names
// means every metric.
func parseKinds(names []string) ([]metrics.Kind, error) {
	var kinds []metrics.Kind
	seen := make(map[metrics.Kind]bool)
	for _, raw := range names {
		for _, name := range strings.Split(raw, ",") {
			if strings.TrimSpace(name) == "" {
				continue
			}
			k, err := metrics.ParseKind(name)
			if err != nil {
				return nil, err
			}
			if !seen[k] {
				seen[k] = true
				kinds = append(kinds, k)
			}
		}
	}
	return kinds, nil
}

type metricOutput struct {
	Kind          metrics.Kind `json:"kind"`
	TimingMs      float64      `json:"timing_ms"`
	OptimisticMs  float64      `json:"optimistic_ms"`
	PessimisticMs float64      `json:"pessimistic_ms"`
	Requested     bool         `json:"requested"`
	Cached        bool         `json:"cached"`
}

type simulateOutput struct {
	RunID     string                   `json:"run_id"`
	Profile   string                   `json:"profile"`
	NodeCount int                      `json:"node_count"`
	Metrics   []metricOutput           `json:"metrics"`
	Blocking  *metrics.BlockingSummary `json:"blocking,omitempty"`
}

func newSimulateOutput(report *engine.Report, profileName string) simulateOutput {
	requested := make(map[metrics.Kind]bool)
	for _, k := range report.Requested {
		requested[k] = true
	}

	out := simulateOutput{
		RunID:     report.RunID,
		Profile:   profileName,
		NodeCount: report.NodeCount,
		Blocking:  report.Blocking,
	}
	for _, k := range report.Ordered() {
		res := report.Results[k]
		out.Metrics = append(out.Metrics, metricOutput{
			Kind:          k,
			TimingMs:      res.Timing,
			OptimisticMs:  res.Optimistic.TimeInMs,
			PessimisticMs: res.Pessimistic.TimeInMs,
			Requested:     requested[k],
			Cached:        report.Memoized[k] || report.Persisted[k],
		})
	}
	return out
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func metricRows(out simulateOutput) pterm.TableData {
	rows := pterm.TableData{{"Metric", "Timing (ms)", "Optimistic (ms)", "Pessimistic (ms)", "Cached"}}
	for _, m := range out.Metrics {
		name := string(m.Kind)
		if !m.Requested {
			name += " (dependency)"
		}
		cached := ""
		if m.Cached {
			cached = "yes"
		}
		rows = append(rows, []string{
			name,
			fmt.Sprintf("%.0f", m.TimingMs),
			fmt.Sprintf("%.0f", m.OptimisticMs),
			fmt.Sprintf("%.0f", m.PessimisticMs),
			cached,
		})
	}
	return rows
}

func blockingRows(summary *metrics.BlockingSummary) pterm.TableData {
	rows := pterm.TableData{{"Script", "Start (ms)", "Duration (ms)", "Blocking (ms)"}}
	for _, task := range summary.Tasks {
		rows = append(rows, []string{
			task.URL,
			fmt.Sprintf("%.0f", task.StartTime),
			fmt.Sprintf("%.0f", task.Duration),
			fmt.Sprintf("%.0f", task.BlockingTime),
		})
	}
	return rows
}

func renderSimulateOutput(out simulateOutput) error {
	pterm.DefaultSection.Printf("Estimates (%s, %d nodes)", out.Profile, out.NodeCount)
	if err := pterm.DefaultTable.WithHasHeader().WithData(metricRows(out)).Render(); err != nil {
		return err
	}

	if out.Blocking == nil {
		return nil
	}
	pterm.DefaultSection.Printf("Long tasks (total blocking %.0f ms)", out.Blocking.Total)
	if len(out.Blocking.Tasks) == 0 {
		pterm.Info.Println("No long task could be attributed to a script")
		return nil
	}
	return pterm.DefaultTable.WithHasHeader().WithData(blockingRows(out.Blocking)).Render()
}

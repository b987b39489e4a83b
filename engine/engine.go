// Package engine computes the lantern metrics of one navigation. It builds
// the dependency graph once and fans the requested metrics out over a
// bounded worker pool, each metric starting as soon as the metrics it
// depends on are done.
package engine

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/trannam110702/lighthouse-sub001/artifact"
	"github.com/trannam110702/lighthouse-sub001/db"
	"github.com/trannam110702/lighthouse-sub001/errors"
	"github.com/trannam110702/lighthouse-sub001/graph"
	"github.com/trannam110702/lighthouse-sub001/logger"
	"github.com/trannam110702/lighthouse-sub001/metrics"
	"github.com/trannam110702/lighthouse-sub001/simulator"
	"github.com/trannam110702/lighthouse-sub001/trace"
)

// DefaultWorkers bounds concurrent metric computations.
const DefaultWorkers = 4

// Config holds the simulation settings shared by every run.
type Config struct {
	Workers                   int
	LayoutTaskMultiplier      float64
	ConnectionsPerOrigin      int
	MaximumConcurrentRequests int
	// UseObservedOriginTiming feeds per-origin RTT and server response
	// times measured in the capture into the simulator.
	UseObservedOriginTiming bool
	// TraceSimulations logs every node's simulated timing at debug level.
	TraceSimulations bool
}

// SimulatorFactory creates the simulator for one run.
type SimulatorFactory func(opts simulator.Options) (metrics.Simulator, error)

func newSimulator(opts simulator.Options) (metrics.Simulator, error) {
	return simulator.New(opts)
}

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(l *zap.SugaredLogger) Option {
	return func(e *Engine) { e.logger = logger.OrNop(l).Named("engine") }
}

// WithStore persists a summary of every computed metric.
func WithStore(s artifact.Store) Option {
	return func(e *Engine) { e.store = s }
}

func WithSimulatorFactory(f SimulatorFactory) Option {
	return func(e *Engine) { e.newSimulator = f }
}

// WithRegistry replaces the metric table.
func WithRegistry(r map[metrics.Kind]metrics.Metric) Option {
	return func(e *Engine) { e.registry = r }
}

// Engine is safe for concurrent use. Results are remembered by content key
// for the lifetime of the engine.
type Engine struct {
	cfg          Config
	logger       *zap.SugaredLogger
	store        artifact.Store
	newSimulator SimulatorFactory
	registry     map[metrics.Kind]metrics.Metric
	memo         *artifact.Memo[*metrics.Result]
}

// New creates an engine. Workers below one fall back to DefaultWorkers.
func New(cfg Config, opts ...Option) *Engine {
	if cfg.Workers < 1 {
		cfg.Workers = DefaultWorkers
	}
	e := &Engine{
		cfg:          cfg,
		logger:       logger.OrNop(nil),
		newSimulator: newSimulator,
		registry:     metrics.Registry(),
		memo:         artifact.NewMemo[*metrics.Result](),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MemoStats reports how many metric lookups were served from memory.
func (e *Engine) MemoStats() artifact.MemoStats {
	return e.memo.Stats()
}

// Run computes kinds, and everything they depend on, for one capture under
// profile. No kinds means every registered kind. Cancelling ctx stops the
// run between simulations.
func (e *Engine) Run(ctx context.Context, capture *trace.Capture, profile simulator.Profile, kinds ...metrics.Kind) (*Report, error) {
	if capture == nil {
		return nil, errors.NewInvalidRequestError("capture is required")
	}
	if err := capture.Validate(); err != nil {
		return nil, err
	}
	if len(kinds) == 0 {
		kinds = metrics.Kinds()
	}
	order, err := metrics.Resolve(e.registry, kinds...)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	ctx = logger.WithRunID(ctx, runID)
	log := e.logger.With(logger.FieldRunID, runID)
	started := time.Now()

	nav := &capture.Navigation
	g, err := graph.NewBuilder(log).Build(capture.Records, capture.Tasks, nav)
	if err != nil {
		return nil, errors.Wrap(err, "build dependency graph")
	}

	simOpts := simulator.Options{
		Profile:                   profile,
		LayoutTaskMultiplier:      e.cfg.LayoutTaskMultiplier,
		ConnectionsPerOrigin:      e.cfg.ConnectionsPerOrigin,
		MaximumConcurrentRequests: e.cfg.MaximumConcurrentRequests,
		LogNodeTimings:            e.cfg.TraceSimulations,
		Logger:                    log,
	}
	if e.cfg.UseObservedOriginTiming {
		simOpts.Analysis = simulator.AnalyzeNetwork(capture.Records)
	}
	sim, err := e.newSimulator(simOpts)
	if err != nil {
		return nil, err
	}

	r := &run{
		engine:  e,
		graph:   g,
		nav:     nav,
		sim:     sim,
		runID:   runID,
		profile: profile,
		extra:   e.keyExtras(simOpts.Analysis),
		log:     log,
		done:    make(map[metrics.Kind]chan struct{}, len(order)),
		report:  newReport(runID, profile, kinds, g.Len()),
	}
	for _, k := range order {
		r.done[k] = make(chan struct{})
	}
	if err := r.computeAll(ctx, order); err != nil {
		log.Warnw("metric run failed", logger.FieldError, err.Error())
		return nil, err
	}

	report := r.report
	if tbt, ok := report.Results[metrics.TotalBlockingTime]; ok {
		c := e.registry[metrics.TotalBlockingTime].Coefficients(profile.RTTMs)
		summary, err := metrics.ExtractBlockingTasks(tbt,
			report.Results[metrics.FirstContentfulPaint],
			report.Results[metrics.Interactive], c)
		if err != nil {
			return nil, errors.Wrap(err, "extract blocking tasks")
		}
		report.Blocking = &summary
	}

	log.Infow("computed metrics",
		logger.FieldCount, len(order),
		logger.FieldNodeCount, g.Len(),
		logger.FieldDurationMS, time.Since(started).Milliseconds(),
	)
	return report, nil
}

// keyExtras folds the simulator settings, and the per-origin latency the
// simulator will use, into every content key.
func (e *Engine) keyExtras(analysis *simulator.NetworkAnalysis) []string {
	return []string{
		"layout=" + strconv.FormatFloat(e.cfg.LayoutTaskMultiplier, 'g', -1, 64),
		"per_origin=" + strconv.Itoa(e.cfg.ConnectionsPerOrigin),
		"max_concurrent=" + strconv.Itoa(e.cfg.MaximumConcurrentRequests),
		"observed_timing=" + strconv.FormatBool(e.cfg.UseObservedOriginTiming),
		"analysis=" + analysis.Fingerprint(),
	}
}

type run struct {
	engine  *Engine
	graph   *graph.Graph
	nav     *trace.Navigation
	sim     metrics.Simulator
	runID   string
	profile simulator.Profile
	extra   []string
	log     *zap.SugaredLogger

	mu     sync.Mutex
	done   map[metrics.Kind]chan struct{}
	report *Report
}

// computeAll starts one task per kind in dependency order. Go blocks while
// all workers are busy, so the earliest unfinished kind always holds a
// worker and has its dependencies done.
func (r *run) computeAll(ctx context.Context, order []metrics.Kind) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(r.engine.cfg.Workers)
	for _, k := range order {
		eg.Go(func() error {
			defer close(r.done[k])
			return r.compute(ctx, k)
		})
	}
	return eg.Wait()
}

func (r *run) compute(ctx context.Context, kind metrics.Kind) error {
	m := r.engine.registry[kind]
	deps := make(metrics.Dependencies)
	for _, dep := range m.Dependencies() {
		select {
		case <-r.done[dep]:
		case <-ctx.Done():
			return errors.Wrap(errors.ErrCancelled, ctx.Err().Error())
		}
		r.mu.Lock()
		res, ok := r.report.Results[dep]
		r.mu.Unlock()
		if !ok {
			// the dependency failed; its error is the one the group reports
			return errors.Wrapf(errors.ErrCancelled, "dependency %s did not complete", dep)
		}
		deps[dep] = res
	}

	key := artifact.Key(r.graph, r.nav, r.profile, string(kind), r.extra...)
	_, memoized := r.engine.memo.Lookup(key)
	persisted := r.persisted(ctx, key)

	res, err := r.engine.memo.Get(ctx, key, func() (*metrics.Result, error) {
		return metrics.ComputeMetric(ctx, m, r.graph, r.nav, r.sim, deps, metrics.ComputeOptions{RunID: r.runID})
	})
	if err != nil {
		return err
	}
	if !memoized {
		r.save(ctx, key, res)
	}

	r.mu.Lock()
	r.report.add(kind, key, res, memoized, persisted)
	r.mu.Unlock()

	r.log.Debugw("computed metric",
		logger.FieldMetric, kind,
		logger.FieldCacheKey, key,
		"timing_ms", res.Timing,
		"memoized", memoized,
	)
	return nil
}

// persisted reports whether a summary for key was stored by an earlier
// process. Store failures only cost the flag.
func (r *run) persisted(ctx context.Context, key string) bool {
	store := r.engine.store
	if store == nil {
		return false
	}
	_, err := store.Get(ctx, key)
	if err == nil {
		return true
	}
	if !errors.Is(err, errors.ErrNotFound) {
		r.storeFailed("failed to read metric summary", key, err)
	}
	return false
}

func (r *run) save(ctx context.Context, key string, res *metrics.Result) {
	store := r.engine.store
	if store == nil {
		return
	}
	err := store.Put(ctx, artifact.Summary{
		Key:           key,
		Kind:          string(res.Kind),
		Profile:       ProfileLabel(r.profile),
		TimingMs:      res.Timing,
		OptimisticMs:  res.Optimistic.TimeInMs,
		PessimisticMs: res.Pessimistic.TimeInMs,
	})
	if err != nil {
		r.storeFailed("failed to store metric summary", key, err)
	}
}

// storeFailed logs a store error. A closed database only happens while the
// process is shutting down, so it is not worth a warning.
func (r *run) storeFailed(msg, key string, err error) {
	if db.IsDatabaseClosed(err) {
		r.log.Debugw(msg, logger.FieldCacheKey, key, logger.FieldError, err.Error())
		return
	}
	r.log.Warnw(msg, logger.FieldCacheKey, key, logger.FieldError, err.Error())
}

// ProfileLabel renders a profile for storage and display.
func ProfileLabel(p simulator.Profile) string {
	return fmt.Sprintf("rtt=%gms throughput=%gkbps cpu=%gx", p.RTTMs, p.ThroughputKbps, p.CPUSlowdownMultiplier)
}

package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/yadejumobi/foundrymesh/aggregate"
	"github.com/yadejumobi/foundrymesh/core"
	"github.com/yadejumobi/foundrymesh/logging"
	"github.com/yadejumobi/foundrymesh/pattern"
	"github.com/yadejumobi/foundrymesh/trace"
)

// Options holds dependency + configuration overrides passed to New().
type Options struct {
	// Recorder receives all trace spans. Defaults to a fresh in-memory
	// recorder without export.
	Recorder core.Recorder
	// Executors overrides individual pattern executors.
	Executors map[core.Pattern]core.Executor
	// MaxConcurrentRuns bounds simultaneously executing runs. Zero means
	// the default; negative disables the bound.
	MaxConcurrentRuns int
	// MaxHandoffs bounds the router decision loop per run.
	MaxHandoffs int
	// MaxRounds bounds group chat draft/review cycles per run.
	MaxRounds int
	// Retention is how long finalized runs stay queryable.
	Retention time.Duration
	// Logging services.
	Logger logging.Logger
}

// Defaults applied by New when the options leave them unset.
const (
	DefaultMaxConcurrentRuns = 32
	DefaultRetention         = time.Hour
)

// Runner is the orchestration controller. It coordinates one run per
// Submit call: request validation, run creation, pattern execution,
// aggregation and finalization, plus status lookups, cancellation and
// retention eviction.
type Runner struct {
	registry core.Registry
	invoker  core.Invoker
	recorder core.Recorder

	executors   map[core.Pattern]core.Executor
	maxHandoffs int
	maxRounds   int
	retention   time.Duration
	logger      logging.Logger

	sem        *semaphore.Weighted
	store      *runStore
	activeRuns map[string]context.CancelFunc
	mu         sync.Mutex

	sweepStop chan struct{}
	sweepDone chan struct{}
}

// New constructs a Runner with optional overrides and starts its retention
// sweeper. Call Close to stop it.
func New(registry core.Registry, invoker core.Invoker, optFns ...func(o *Options)) *Runner {
	opts := Options{
		Recorder:          trace.NewRecorder(),
		Executors:         pattern.All(),
		MaxConcurrentRuns: DefaultMaxConcurrentRuns,
		MaxHandoffs:       pattern.DefaultMaxHandoffs,
		MaxRounds:         pattern.DefaultMaxRounds,
		Retention:         DefaultRetention,
		Logger:            logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxConcurrentRuns == 0 {
		opts.MaxConcurrentRuns = DefaultMaxConcurrentRuns
	}

	r := &Runner{
		registry:    registry,
		invoker:     invoker,
		recorder:    opts.Recorder,
		executors:   opts.Executors,
		maxHandoffs: opts.MaxHandoffs,
		maxRounds:   opts.MaxRounds,
		retention:   opts.Retention,
		logger:      opts.Logger,
		store:       newRunStore(),
		activeRuns:  make(map[string]context.CancelFunc),
		sweepStop:   make(chan struct{}),
		sweepDone:   make(chan struct{}),
	}
	if opts.MaxConcurrentRuns > 0 {
		r.sem = semaphore.NewWeighted(int64(opts.MaxConcurrentRuns))
	}

	go r.sweep()
	return r
}

// Submit validates and executes one orchestration request to completion.
//
// Partial failures never surface as an error: they are expressed through
// the run status and the result's failed agent list. The returned error is
// non-nil only for ErrInvalidRequest (before any invocation) or a
// controller-level breakdown.
func (r *Runner) Submit(ctx context.Context, req core.OrchestrationRequest) (string, core.AggregatedResult, error) {
	normalized, err := r.validate(req)
	if err != nil {
		return "", core.AggregatedResult{}, err
	}
	req = normalized

	if r.sem != nil {
		if err := r.sem.Acquire(ctx, 1); err != nil {
			return "", core.AggregatedResult{}, fmt.Errorf("acquire run slot: %w", err)
		}
		defer r.sem.Release(1)
	}

	run := core.NewRun(req)
	r.store.add(run)

	ctx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.activeRuns[run.ID()] = cancel
	r.mu.Unlock()
	defer func() {
		cancel()
		r.mu.Lock()
		delete(r.activeRuns, run.ID())
		r.mu.Unlock()
	}()

	result := r.execute(ctx, run)
	return run.ID(), result, nil
}

// execute drives one created run through its pattern executor and the
// aggregator, finalizing the run status on every path.
func (r *Runner) execute(ctx context.Context, run *core.OrchestrationRun) core.AggregatedResult {
	req := run.Request()
	executor := r.executors[req.Pattern]
	started := time.Now()

	rootSpan := r.recorder.StartSpan(run.ID(), "", "orchestrate."+string(req.Pattern))
	_ = run.Transition(core.StatusRunning)

	rc := core.NewRunContext(ctx, run, r.registry, r.invoker, r.recorder, rootSpan,
		r.maxHandoffs, r.maxRounds, r.logger)

	outcome, execErr := executor.Execute(rc)

	_ = run.Transition(core.StatusAggregating)
	result, status := aggregate.Aggregate(run, outcome)

	detail := ""
	if execErr != nil {
		// Run-level failures (handoff limit, cancellation) trump the
		// aggregator's success arithmetic.
		status = core.StatusFailed
		detail = execErr.Error()
	}
	run.Finalize(status, detail)

	r.recorder.EndSpan(rootSpan, map[string]string{
		"pattern":   string(req.Pattern),
		"status":    string(status),
		"succeeded": fmt.Sprintf("%d", len(result.Outputs)),
		"failed":    fmt.Sprintf("%d", len(result.FailedAgents)),
	})
	r.logger.Info("run finalized",
		"run_id", run.ID(),
		"pattern", req.Pattern,
		"status", status,
		"duration", time.Since(started),
	)
	return result
}

// validate rejects requests that cannot produce a well-formed run and
// returns the request with its pattern normalized.
func (r *Runner) validate(req core.OrchestrationRequest) (core.OrchestrationRequest, error) {
	p, err := core.ParsePattern(string(req.Pattern))
	if err != nil {
		return req, err
	}
	req.Pattern = p

	if _, ok := r.executors[p]; !ok {
		return req, fmt.Errorf("%w: no executor for pattern %q", core.ErrInvalidRequest, p)
	}

	switch p {
	case core.PatternSequential:
		if len(req.Agents) == 0 {
			return req, fmt.Errorf("%w: sequential pattern requires an ordered agent list", core.ErrInvalidRequest)
		}
		for _, name := range req.Agents {
			if _, err := r.registry.Resolve(name); err != nil {
				return req, fmt.Errorf("%w: %v", core.ErrInvalidRequest, err)
			}
		}
	case core.PatternGroupChat:
		gc := pattern.NewGroupChat()
		worker, reviewer, err := gc.Roles(req)
		if err != nil {
			return req, err
		}
		for _, name := range []string{worker, reviewer} {
			if _, err := r.registry.Resolve(name); err != nil {
				return req, fmt.Errorf("%w: %v", core.ErrInvalidRequest, err)
			}
		}
	}
	return req, nil
}

// Status returns a read-only snapshot of a run, or ErrRunNotFound for
// unknown and evicted identities. Snapshots of a finalized run are stable
// across calls.
func (r *Runner) Status(runID string) (core.RunSnapshot, error) {
	run, ok := r.store.get(runID)
	if !ok {
		return core.RunSnapshot{}, fmt.Errorf("%w: %s", core.ErrRunNotFound, runID)
	}
	return run.Snapshot(), nil
}

// Spans returns the trace spans recorded so far for a run, ordered by
// start time.
func (r *Runner) Spans(runID string) []core.TraceSpan {
	return r.recorder.Spans(runID)
}

// Cancel propagates cancellation to every in-flight invocation of a run.
func (r *Runner) Cancel(runID string) error {
	r.mu.Lock()
	cancel, exists := r.activeRuns[runID]
	r.mu.Unlock()

	if !exists {
		return fmt.Errorf("%w: %s", core.ErrRunNotFound, runID)
	}
	cancel()
	return nil
}

// Close stops the retention sweeper.
func (r *Runner) Close() {
	close(r.sweepStop)
	<-r.sweepDone
}

// sweep periodically evicts finalized runs past the retention window,
// together with their trace spans.
func (r *Runner) sweep() {
	defer close(r.sweepDone)

	interval := r.retention / 10
	if interval < 5*time.Second {
		interval = 5 * time.Second
	}
	if interval > 5*time.Minute {
		interval = 5 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.sweepStop:
			return
		case now := <-ticker.C:
			for _, id := range r.store.evict(now, r.retention) {
				r.recorder.Drop(id)
				r.logger.Debug("run evicted", "run_id", id)
			}
		}
	}
}

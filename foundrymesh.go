// Package foundrymesh provides a high-level façade over the orchestration
// controller and its collaborators (registry, invocation client, trace
// recorder) enabling rapid construction of multi-agent retail assistants.
// Most applications interact with this package by:
//  1. Creating a Mesh via New() with a registry of worker agents
//  2. Submitting orchestration requests (Submit) selecting a pattern
//  3. Reading run snapshots (Status) and trace spans (Spans) afterwards
//
// The façade delegates orchestration to runner.Runner while keeping setup
// and usage ergonomics concise. All defaults are safe for local development
// and testing; production deployments typically supply a tuned invocation
// client, an OTLP-exporting recorder and a structured logger.
package foundrymesh

import (
	"context"
	"time"

	"github.com/yadejumobi/foundrymesh/client"
	"github.com/yadejumobi/foundrymesh/core"
	"github.com/yadejumobi/foundrymesh/logging"
	"github.com/yadejumobi/foundrymesh/runner"
	"github.com/yadejumobi/foundrymesh/trace"
)

// Options configures the Mesh instance.
type Options struct {
	// Invoker overrides the default HTTP invocation client.
	Invoker core.Invoker

	// Recorder overrides the default in-memory trace recorder.
	Recorder core.Recorder

	// MaxHandoffs bounds the router decision loop per run.
	MaxHandoffs int

	// MaxRounds bounds group chat draft/review cycles per run.
	MaxRounds int

	// MaxConcurrentRuns bounds simultaneously executing runs.
	MaxConcurrentRuns int

	// Retention is how long finalized runs stay queryable before eviction.
	Retention time.Duration

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Mesh is the high-level façade aggregating the controller and services.
type Mesh struct {
	runner   *runner.Runner
	recorder core.Recorder
}

// New creates a new Mesh over the given agent registry with optional
// overrides. Any unset service is initialized with its default in-process
// implementation.
func New(registry core.Registry, optFns ...func(o *Options)) *Mesh {
	opts := Options{
		Recorder: trace.NewRecorder(),
		Logger:   logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Invoker == nil {
		opts.Invoker = client.New(func(o *client.Options) { o.Logger = opts.Logger })
	}

	r := runner.New(registry, opts.Invoker, func(o *runner.Options) {
		o.Recorder = opts.Recorder
		o.Logger = opts.Logger
		if opts.MaxHandoffs > 0 {
			o.MaxHandoffs = opts.MaxHandoffs
		}
		if opts.MaxRounds > 0 {
			o.MaxRounds = opts.MaxRounds
		}
		if opts.MaxConcurrentRuns != 0 {
			o.MaxConcurrentRuns = opts.MaxConcurrentRuns
		}
		if opts.Retention > 0 {
			o.Retention = opts.Retention
		}
	})

	return &Mesh{runner: r, recorder: opts.Recorder}
}

// Runner exposes the underlying controller for advanced wiring (HTTP
// server construction, custom executors).
func (m *Mesh) Runner() *runner.Runner { return m.runner }

// Submit executes one orchestration request to completion and returns the
// run identity alongside the aggregated result.
func (m *Mesh) Submit(ctx context.Context, req core.OrchestrationRequest) (string, core.AggregatedResult, error) {
	return m.runner.Submit(ctx, req)
}

// Status returns a read-only snapshot of a run.
func (m *Mesh) Status(runID string) (core.RunSnapshot, error) {
	return m.runner.Status(runID)
}

// Spans returns the trace spans recorded for a run, ordered by start time.
func (m *Mesh) Spans(runID string) []core.TraceSpan {
	return m.runner.Spans(runID)
}

// Cancel propagates cancellation to a run's in-flight invocations.
func (m *Mesh) Cancel(runID string) error { return m.runner.Cancel(runID) }

// Close stops background housekeeping.
func (m *Mesh) Close() { m.runner.Close() }

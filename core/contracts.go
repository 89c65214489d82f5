package core

import (
	"context"
	"encoding/json"
)

// Registry resolves capability names to agent descriptors. Implementations
// are read-only after initialization and safe for concurrent reads without
// locking.
type Registry interface {
	// Resolve returns the descriptor for a capability name or ErrUnknownAgent.
	Resolve(name string) (AgentDescriptor, error)

	// All returns every registered descriptor in stable name order, for the
	// router and group chat patterns to discover candidates.
	All() []AgentDescriptor
}

// Invoker is the uniform request/response transport to worker agents.
//
// Implementations apply the per-descriptor timeout and exactly one retry on
// transient transport failure. Returned errors are *InvocationError values
// classifying the failure (transport, schema violation, timeout, agent).
type Invoker interface {
	Invoke(ctx context.Context, desc AgentDescriptor, payload json.RawMessage) (json.RawMessage, error)
}

// Executor drives one orchestration pattern over a run.
//
// Invocation failures are reported inside the Outcome; a non-nil error is
// reserved for run-level failures (handoff limit exceeded, cancellation)
// that force the run into Failed.
type Executor interface {
	// Pattern names the strategy this executor implements.
	Pattern() Pattern

	// Execute records invocations onto the run via the RunContext and
	// returns the partitioned outcome.
	Execute(rc *RunContext) (Outcome, error)
}

// Recorder is the append-only trace span log correlated by run identity.
// Append operations must be safe for concurrent writers (one per in-flight
// invocation); reads must tolerate in-progress runs.
type Recorder interface {
	// StartSpan opens a span under parentID (empty for the root span).
	StartSpan(runID, parentID, label string) SpanHandle

	// EndSpan closes an open span, attaching the given attributes.
	EndSpan(h SpanHandle, attrs map[string]string)

	// Spans returns the spans emitted so far for a run, ordered by start
	// time.
	Spans(runID string) []TraceSpan

	// Drop discards all spans of a run. Called on retention eviction.
	Drop(runID string)
}

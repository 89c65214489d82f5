package core

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/yadejumobi/foundrymesh/logging"
)

// RunContext carries execution state & helpers for one orchestration run.
// It encapsulates the scope passed to a pattern executor's Execute method:
//   - The ambient cancellation Context
//   - The run itself (invocation slots, status)
//   - Backing collaborators (Registry, Invoker, Recorder)
//   - The controller-level root span all invocation spans hang off
//   - Pattern bounds (MaxHandoffs, MaxRounds)
//
// The shared invocation choreography (resolve, reserve, span, dispatch,
// resolve-or-fail) lives here so every executor records invocations the
// same way.
type RunContext struct {
	Context     context.Context
	Run         *OrchestrationRun
	Registry    Registry
	Invoker     Invoker
	Recorder    Recorder
	RootSpan    SpanHandle
	MaxHandoffs int
	MaxRounds   int

	*loggerAdapter
}

// NewRunContext constructs a RunContext for one run.
func NewRunContext(
	ctx context.Context,
	run *OrchestrationRun,
	registry Registry,
	invoker Invoker,
	recorder Recorder,
	rootSpan SpanHandle,
	maxHandoffs, maxRounds int,
	logger logging.Logger,
) *RunContext {
	return &RunContext{
		Context:       ctx,
		Run:           run,
		Registry:      registry,
		Invoker:       invoker,
		Recorder:      recorder,
		RootSpan:      rootSpan,
		MaxHandoffs:   maxHandoffs,
		MaxRounds:     maxRounds,
		loggerAdapter: newLoggerAdapter(logger),
	}
}

// Done returns a channel closed when the underlying context is cancelled.
func (rc *RunContext) Done() <-chan struct{} { return rc.Context.Done() }

// Err returns the cancellation error (if any) from the underlying context.
func (rc *RunContext) Err() error { return rc.Context.Err() }

// Query returns the original user query.
func (rc *RunContext) Query() string { return rc.Run.Request().Query }

// BasePayload builds the minimal agent request every worker contract
// requires: the original query and the user identifier.
func (rc *RunContext) BasePayload() json.RawMessage {
	payload, _ := json.Marshal(map[string]string{
		"query":  rc.Run.Request().Query,
		"userId": rc.Run.Request().UserID,
	})
	return payload
}

// Resolve looks up a descriptor, applying the request's transport mode
// override so every run is reproducible independent of ambient state.
func (rc *RunContext) Resolve(name string) (AgentDescriptor, error) {
	desc, err := rc.Registry.Resolve(name)
	if err != nil {
		return AgentDescriptor{}, err
	}
	if mode := rc.Run.Request().Mode; mode != "" {
		desc.Mode = mode
	}
	return desc, nil
}

// Reserve resolves an agent and reserves an invocation slot for it. The
// caller's goroutine becomes the slot's single writer and must complete it
// via Dispatch.
func (rc *RunContext) Reserve(name string, input json.RawMessage) (*AgentInvocation, AgentDescriptor, error) {
	desc, err := rc.Resolve(name)
	if err != nil {
		return nil, AgentDescriptor{}, err
	}
	return rc.Run.Reserve(name, input), desc, nil
}

// Dispatch executes a reserved invocation through the Invoker, recording a
// trace span and the slot outcome. It returns the classified failure, or
// nil on success. Outcomes landing after run finalization are still
// recorded on the slot but carry no further weight.
func (rc *RunContext) Dispatch(inv *AgentInvocation, desc AgentDescriptor) *InvocationError {
	span := rc.Recorder.StartSpan(rc.Run.ID(), rc.RootSpan.SpanID, "invoke."+desc.Name)
	inv.MarkDispatched()

	output, err := rc.Invoker.Invoke(rc.Context, desc, inv.Input())
	if err != nil {
		ie := AsInvocationError(desc.Name, err)
		if errors.Is(rc.Context.Err(), context.Canceled) && ie.Kind == ErrorKindTransport {
			ie = NewInvocationError(ErrorKindCancelled, desc.Name, "run cancelled", err)
		}
		inv.Fail(ie)
		rc.Recorder.EndSpan(span, map[string]string{
			"agent":  desc.Name,
			"status": string(InvocationFailed),
			"error":  string(ie.Kind),
		})
		rc.LogDebug("invocation failed", "agent", desc.Name, "kind", ie.Kind)
		return ie
	}

	inv.Succeed(output)
	rc.Recorder.EndSpan(span, map[string]string{
		"agent":  desc.Name,
		"status": string(InvocationSucceeded),
	})
	return nil
}

// Invoke is the one-shot form of Reserve + Dispatch used by the strictly
// ordered patterns.
func (rc *RunContext) Invoke(name string, input json.RawMessage) (*AgentInvocation, *InvocationError) {
	inv, desc, err := rc.Reserve(name, input)
	if err != nil {
		// Registry miss: record the failure on a slot anyway so the run's
		// invocation list tells the whole story.
		inv = rc.Run.Reserve(name, input)
		ie := NewInvocationError(ErrorKindAgent, name, err.Error(), err)
		inv.Fail(ie)
		return inv, ie
	}
	return inv, rc.Dispatch(inv, desc)
}

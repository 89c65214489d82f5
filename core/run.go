package core

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/yadejumobi/foundrymesh/internal/util"
)

// RunStatus is the lifecycle state of an orchestration run. Transitions are
// strictly monotonic: Created → Running → Aggregating → one terminal state.
type RunStatus string

const (
	// StatusCreated is the initial state assigned by the controller.
	StatusCreated RunStatus = "created"
	// StatusRunning means a pattern executor currently drives the run.
	StatusRunning RunStatus = "running"
	// StatusAggregating means the executor finished and the aggregator is
	// composing the final result.
	StatusAggregating RunStatus = "aggregating"
	// StatusCompleted is terminal: every invocation succeeded.
	StatusCompleted RunStatus = "completed"
	// StatusPartiallyCompleted is terminal: some invocations failed, some
	// succeeded.
	StatusPartiallyCompleted RunStatus = "partially_completed"
	// StatusFailed is terminal: no invocation succeeded, or the run failed
	// at the orchestration level (e.g. handoff limit exceeded).
	StatusFailed RunStatus = "failed"
)

var statusRank = map[RunStatus]int{
	StatusCreated:            0,
	StatusRunning:            1,
	StatusAggregating:        2,
	StatusCompleted:          3,
	StatusPartiallyCompleted: 3,
	StatusFailed:             3,
}

// Terminal reports whether s is a final run state.
func (s RunStatus) Terminal() bool { return statusRank[s] == 3 }

// InvocationStatus is the lifecycle state of a single agent invocation.
type InvocationStatus string

const (
	// InvocationPending means the slot is reserved but not yet dispatched.
	InvocationPending InvocationStatus = "pending"
	// InvocationDispatched means the request is in flight.
	InvocationDispatched InvocationStatus = "dispatched"
	// InvocationSucceeded means a schema-valid output was recorded.
	InvocationSucceeded InvocationStatus = "succeeded"
	// InvocationFailed means the invocation ended with a classified error.
	InvocationFailed InvocationStatus = "failed"
	// InvocationSkipped means an earlier pipeline failure made this
	// invocation moot; it was never dispatched.
	InvocationSkipped InvocationStatus = "skipped"
)

// AgentInvocation is one reserved slot in a run's invocation list.
//
// Each slot has a single writer: the executor goroutine that reserved it.
// The internal mutex only exists so concurrent snapshot readers (the status
// endpoint, the aggregator) observe consistent values; writers never contend
// with each other.
type AgentInvocation struct {
	mu        sync.Mutex
	id        string
	agent     string
	input     json.RawMessage
	output    json.RawMessage
	status    InvocationStatus
	err       *InvocationError
	startedAt time.Time
	endedAt   time.Time
}

// Name returns the invoked capability name.
func (ai *AgentInvocation) Name() string { return ai.agent }

// Status returns the current invocation status.
func (ai *AgentInvocation) Status() InvocationStatus {
	ai.mu.Lock()
	defer ai.mu.Unlock()
	return ai.status
}

// Output returns the recorded output payload (nil until resolved).
func (ai *AgentInvocation) Output() json.RawMessage {
	ai.mu.Lock()
	defer ai.mu.Unlock()
	return ai.output
}

// Input returns the dispatched input payload.
func (ai *AgentInvocation) Input() json.RawMessage { return ai.input }

// Err returns the classified failure, or nil.
func (ai *AgentInvocation) Err() *InvocationError {
	ai.mu.Lock()
	defer ai.mu.Unlock()
	return ai.err
}

// MarkDispatched stamps the start time and moves the slot in flight.
func (ai *AgentInvocation) MarkDispatched() {
	ai.mu.Lock()
	defer ai.mu.Unlock()
	ai.status = InvocationDispatched
	ai.startedAt = time.Now().UTC()
}

// Succeed records a schema-valid output and stamps the end time.
func (ai *AgentInvocation) Succeed(output json.RawMessage) {
	ai.mu.Lock()
	defer ai.mu.Unlock()
	ai.status = InvocationSucceeded
	ai.output = output
	ai.err = nil
	ai.endedAt = time.Now().UTC()
}

// Fail records a classified failure and stamps the end time.
func (ai *AgentInvocation) Fail(err *InvocationError) {
	ai.mu.Lock()
	defer ai.mu.Unlock()
	ai.status = InvocationFailed
	ai.err = err
	ai.endedAt = time.Now().UTC()
}

// Skip marks a never-dispatched slot as skipped.
func (ai *AgentInvocation) Skip() {
	ai.mu.Lock()
	defer ai.mu.Unlock()
	ai.status = InvocationSkipped
}

// Snapshot returns an immutable copy of the invocation for external readers.
func (ai *AgentInvocation) Snapshot() InvocationSnapshot {
	ai.mu.Lock()
	defer ai.mu.Unlock()
	snap := InvocationSnapshot{
		ID:        ai.id,
		Agent:     ai.agent,
		Input:     append(json.RawMessage(nil), ai.input...),
		Status:    ai.status,
		StartedAt: ai.startedAt,
		EndedAt:   ai.endedAt,
	}
	if ai.output != nil {
		snap.Output = append(json.RawMessage(nil), ai.output...)
	}
	if ai.err != nil {
		e := *ai.err
		snap.Error = &e
	}
	return snap
}

// InvocationSnapshot is the read-only wire form of an AgentInvocation.
type InvocationSnapshot struct {
	ID        string           `json:"id"`
	Agent     string           `json:"agent"`
	Input     json.RawMessage  `json:"input,omitempty"`
	Output    json.RawMessage  `json:"output,omitempty"`
	Status    InvocationStatus `json:"status"`
	Error     *InvocationError `json:"error,omitempty"`
	StartedAt time.Time        `json:"startedAt"`
	EndedAt   time.Time        `json:"endedAt"`
}

// OrchestrationRun is one end-to-end execution of an orchestration request.
//
// The controller owns the run for its lifetime. Invocation slots are
// appended under the run mutex but mutated lock-free by their single owning
// goroutine afterwards; the status field is always updated under the mutex
// so two invocations can never race the terminal aggregation decision.
type OrchestrationRun struct {
	mu            sync.Mutex
	id            string
	request       OrchestrationRequest
	status        RunStatus
	invocations   []*AgentInvocation
	createdAt     time.Time
	completedAt   time.Time
	failureDetail string
}

// NewRun creates a run in status Created with a fresh unique identity.
func NewRun(req OrchestrationRequest) *OrchestrationRun {
	return &OrchestrationRun{
		id:        util.NewID(),
		request:   req,
		status:    StatusCreated,
		createdAt: time.Now().UTC(),
	}
}

// ID returns the run identity.
func (r *OrchestrationRun) ID() string { return r.id }

// Request returns the originating request.
func (r *OrchestrationRun) Request() OrchestrationRequest { return r.request }

// CreatedAt returns the run creation timestamp.
func (r *OrchestrationRun) CreatedAt() time.Time { return r.createdAt }

// Status returns the current run status.
func (r *OrchestrationRun) Status() RunStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Finalized reports whether the run reached a terminal status.
func (r *OrchestrationRun) Finalized() bool {
	return r.Status().Terminal()
}

// Transition moves the run forward to a non-terminal status. Backward or
// sideways transitions are rejected, as is any transition out of a terminal
// state.
func (r *OrchestrationRun) Transition(to RunStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status.Terminal() {
		return fmt.Errorf("run %s already finalized as %s", r.id, r.status)
	}
	if statusRank[to] <= statusRank[r.status] {
		return fmt.Errorf("run %s cannot transition %s -> %s", r.id, r.status, to)
	}
	r.status = to
	return nil
}

// Finalize moves the run into a terminal status and stamps the completion
// time. A second finalization is ignored: an already-finalized run discards
// late outcomes.
func (r *OrchestrationRun) Finalize(to RunStatus, detail string) {
	if !to.Terminal() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status.Terminal() {
		return
	}
	r.status = to
	r.failureDetail = detail
	r.completedAt = time.Now().UTC()
}

// Reserve appends a fresh invocation slot for the given agent and returns
// it. The caller becomes the slot's single writer.
func (r *OrchestrationRun) Reserve(agent string, input json.RawMessage) *AgentInvocation {
	inv := &AgentInvocation{
		id:     util.NewID(),
		agent:  agent,
		input:  input,
		status: InvocationPending,
	}
	r.mu.Lock()
	r.invocations = append(r.invocations, inv)
	r.mu.Unlock()
	return inv
}

// Invocations returns the current slots in reservation order. The slice is
// a copy; the slots themselves are shared.
func (r *OrchestrationRun) Invocations() []*AgentInvocation {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*AgentInvocation, len(r.invocations))
	copy(out, r.invocations)
	return out
}

// Snapshot returns a deep, read-only copy of the run for external
// consumption. Snapshots of a finalized run are stable across calls.
func (r *OrchestrationRun) Snapshot() RunSnapshot {
	r.mu.Lock()
	invs := make([]*AgentInvocation, len(r.invocations))
	copy(invs, r.invocations)
	snap := RunSnapshot{
		ID:            r.id,
		Request:       r.request,
		Status:        r.status,
		CreatedAt:     r.createdAt,
		CompletedAt:   r.completedAt,
		FailureDetail: r.failureDetail,
	}
	r.mu.Unlock()

	snap.Invocations = make([]InvocationSnapshot, len(invs))
	for i, inv := range invs {
		snap.Invocations[i] = inv.Snapshot()
	}
	return snap
}

// RunSnapshot is the read-only wire form of an OrchestrationRun.
type RunSnapshot struct {
	ID            string               `json:"id"`
	Request       OrchestrationRequest `json:"request"`
	Status        RunStatus            `json:"status"`
	Invocations   []InvocationSnapshot `json:"invocations"`
	CreatedAt     time.Time            `json:"createdAt"`
	CompletedAt   time.Time            `json:"completedAt,omitzero"`
	FailureDetail string               `json:"failureDetail,omitempty"`
}

package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/yadejumobi/foundrymesh/core"
)

// Call records one Invoke for later assertions.
type Call struct {
	Agent   string
	Payload json.RawMessage
}

type scripted struct {
	output json.RawMessage
	err    error
}

// ScriptedInvoker is an in-memory core.Invoker for tests. Responses are
// consumed from per-agent queues (Respond, FailWith); an optional handler
// serves agents the queue does not cover; everything else gets a schema-valid
// default. All calls are recorded in order.
type ScriptedInvoker struct {
	mu       sync.Mutex
	queues   map[string][]scripted
	handlers map[string]func(payload json.RawMessage) (json.RawMessage, error)
	calls    []Call
}

// NewScriptedInvoker creates an empty scripted invoker.
func NewScriptedInvoker() *ScriptedInvoker {
	return &ScriptedInvoker{
		queues:   map[string][]scripted{},
		handlers: map[string]func(payload json.RawMessage) (json.RawMessage, error){},
	}
}

// Respond enqueues one successful response for an agent (chainable).
func (s *ScriptedInvoker) Respond(agent, output string) *ScriptedInvoker {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queues[agent] = append(s.queues[agent], scripted{output: json.RawMessage(output)})
	return s
}

// FailWith enqueues one failure for an agent (chainable).
func (s *ScriptedInvoker) FailWith(agent string, err error) *ScriptedInvoker {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queues[agent] = append(s.queues[agent], scripted{err: err})
	return s
}

// Handle installs a fallback handler invoked when an agent's queue is empty
// (chainable).
func (s *ScriptedInvoker) Handle(agent string, fn func(payload json.RawMessage) (json.RawMessage, error)) *ScriptedInvoker {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[agent] = fn
	return s
}

// Invoke implements core.Invoker.
func (s *ScriptedInvoker) Invoke(ctx context.Context, desc core.AgentDescriptor, payload json.RawMessage) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, core.NewInvocationError(core.ErrorKindCancelled, desc.Name, "run cancelled", err)
	}

	s.mu.Lock()
	s.calls = append(s.calls, Call{Agent: desc.Name, Payload: append(json.RawMessage(nil), payload...)})

	if queue := s.queues[desc.Name]; len(queue) > 0 {
		next := queue[0]
		s.queues[desc.Name] = queue[1:]
		s.mu.Unlock()
		return next.output, next.err
	}
	handler := s.handlers[desc.Name]
	s.mu.Unlock()

	if handler != nil {
		return handler(payload)
	}
	return defaultOutput(desc), nil
}

// Calls returns every recorded call in invocation order.
func (s *ScriptedInvoker) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallCount returns how often the given agent was invoked.
func (s *ScriptedInvoker) CallCount(agent string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c.Agent == agent {
			n++
		}
	}
	return n
}

// TotalCalls returns the number of recorded invocations across all agents.
func (s *ScriptedInvoker) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// defaultOutput builds a response satisfying the descriptor's schema tag so
// unscripted agents succeed by default.
func defaultOutput(desc core.AgentDescriptor) json.RawMessage {
	tag := desc.SchemaTag
	if tag == "" {
		tag = "result"
	}
	return json.RawMessage(fmt.Sprintf(`{"%s": "ok from %s"}`, tag, desc.Name))
}

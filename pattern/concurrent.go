package pattern

import (
	"golang.org/x/sync/errgroup"

	"github.com/yadejumobi/foundrymesh/core"
)

// Concurrent dispatches all requested agents simultaneously against the
// original query only, with no data dependency between them.
//
// Each invocation runs in its own goroutine against a slot reserved before
// dispatch, so completions never contend for run state. The join waits for
// every dispatched invocation, success or failure; one agent's failure does
// not affect its siblings. The pattern makes no attempt at response
// coherence: independently produced outputs are surfaced verbatim to the
// aggregator.
type Concurrent struct{}

// NewConcurrent creates the fan-out executor.
func NewConcurrent() *Concurrent { return &Concurrent{} }

// Pattern implements core.Executor.
func (c *Concurrent) Pattern() core.Pattern { return core.PatternConcurrent }

// Execute implements core.Executor. When the request names no agents the
// whole registry is dispatched.
func (c *Concurrent) Execute(rc *core.RunContext) (core.Outcome, error) {
	names := rc.Run.Request().Agents
	if len(names) == 0 {
		for _, d := range rc.Registry.All() {
			names = append(names, d.Name)
		}
	}

	// Reserve all slots up front so each goroutine owns a disjoint slot.
	type dispatch struct {
		inv  *core.AgentInvocation
		desc core.AgentDescriptor
		ok   bool
	}
	dispatches := make([]dispatch, len(names))
	input := buildInput(rc, nil)
	for i, name := range names {
		inv, desc, err := rc.Reserve(name, input)
		if err != nil {
			slot := rc.Run.Reserve(name, input)
			slot.Fail(core.NewInvocationError(core.ErrorKindAgent, name, err.Error(), err))
			dispatches[i] = dispatch{inv: slot}
			continue
		}
		dispatches[i] = dispatch{inv: inv, desc: desc, ok: true}
	}

	var g errgroup.Group
	for i := range dispatches {
		d := dispatches[i]
		if !d.ok {
			continue
		}
		g.Go(func() error {
			// Failures are recorded on the slot; the group must always join
			// every dispatched invocation.
			_ = rc.Dispatch(d.inv, d.desc)
			return nil
		})
	}
	_ = g.Wait()

	var out core.Outcome
	for _, d := range dispatches {
		if d.inv.Status() == core.InvocationSucceeded {
			out.Succeeded = append(out.Succeeded, d.inv)
		} else {
			out.Failed = append(out.Failed, d.inv)
		}
	}
	return out, nil
}

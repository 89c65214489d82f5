package pattern

import (
	"encoding/json"

	"github.com/yadejumobi/foundrymesh/core"
)

// Sequential executes the caller-supplied agent list as a strict pipeline.
//
// Invocation i+1's input is constructed from invocation i's output plus the
// original query. The first failure halts the pipeline and marks every
// remaining agent Skipped; the run never continues past a hard failure.
type Sequential struct{}

// NewSequential creates the sequential pipeline executor.
func NewSequential() *Sequential { return &Sequential{} }

// Pattern implements core.Executor.
func (s *Sequential) Pattern() core.Pattern { return core.PatternSequential }

// Execute implements core.Executor. The controller has already validated
// that the request carries a non-empty, resolvable agent list.
func (s *Sequential) Execute(rc *core.RunContext) (core.Outcome, error) {
	agents := rc.Run.Request().Agents

	var out core.Outcome
	var previous json.RawMessage

	for i, name := range agents {
		extra := map[string]json.RawMessage{}
		if previous != nil {
			extra["previous"] = previous
		}

		inv, ierr := rc.Invoke(name, buildInput(rc, extra))
		if ierr != nil {
			out.Failed = append(out.Failed, inv)
			skipRemaining(rc, agents[i+1:])
			rc.LogInfo("sequential pipeline halted", "agent", name, "skipped", len(agents)-i-1)
			return out, nil
		}

		out.Succeeded = append(out.Succeeded, inv)
		previous = inv.Output()
	}

	return out, nil
}

// skipRemaining reserves and skips slots for agents that will never run so
// the invocation list records the whole intended pipeline.
func skipRemaining(rc *core.RunContext, agents []string) {
	for _, name := range agents {
		rc.Run.Reserve(name, nil).Skip()
	}
}

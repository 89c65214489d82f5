// Package aggregate composes per-agent invocation outputs into the single
// normalized response returned to the caller. Aggregation is a pure read of
// the run's invocation list; it never mutates invocation records.
package aggregate

import (
	"encoding/json"

	"github.com/yadejumobi/foundrymesh/core"
)

// Aggregate merges the run's invocation outputs into an AggregatedResult
// and returns the terminal status the run has earned: Completed when no
// invocation failed, PartiallyCompleted when failures and successes mix,
// Failed when nothing succeeded.
//
// When the executor composed its own response (handoff, group chat) that
// response is kept; otherwise succeeded outputs are concatenated in slot
// order with no attempt at cross-agent coherence. Skipped invocations are
// neither successes nor failures.
func Aggregate(run *core.OrchestrationRun, out core.Outcome) (core.AggregatedResult, core.RunStatus) {
	result := core.AggregatedResult{
		RunID:        run.ID(),
		Outputs:      []core.AgentOutput{},
		FailedAgents: []string{},
		Unreviewed:   out.Unreviewed,
	}

	type responseSection struct {
		Agent  string          `json:"agent"`
		Output json.RawMessage `json:"output"`
	}
	var sections []responseSection

	for _, inv := range run.Invocations() {
		switch inv.Status() {
		case core.InvocationSucceeded:
			output := inv.Output()
			result.Outputs = append(result.Outputs, core.AgentOutput{Agent: inv.Name(), Output: output})
			sections = append(sections, responseSection{Agent: inv.Name(), Output: output})
		case core.InvocationFailed:
			result.FailedAgents = append(result.FailedAgents, inv.Name())
		}
	}

	result.Response = out.Response
	if result.Response == "" {
		composed, _ := json.Marshal(map[string]any{"sections": sections})
		result.Response = string(composed)
	}

	status := core.StatusCompleted
	switch {
	case len(result.FailedAgents) == 0:
		status = core.StatusCompleted
	case len(result.Outputs) > 0:
		status = core.StatusPartiallyCompleted
	default:
		status = core.StatusFailed
	}
	return result, status
}

package core

import "encoding/json"

// AgentOutput pairs a capability name with its verbatim output payload.
type AgentOutput struct {
	Agent  string          `json:"agent"`
	Output json.RawMessage `json:"output"`
}

// AggregatedResult is the final, normalized response of a run.
//
// FailedAgents is exactly the set of invocations with status Failed at
// aggregation time; skipped invocations are not failures. Unreviewed marks a
// group chat result whose last draft never received reviewer approval.
type AggregatedResult struct {
	RunID        string        `json:"runId"`
	Response     string        `json:"response"`
	Outputs      []AgentOutput `json:"outputs"`
	FailedAgents []string      `json:"failedAgents"`
	Unreviewed   bool          `json:"unreviewed,omitempty"`
}

// Outcome is what a pattern executor hands back to the controller.
//
// Response, when non-empty, is a pattern-composed final response (the
// handoff router and group chat build their own); the aggregator falls back
// to concatenating succeeded outputs otherwise.
type Outcome struct {
	Succeeded  []*AgentInvocation
	Failed     []*AgentInvocation
	Response   string
	Unreviewed bool
}

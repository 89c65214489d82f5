package pattern

import (
	"encoding/json"
	"strings"

	"github.com/yadejumobi/foundrymesh/core"
)

// Capability names the coordinated plan is built from.
const (
	capInventory   = "inventory"
	capMatchmaking = "matchmaking"
	capLocation    = "location"
	capNavigation  = "navigation"
)

// fieldRef wires one input field of a later plan step to one output field
// of an earlier step. No other cross-agent data flows in coordinated mode.
type fieldRef struct {
	agent string // source agent
	field string // top-level field of the source output
}

// planStep is one agent in the coordinated plan.
type planStep struct {
	agent string
	refs  map[string]fieldRef // input field -> earlier output field
}

// Coordinated is the baseline executor used when no explicit pattern is
// requested. A fixed internal plan decides agent order deterministically
// from static request classification; agents run one at a time.
type Coordinated struct{}

// NewCoordinated creates the default plan executor.
func NewCoordinated() *Coordinated { return &Coordinated{} }

// Pattern implements core.Executor.
func (c *Coordinated) Pattern() core.Pattern { return core.PatternDefault }

// Execute implements core.Executor. A failure halts the plan and skips the
// remaining steps, mirroring the sequential pipeline discipline.
func (c *Coordinated) Execute(rc *core.RunContext) (core.Outcome, error) {
	plan := classify(rc.Query(), rc.Registry)

	var out core.Outcome
	outputs := map[string]json.RawMessage{}

	for i, step := range plan {
		inv, ierr := rc.Invoke(step.agent, buildInput(rc, resolveRefs(step.refs, outputs)))
		if ierr != nil {
			out.Failed = append(out.Failed, inv)
			for _, rest := range plan[i+1:] {
				rc.Run.Reserve(rest.agent, nil).Skip()
			}
			rc.LogInfo("coordinated plan halted", "agent", step.agent, "skipped", len(plan)-i-1)
			return out, nil
		}
		out.Succeeded = append(out.Succeeded, inv)
		outputs[step.agent] = inv.Output()
	}

	return out, nil
}

// classify derives the deterministic plan from the query text. Product
// queries get the full inventory → matchmaking → location → navigation
// plan; pure wayfinding queries skip the product steps. Steps whose
// capability is not registered are dropped from the plan, never failed.
func classify(query string, reg core.Registry) []planStep {
	q := strings.ToLower(query)

	wayfinding := containsAny(q, "where", "directions", "nearest", "aisle", "route to")
	product := containsAny(q, "price", "buy", "cost", "stock", "product", "need", "looking for")

	var plan []planStep
	if wayfinding && !product {
		plan = []planStep{
			{agent: capLocation},
			{agent: capNavigation, refs: map[string]fieldRef{"stores": {agent: capLocation, field: "stores"}}},
		}
	} else {
		plan = []planStep{
			{agent: capInventory},
			{agent: capMatchmaking, refs: map[string]fieldRef{"products": {agent: capInventory, field: "products"}}},
			{agent: capLocation},
			{agent: capNavigation, refs: map[string]fieldRef{"stores": {agent: capLocation, field: "stores"}}},
		}
	}

	kept := plan[:0]
	for _, step := range plan {
		if _, err := reg.Resolve(step.agent); err == nil {
			kept = append(kept, step)
		}
	}
	return kept
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// resolveRefs extracts the referenced output fields of earlier steps. A
// reference to a missing agent or field simply stays absent; the later
// agent's schema decides whether it can cope.
func resolveRefs(refs map[string]fieldRef, outputs map[string]json.RawMessage) map[string]json.RawMessage {
	if len(refs) == 0 {
		return nil
	}
	extra := map[string]json.RawMessage{}
	for field, ref := range refs {
		src, ok := outputs[ref.agent]
		if !ok {
			continue
		}
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(src, &obj); err != nil {
			continue
		}
		if v, ok := obj[ref.field]; ok {
			extra[field] = v
		}
	}
	return extra
}

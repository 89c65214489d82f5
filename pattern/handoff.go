package pattern

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/yadejumobi/foundrymesh/core"
)

// RouterState is the router's full decision input: the original query, the
// set of capabilities already invoked, every candidate's declared role and
// the request's routing hints. The decision function is pure over this
// state; no hidden counters or ambient configuration feed it.
type RouterState struct {
	Query      string
	Hints      map[string]string
	Invoked    map[string]bool
	Candidates []core.AgentDescriptor
	Handoffs   int
}

// Decision is the router's next move: hand control to Next, or stop.
type Decision struct {
	Next string
	Done bool
}

// DecisionFunc maps a RouterState onto the next capability or the terminal
// done action.
type DecisionFunc func(s RouterState) Decision

// Handoff runs the router decision loop: a distinguished, single-threaded
// controller (not a worker agent) that repeatedly selects the next
// capability until it is done or the handoff bound is reached.
//
// The router also owns output normalization: merely malformed agent
// payloads (broken JSON fragments) are repaired into the common schema
// before composing the final response. Payloads missing required fields
// still fail.
type Handoff struct {
	decide DecisionFunc
}

// HandoffOption customizes the router.
type HandoffOption func(*Handoff)

// WithDecisionFunc replaces the default role-matching decision function.
func WithDecisionFunc(fn DecisionFunc) HandoffOption {
	return func(h *Handoff) { h.decide = fn }
}

// NewHandoff creates the router executor with the default decision
// function.
func NewHandoff(opts ...HandoffOption) *Handoff {
	h := &Handoff{decide: RoleMatchDecision}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Pattern implements core.Executor.
func (h *Handoff) Pattern() core.Pattern { return core.PatternHandoff }

// Execute implements core.Executor. The loop is single-threaded per run so
// the handoff counter and the invoked set stay consistent. Reaching the
// bound without a done decision fails the run with ErrHandoffLimitExceeded;
// exactly maxHandoffs invocations exist at that point, never one more.
func (h *Handoff) Execute(rc *core.RunContext) (core.Outcome, error) {
	maxHandoffs := rc.MaxHandoffs
	if maxHandoffs <= 0 {
		maxHandoffs = DefaultMaxHandoffs
	}

	req := rc.Run.Request()
	state := RouterState{
		Query:      req.Query,
		Hints:      req.RoutingHints,
		Invoked:    map[string]bool{},
		Candidates: rc.Registry.All(),
	}

	// Schema repair happens inside the invocation path so slots and spans
	// record the normalized outcome, not the raw violation.
	routed := *rc
	routed.Invoker = &normalizingInvoker{inner: rc.Invoker}

	var out core.Outcome
	var sections []section

	for {
		d := h.decide(state)
		if d.Done {
			break
		}
		if state.Handoffs >= maxHandoffs {
			return out, fmt.Errorf("%w: no done action after %d handoffs", core.ErrHandoffLimitExceeded, maxHandoffs)
		}
		state.Handoffs++

		inv, ierr := routed.Invoke(d.Next, buildInput(rc, routerExtra(state)))
		state.Invoked[d.Next] = true
		if ierr != nil {
			// The router routes around individual failures; the decision
			// function sees the capability as spent.
			out.Failed = append(out.Failed, inv)
			rc.LogWarn("handoff target failed, routing around", "agent", d.Next, "kind", ierr.Kind)
			continue
		}
		out.Succeeded = append(out.Succeeded, inv)
		sections = append(sections, section{Agent: d.Next, Content: inv.Output()})
	}

	out.Response = composeSections(sections)
	return out, nil
}

// routerExtra annotates the agent input with the handoff position so worker
// services can log their place in the chain.
func routerExtra(state RouterState) map[string]json.RawMessage {
	hop, _ := json.Marshal(state.Handoffs)
	return map[string]json.RawMessage{"handoff": hop}
}

// RoleMatchDecision is the default decision function: scan candidates in
// stable order, skip already-invoked capabilities and pick the first whose
// name or declared role overlaps the query. A "route" hint (comma-separated
// capability names) takes precedence and is followed verbatim. When nothing
// matches, the router is done.
func RoleMatchDecision(s RouterState) Decision {
	if route, ok := s.Hints["route"]; ok {
		for _, name := range strings.Split(route, ",") {
			name = strings.TrimSpace(name)
			if name != "" && !s.Invoked[name] {
				return Decision{Next: name}
			}
		}
		return Decision{Done: true}
	}

	query := strings.ToLower(s.Query)
	for _, cand := range s.Candidates {
		if s.Invoked[cand.Name] {
			continue
		}
		if roleMatches(query, cand) {
			return Decision{Next: cand.Name}
		}
	}
	return Decision{Done: true}
}

// roleMatches reports whether the candidate's name or any sufficiently long
// role word shares a prefix with a query word.
func roleMatches(query string, cand core.AgentDescriptor) bool {
	if strings.Contains(query, cand.Name) {
		return true
	}
	for _, roleWord := range strings.Fields(strings.ToLower(cand.Role)) {
		if len(roleWord) < 4 {
			continue
		}
		for _, queryWord := range strings.Fields(query) {
			if len(queryWord) < 4 {
				continue
			}
			if strings.HasPrefix(roleWord, queryWord) || strings.HasPrefix(queryWord, roleWord) {
				return true
			}
		}
	}
	return false
}

// normalizingInvoker repairs merely malformed agent output on behalf of the
// router. Schema violations carrying a raw payload are run through JSON
// repair and revalidated; anything else passes through untouched.
type normalizingInvoker struct {
	inner core.Invoker
}

func (n *normalizingInvoker) Invoke(ctx context.Context, desc core.AgentDescriptor, payload json.RawMessage) (json.RawMessage, error) {
	out, err := n.inner.Invoke(ctx, desc, payload)
	if err == nil {
		return out, nil
	}

	var ie *core.InvocationError
	if !errors.As(err, &ie) || ie.Kind != core.ErrorKindSchema || len(ie.Raw) == 0 {
		return nil, err
	}

	repaired, rerr := jsonrepair.JSONRepair(string(ie.Raw))
	if rerr != nil {
		return nil, err
	}

	var obj map[string]json.RawMessage
	if uerr := json.Unmarshal([]byte(repaired), &obj); uerr != nil {
		return nil, err
	}
	if desc.SchemaTag != "" {
		if _, ok := obj[desc.SchemaTag]; !ok {
			// Repairable syntax but genuinely missing required fields.
			return nil, err
		}
	}
	return json.RawMessage(repaired), nil
}

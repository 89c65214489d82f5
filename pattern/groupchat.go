package pattern

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yadejumobi/foundrymesh/core"
)

// GroupChat alternates a worker draft with a reviewer verdict for a bounded
// number of rounds.
//
// On rejection the worker retries with the reviewer's feedback folded into
// its input. Exhausting maxRounds without approval never fails the run: the
// last draft stands, tagged Unreviewed.
type GroupChat struct{}

// NewGroupChat creates the worker/reviewer executor.
func NewGroupChat() *GroupChat { return &GroupChat{} }

// Pattern implements core.Executor.
func (g *GroupChat) Pattern() core.Pattern { return core.PatternGroupChat }

// Roles resolves the worker and reviewer capabilities for a request: the
// "worker"/"reviewer" routing hints win, then the first two entries of the
// agent list.
func (g *GroupChat) Roles(req core.OrchestrationRequest) (worker, reviewer string, err error) {
	worker = req.RoutingHints["worker"]
	reviewer = req.RoutingHints["reviewer"]
	if worker == "" && len(req.Agents) > 0 {
		worker = req.Agents[0]
	}
	if reviewer == "" && len(req.Agents) > 1 {
		reviewer = req.Agents[1]
	}
	if worker == "" || reviewer == "" {
		return "", "", fmt.Errorf("%w: group chat needs a worker and a reviewer agent", core.ErrInvalidRequest)
	}
	return worker, reviewer, nil
}

// Execute implements core.Executor.
func (g *GroupChat) Execute(rc *core.RunContext) (core.Outcome, error) {
	maxRounds := rc.MaxRounds
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}

	worker, reviewer, err := g.Roles(rc.Run.Request())
	if err != nil {
		return core.Outcome{}, err
	}

	var out core.Outcome
	var draft json.RawMessage
	var feedback string
	approved := false

	for round := 1; round <= maxRounds; round++ {
		winv, werr := rc.Invoke(worker, workerInput(rc, feedback, round))
		if werr != nil {
			out.Failed = append(out.Failed, winv)
			break
		}
		out.Succeeded = append(out.Succeeded, winv)
		draft = winv.Output()

		rinv, rerr := rc.Invoke(reviewer, reviewerInput(rc, draft, round))
		if rerr != nil {
			// No verdict is obtainable; the draft stands unreviewed.
			out.Failed = append(out.Failed, rinv)
			break
		}
		out.Succeeded = append(out.Succeeded, rinv)

		verdict := parseVerdict(rinv.Output())
		if verdict.approved {
			approved = true
			break
		}
		feedback = verdict.feedback
		rc.LogDebug("draft rejected", "round", round, "feedback", feedback)
	}

	out.Unreviewed = !approved
	if draft != nil {
		out.Response = string(draft)
	}
	return out, nil
}

func workerInput(rc *core.RunContext, feedback string, round int) json.RawMessage {
	extra := map[string]json.RawMessage{}
	extra["round"], _ = json.Marshal(round)
	if feedback != "" {
		extra["feedback"], _ = json.Marshal(feedback)
	}
	return buildInput(rc, extra)
}

func reviewerInput(rc *core.RunContext, draft json.RawMessage, round int) json.RawMessage {
	extra := map[string]json.RawMessage{"draft": draft}
	extra["round"], _ = json.Marshal(round)
	return buildInput(rc, extra)
}

// verdict is the reviewer's parsed judgement.
type verdict struct {
	approved bool
	feedback string
}

// parseVerdict accepts either an "approved" boolean or a "verdict" string
// ("approved"/"rejected"), plus an optional "feedback" string.
func parseVerdict(output json.RawMessage) verdict {
	var probe struct {
		Approved *bool  `json:"approved"`
		Verdict  string `json:"verdict"`
		Feedback string `json:"feedback"`
	}
	if err := json.Unmarshal(output, &probe); err != nil {
		return verdict{}
	}
	v := verdict{feedback: probe.Feedback}
	if probe.Approved != nil {
		v.approved = *probe.Approved
	} else if strings.EqualFold(probe.Verdict, "approved") {
		v.approved = true
	}
	return v
}

package core

import "fmt"

// Pattern names one orchestration strategy governing how worker agents are
// sequenced or parallelized for a single request.
type Pattern string

const (
	// PatternDefault is the coordinated baseline: a fixed deterministic plan
	// derived from static request classification.
	PatternDefault Pattern = "default"
	// PatternSequential pipelines a caller-supplied agent list, feeding each
	// output into the next input.
	PatternSequential Pattern = "sequential"
	// PatternConcurrent fans all agents out simultaneously with no data
	// dependency between them.
	PatternConcurrent Pattern = "concurrent"
	// PatternHandoff runs the router decision loop, handing control to one
	// capability at a time until it decides it is done.
	PatternHandoff Pattern = "handoff"
	// PatternGroupChat alternates a worker draft with a reviewer verdict for
	// a bounded number of rounds.
	PatternGroupChat Pattern = "groupchat"
)

// ParsePattern maps a wire string onto a Pattern. The empty string selects
// the default pattern; anything unknown is rejected.
func ParsePattern(s string) (Pattern, error) {
	switch Pattern(s) {
	case "":
		return PatternDefault, nil
	case PatternDefault, PatternSequential, PatternConcurrent, PatternHandoff, PatternGroupChat:
		return Pattern(s), nil
	default:
		return "", fmt.Errorf("%w: unknown pattern %q", ErrInvalidRequest, s)
	}
}

// Valid reports whether p is a known pattern value.
func (p Pattern) Valid() bool {
	_, err := ParsePattern(string(p))
	return err == nil
}

// OrchestrationRequest is one user request submitted to the controller.
//
// Mode is carried explicitly on every request (instead of ambient process
// state) so a run is self-describing and reproducible; when empty, each
// descriptor's own mode applies.
type OrchestrationRequest struct {
	Query   string  `json:"query"`
	UserID  string  `json:"userId"`
	Pattern Pattern `json:"pattern,omitempty"`

	// Agents is the ordered capability list. Required for Sequential,
	// optional elsewhere (Concurrent falls back to the whole registry,
	// GroupChat reads worker/reviewer from it).
	Agents []string `json:"agents,omitempty"`

	// RoutingHints bias the handoff router and name group chat roles
	// ("worker", "reviewer").
	RoutingHints map[string]string `json:"routingHints,omitempty"`

	// Mode overrides every descriptor's transport mode for this run.
	Mode string `json:"mode,omitempty"`
}

package pattern

import (
	"encoding/json"

	"github.com/yadejumobi/foundrymesh/core"
)

// Default bounds applied when the run context carries none.
const (
	// DefaultMaxHandoffs bounds the router decision loop.
	DefaultMaxHandoffs = 5
	// DefaultMaxRounds bounds group chat draft/review cycles.
	DefaultMaxRounds = 3
)

// All returns one executor per pattern, keyed by pattern name. The
// controller uses this as its executor table; individual entries can be
// overridden for custom strategies.
func All() map[core.Pattern]core.Executor {
	return map[core.Pattern]core.Executor{
		core.PatternDefault:    NewCoordinated(),
		core.PatternSequential: NewSequential(),
		core.PatternConcurrent: NewConcurrent(),
		core.PatternHandoff:    NewHandoff(),
		core.PatternGroupChat:  NewGroupChat(),
	}
}

// buildInput composes an agent request payload: the original query and user
// identifier plus any extra fields a pattern wires in.
func buildInput(rc *core.RunContext, extra map[string]json.RawMessage) json.RawMessage {
	req := rc.Run.Request()
	fields := map[string]json.RawMessage{}
	fields["query"], _ = json.Marshal(req.Query)
	fields["userId"], _ = json.Marshal(req.UserID)
	for k, v := range extra {
		fields[k] = v
	}
	payload, _ := json.Marshal(fields)
	return payload
}

// section is one agent contribution in a composed response.
type section struct {
	Agent   string          `json:"agent"`
	Content json.RawMessage `json:"content"`
}

// composeSections renders agent contributions into the common response
// shape shared by the router and the demos.
func composeSections(sections []section) string {
	out, _ := json.Marshal(map[string][]section{"sections": sections})
	return string(out)
}

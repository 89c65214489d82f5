package aggregate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yadejumobi/foundrymesh/core"
)

func succeeded(run *core.OrchestrationRun, agent, output string) *core.AgentInvocation {
	inv := run.Reserve(agent, nil)
	inv.MarkDispatched()
	inv.Succeed(json.RawMessage(output))
	return inv
}

func failed(run *core.OrchestrationRun, agent string) *core.AgentInvocation {
	inv := run.Reserve(agent, nil)
	inv.MarkDispatched()
	inv.Fail(core.NewInvocationError(core.ErrorKindTransport, agent, "connection reset", nil))
	return inv
}

func TestAggregateAllSucceeded(t *testing.T) {
	run := core.NewRun(core.OrchestrationRequest{Query: "q"})
	a := succeeded(run, "inventory", `{"products": []}`)
	b := succeeded(run, "location", `{"stores": []}`)

	result, status := Aggregate(run, core.Outcome{Succeeded: []*core.AgentInvocation{a, b}})

	assert.Equal(t, core.StatusCompleted, status)
	assert.Equal(t, run.ID(), result.RunID)
	assert.Empty(t, result.FailedAgents)
	require.Len(t, result.Outputs, 2)
	assert.Equal(t, "inventory", result.Outputs[0].Agent)
	assert.Equal(t, "location", result.Outputs[1].Agent)

	// Without an executor-composed response, succeeded outputs are
	// concatenated in slot order.
	var resp struct {
		Sections []struct {
			Agent  string          `json:"agent"`
			Output json.RawMessage `json:"output"`
		} `json:"sections"`
	}
	require.NoError(t, json.Unmarshal([]byte(result.Response), &resp))
	require.Len(t, resp.Sections, 2)
	assert.Equal(t, "inventory", resp.Sections[0].Agent)
}

func TestAggregatePartial(t *testing.T) {
	run := core.NewRun(core.OrchestrationRequest{})
	succeeded(run, "inventory", `{"products": []}`)
	failed(run, "location")

	result, status := Aggregate(run, core.Outcome{})

	assert.Equal(t, core.StatusPartiallyCompleted, status)
	assert.Equal(t, []string{"location"}, result.FailedAgents)
	require.Len(t, result.Outputs, 1)
}

func TestAggregateAllFailed(t *testing.T) {
	run := core.NewRun(core.OrchestrationRequest{})
	failed(run, "inventory")
	failed(run, "location")

	result, status := Aggregate(run, core.Outcome{})

	assert.Equal(t, core.StatusFailed, status)
	assert.Equal(t, []string{"inventory", "location"}, result.FailedAgents)
	assert.Empty(t, result.Outputs)
}

func TestAggregateSkippedAreNeither(t *testing.T) {
	run := core.NewRun(core.OrchestrationRequest{})
	succeeded(run, "inventory", `{"products": []}`)
	failed(run, "matchmaking")
	run.Reserve("navigation", nil).Skip()

	result, status := Aggregate(run, core.Outcome{})

	assert.Equal(t, core.StatusPartiallyCompleted, status)
	assert.Equal(t, []string{"matchmaking"}, result.FailedAgents)
	assert.Len(t, result.Outputs, 1)
}

func TestAggregateKeepsExecutorResponse(t *testing.T) {
	run := core.NewRun(core.OrchestrationRequest{})
	succeeded(run, "writer", `{"draft": "v2"}`)

	result, status := Aggregate(run, core.Outcome{Response: `{"draft": "v2"}`, Unreviewed: true})

	assert.Equal(t, core.StatusCompleted, status)
	assert.JSONEq(t, `{"draft": "v2"}`, result.Response)
	assert.True(t, result.Unreviewed)
}

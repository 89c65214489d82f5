package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yadejumobi/foundrymesh/core"
	"github.com/yadejumobi/foundrymesh/internal/testutil"
)

func TestConcurrentFanOut(t *testing.T) {
	inv := testutil.NewScriptedInvoker()
	req := core.OrchestrationRequest{
		Query:   "q",
		UserID:  "u",
		Pattern: core.PatternConcurrent,
		Agents:  []string{"inventory", "location", "navigation"},
	}
	rc := testutil.NewRunContext(req, retailRegistry(t), inv)

	out, err := NewConcurrent().Execute(rc)
	require.NoError(t, err)
	assert.Len(t, out.Succeeded, 3)
	assert.Empty(t, out.Failed)
	assert.Equal(t, 3, inv.TotalCalls())
}

func TestConcurrentDefaultsToWholeRegistry(t *testing.T) {
	inv := testutil.NewScriptedInvoker()
	req := core.OrchestrationRequest{Query: "q", UserID: "u", Pattern: core.PatternConcurrent}
	rc := testutil.NewRunContext(req, retailRegistry(t), inv)

	out, err := NewConcurrent().Execute(rc)
	require.NoError(t, err)
	assert.Len(t, out.Succeeded, 4)
}

func TestConcurrentFailureIsolated(t *testing.T) {
	inv := testutil.NewScriptedInvoker().
		FailWith("location", core.NewInvocationError(core.ErrorKindTransport, "location", "connection reset", nil))

	req := core.OrchestrationRequest{
		Query:   "q",
		UserID:  "u",
		Pattern: core.PatternConcurrent,
		Agents:  []string{"inventory", "location", "navigation"},
	}
	rc := testutil.NewRunContext(req, retailRegistry(t), inv)

	out, err := NewConcurrent().Execute(rc)
	require.NoError(t, err)
	assert.Len(t, out.Succeeded, 2)
	require.Len(t, out.Failed, 1)
	assert.Equal(t, "location", out.Failed[0].Name())

	// Siblings still ran.
	assert.Equal(t, 1, inv.CallCount("inventory"))
	assert.Equal(t, 1, inv.CallCount("navigation"))
}

func TestConcurrentUnknownAgentFailsItsSlot(t *testing.T) {
	inv := testutil.NewScriptedInvoker()
	req := core.OrchestrationRequest{
		Query:   "q",
		UserID:  "u",
		Pattern: core.PatternConcurrent,
		Agents:  []string{"inventory", "ghost"},
	}
	rc := testutil.NewRunContext(req, retailRegistry(t), inv)

	out, err := NewConcurrent().Execute(rc)
	require.NoError(t, err)
	assert.Len(t, out.Succeeded, 1)
	require.Len(t, out.Failed, 1)
	assert.Equal(t, "ghost", out.Failed[0].Name())
	require.NotNil(t, out.Failed[0].Err())
	assert.Equal(t, core.ErrorKindAgent, out.Failed[0].Err().Kind)
	assert.Equal(t, 0, inv.CallCount("ghost"))
}

package pattern

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yadejumobi/foundrymesh/core"
	"github.com/yadejumobi/foundrymesh/internal/testutil"
)

func TestHandoffFollowsRouteHint(t *testing.T) {
	inv := testutil.NewScriptedInvoker().
		Respond("inventory", `{"products": ["drill"]}`).
		Respond("navigation", `{"directions": "aisle 9"}`)

	req := core.OrchestrationRequest{
		Query:        "q",
		UserID:       "u",
		Pattern:      core.PatternHandoff,
		RoutingHints: map[string]string{"route": "inventory, navigation"},
	}
	rc := testutil.NewRunContext(req, retailRegistry(t), inv)

	out, err := NewHandoff().Execute(rc)
	require.NoError(t, err)
	assert.Len(t, out.Succeeded, 2)
	assert.Empty(t, out.Failed)

	var resp struct {
		Sections []struct {
			Agent   string          `json:"agent"`
			Content json.RawMessage `json:"content"`
		} `json:"sections"`
	}
	require.NoError(t, json.Unmarshal([]byte(out.Response), &resp))
	require.Len(t, resp.Sections, 2)
	assert.Equal(t, "inventory", resp.Sections[0].Agent)
	assert.Equal(t, "navigation", resp.Sections[1].Agent)
	assert.JSONEq(t, `{"products": ["drill"]}`, string(resp.Sections[0].Content))
}

func TestHandoffLimitExceeded(t *testing.T) {
	inv := testutil.NewScriptedInvoker()
	req := core.OrchestrationRequest{Query: "q", UserID: "u", Pattern: core.PatternHandoff}
	rc := testutil.NewRunContext(req, retailRegistry(t), inv, func(o *testutil.RunContextOptions) {
		o.MaxHandoffs = 3
	})

	// A decision function that never selects the done action.
	h := NewHandoff(WithDecisionFunc(func(s RouterState) Decision {
		return Decision{Next: "inventory"}
	}))

	_, err := h.Execute(rc)
	require.ErrorIs(t, err, core.ErrHandoffLimitExceeded)

	// Exactly maxHandoffs invocations exist, never one more.
	assert.Equal(t, 3, inv.CallCount("inventory"))
	assert.Len(t, rc.Run.Invocations(), 3)
}

func TestHandoffRoutesAroundFailures(t *testing.T) {
	inv := testutil.NewScriptedInvoker().
		FailWith("inventory", core.NewInvocationError(core.ErrorKindTimeout, "inventory", "no response within 5s", nil)).
		Respond("location", `{"stores": ["store-1"]}`)

	req := core.OrchestrationRequest{
		Query:        "q",
		UserID:       "u",
		Pattern:      core.PatternHandoff,
		RoutingHints: map[string]string{"route": "inventory,location"},
	}
	rc := testutil.NewRunContext(req, retailRegistry(t), inv)

	out, err := NewHandoff().Execute(rc)
	require.NoError(t, err)
	require.Len(t, out.Succeeded, 1)
	assert.Equal(t, "location", out.Succeeded[0].Name())
	require.Len(t, out.Failed, 1)
	assert.Equal(t, "inventory", out.Failed[0].Name())
}

func TestHandoffCarriesHopAnnotation(t *testing.T) {
	inv := testutil.NewScriptedInvoker()
	req := core.OrchestrationRequest{
		Query:        "q",
		UserID:       "u",
		Pattern:      core.PatternHandoff,
		RoutingHints: map[string]string{"route": "inventory,location"},
	}
	rc := testutil.NewRunContext(req, retailRegistry(t), inv)

	_, err := NewHandoff().Execute(rc)
	require.NoError(t, err)

	calls := inv.Calls()
	require.Len(t, calls, 2)
	var first, second map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(calls[0].Payload, &first))
	require.NoError(t, json.Unmarshal(calls[1].Payload, &second))
	assert.JSONEq(t, `1`, string(first["handoff"]))
	assert.JSONEq(t, `2`, string(second["handoff"]))
}

func TestHandoffNormalizesMalformedOutput(t *testing.T) {
	malformed := core.NewInvocationError(core.ErrorKindSchema, "inventory", "response is not a JSON object", nil)
	malformed.Raw = []byte(`{products: ['drill'],}`)

	inv := testutil.NewScriptedInvoker().FailWith("inventory", malformed)
	req := core.OrchestrationRequest{
		Query:        "q",
		UserID:       "u",
		Pattern:      core.PatternHandoff,
		RoutingHints: map[string]string{"route": "inventory"},
	}
	rc := testutil.NewRunContext(req, retailRegistry(t), inv)

	out, err := NewHandoff().Execute(rc)
	require.NoError(t, err)
	require.Len(t, out.Succeeded, 1)
	assert.Empty(t, out.Failed)
	assert.JSONEq(t, `{"products": ["drill"]}`, string(out.Succeeded[0].Output()))
}

func TestHandoffNormalizationRequiresSchemaTag(t *testing.T) {
	malformed := core.NewInvocationError(core.ErrorKindSchema, "inventory", "response missing required field", nil)
	malformed.Raw = []byte(`{items: []}`)

	inv := testutil.NewScriptedInvoker().FailWith("inventory", malformed)
	req := core.OrchestrationRequest{
		Query:        "q",
		UserID:       "u",
		Pattern:      core.PatternHandoff,
		RoutingHints: map[string]string{"route": "inventory"},
	}
	rc := testutil.NewRunContext(req, retailRegistry(t), inv)

	out, err := NewHandoff().Execute(rc)
	require.NoError(t, err)
	assert.Empty(t, out.Succeeded)
	require.Len(t, out.Failed, 1)
	require.NotNil(t, out.Failed[0].Err())
	assert.Equal(t, core.ErrorKindSchema, out.Failed[0].Err().Kind)
}

func TestRoleMatchDecision(t *testing.T) {
	candidates := testutil.RetailDescriptors()

	// Name match wins.
	d := RoleMatchDecision(RouterState{
		Query:      "navigation to the paint aisle",
		Invoked:    map[string]bool{},
		Candidates: candidates,
	})
	assert.Equal(t, "navigation", d.Next)
	assert.False(t, d.Done)

	// Role word overlap.
	d = RoleMatchDecision(RouterState{
		Query:      "search the catalog",
		Invoked:    map[string]bool{},
		Candidates: candidates,
	})
	assert.Equal(t, "inventory", d.Next)

	// Already invoked capabilities are skipped until nothing matches.
	d = RoleMatchDecision(RouterState{
		Query:      "navigation to the paint aisle",
		Invoked:    map[string]bool{"navigation": true},
		Candidates: candidates,
	})
	assert.True(t, d.Done)
}

func TestRoleMatchDecisionRouteHintExhausted(t *testing.T) {
	d := RoleMatchDecision(RouterState{
		Hints:   map[string]string{"route": "inventory"},
		Invoked: map[string]bool{"inventory": true},
	})
	assert.True(t, d.Done)
}

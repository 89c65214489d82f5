package pattern

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yadejumobi/foundrymesh/core"
	"github.com/yadejumobi/foundrymesh/internal/testutil"
	"github.com/yadejumobi/foundrymesh/registry"
)

func TestCoordinatedProductQuery(t *testing.T) {
	inv := testutil.NewScriptedInvoker().
		Respond("inventory", `{"products": ["paint sprayer turbo"]}`).
		Respond("location", `{"stores": ["store-12"]}`)

	req := core.OrchestrationRequest{Query: "paint sprayer turbo price 750", UserID: "u-1"}
	rc := testutil.NewRunContext(req, retailRegistry(t), inv)

	out, err := NewCoordinated().Execute(rc)
	require.NoError(t, err)
	assert.Len(t, out.Succeeded, 4)
	assert.Empty(t, out.Failed)

	calls := inv.Calls()
	require.Len(t, calls, 4)
	assert.Equal(t, []string{"inventory", "matchmaking", "location", "navigation"},
		[]string{calls[0].Agent, calls[1].Agent, calls[2].Agent, calls[3].Agent})

	// Matchmaking receives inventory's products, navigation receives
	// location's stores; nothing else crosses agents.
	var matchmaking map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(calls[1].Payload, &matchmaking))
	assert.JSONEq(t, `["paint sprayer turbo"]`, string(matchmaking["products"]))

	var navigation map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(calls[3].Payload, &navigation))
	assert.JSONEq(t, `["store-12"]`, string(navigation["stores"]))
	assert.NotContains(t, navigation, "products")
}

func TestCoordinatedWayfindingQuery(t *testing.T) {
	inv := testutil.NewScriptedInvoker()
	req := core.OrchestrationRequest{Query: "where is the nearest checkout", UserID: "u-1"}
	rc := testutil.NewRunContext(req, retailRegistry(t), inv)

	out, err := NewCoordinated().Execute(rc)
	require.NoError(t, err)
	assert.Len(t, out.Succeeded, 2)

	calls := inv.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "location", calls[0].Agent)
	assert.Equal(t, "navigation", calls[1].Agent)
}

func TestCoordinatedHaltsAndSkips(t *testing.T) {
	inv := testutil.NewScriptedInvoker().
		FailWith("inventory", core.NewInvocationError(core.ErrorKindTransport, "inventory", "connection reset", nil))

	req := core.OrchestrationRequest{Query: "price of a drill", UserID: "u-1"}
	rc := testutil.NewRunContext(req, retailRegistry(t), inv)

	out, err := NewCoordinated().Execute(rc)
	require.NoError(t, err)
	assert.Empty(t, out.Succeeded)
	require.Len(t, out.Failed, 1)
	assert.Equal(t, "inventory", out.Failed[0].Name())
	assert.Equal(t, 1, inv.TotalCalls())

	invs := rc.Run.Invocations()
	require.Len(t, invs, 4)
	for _, slot := range invs[1:] {
		assert.Equal(t, core.InvocationSkipped, slot.Status())
	}
}

func TestCoordinatedDropsUnregisteredSteps(t *testing.T) {
	reg := registry.MustNew(
		testutil.NewDescriptorBuilder("inventory").SchemaTag("products").Build(),
		testutil.NewDescriptorBuilder("location").SchemaTag("stores").Build(),
		testutil.NewDescriptorBuilder("navigation").SchemaTag("directions").Build(),
	)
	inv := testutil.NewScriptedInvoker()
	req := core.OrchestrationRequest{Query: "need a drill", UserID: "u-1"}
	rc := testutil.NewRunContext(req, reg, inv)

	out, err := NewCoordinated().Execute(rc)
	require.NoError(t, err)
	assert.Len(t, out.Succeeded, 3)
	assert.Equal(t, 0, inv.CallCount("matchmaking"))
}

func TestClassify(t *testing.T) {
	reg := retailRegistry(t)

	product := classify("how much does the paint sprayer cost", reg)
	require.Len(t, product, 4)
	assert.Equal(t, capInventory, product[0].agent)

	wayfinding := classify("directions to aisle 9", reg)
	require.Len(t, wayfinding, 2)
	assert.Equal(t, capLocation, wayfinding[0].agent)

	// A query naming both intents keeps the full product plan.
	mixed := classify("where can I buy a sander", reg)
	assert.Len(t, mixed, 4)
}

package runner

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yadejumobi/foundrymesh/core"
	"github.com/yadejumobi/foundrymesh/internal/testutil"
	"github.com/yadejumobi/foundrymesh/pattern"
	"github.com/yadejumobi/foundrymesh/registry"
)

func newTestRunner(t *testing.T, inv core.Invoker, optFns ...func(o *Options)) *Runner {
	t.Helper()
	reg := registry.MustNew(testutil.RetailDescriptors()...)
	r := New(reg, inv, optFns...)
	t.Cleanup(r.Close)
	return r
}

func TestSubmitDefaultPattern(t *testing.T) {
	inv := testutil.NewScriptedInvoker()
	r := newTestRunner(t, inv)

	req := core.OrchestrationRequest{Query: "paint sprayer turbo price 750", UserID: "u-1"}
	runID, result, err := r.Submit(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	snap, err := r.Status(runID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, snap.Status)
	assert.Len(t, result.Outputs, 4)
	assert.Empty(t, result.FailedAgents)
	assert.Len(t, snap.Invocations, 4)
	assert.False(t, snap.CompletedAt.IsZero())
}

func TestSubmitAssignsUniqueRunIDs(t *testing.T) {
	inv := testutil.NewScriptedInvoker()
	r := newTestRunner(t, inv)
	req := core.OrchestrationRequest{Query: "need a drill", UserID: "u-1"}

	first, _, err := r.Submit(context.Background(), req)
	require.NoError(t, err)
	second, _, err := r.Submit(context.Background(), req)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestSubmitRecordsSpans(t *testing.T) {
	inv := testutil.NewScriptedInvoker()
	r := newTestRunner(t, inv)

	runID, _, err := r.Submit(context.Background(), core.OrchestrationRequest{
		Query: "where is the nearest exit", UserID: "u-1",
	})
	require.NoError(t, err)

	spans := r.Spans(runID)
	require.Len(t, spans, 3)
	root := spans[0]
	assert.Equal(t, "orchestrate.default", root.Label)
	assert.Empty(t, root.ParentID)
	assert.Equal(t, string(core.StatusCompleted), root.Attributes["status"])
	for _, span := range spans[1:] {
		assert.Equal(t, root.ID, span.ParentID)
		assert.False(t, span.EndedAt.IsZero())
	}
}

func TestSubmitPartialCompletion(t *testing.T) {
	inv := testutil.NewScriptedInvoker().
		FailWith("location", core.NewInvocationError(core.ErrorKindTransport, "location", "connection reset", nil))
	r := newTestRunner(t, inv)

	runID, result, err := r.Submit(context.Background(), core.OrchestrationRequest{
		Query:   "q",
		UserID:  "u-1",
		Pattern: core.PatternConcurrent,
		Agents:  []string{"inventory", "location", "navigation"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"location"}, result.FailedAgents)
	assert.Len(t, result.Outputs, 2)

	snap, err := r.Status(runID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusPartiallyCompleted, snap.Status)
}

func TestSubmitInvalidPattern(t *testing.T) {
	r := newTestRunner(t, testutil.NewScriptedInvoker())

	runID, _, err := r.Submit(context.Background(), core.OrchestrationRequest{
		Query: "q", UserID: "u-1", Pattern: "round_robin",
	})
	assert.ErrorIs(t, err, core.ErrInvalidRequest)
	assert.Empty(t, runID)
}

func TestSubmitSequentialRequiresAgents(t *testing.T) {
	r := newTestRunner(t, testutil.NewScriptedInvoker())

	_, _, err := r.Submit(context.Background(), core.OrchestrationRequest{
		Query: "q", UserID: "u-1", Pattern: core.PatternSequential,
	})
	assert.ErrorIs(t, err, core.ErrInvalidRequest)

	_, _, err = r.Submit(context.Background(), core.OrchestrationRequest{
		Query: "q", UserID: "u-1", Pattern: core.PatternSequential, Agents: []string{"inventory", "ghost"},
	})
	assert.ErrorIs(t, err, core.ErrInvalidRequest)
}

func TestSubmitGroupChatRequiresRoles(t *testing.T) {
	r := newTestRunner(t, testutil.NewScriptedInvoker())

	_, _, err := r.Submit(context.Background(), core.OrchestrationRequest{
		Query: "q", UserID: "u-1", Pattern: core.PatternGroupChat,
	})
	assert.ErrorIs(t, err, core.ErrInvalidRequest)

	_, _, err = r.Submit(context.Background(), core.OrchestrationRequest{
		Query: "q", UserID: "u-1", Pattern: core.PatternGroupChat,
		RoutingHints: map[string]string{"worker": "inventory", "reviewer": "ghost"},
	})
	assert.ErrorIs(t, err, core.ErrInvalidRequest)
}

func TestSubmitHandoffLimitFailsRun(t *testing.T) {
	executors := pattern.All()
	executors[core.PatternHandoff] = pattern.NewHandoff(pattern.WithDecisionFunc(func(s pattern.RouterState) pattern.Decision {
		return pattern.Decision{Next: "inventory"}
	}))

	inv := testutil.NewScriptedInvoker()
	r := newTestRunner(t, inv, func(o *Options) {
		o.Executors = executors
		o.MaxHandoffs = 3
	})

	runID, _, err := r.Submit(context.Background(), core.OrchestrationRequest{
		Query: "q", UserID: "u-1", Pattern: core.PatternHandoff,
	})
	require.NoError(t, err)

	snap, err := r.Status(runID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusFailed, snap.Status)
	assert.Contains(t, snap.FailureDetail, "handoff limit exceeded")
	assert.Equal(t, 3, inv.CallCount("inventory"))
}

func TestStatusSnapshotsStable(t *testing.T) {
	r := newTestRunner(t, testutil.NewScriptedInvoker())

	runID, _, err := r.Submit(context.Background(), core.OrchestrationRequest{
		Query: "need a drill", UserID: "u-1",
	})
	require.NoError(t, err)

	first, err := r.Status(runID)
	require.NoError(t, err)
	second, err := r.Status(runID)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestStatusUnknownRun(t *testing.T) {
	r := newTestRunner(t, testutil.NewScriptedInvoker())

	_, err := r.Status("no-such-run")
	assert.ErrorIs(t, err, core.ErrRunNotFound)
}

func TestCancelUnknownRun(t *testing.T) {
	r := newTestRunner(t, testutil.NewScriptedInvoker())
	assert.ErrorIs(t, r.Cancel("no-such-run"), core.ErrRunNotFound)
}

func TestSubmitHonorsContextCancellation(t *testing.T) {
	inv := testutil.NewScriptedInvoker()
	r := newTestRunner(t, inv, func(o *Options) { o.MaxConcurrentRuns = -1 })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runID, result, err := r.Submit(ctx, core.OrchestrationRequest{
		Query: "need a drill", UserID: "u-1",
	})
	require.NoError(t, err)
	assert.Empty(t, result.Outputs)

	snap, err := r.Status(runID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusFailed, snap.Status)
}

func TestRunStoreEvict(t *testing.T) {
	store := newRunStore()

	finished := core.NewRun(core.OrchestrationRequest{})
	finished.Finalize(core.StatusCompleted, "")
	store.add(finished)

	inFlight := core.NewRun(core.OrchestrationRequest{})
	store.add(inFlight)

	// Nothing is old enough yet.
	assert.Empty(t, store.evict(time.Now(), time.Hour))

	// Past the retention window only finalized runs go.
	evicted := store.evict(time.Now().Add(2*time.Hour), time.Hour)
	assert.Equal(t, []string{finished.ID()}, evicted)

	_, ok := store.get(finished.ID())
	assert.False(t, ok)
	_, ok = store.get(inFlight.ID())
	assert.True(t, ok)
}

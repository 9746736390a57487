package schedule

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEvalTruthResolved(t *testing.T) {
	ctx := EvalContext{ResolvedTruthFactIDs: map[string]bool{"fact-1": true}}
	require.True(t, Eval(TruthResolved("fact-1"), ctx))
	require.False(t, Eval(TruthResolved("fact-2"), ctx))
}

func TestEvalTaskPhase(t *testing.T) {
	ctx := EvalContext{TaskPhase: "done"}
	require.True(t, Eval(TaskPhase("done"), ctx))
	require.False(t, Eval(TaskPhase("execute"), ctx))
}

func TestEvalMaxRuns(t *testing.T) {
	ctx := EvalContext{RunCount: 3}
	require.True(t, Eval(MaxRuns(3), ctx))
	require.True(t, Eval(MaxRuns(2), ctx))
	require.False(t, Eval(MaxRuns(4), ctx))
}

func TestEvalAllOfRequiresEveryChild(t *testing.T) {
	ctx := EvalContext{ResolvedTruthFactIDs: map[string]bool{"a": true}, TaskPhase: "done"}
	require.True(t, Eval(AllOf(TruthResolved("a"), TaskPhase("done")), ctx))
	require.False(t, Eval(AllOf(TruthResolved("a"), TaskPhase("execute")), ctx))
}

func TestEvalAnyOfRequiresOneChild(t *testing.T) {
	ctx := EvalContext{TaskPhase: "execute"}
	require.True(t, Eval(AnyOf(TruthResolved("missing"), TaskPhase("execute")), ctx))
	require.False(t, Eval(AnyOf(TruthResolved("missing"), TaskPhase("done")), ctx))
}

func TestEvalNestedAllOfAnyOf(t *testing.T) {
	ctx := EvalContext{ResolvedTruthFactIDs: map[string]bool{"a": true}, RunCount: 1}
	pred := AllOf(TruthResolved("a"), AnyOf(MaxRuns(5), TaskPhase("done")))
	require.False(t, Eval(pred, ctx))

	ctx.RunCount = 5
	require.True(t, Eval(pred, ctx))
}

func TestEvalUnknownKindIsFalse(t *testing.T) {
	require.False(t, Eval(Predicate{Kind: "bogus"}, EvalContext{}))
}

func TestIntentClonePreservesPointerIndependence(t *testing.T) {
	runAt := int64(100)
	cond := TruthResolved("a")
	i := Intent{IntentID: "x", RunAt: &runAt, ConvergenceCondition: &cond}
	c := i.clone()

	runAt = 200
	cond.FactID = "b"

	require.Equal(t, int64(100), *c.RunAt)
	require.Equal(t, "a", c.ConvergenceCondition.FactID)
}

package replay

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/agentcore/runtime/internal/evidence"
	"github.com/agentcore/runtime/internal/tape"
	"github.com/agentcore/runtime/internal/tasks"
	"github.com/agentcore/runtime/internal/testclock"
	"github.com/agentcore/runtime/internal/truth"
)

func newTestEngine(t *testing.T) (*Engine, *tape.Store) {
	t.Helper()
	dir := t.TempDir()
	store := tape.NewStore(tape.Config{Dir: dir, Enabled: true}, testclock.NewFixed(1000), testclock.NewSeqIDs("evt"))
	return NewEngine(store), store
}

func intPtr(n int) *int { return &n }

func TestReplayEmptyTapeReturnsZeroView(t *testing.T) {
	e, _ := newTestEngine(t)
	v, err := e.Replay("s1")
	require.NoError(t, err)
	require.Equal(t, 0, v.Turn)
	require.Empty(t, v.LatestEventID)
}

func TestReplayFoldsTaskEventsForward(t *testing.T) {
	e, store := newTestEngine(t)
	payload, _ := tape.Payload(tasks.Item{ID: "i1", Status: tasks.ItemTodo})
	_, err := store.Append("s1", "task.item_added", intPtr(1), payload)
	require.NoError(t, err)

	v, err := e.Replay("s1")
	require.NoError(t, err)
	require.Len(t, v.TaskState.Items, 1)
	require.Equal(t, "i1", v.TaskState.Items[0].ID)
	require.Equal(t, 1, v.Turn)
}

func TestReplayFoldsTruthEvents(t *testing.T) {
	e, store := newTestEngine(t)
	payload, _ := tape.Payload(truth.Fact{ID: "f1", Status: truth.StatusActive, Severity: truth.SeverityWarn})
	_, err := store.Append("s1", "truth.fact_upserted", nil, payload)
	require.NoError(t, err)

	v, err := e.Replay("s1")
	require.NoError(t, err)
	require.Len(t, v.TruthState.Facts, 1)
}

func TestReplayFoldsEvidenceEvents(t *testing.T) {
	e, store := newTestEngine(t)
	payload, _ := tape.Payload(evidence.ToolResult{ToolName: "go_build", Verdict: evidence.VerdictFail})
	_, err := store.Append("s1", "evidence.tool_result", intPtr(2), payload)
	require.NoError(t, err)

	v, err := e.Replay("s1")
	require.NoError(t, err)
	require.Equal(t, 1, v.EvidenceState.FailureRecords)
}

func TestReplayIsCachedUntilInvalidated(t *testing.T) {
	e, store := newTestEngine(t)
	payload, _ := tape.Payload(tasks.Item{ID: "i1", Status: tasks.ItemTodo})
	_, err := store.Append("s1", "task.item_added", intPtr(1), payload)
	require.NoError(t, err)

	v1, err := e.Replay("s1")
	require.NoError(t, err)
	require.Len(t, v1.TaskState.Items, 1)

	// Append directly to the tape without observing it: a cached view must
	// not see it until invalidated.
	payload2, _ := tape.Payload(tasks.Item{ID: "i2", Status: tasks.ItemTodo})
	_, err = store.Append("s1", "task.item_added", intPtr(2), payload2)
	require.NoError(t, err)

	v2, err := e.Replay("s1")
	require.NoError(t, err)
	require.Len(t, v2.TaskState.Items, 1, "cached view should not see the unobserved append")

	e.Invalidate("s1")
	v3, err := e.Replay("s1")
	require.NoError(t, err)
	require.Len(t, v3.TaskState.Items, 2)
}

func TestObserveEventIncrementallyUpdatesCachedView(t *testing.T) {
	e, store := newTestEngine(t)
	_, err := e.Replay("s1") // seed an empty cached view
	require.NoError(t, err)

	payload, _ := tape.Payload(tasks.Item{ID: "i1", Status: tasks.ItemTodo})
	id, err := store.Append("s1", "task.item_added", intPtr(1), payload)
	require.NoError(t, err)

	e.ObserveEvent("s1", tape.Record{ID: id, Type: "task.item_added", Turn: intPtr(1), Payload: payload})

	v, err := e.Replay("s1")
	require.NoError(t, err)
	require.Len(t, v.TaskState.Items, 1)
	require.Equal(t, id, v.LatestEventID)
}

func TestObserveEventDropsSilentlyWhenNothingCached(t *testing.T) {
	e, _ := newTestEngine(t)
	// no panic, no-op
	e.ObserveEvent("s1", tape.Record{ID: "x", Type: "task.item_added", Payload: []byte(`{}`)})
}

func TestCheckpointSeedsStateAndSkipsEarlierEvents(t *testing.T) {
	e, store := newTestEngine(t)

	preCheckpoint, _ := tape.Payload(tasks.Item{ID: "stale", Status: tasks.ItemTodo})
	_, err := store.Append("s1", "task.item_added", intPtr(1), preCheckpoint)
	require.NoError(t, err)

	cp := CheckpointPayload{
		Schema: CheckpointType,
		Turn:   5,
		TaskState: tasks.State{
			Items: []tasks.Item{{ID: "from-checkpoint", Status: tasks.ItemDone}},
		},
	}
	cpPayload, _ := tape.Payload(cp)
	_, err = store.Append("s1", CheckpointType, intPtr(5), cpPayload)
	require.NoError(t, err)

	postCheckpoint, _ := tape.Payload(tasks.Item{ID: "fresh", Status: tasks.ItemTodo})
	_, err = store.Append("s1", "task.item_added", intPtr(6), postCheckpoint)
	require.NoError(t, err)

	v, err := e.Replay("s1")
	require.NoError(t, err)
	require.Len(t, v.TaskState.Items, 2)
	ids := []string{v.TaskState.Items[0].ID, v.TaskState.Items[1].ID}
	require.ElementsMatch(t, []string{"from-checkpoint", "fresh"}, ids)
	require.NotContains(t, ids, "stale")
	require.Equal(t, 6, v.Turn)
}

func TestViewCloneIsIndependent(t *testing.T) {
	v := View{TaskState: tasks.State{Items: []tasks.Item{{ID: "i1"}}}}
	clone := v.Clone()
	if diff := cmp.Diff(v, clone); diff != "" {
		t.Fatalf("clone should start identical to the original (-original +clone):\n%s", diff)
	}
	clone.TaskState.Items[0].ID = "mutated"
	require.Equal(t, "i1", v.TaskState.Items[0].ID)
}

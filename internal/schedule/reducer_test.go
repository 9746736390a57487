package schedule

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReduceIntentCreatedInsertsActive(t *testing.T) {
	state := Fold([]Event{
		{Type: "intent_created", Timestamp: 100, Payload: EventPayload{
			IntentID: "i1", Cron: "0 * * * *", MaxRuns: 5,
		}},
	})
	i, ok := state.Intents["i1"]
	require.True(t, ok)
	require.Equal(t, StatusActive, i.Status)
	require.Equal(t, 0, i.RunCount)
	require.Equal(t, "0 * * * *", i.Cron)
	require.Equal(t, int64(100), i.UpdatedAt)
}

func TestReduceIntentUpdatedPatchesOnlySetFields(t *testing.T) {
	state := Fold([]Event{
		{Type: "intent_created", Timestamp: 100, Payload: EventPayload{IntentID: "i1", Cron: "0 * * * *", TimeZone: "UTC", MaxRuns: 5}},
		{Type: "intent_updated", Timestamp: 200, Payload: EventPayload{IntentID: "i1", Cron: "30 * * * *"}},
	})
	i := state.Intents["i1"]
	require.Equal(t, "30 * * * *", i.Cron)
	require.Equal(t, "UTC", i.TimeZone)
	require.Equal(t, 5, i.MaxRuns)
	require.Equal(t, int64(200), i.UpdatedAt)
}

func TestReduceIntentUpdatedOnUnknownIntentIsNoop(t *testing.T) {
	state := Fold([]Event{
		{Type: "intent_updated", Timestamp: 200, Payload: EventPayload{IntentID: "missing", Cron: "30 * * * *"}},
	})
	require.Empty(t, state.Intents)
}

func TestReduceIntentCancelled(t *testing.T) {
	state := Fold([]Event{
		{Type: "intent_created", Timestamp: 100, Payload: EventPayload{IntentID: "i1"}},
		{Type: "intent_cancelled", Timestamp: 150, Payload: EventPayload{IntentID: "i1"}},
	})
	require.Equal(t, StatusCancelled, state.Intents["i1"].Status)
}

func TestReduceIntentFiredIncrementsRunCountAndSetsNextRunAt(t *testing.T) {
	next := int64(5000)
	state := Fold([]Event{
		{Type: "intent_created", Timestamp: 100, Payload: EventPayload{IntentID: "i1"}},
		{Type: "intent_fired", Timestamp: 200, Payload: EventPayload{IntentID: "i1", NextRunAt: &next}},
	})
	i := state.Intents["i1"]
	require.Equal(t, 1, i.RunCount)
	require.Equal(t, &next, i.NextRunAt)

	state = Reduce(state, Event{Type: "intent_fired", Timestamp: 300, Payload: EventPayload{IntentID: "i1"}})
	require.Equal(t, 2, state.Intents["i1"].RunCount)
	require.Nil(t, state.Intents["i1"].NextRunAt)
}

func TestReduceIntentConverged(t *testing.T) {
	state := Fold([]Event{
		{Type: "intent_created", Timestamp: 100, Payload: EventPayload{IntentID: "i1"}},
		{Type: "intent_converged", Timestamp: 150, Payload: EventPayload{IntentID: "i1"}},
	})
	require.Equal(t, StatusConverged, state.Intents["i1"].Status)
}

func TestActiveIntentsExcludesTerminalStatuses(t *testing.T) {
	state := Fold([]Event{
		{Type: "intent_created", Timestamp: 100, Payload: EventPayload{IntentID: "i1"}},
		{Type: "intent_created", Timestamp: 100, Payload: EventPayload{IntentID: "i2"}},
		{Type: "intent_cancelled", Timestamp: 150, Payload: EventPayload{IntentID: "i2"}},
	})
	active := ActiveIntents(state)
	require.Len(t, active, 1)
	require.Equal(t, "i1", active[0].IntentID)
}

func TestStateCloneIsIndependentOfOriginal(t *testing.T) {
	runAt := int64(10)
	state := State{Intents: map[string]Intent{"i1": {IntentID: "i1", RunAt: &runAt}}}
	clone := state.Clone()

	runAt = 20
	clone.Intents["i1"] = Intent{IntentID: "i1-mutated"}

	require.Equal(t, int64(10), *state.Intents["i1"].RunAt)
	require.Equal(t, "i1", state.Intents["i1"].IntentID)
}

package schedule

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentcore/runtime/internal/testclock"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "schedule.jsonl")
	return NewStore(path, testclock.NewFixed(1000)), path
}

func TestStoreLoadMissingFileReturnsEmptyState(t *testing.T) {
	s, _ := newTestStore(t)
	watermark, state, err := s.Load()
	require.NoError(t, err)
	require.Zero(t, watermark)
	require.Empty(t, state.Intents)
}

func TestStoreRewriteThenLoadRoundTrips(t *testing.T) {
	s, path := newTestStore(t)
	state := Fold([]Event{
		{Type: "intent_created", Timestamp: 100, Payload: EventPayload{IntentID: "i1", Cron: "0 * * * *", MaxRuns: 3}},
	})
	require.NoError(t, s.Rewrite(42, state))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"schema":"schedule.projection.v1"`)
	require.Contains(t, string(data), `"kind":"meta"`)
	require.Contains(t, string(data), `"kind":"intent"`)

	watermark, loaded, err := s.Load()
	require.NoError(t, err)
	require.Equal(t, int64(42), watermark)
	require.Len(t, loaded.Intents, 1)
	require.Equal(t, "0 * * * *", loaded.Intents["i1"].Cron)
}

func TestStoreRewriteOmitsNonActiveIntents(t *testing.T) {
	s, _ := newTestStore(t)
	state := Fold([]Event{
		{Type: "intent_created", Timestamp: 100, Payload: EventPayload{IntentID: "i1"}},
		{Type: "intent_created", Timestamp: 100, Payload: EventPayload{IntentID: "i2"}},
		{Type: "intent_converged", Timestamp: 150, Payload: EventPayload{IntentID: "i2"}},
	})
	require.NoError(t, s.Rewrite(10, state))

	_, loaded, err := s.Load()
	require.NoError(t, err)
	require.Len(t, loaded.Intents, 1)
	_, ok := loaded.Intents["i1"]
	require.True(t, ok)
}

func TestStoreRewriteIsAtomicReplaceNotAppend(t *testing.T) {
	s, _ := newTestStore(t)
	first := Fold([]Event{{Type: "intent_created", Timestamp: 100, Payload: EventPayload{IntentID: "i1"}}})
	require.NoError(t, s.Rewrite(1, first))

	second := Fold([]Event{{Type: "intent_created", Timestamp: 100, Payload: EventPayload{IntentID: "i2"}}})
	require.NoError(t, s.Rewrite(2, second))

	watermark, loaded, err := s.Load()
	require.NoError(t, err)
	require.Equal(t, int64(2), watermark)
	require.Len(t, loaded.Intents, 1)
	_, ok := loaded.Intents["i2"]
	require.True(t, ok)
}

func TestStoreRecoverFoldsEventsAfterWatermarkAndRewrites(t *testing.T) {
	s, _ := newTestStore(t)
	base := Fold([]Event{{Type: "intent_created", Timestamp: 100, Payload: EventPayload{IntentID: "i1"}}})
	require.NoError(t, s.Rewrite(5, base))

	newEvents := []Event{
		{Type: "intent_fired", Timestamp: 200, Payload: EventPayload{IntentID: "i1"}},
		{Type: "intent_created", Timestamp: 210, Payload: EventPayload{IntentID: "i2"}},
	}
	recovered, err := s.Recover(newEvents, 7)
	require.NoError(t, err)
	require.Equal(t, 1, recovered.Intents["i1"].RunCount)
	require.Contains(t, recovered.Intents, "i2")

	watermark, loaded, err := s.Load()
	require.NoError(t, err)
	require.Equal(t, int64(7), watermark)
	require.Equal(t, 1, loaded.Intents["i1"].RunCount)
}

func TestStoreLoadSkipsCorruptLines(t *testing.T) {
	s, path := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	content := "{\"schema\":\"schedule.projection.v1\",\"kind\":\"meta\",\"generatedAt\":1,\"watermarkOffset\":3}\n" +
		"not-json\n" +
		"{\"schema\":\"schedule.projection.v1\",\"kind\":\"intent\",\"record\":{\"intentId\":\"i1\",\"status\":\"active\"}}\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	watermark, state, err := s.Load()
	require.NoError(t, err)
	require.Equal(t, int64(3), watermark)
	require.Len(t, state.Intents, 1)
}

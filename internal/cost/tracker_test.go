package cost

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecordAssistantUsageAggregatesModelAndSkill(t *testing.T) {
	tr := NewTracker(Config{}, t.TempDir())
	tr.RecordAssistantUsage(Usage{Model: "m1", Skill: "review", Turn: 1, InputTokens: 100, OutputTokens: 50, CostUsd: 0.01})
	tr.RecordAssistantUsage(Usage{Model: "m1", Skill: "review", Turn: 1, InputTokens: 10, OutputTokens: 5, CostUsd: 0.001})

	sum := tr.Summary()
	require.Equal(t, int64(165), sum.TotalTokens)
	require.Equal(t, 1, sum.Skills["review"].Turns, "same-turn updates must not double count turns")
	require.Equal(t, 2, sum.Skills["review"].UsageCount)
}

func TestRecordAssistantUsageCountsDistinctTurnsOnly(t *testing.T) {
	tr := NewTracker(Config{}, t.TempDir())
	tr.RecordAssistantUsage(Usage{Model: "m1", Skill: "review", Turn: 1, InputTokens: 1})
	tr.RecordAssistantUsage(Usage{Model: "m1", Skill: "review", Turn: 2, InputTokens: 1})
	sum := tr.Summary()
	require.Equal(t, 2, sum.Skills["review"].Turns)
}

func TestBudgetWarnThenBlock(t *testing.T) {
	tr := NewTracker(Config{ActionOnExceed: ActionBlockTools, MaxCostUsdPerSession: 1.0, WarnThresholdUsd: 0.5}, t.TempDir())
	tr.RecordAssistantUsage(Usage{Model: "m1", CostUsd: 0.6})
	require.False(t, tr.ShouldBlockTools())
	sum := tr.Summary()
	require.NotEmpty(t, sum.Alerts)

	tr.RecordAssistantUsage(Usage{Model: "m1", CostUsd: 0.6})
	require.True(t, tr.ShouldBlockTools())
}

func TestSkillCapExceeded(t *testing.T) {
	tr := NewTracker(Config{ActionOnExceed: ActionBlockTools, MaxCostUsdPerSkill: 0.1}, t.TempDir())
	tr.RecordAssistantUsage(Usage{Model: "m1", Skill: "patching", CostUsd: 0.2})
	require.True(t, tr.Summary().Budget.SkillExceeded)
	require.True(t, tr.ShouldBlockTools())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	tr := NewTracker(Config{}, dir)
	tr.RecordAssistantUsage(Usage{Model: "m1", Skill: "s", Turn: 1, InputTokens: 5})
	require.NoError(t, tr.Save())

	tr2 := NewTracker(Config{}, dir)
	require.NoError(t, tr2.Load())
	require.Equal(t, tr.Summary().TotalTokens, tr2.Summary().TotalTokens)
}

func TestActionWarnNeverBlocks(t *testing.T) {
	tr := NewTracker(Config{ActionOnExceed: ActionWarn, MaxCostUsdPerSession: 0.01}, t.TempDir())
	tr.RecordAssistantUsage(Usage{Model: "m1", CostUsd: 1})
	require.True(t, tr.Summary().Budget.SessionExceeded)
	require.False(t, tr.ShouldBlockTools())
}

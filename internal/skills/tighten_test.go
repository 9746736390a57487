package skills

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func baseContract() Contract {
	return Contract{
		Name: "deploy", Tier: TierBase,
		Tools:    ToolPolicy{Required: []string{"git"}, Optional: []string{"docker", "kubectl"}, Denied: []string{"rm"}},
		Budget:   Budget{MaxToolCalls: 20, MaxTokens: 5000},
		Dispatch: DispatchPolicy{GateThreshold: 10, AutoThreshold: 20, DefaultMode: ModeSuggest},
	}
}

func TestTightenDeniedOnlyGrows(t *testing.T) {
	base := baseContract()
	override := Contract{Name: "deploy", Tier: TierProject, Tools: ToolPolicy{Denied: []string{"docker"}}}
	out := Tighten(base, override)
	require.ElementsMatch(t, []string{"rm", "docker"}, out.Tools.Denied)
}

func TestTightenOptionalCannotSmuggleDeniedTool(t *testing.T) {
	base := baseContract()
	override := Contract{Name: "deploy", Tier: TierProject, Tools: ToolPolicy{Optional: []string{"docker", "kubectl", "rm"}}}
	out := Tighten(base, override)
	require.NotContains(t, out.Tools.Optional, "rm")
}

func TestTightenRequiredFilteredToBaseAllowed(t *testing.T) {
	base := baseContract()
	override := Contract{Name: "deploy", Tier: TierProject, Tools: ToolPolicy{Required: []string{"git", "docker", "newtool"}}}
	out := Tighten(base, override)
	require.ElementsMatch(t, []string{"git", "docker"}, out.Tools.Required)
}

func TestTightenBudgetsArePointwiseMinimum(t *testing.T) {
	base := baseContract()
	override := Contract{Name: "deploy", Tier: TierProject, Budget: Budget{MaxToolCalls: 5, MaxTokens: 8000}}
	out := Tighten(base, override)
	require.Equal(t, 5, out.Budget.MaxToolCalls)
	require.Equal(t, 5000, out.Budget.MaxTokens) // override's 8000 would relax, so base's lower value wins
}

func TestTightenDispatchThresholdsCanOnlyRise(t *testing.T) {
	base := baseContract()
	override := Contract{Name: "deploy", Tier: TierProject, Dispatch: DispatchPolicy{GateThreshold: 5, AutoThreshold: 30}}
	out := Tighten(base, override)
	require.Equal(t, 10.0, out.Dispatch.GateThreshold) // lower override ignored
	require.Equal(t, 30.0, out.Dispatch.AutoThreshold)
}

func TestTightenAutoThresholdRenormalizedAboveGate(t *testing.T) {
	base := baseContract()
	override := Contract{Name: "deploy", Tier: TierProject, Dispatch: DispatchPolicy{GateThreshold: 25}}
	out := Tighten(base, override)
	require.GreaterOrEqual(t, out.Dispatch.AutoThreshold, out.Dispatch.GateThreshold)
}

func TestTightenTriggerFieldsAllOrNothing(t *testing.T) {
	base := Contract{Name: "x", Triggers: Triggers{Intents: []string{"a", "b"}, Topics: []string{"t1"}}}
	override := Contract{Name: "x", Triggers: Triggers{Intents: []string{"only-this"}}}
	out := Tighten(base, override)
	require.Equal(t, []string{"only-this"}, out.Triggers.Intents)
	require.Equal(t, []string{"t1"}, out.Triggers.Topics) // untouched field inherits
}

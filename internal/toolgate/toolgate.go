// Package toolgate implements the Tool Gate: the ordered per-tool-call
// evaluation of the compaction gate, dispatch gate, active-skill denylist,
// per-skill budgets, and session cost budget.
package toolgate

import (
	"fmt"

	"github.com/agentcore/runtime/internal/corelog"
	"github.com/agentcore/runtime/internal/pressure"
	"github.com/agentcore/runtime/internal/skills"
)

// SecurityMode governs how the dispatch gate reacts to an unresolved
// skill-routing decision.
type SecurityMode string

const (
	SecurityStrict     SecurityMode = "strict"
	SecurityStandard   SecurityMode = "standard"
	SecurityPermissive SecurityMode = "permissive"
)

// Machine-readable denial events. Every gate that denies a
// tool call reports one of these three; EventSkillDispatchGateBlockedTool
// also covers the removed-tool hard block and the per-skill denylist/budget
// checks, since all three are skill-dispatch-scoped denials.
const (
	EventSkillDispatchGateBlockedTool     = "skill_dispatch_gate_blocked_tool"
	EventContextCompactionGateBlockedTool = "context_compaction_gate_blocked_tool"
	EventCostBudgetBlockedTool            = "cost_budget_blocked_tool"
)

// removedTools always deny, independent of every other gate, with a
// migration hint pointing at the replacement surface.
var removedTools = map[string]string{
	"bash":  "use a scoped tool (fs_read/fs_write/run_tests) instead of bash",
	"shell": "use a scoped tool (fs_read/fs_write/run_tests) instead of shell",
}

// LifecycleTools always bypass the compaction and dispatch gates: they are
// the tools that escape a gate (skill_load, skill_route_override) or the
// small ledger/tape read surface a stuck turn still needs.
var LifecycleTools = map[string]bool{
	"skill_load":           true,
	"skill_route_override": true,
	"tape_show":            true,
	"ledger_status":        true,
	"schedule_list":        true,
}

// DispatchGateState is the per-turn state of the skill dispatch gate: armed
// when the resolver picked gate/auto mode and no skill has been loaded yet.
type DispatchGateState struct {
	Mode              skills.DispatchMode
	RecommendedSkill  string
	SkillLoaded       bool
	LoadedSkillName   string
	Overridden        bool
	AlreadyReconciled bool
}

// Armed reports whether the dispatch gate currently blocks non-lifecycle
// tools.
func (s DispatchGateState) Armed() bool {
	return (s.Mode == skills.ModeGate || s.Mode == skills.ModeAuto) && !s.SkillLoaded
}

// SkillUsage tracks one active skill's consumption against its budget.
type SkillUsage struct {
	ToolCalls  int
	TokensUsed int
}

// Input bundles everything Evaluate needs to decide one tool call.
type Input struct {
	Tool string

	PressureGate pressure.GateStatus
	Breaker      *pressure.Breaker
	UsageRatio   float64
	Thresholds   pressure.Thresholds

	Dispatch     DispatchGateState
	SecurityMode SecurityMode

	ActiveSkillName     string
	ActiveSkillDenylist map[string]bool
	ActiveSkillBudget   *skills.Budget
	SkillUsage          SkillUsage

	CostBlocked bool
}

// Decision is the gate's verdict for one tool call.
type Decision struct {
	Allow         bool
	Reason        string
	Event         string
	MigrationHint string
	Blocked       *pressure.BlockedToolEvent
}

// Evaluate runs the five ordered checks against in and returns the
// first one that denies, or an allow decision if none do.
func Evaluate(in Input) Decision {
	log := corelog.Get(corelog.CategoryToolGate)

	if hint, removed := removedTools[in.Tool]; removed {
		log.Warn("denied removed tool %s", in.Tool)
		return Decision{Allow: false, Reason: "tool_removed", Event: EventSkillDispatchGateBlockedTool, MigrationHint: hint}
	}

	// 1. Compaction gate.
	if blocked, allowed := pressure.EvaluateToolGate(in.Tool, LifecycleTools, in.PressureGate, in.Breaker, in.UsageRatio, in.Thresholds); !allowed {
		return Decision{Allow: false, Reason: "compaction_gate", Event: EventContextCompactionGateBlockedTool, Blocked: blocked}
	}

	// 2. Dispatch gate.
	allow := Decision{Allow: true}
	if !LifecycleTools[in.Tool] && in.Dispatch.Armed() {
		switch in.SecurityMode {
		case SecurityStrict:
			return Decision{Allow: false, Reason: "skill_load required before non-lifecycle tools", Event: EventSkillDispatchGateBlockedTool}
		case SecurityStandard:
			allow = Decision{Allow: true, Reason: "dispatch_gate_warning", Event: "skill_dispatch_gate_warning"}
		default: // permissive: allow silently
		}
	}

	// 3. Active-skill denylist.
	if in.ActiveSkillDenylist[in.Tool] {
		return Decision{Allow: false, Reason: fmt.Sprintf("denied_by_active_skill:%s:%s", in.ActiveSkillName, in.Tool), Event: EventSkillDispatchGateBlockedTool}
	}

	// 4. Per-skill budgets.
	if in.ActiveSkillBudget != nil {
		if in.ActiveSkillBudget.MaxToolCalls > 0 && in.SkillUsage.ToolCalls >= in.ActiveSkillBudget.MaxToolCalls {
			return Decision{Allow: false, Reason: fmt.Sprintf("skill_tool_call_budget_exceeded:%d", in.ActiveSkillBudget.MaxToolCalls), Event: EventSkillDispatchGateBlockedTool}
		}
		if in.ActiveSkillBudget.MaxTokens > 0 && in.SkillUsage.TokensUsed >= in.ActiveSkillBudget.MaxTokens {
			return Decision{Allow: false, Reason: fmt.Sprintf("skill_token_budget_exceeded:%d", in.ActiveSkillBudget.MaxTokens), Event: EventSkillDispatchGateBlockedTool}
		}
	}

	// 5. Session-wide cost budget.
	if in.CostBlocked {
		return Decision{Allow: false, Reason: "session_cost_budget_exceeded", Event: EventCostBudgetBlockedTool}
	}

	return allow
}

// ReconcileEndOfTurn computes the dispatch-gate reconciliation event fired at
// end of turn: skill_routing_overridden if skill_route_override cleared the
// gate, skill_routing_followed if skill_load loaded the recommended skill,
// or skill_routing_ignored if the gate was armed and never resolved at all.
func ReconcileEndOfTurn(state DispatchGateState) (event string, fire bool) {
	if state.AlreadyReconciled {
		return "", false
	}
	if state.Mode != skills.ModeGate && state.Mode != skills.ModeAuto {
		return "", false
	}
	switch {
	case state.Overridden:
		return "skill_routing_overridden", true
	case state.SkillLoaded:
		if state.RecommendedSkill != "" && state.LoadedSkillName == state.RecommendedSkill {
			return "skill_routing_followed", true
		}
		return "", false
	default:
		return "skill_routing_ignored", true
	}
}

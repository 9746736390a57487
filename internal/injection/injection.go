// Package injection implements the Context Injection Orchestrator: the
// per-turn sequence that registers candidate blocks into the Context Arena,
// plans a bounded injection, and emits context_injected or
// context_injection_dropped.
package injection

import (
	"github.com/agentcore/runtime/internal/arena"
	"github.com/agentcore/runtime/internal/corelog"
)

// Drop reasons.
const (
	ReasonHardLimit       = "hard_limit"
	ReasonBudgetExhausted = "budget_exhausted"
	ReasonDuplicate       = "duplicate_content"
	ReasonUnknown         = "unknown"
)

// Blocks carries the pre-rendered text for each registered candidate. The
// orchestrator only sequences registration, planning, and dedupe; assembling
// the actual text of each block (reading the truth ledger, formatting a
// skill's trigger match, rendering recent tool failures) is the caller's
// responsibility; each block is named as an input to the assembly sequence
// rather than something the orchestrator computes itself.
type Blocks struct {
	IdentityText          string
	TruthLedgerText       string
	DynamicTruthFactsText string
	SkillCandidateText    string
	DispatchGateText      string
	ToolFailuresText      string
	TaskStateText         string
	HasActiveTruthFacts   bool
	ToolFailuresEnabled   bool
	HasTaskStateContent   bool
}

// Input is one turn's call into the orchestrator.
type Input struct {
	SessionID        string
	Prompt           string
	Usage            float64
	InjectionScopeID string
	Blocks           Blocks
}

// Result is the outcome of BuildContextInjection.
type Result struct {
	Accepted        bool
	Text            string
	EstimatedTokens int
	Reason          string // set when !Accepted
	Telemetry       arena.PlanTelemetry
	ConsumedKeys    []arena.Key
	ReservedTokens  int // the session's reserved-token count after this call
}

// Orchestrator sequences arena registration, planning, a second budget
// recheck, and fingerprint dedupe for one session's per-turn injection.
type Orchestrator struct {
	Arena *arena.Arena
	log   *corelog.Logger

	// BudgetManagerEnabled gates whether Plan receives MaxInjectionTokens or
	// an effectively unbounded budget.
	BudgetManagerEnabled bool
	MaxInjectionTokens   int

	// GlobalPerTurnBudget is the ContextBudgetManager's independent re-check
	// cap. Zero disables the re-check.
	GlobalPerTurnBudget int

	// IsHardLimit reports whether usageRatio is at or beyond the pressure
	// hard limit, in which case injection is refused outright.
	IsHardLimit func(usageRatio float64) bool
}

// New constructs an Orchestrator bound to a.
func New(a *arena.Arena) *Orchestrator {
	return &Orchestrator{Arena: a, log: corelog.Get(corelog.CategoryInjection)}
}

const unboundedBudget = 1 << 30

// BuildContextInjection runs the nine-step register/plan/rebudget/dedupe
// sequence and returns the accepted injection text or a drop reason.
func (o *Orchestrator) BuildContextInjection(in Input) Result {
	if o.Arena == nil {
		return Result{Accepted: false, Reason: ReasonUnknown}
	}

	// 1. Identity (once per session), truth ledger (once per session),
	// dynamic truth facts (every turn while active facts exist).
	if in.Blocks.IdentityText != "" {
		o.Arena.Append(in.SessionID, arena.AppendInput{
			Source: string(arena.ZoneIdentity), ID: "static",
			Content: in.Blocks.IdentityText, Priority: arena.PriorityCritical, OncePerSession: true,
		})
	}
	if in.Blocks.TruthLedgerText != "" {
		o.Arena.Append(in.SessionID, arena.AppendInput{
			Source: string(arena.ZoneTruth), ID: "ledger",
			Content: in.Blocks.TruthLedgerText, Priority: arena.PriorityHigh, OncePerSession: true,
		})
	}
	if in.Blocks.HasActiveTruthFacts && in.Blocks.DynamicTruthFactsText != "" {
		o.Arena.Append(in.SessionID, arena.AppendInput{
			Source: string(arena.ZoneTruth), ID: "dynamic",
			Content: in.Blocks.DynamicTruthFactsText, Priority: arena.PriorityHigh,
		})
	}

	// 3. Skill candidate / dispatch-gate blocks. Step 2, task status
	// alignment, is an external side effect the caller performs
	// before invoking BuildContextInjection so its result can also drive
	// Blocks.TaskStateText; the orchestrator itself only registers the
	// rendered block.
	if in.Blocks.SkillCandidateText != "" {
		o.Arena.Append(in.SessionID, arena.AppendInput{
			Source: "skill_candidate", ID: "candidate",
			Content: in.Blocks.SkillCandidateText, Priority: arena.PriorityNormal,
		})
	}
	if in.Blocks.DispatchGateText != "" {
		o.Arena.Append(in.SessionID, arena.AppendInput{
			Source: "dispatch_gate", ID: "gate",
			Content: in.Blocks.DispatchGateText, Priority: arena.PriorityNormal,
		})
	}

	// 4. Recent tool failures, when enabled.
	if in.Blocks.ToolFailuresEnabled && in.Blocks.ToolFailuresText != "" {
		o.Arena.Append(in.SessionID, arena.AppendInput{
			Source: string(arena.ZoneToolFailures), ID: "recent",
			Content: in.Blocks.ToolFailuresText, Priority: arena.PriorityNormal,
		})
	}

	// 5. Task-state block, when the task has content.
	if in.Blocks.HasTaskStateContent && in.Blocks.TaskStateText != "" {
		o.Arena.Append(in.SessionID, arena.AppendInput{
			Source: string(arena.ZoneTaskState), ID: "state",
			Content: in.Blocks.TaskStateText, Priority: arena.PriorityNormal,
		})
	}

	// 6. Plan.
	budget := unboundedBudget
	if o.BudgetManagerEnabled {
		budget = o.MaxInjectionTokens
	}
	planResult := o.Arena.Plan(in.SessionID, budget)
	if planResult.Reason == "floor_unmet" {
		o.log.Warn("injection dropped for session %s: budget_exhausted", in.SessionID)
		return Result{Accepted: false, Reason: ReasonBudgetExhausted, Telemetry: planResult.Telemetry}
	}

	// 7. ContextBudgetManager re-check: a hard-limit veto, then a further
	// truncation against an independent global per-turn cap.
	if o.IsHardLimit != nil && o.IsHardLimit(in.Usage) {
		o.log.Warn("injection dropped for session %s: hard_limit", in.SessionID)
		return Result{Accepted: false, Reason: ReasonHardLimit, Telemetry: planResult.Telemetry}
	}

	text := planResult.Text
	if text == "" && planResult.Telemetry.CandidateCount > 0 {
		return Result{Accepted: false, Reason: ReasonBudgetExhausted, Telemetry: planResult.Telemetry}
	}
	if o.GlobalPerTurnBudget > 0 && arena.EstimateTokens(text) > o.GlobalPerTurnBudget {
		text = arena.TruncateToTokenBudget(text, o.GlobalPerTurnBudget)
	}

	// 8. Fingerprint dedupe. A duplicate drop resets reserved tokens to zero
	// since the previously reserved injection was not replaced by anything new.
	fingerprint := arena.Fingerprint(text)
	if last, ok := o.Arena.LastFingerprint(in.SessionID, in.InjectionScopeID); ok && last == fingerprint {
		o.log.Debug("injection dropped for session %s: duplicate_content", in.SessionID)
		o.Arena.SetReservedTokens(in.SessionID, in.InjectionScopeID, 0)
		return Result{Accepted: false, Reason: ReasonDuplicate, Telemetry: planResult.Telemetry, ReservedTokens: 0}
	}

	// 9. Mark presented, store the fingerprint, update reserved-token
	// accounting to the accepted injection's size, accept.
	o.Arena.MarkPresented(in.SessionID, planResult.ConsumedKeys)
	o.Arena.StoreFingerprint(in.SessionID, in.InjectionScopeID, fingerprint)
	estimatedTokens := arena.EstimateTokens(text)
	o.Arena.SetReservedTokens(in.SessionID, in.InjectionScopeID, estimatedTokens)

	return Result{
		Accepted:        true,
		Text:            text,
		EstimatedTokens: estimatedTokens,
		Telemetry:       planResult.Telemetry,
		ConsumedKeys:    planResult.ConsumedKeys,
		ReservedTokens:  estimatedTokens,
	}
}

// Package pressure implements context-pressure classification and the
// compaction circuit breaker.
package pressure

import "github.com/agentcore/runtime/internal/corelog"

// Level is a coarse classification of observed token-usage ratio.
type Level string

const (
	LevelNone     Level = "none"
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

// Thresholds configures the pressure-level and gate boundaries.
type Thresholds struct {
	HardLimit           float64 // default 0.8
	CompactionThreshold float64 // default 0.7
}

// DefaultThresholds matches the spec's stated defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{HardLimit: 0.8, CompactionThreshold: 0.7}
}

// Classify maps a usage ratio (consumed/window) to a pressure level:
// none < 0.5 <= low < 0.7 <= medium < hardLimit <= high < 1.0 <= critical.
func Classify(usageRatio float64, th Thresholds) Level {
	switch {
	case usageRatio >= 1.0:
		return LevelCritical
	case usageRatio >= th.HardLimit:
		return LevelHigh
	case usageRatio >= 0.7:
		return LevelMedium
	case usageRatio >= 0.5:
		return LevelLow
	default:
		return LevelNone
	}
}

// GateReason names why the compaction gate is currently armed.
type GateReason string

const (
	ReasonNone           GateReason = ""
	ReasonHardLimit      GateReason = "hard_limit"
	ReasonUsagePressure  GateReason = "usage_pressure"
	ReasonPendingRequest GateReason = "pending_request"
	ReasonCircuitOpen    GateReason = "circuit_open"
)

// GateStatus is the derived compaction-gate state for a turn.
type GateStatus struct {
	Required bool
	Reason   GateReason
	Level    Level
}

// DeriveGateStatus computes gate status from the latest observed usage ratio
// and whether a compaction request is still pending.
func DeriveGateStatus(usageRatio float64, th Thresholds, compactionPending bool) GateStatus {
	level := Classify(usageRatio, th)
	switch {
	case level == LevelCritical:
		return GateStatus{Required: true, Reason: ReasonHardLimit, Level: level}
	case level == LevelHigh:
		return GateStatus{Required: true, Reason: ReasonUsagePressure, Level: level}
	case compactionPending && usageRatio >= th.CompactionThreshold:
		return GateStatus{Required: true, Reason: ReasonPendingRequest, Level: level}
	default:
		return GateStatus{Required: false, Reason: ReasonNone, Level: level}
	}
}

// Breaker is the consecutive-failure circuit breaker over compaction
// attempts: queue a request, observe success/failure, open after
// maxConsecutiveFailures, close after cooldownTurns elapse or on success.
type Breaker struct {
	MaxConsecutiveFailures int
	CooldownTurns          int

	consecutiveFailures int
	open                bool
	cooldownRemaining    int
	log                  *corelog.Logger
}

// NewBreaker constructs a Breaker with the given thresholds.
func NewBreaker(maxConsecutiveFailures, cooldownTurns int) *Breaker {
	return &Breaker{MaxConsecutiveFailures: maxConsecutiveFailures, CooldownTurns: cooldownTurns, log: corelog.Get(corelog.CategoryPressure)}
}

// Event is an emitted breaker transition.
type Event struct {
	Kind string // "context_compaction_breaker_opened" | "context_compaction_breaker_closed"
}

// IsOpen reports whether the breaker currently blocks compaction gating.
func (b *Breaker) IsOpen() bool { return b.open }

// RecordFailure registers a missing or errored compaction attempt. It
// returns an Event if this call opened the breaker.
func (b *Breaker) RecordFailure() *Event {
	b.consecutiveFailures++
	if !b.open && b.consecutiveFailures >= b.MaxConsecutiveFailures {
		b.open = true
		b.cooldownRemaining = b.CooldownTurns
		b.log.Warn("compaction breaker opened after %d consecutive failures", b.consecutiveFailures)
		return &Event{Kind: "context_compaction_breaker_opened"}
	}
	return nil
}

// RecordSuccess registers a successful compaction. It always resets the
// failure counter and closes the breaker if it was open, returning an Event
// on that transition.
func (b *Breaker) RecordSuccess() *Event {
	b.consecutiveFailures = 0
	if b.open {
		b.open = false
		b.cooldownRemaining = 0
		b.log.Info("compaction breaker closed on successful compaction")
		return &Event{Kind: "context_compaction_breaker_closed"}
	}
	return nil
}

// Tick advances the cooldown by one turn while the breaker is open. It
// returns an Event if cooldown elapsed and the breaker closed.
func (b *Breaker) Tick() *Event {
	if !b.open {
		return nil
	}
	b.cooldownRemaining--
	if b.cooldownRemaining <= 0 {
		b.open = false
		b.consecutiveFailures = 0
		b.log.Info("compaction breaker closed after cooldown elapsed")
		return &Event{Kind: "context_compaction_breaker_closed"}
	}
	return nil
}

// BlockedToolEvent is the payload for a denial caused by the compaction gate.
type BlockedToolEvent struct {
	BlockedTool      string
	Reason           GateReason
	UsagePercent     float64
	HardLimitPercent float64
}

// EvaluateToolGate decides whether a non-lifecycle tool call should be
// denied this turn, given the gate status and the breaker state.
func EvaluateToolGate(tool string, lifecycleTools map[string]bool, status GateStatus, breaker *Breaker, usageRatio float64, th Thresholds) (*BlockedToolEvent, bool) {
	if lifecycleTools[tool] {
		return nil, true
	}
	if breaker != nil && breaker.IsOpen() {
		return &BlockedToolEvent{BlockedTool: tool, Reason: ReasonCircuitOpen, UsagePercent: usageRatio * 100, HardLimitPercent: th.HardLimit * 100}, false
	}
	if !status.Required {
		return nil, true
	}
	return &BlockedToolEvent{BlockedTool: tool, Reason: status.Reason, UsagePercent: usageRatio * 100, HardLimitPercent: th.HardLimit * 100}, false
}

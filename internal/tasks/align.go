package tasks

import (
	"fmt"
	"sort"
	"strings"
)

// VerificationOutcome is the result of running the task's configured
// verification commands once every item reaches done.
type VerificationOutcome struct {
	Passed          bool
	MissingEvidence string
}

// AlignInput bundles the five inputs the status classifier reads.
type AlignInput struct {
	Spec               *Spec
	Blockers           []Blocker
	Items              []Item
	Verification       VerificationOutcome
	UsageRatio         float64
	HighUsageThreshold float64
	TruthFactIDs       []string
	Now                int64
}

// AlignStatus is the deterministic classifier of : it never
// consults anything beyond its inputs, so identical inputs always produce
// the identical Status.
func AlignStatus(in AlignInput) Status {
	phase, health, reason := classify(in)

	factIDs := append([]string(nil), in.TruthFactIDs...)
	sort.Strings(factIDs)

	if health == HealthOK && in.UsageRatio >= in.HighUsageThreshold && in.HighUsageThreshold > 0 {
		health = HealthBudgetPressure
		reason = fmt.Sprintf("usage=%.2f/%.2f", in.UsageRatio, in.HighUsageThreshold)
	}

	return Status{Phase: phase, Health: health, Reason: reason, UpdatedAt: in.Now, TruthFactIDs: factIDs}
}

func classify(in AlignInput) (Phase, Health, string) {
	if in.Spec == nil {
		return PhaseAlign, HealthNeedsSpec, ""
	}

	if len(in.Blockers) > 0 {
		health := HealthBlocked
		reason := in.Blockers[0].Message
		for _, b := range in.Blockers {
			if strings.HasPrefix(b.ID, "verifier:") {
				health = HealthVerificationFailed
				reason = b.Message
				break
			}
		}
		return PhaseBlocked, health, reason
	}

	if len(in.Items) == 0 {
		return PhaseInvestigate, HealthOK, ""
	}

	open := 0
	for _, item := range in.Items {
		if item.Status != ItemDone {
			open++
		}
	}
	if open > 0 {
		return PhaseExecute, HealthOK, fmt.Sprintf("open_items=%d", open)
	}

	if in.Verification.Passed {
		return PhaseDone, HealthOK, ""
	}
	return PhaseVerify, HealthVerificationFailed, in.Verification.MissingEvidence
}

// StatusChanged reports whether next differs from prev on the fields that
// gate re-emission: phase, health, reason, and the sorted truth-fact id set.
func StatusChanged(prev *Status, next Status) bool {
	if prev == nil {
		return true
	}
	if prev.Phase != next.Phase || prev.Health != next.Health || prev.Reason != next.Reason {
		return true
	}
	if len(prev.TruthFactIDs) != len(next.TruthFactIDs) {
		return true
	}
	for i := range prev.TruthFactIDs {
		if prev.TruthFactIDs[i] != next.TruthFactIDs[i] {
			return true
		}
	}
	return false
}

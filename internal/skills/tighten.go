package skills

import "sort"

// Tighten merges an override contract onto a base contract.
// The result only ever restricts relative to base: denied tools only grow,
// required/optional can only shrink to what base already allowed, budgets
// take the pointwise minimum, and dispatch thresholds can only rise.
func Tighten(base, override Contract) Contract {
	out := base
	out.Name = override.Name
	out.Tier = override.Tier

	if override.Tags != nil {
		out.Tags = override.Tags
	}
	if override.AntiTags != nil {
		out.AntiTags = override.AntiTags
	}
	if override.Outputs != nil {
		out.Outputs = override.Outputs
	}
	if override.ComposableWith != nil {
		out.ComposableWith = override.ComposableWith
	}
	if override.Consumes != nil {
		out.Consumes = override.Consumes
	}
	if override.EscalationPath != "" {
		out.EscalationPath = override.EscalationPath
	}
	if override.MaxParallel != 0 {
		out.MaxParallel = override.MaxParallel
	}
	if override.Stability != "" {
		out.Stability = override.Stability
	}
	if override.CostHint != "" {
		out.CostHint = override.CostHint
	}

	out.Triggers = tightenTriggers(base.Triggers, override.Triggers)
	out.Tools = tightenTools(base.Tools, override.Tools)
	out.Budget = tightenBudget(base.Budget, override.Budget)
	out.Dispatch = tightenDispatch(base.Dispatch, override.Dispatch)

	return out
}

func tightenTriggers(base, override Triggers) Triggers {
	out := base
	if override.Intents != nil {
		out.Intents = override.Intents
	}
	if override.Topics != nil {
		out.Topics = override.Topics
	}
	if override.Phrases != nil {
		out.Phrases = override.Phrases
	}
	if override.Negatives != nil {
		out.Negatives = override.Negatives
	}
	return out
}

// tightenTools normalizes a tier's tool lists against base: required is
// filtered to tools still allowed by base (required ⊆ base.required ∪
// base.optional, minus denied); optional cannot smuggle a denied tool in;
// denied only ever grows.
func tightenTools(base, override ToolPolicy) ToolPolicy {
	deniedSet := toSet(base.Denied)
	for _, t := range override.Denied {
		deniedSet[t] = true
	}
	denied := fromSet(deniedSet)

	baseAllowed := toSet(base.Required)
	for _, t := range base.Optional {
		baseAllowed[t] = true
	}

	candidateRequired := override.Required
	if candidateRequired == nil {
		candidateRequired = base.Required
	}
	var required []string
	for _, t := range candidateRequired {
		if baseAllowed[t] && !deniedSet[t] {
			required = append(required, t)
		}
	}

	candidateOptional := override.Optional
	if candidateOptional == nil {
		candidateOptional = base.Optional
	}
	baseOptionalSet := toSet(base.Optional)
	var optional []string
	for _, t := range candidateOptional {
		if baseOptionalSet[t] && !deniedSet[t] {
			optional = append(optional, t)
		}
	}

	return ToolPolicy{Required: required, Optional: optional, Denied: denied}
}

func tightenBudget(base, override Budget) Budget {
	out := base
	if override.MaxToolCalls > 0 && override.MaxToolCalls < out.MaxToolCalls {
		out.MaxToolCalls = override.MaxToolCalls
	} else if override.MaxToolCalls > 0 && out.MaxToolCalls == 0 {
		out.MaxToolCalls = override.MaxToolCalls
	}
	if override.MaxTokens > 0 && override.MaxTokens < out.MaxTokens {
		out.MaxTokens = override.MaxTokens
	} else if override.MaxTokens > 0 && out.MaxTokens == 0 {
		out.MaxTokens = override.MaxTokens
	}
	return out
}

func tightenDispatch(base, override DispatchPolicy) DispatchPolicy {
	gate := base.GateThreshold
	if override.GateThreshold > gate {
		gate = override.GateThreshold
	}
	auto := base.AutoThreshold
	if override.AutoThreshold > auto {
		auto = override.AutoThreshold
	}
	if auto < gate {
		auto = gate
	}
	mode := base.DefaultMode
	if override.DefaultMode != "" {
		mode = override.DefaultMode
	}
	return DispatchPolicy{GateThreshold: gate, AutoThreshold: auto, DefaultMode: mode}
}

func toSet(items []string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}

func fromSet(m map[string]bool) []string {
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

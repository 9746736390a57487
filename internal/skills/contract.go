// Package skills implements the skill selector, chain planner, dispatch
// resolver, and contract tightening.
package skills

// Tier is the layering level a skill contract was defined at.
type Tier string

const (
	TierBase    Tier = "base"
	TierPack    Tier = "pack"
	TierProject Tier = "project"
)

// DispatchMode is the resolved action for a dispatch decision.
type DispatchMode string

const (
	ModeNone    DispatchMode = "none"
	ModeAuto    DispatchMode = "auto"
	ModeGate    DispatchMode = "gate"
	ModeSuggest DispatchMode = "suggest"
)

// Stability is a skill's maturity tier, used as a chain-planner tie-break.
type Stability string

const (
	StabilityStable       Stability = "stable"
	StabilityExperimental Stability = "experimental"
	StabilityDeprecated   Stability = "deprecated"
)

var stabilityRank = map[Stability]int{StabilityStable: 0, StabilityExperimental: 1, StabilityDeprecated: 2}

// CostHint is a skill's declared relative cost, used for scoring bias and
// chain-planner tie-breaks.
type CostHint string

const (
	CostLow    CostHint = "low"
	CostMedium CostHint = "medium"
	CostHigh   CostHint = "high"
)

var costRank = map[CostHint]int{CostLow: 0, CostMedium: 1, CostHigh: 2}

// NegativeRule eliminates a candidate skill outright on a match.
type NegativeRule struct {
	Scope string // "intent" or "topic"
	Terms []string
}

// Triggers are the lexical matching inputs for the selector.
type Triggers struct {
	Intents   []string
	Topics    []string
	Phrases   []string
	Negatives []NegativeRule
}

// DispatchPolicy configures the dispatch resolver's thresholds and fallback.
type DispatchPolicy struct {
	GateThreshold float64
	AutoThreshold float64
	DefaultMode   DispatchMode
}

// ToolPolicy is a skill's tool allow/deny policy.
type ToolPolicy struct {
	Required []string
	Optional []string
	Denied   []string
}

// Budget bounds a skill's resource consumption.
type Budget struct {
	MaxToolCalls int
	MaxTokens    int
}

// Contract is a skill's declarative policy.
type Contract struct {
	Name           string
	Tier           Tier
	Tags           []string
	AntiTags       []string
	Triggers       Triggers
	Dispatch       DispatchPolicy
	Tools          ToolPolicy
	Budget         Budget
	Outputs        []string
	ComposableWith []string
	Consumes       []string
	EscalationPath string
	MaxParallel    int
	Stability      Stability
	CostHint       CostHint
}

// Document is a loaded skill with its rendered markdown and contract.
type Document struct {
	Name        string
	Description string
	Tier        Tier
	FilePath    string
	BaseDir     string
	Markdown    string
	Contract    Contract
}

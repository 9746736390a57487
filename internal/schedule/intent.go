// Package schedule implements the scheduler intent store: JSONL projection
// of active cron/one-shot intents, recovered from events.
package schedule

// ContinuityMode controls whether a fired intent's follow-up run continues
// the parent session or starts fresh.
type ContinuityMode string

const (
	ContinuityInherit ContinuityMode = "inherit"
	ContinuityFresh   ContinuityMode = "fresh"
)

// Status is an intent's lifecycle state.
type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
	StatusConverged Status = "converged"
	StatusError     Status = "error"
)

// Predicate is one node of the convergence predicate algebra: exactly one of its fields is populated, selected by Kind.
type Predicate struct {
	Kind string `json:"kind"` // "truth_resolved" | "task_phase" | "max_runs" | "all_of" | "any_of"

	FactID string `json:"factId,omitempty"` // truth_resolved
	Phase  string `json:"phase,omitempty"`  // task_phase
	Limit  int    `json:"limit,omitempty"`  // max_runs

	Predicates []Predicate `json:"predicates,omitempty"` // all_of / any_of
}

// TruthResolved builds a truth_resolved predicate.
func TruthResolved(factID string) Predicate { return Predicate{Kind: "truth_resolved", FactID: factID} }

// TaskPhase builds a task_phase predicate.
func TaskPhase(phase string) Predicate { return Predicate{Kind: "task_phase", Phase: phase} }

// MaxRuns builds a max_runs predicate.
func MaxRuns(limit int) Predicate { return Predicate{Kind: "max_runs", Limit: limit} }

// AllOf builds a conjunctive predicate.
func AllOf(preds ...Predicate) Predicate { return Predicate{Kind: "all_of", Predicates: preds} }

// AnyOf builds a disjunctive predicate.
func AnyOf(preds ...Predicate) Predicate { return Predicate{Kind: "any_of", Predicates: preds} }

// EvalContext is the state a convergence predicate is evaluated against.
type EvalContext struct {
	ResolvedTruthFactIDs map[string]bool
	TaskPhase            string
	RunCount             int
}

// Eval recursively evaluates a predicate tree against ctx.
func Eval(p Predicate, ctx EvalContext) bool {
	switch p.Kind {
	case "truth_resolved":
		return ctx.ResolvedTruthFactIDs[p.FactID]
	case "task_phase":
		return ctx.TaskPhase == p.Phase
	case "max_runs":
		return ctx.RunCount >= p.Limit
	case "all_of":
		for _, child := range p.Predicates {
			if !Eval(child, ctx) {
				return false
			}
		}
		return true
	case "any_of":
		for _, child := range p.Predicates {
			if Eval(child, ctx) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// Intent is a scheduler record.
type Intent struct {
	IntentID             string         `json:"intentId"`
	ParentSessionID      string         `json:"parentSessionId"`
	Reason               string         `json:"reason"`
	ContinuityMode       ContinuityMode `json:"continuityMode"`
	MaxRuns              int            `json:"maxRuns,omitempty"`
	RunAt                *int64         `json:"runAt,omitempty"` // unix ms, one-shot
	Cron                 string         `json:"cron,omitempty"`
	TimeZone             string         `json:"timeZone,omitempty"`
	GoalRef              string         `json:"goalRef,omitempty"`
	ConvergenceCondition *Predicate     `json:"convergenceCondition,omitempty"`
	Status               Status         `json:"status"`
	RunCount             int            `json:"runCount"`
	NextRunAt            *int64         `json:"nextRunAt,omitempty"`
	UpdatedAt            int64          `json:"updatedAt"`
	EventOffset          int64          `json:"eventOffset,omitempty"`
}

func (i Intent) clone() Intent {
	out := i
	if i.RunAt != nil {
		v := *i.RunAt
		out.RunAt = &v
	}
	if i.NextRunAt != nil {
		v := *i.NextRunAt
		out.NextRunAt = &v
	}
	if i.ConvergenceCondition != nil {
		cond := *i.ConvergenceCondition
		out.ConvergenceCondition = &cond
	}
	return out
}

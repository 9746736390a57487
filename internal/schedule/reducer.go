package schedule

// Event is a scheduler event fed to Reduce.
type Event struct {
	Type      string
	Timestamp int64
	Payload   EventPayload
}

// EventPayload carries the fields relevant to scheduler reduction. Only the
// fields meaningful to Type are read.
type EventPayload struct {
	IntentID             string
	ParentSessionID      string
	Reason               string
	ContinuityMode       ContinuityMode
	MaxRuns              int
	RunAt                *int64
	Cron                 string
	TimeZone             string
	GoalRef              string
	ConvergenceCondition *Predicate
	NextRunAt            *int64
}

// State is the scheduler's in-memory intent set, keyed by intentId.
type State struct {
	Intents map[string]Intent
}

// Clone deep-copies state for defensive reads.
func (s State) Clone() State {
	out := State{Intents: make(map[string]Intent, len(s.Intents))}
	for k, v := range s.Intents {
		out.Intents[k] = v.clone()
	}
	return out
}

// Reduce folds one scheduler event into state.
func Reduce(state State, e Event) State {
	next := state.Clone()
	if next.Intents == nil {
		next.Intents = map[string]Intent{}
	}

	switch e.Type {
	case "intent_created":
		p := e.Payload
		next.Intents[p.IntentID] = Intent{
			IntentID: p.IntentID, ParentSessionID: p.ParentSessionID, Reason: p.Reason,
			ContinuityMode: p.ContinuityMode, MaxRuns: p.MaxRuns, RunAt: p.RunAt, Cron: p.Cron,
			TimeZone: p.TimeZone, GoalRef: p.GoalRef, ConvergenceCondition: p.ConvergenceCondition,
			Status: StatusActive, RunCount: 0, NextRunAt: p.NextRunAt, UpdatedAt: e.Timestamp,
		}

	case "intent_updated":
		existing, ok := next.Intents[e.Payload.IntentID]
		if !ok {
			return next
		}
		p := e.Payload
		if p.Cron != "" {
			existing.Cron = p.Cron
		}
		if p.TimeZone != "" {
			existing.TimeZone = p.TimeZone
		}
		if p.MaxRuns != 0 {
			existing.MaxRuns = p.MaxRuns
		}
		if p.NextRunAt != nil {
			existing.NextRunAt = p.NextRunAt
		}
		if p.ConvergenceCondition != nil {
			existing.ConvergenceCondition = p.ConvergenceCondition
		}
		existing.UpdatedAt = e.Timestamp
		next.Intents[existing.IntentID] = existing

	case "intent_cancelled":
		existing, ok := next.Intents[e.Payload.IntentID]
		if !ok {
			return next
		}
		existing.Status = StatusCancelled
		existing.UpdatedAt = e.Timestamp
		next.Intents[existing.IntentID] = existing

	case "intent_fired":
		existing, ok := next.Intents[e.Payload.IntentID]
		if !ok {
			return next
		}
		existing.RunCount++
		existing.NextRunAt = e.Payload.NextRunAt
		existing.UpdatedAt = e.Timestamp
		next.Intents[existing.IntentID] = existing

	case "intent_converged":
		existing, ok := next.Intents[e.Payload.IntentID]
		if !ok {
			return next
		}
		existing.Status = StatusConverged
		existing.UpdatedAt = e.Timestamp
		next.Intents[existing.IntentID] = existing
	}

	return next
}

// Fold reduces a full event sequence from the zero state.
func Fold(events []Event) State {
	state := State{Intents: map[string]Intent{}}
	for _, e := range events {
		state = Reduce(state, e)
	}
	return state
}

// ActiveIntents returns only intents with status=active, for projection.
func ActiveIntents(state State) []Intent {
	out := make([]Intent, 0, len(state.Intents))
	for _, i := range state.Intents {
		if i.Status == StatusActive {
			out = append(out, i)
		}
	}
	return out
}

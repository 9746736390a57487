package tasks

import "encoding/json"

// Reduce is the pure fold: reduce(state, payload, timestamp) -> state'. It
// never panics on well-formed-but-unrecognized input and silently ignores
// payloads that do not decode into the shape a given event type expects.
func Reduce(state State, eventType string, payload json.RawMessage, timestamp int64) State {
	switch eventType {
	case "task.spec_set":
		var p Spec
		if json.Unmarshal(payload, &p) != nil {
			return state
		}
		state.Spec = &p

	case "task.checkpoint_set":
		var p State
		if json.Unmarshal(payload, &p) != nil {
			return state
		}
		return p.Clone()

	case "task.item_added":
		var item Item
		if json.Unmarshal(payload, &item) != nil {
			return state
		}
		if itemIndex(state.Items, item.ID) >= 0 {
			return state // ignore if id exists
		}
		state.Items = append(state.Items, item)

	case "task.item_updated":
		var patch struct {
			ID     string      `json:"id"`
			Text   *string     `json:"text,omitempty"`
			Status *ItemStatus `json:"status,omitempty"`
		}
		if json.Unmarshal(payload, &patch) != nil {
			return state
		}
		idx := itemIndex(state.Items, patch.ID)
		if idx < 0 {
			return state // no-op if id missing
		}
		if patch.Text != nil {
			state.Items[idx].Text = *patch.Text
		}
		if patch.Status != nil {
			state.Items[idx].Status = *patch.Status
		}
		state.Items[idx].UpdatedAt = maxInt64(state.Items[idx].UpdatedAt, timestamp)

	case "task.blocker_recorded":
		var b Blocker
		if json.Unmarshal(payload, &b) != nil {
			return state
		}
		idx := blockerIndex(state.Blockers, b.ID)
		if idx < 0 {
			state.Blockers = append(state.Blockers, b)
		} else {
			// upsert by id: only message/source may change
			state.Blockers[idx].Message = b.Message
			if b.Source != "" {
				state.Blockers[idx].Source = b.Source
			}
		}

	case "task.blocker_resolved":
		var p struct {
			ID string `json:"id"`
		}
		if json.Unmarshal(payload, &p) != nil {
			return state
		}
		idx := blockerIndex(state.Blockers, p.ID)
		if idx >= 0 {
			state.Blockers = append(state.Blockers[:idx], state.Blockers[idx+1:]...)
		}

	case "task.status_updated":
		var st Status
		if json.Unmarshal(payload, &st) != nil {
			return state
		}
		state.Status = &st
	}
	return state
}

// Fold reduces a full ordered sequence of (type, payload, timestamp) tuples
// from an empty State.
func Fold(events []Event) State {
	var state State
	for _, e := range events {
		state = Reduce(state, e.Type, e.Payload, e.Timestamp)
	}
	return state
}

// Event is the minimal shape Fold needs from a tape.Record, kept decoupled
// from the tape package so this reducer stays a pure function of plain data.
type Event struct {
	Type      string
	Payload   json.RawMessage
	Timestamp int64
}

// Package tape implements the durable, append-only per-session event log.
// It is the spine all other reducers fold over: every decision the runtime
// makes is first recorded here.
//
// Grounded on the teacher's JSONL audit-file pattern
// (internal/tactile/audit.go's AuditFileLogger, internal/logging/audit.go).
package tape

import "encoding/json"

// Record is one immutable line of the tape.
type Record struct {
	ID        string          `json:"id"`
	SessionID string          `json:"sessionId"`
	Type      string          `json:"type"`
	Timestamp int64           `json:"timestamp"`
	Turn      *int            `json:"turn,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

// Well-known tape event types the reducers in this module understand.
const (
	TypeCheckpoint = "tape.checkpoint.v1"

	TypeSpecSet          = "task.spec_set"
	TypeCheckpointSet     = "task.checkpoint_set"
	TypeItemAdded         = "task.item_added"
	TypeItemUpdated       = "task.item_updated"
	TypeBlockerRecorded   = "task.blocker_recorded"
	TypeBlockerResolved   = "task.blocker_resolved"
	TypeTaskStatusUpdated = "task.status_updated"
	TypeTaskLedgerCompact = "task_ledger_compacted"

	TypeTruthFactUpserted = "truth.fact_upserted"
	TypeTruthFactResolved = "truth.fact_resolved"

	TypeCostAssistantUsage = "cost.assistant_usage"

	TypeEvidenceToolResult = "evidence.tool_result"
	TypeEvidenceAnchor     = "evidence.anchor"

	TypeIntentCreated   = "intent_created"
	TypeIntentUpdated   = "intent_updated"
	TypeIntentCancelled = "intent_cancelled"
	TypeIntentFired     = "intent_fired"
	TypeIntentConverged = "intent_converged"
)

// Payload marshals v into a Record's payload field.
func Payload(v interface{}) (json.RawMessage, error) {
	return json.Marshal(v)
}

// Decode unmarshals a record's payload into dst. It returns false (no error)
// when the payload does not decode into dst's shape — callers should treat
// that as "skip this record".
func Decode(payload json.RawMessage, dst interface{}) bool {
	if len(payload) == 0 {
		return false
	}
	return json.Unmarshal(payload, dst) == nil
}

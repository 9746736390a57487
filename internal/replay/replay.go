// Package replay implements the Turn-Replay Engine: a per-session cache of
// folded task/truth/evidence state built by scanning back to the latest
// tape checkpoint and replaying forward.
package replay

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/agentcore/runtime/internal/corelog"
	"github.com/agentcore/runtime/internal/evidence"
	"github.com/agentcore/runtime/internal/tape"
	"github.com/agentcore/runtime/internal/tasks"
	"github.com/agentcore/runtime/internal/truth"
)

// CheckpointType is the tape event type carrying a consolidated snapshot of
// every reducer's state, seeded by a forward replay and read back to avoid
// replaying the whole tape from the start.
const CheckpointType = "tape.checkpoint.v1"

// CheckpointPayload is the payload shape of a CheckpointType event.
type CheckpointPayload struct {
	Schema        string         `json:"schema"`
	Turn          int            `json:"turn"`
	TaskState     tasks.State    `json:"taskState"`
	TruthState    truth.State    `json:"truthState"`
	EvidenceState evidence.State `json:"evidenceState"`
}

// View is the cached, per-session replay result.
//
// CostState and MemoryState are not tape-reduced: the Cost Tracker persists
// itself independently and external memory recall is out of scope, so
// callers that want either attached to a View populate them after
// Replay/ObserveEvent returns.
type View struct {
	Turn              int
	LatestEventID     string
	CheckpointEventID string
	TaskState         tasks.State
	TruthState        truth.State
	EvidenceState     evidence.State
	CostState         json.RawMessage
	MemoryState       json.RawMessage
}

// Clone returns a deep copy so callers may mutate what they receive.
func (v View) Clone() View {
	out := v
	out.TaskState = v.TaskState.Clone()
	out.TruthState = v.TruthState.Clone()
	out.EvidenceState = v.EvidenceState.Clone()
	out.CostState = append(json.RawMessage(nil), v.CostState...)
	out.MemoryState = append(json.RawMessage(nil), v.MemoryState...)
	return out
}

// Engine owns the turn-replay cache. One Engine instance is expected to be
// exclusively owned by the runtime and never re-entered during a tool
// execution.
type Engine struct {
	mu    sync.Mutex
	store *tape.Store
	cache map[string]*View
	log   *corelog.Logger
}

// NewEngine creates a replay engine reading from store.
func NewEngine(store *tape.Store) *Engine {
	return &Engine{store: store, cache: map[string]*View{}, log: corelog.Get(corelog.CategoryTape)}
}

func applyRecord(v *View, r tape.Record) {
	v.LatestEventID = r.ID
	if r.Turn != nil {
		v.Turn = *r.Turn
	}
	switch {
	case r.Type == CheckpointType:
		var cp CheckpointPayload
		if json.Unmarshal(r.Payload, &cp) != nil {
			return
		}
		v.TaskState = cp.TaskState
		v.TruthState = cp.TruthState
		v.EvidenceState = cp.EvidenceState
		v.CheckpointEventID = r.ID
		v.Turn = cp.Turn
	case strings.HasPrefix(r.Type, "task."):
		v.TaskState = tasks.Reduce(v.TaskState, r.Type, r.Payload, r.Timestamp)
	case strings.HasPrefix(r.Type, "truth."):
		v.TruthState = truth.Reduce(v.TruthState, r.Type, r.Payload, r.Timestamp)
	case strings.HasPrefix(r.Type, "evidence."):
		turn := 0
		if r.Turn != nil {
			turn = *r.Turn
		}
		v.EvidenceState = evidence.Reduce(v.EvidenceState, r.Type, r.Payload, turn, r.Timestamp)
	}
}

// build scans sessionID's tape right-to-left for the latest checkpoint,
// seeds state from it, then replays forward.
func (e *Engine) build(sessionID string) (*View, error) {
	records, err := e.store.List(sessionID, tape.ListOptions{})
	if err != nil {
		return nil, err
	}

	start := 0
	v := &View{}
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].Type == CheckpointType {
			start = i
			break
		}
	}
	for i := start; i < len(records); i++ {
		applyRecord(v, records[i])
	}
	return v, nil
}

// Replay returns the current view for sessionID, building and caching it if
// not already cached.
func (e *Engine) Replay(sessionID string) (View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if cached, ok := e.cache[sessionID]; ok {
		return cached.Clone(), nil
	}

	v, err := e.build(sessionID)
	if err != nil {
		return View{}, err
	}
	e.cache[sessionID] = v
	return v.Clone(), nil
}

// ObserveEvent incrementally updates a cached view with one newly appended
// record, avoiding a full rebuild. If sessionID has no cached view yet, the
// event is dropped silently: the next Replay call will build from the tape,
// which already contains it.
func (e *Engine) ObserveEvent(sessionID string, r tape.Record) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, ok := e.cache[sessionID]
	if !ok {
		return
	}
	applyRecord(v, r)
}

// Invalidate drops sessionID's cached view; the next Replay rebuilds it from
// the tape.
func (e *Engine) Invalidate(sessionID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.cache, sessionID)
}

package tasks

import (
	"time"

	"github.com/agentcore/runtime/internal/corelog"
	"github.com/agentcore/runtime/internal/ports"
	"github.com/agentcore/runtime/internal/tape"
)

const (
	compactMinLogBytes   = 64 * 1024
	compactMaxLogBytes   = 50 * 1024 * 1024
	compactMinEventCount = 220
	compactKeepCount     = 80
	compactCooldown      = 60 * time.Second
)

// taskEventTypes is the set of event types the compactor counts and folds;
// non-task events on the same tape (truth, cost, evidence, intents) pass
// through untouched.
var taskEventTypes = map[string]bool{
	"task.spec_set": true, "task.checkpoint_set": true, "task.item_added": true,
	"task.item_updated": true, "task.blocker_recorded": true, "task.blocker_resolved": true,
	"task.status_updated": true,
}

// Compactor applies the Task Ledger compaction policy against
// a tape.Store.
type Compactor struct {
	store      *tape.Store
	archiveDir string
	clock      ports.Clock
	ids        ports.IDGenerator
	log        *corelog.Logger

	lastRun map[string]time.Time
}

func NewCompactor(store *tape.Store, archiveDir string, clock ports.Clock, ids ports.IDGenerator) *Compactor {
	return &Compactor{store: store, archiveDir: archiveDir, clock: clock, ids: ids, log: corelog.Get(corelog.CategoryLedger), lastRun: map[string]time.Time{}}
}

// Result summarizes a compaction run for the emitted task_ledger_compacted
// event.
type Result struct {
	Ran             bool
	BytesBefore     int64
	BytesAfter      int64
	Compacted       int
	Kept            int
	DurationMs      int64
	CheckpointEventID string
}

// MaybeCompact runs the compaction policy for sessionID if its thresholds are
// met, returning a Result describing what happened (Ran=false if skipped).
func (c *Compactor) MaybeCompact(sessionID string) (Result, error) {
	bytesBefore := c.store.Size(sessionID)
	if bytesBefore < compactMinLogBytes || bytesBefore > compactMaxLogBytes {
		return Result{}, nil
	}
	if last, ok := c.lastRun[sessionID]; ok && c.clock.Now().Sub(last) < compactCooldown {
		return Result{}, nil
	}

	records, err := c.store.List(sessionID, tape.ListOptions{})
	if err != nil {
		return Result{}, err
	}

	taskIdx := make([]int, 0, len(records))
	for i, r := range records {
		if taskEventTypes[r.Type] {
			taskIdx = append(taskIdx, i)
		}
	}
	if len(taskIdx) < compactMinEventCount {
		return Result{}, nil
	}

	start := time.Now()

	keepFromTaskIdx := len(taskIdx) - compactKeepCount
	boundaryRecordIdx := taskIdx[keepFromTaskIdx-1] // last compacted task event's position in the full tape

	var toArchive []tape.Record
	for i := 0; i <= boundaryRecordIdx; i++ {
		if taskEventTypes[records[i].Type] {
			toArchive = append(toArchive, records[i])
		}
	}

	folded := Fold(toRecuderEvents(toArchive))
	checkpointID := c.ids.NewID()
	now := c.clock.Now().UnixMilli()
	payload, err := tape.Payload(folded)
	if err != nil {
		return Result{}, err
	}
	checkpoint := tape.Record{ID: checkpointID, SessionID: sessionID, Type: "task.checkpoint_set", Timestamp: now, Payload: payload}

	// Rebuild the full tape: events before the boundary that are non-task
	// pass through, then the synthetic checkpoint is inserted at the
	// boundary's position, then the remaining tail (including the last 80
	// kept task events) follows.
	var newTape []tape.Record
	for i, r := range records {
		if i > boundaryRecordIdx {
			break
		}
		if !taskEventTypes[r.Type] {
			newTape = append(newTape, r)
		}
	}
	newTape = append(newTape, checkpoint)
	newTape = append(newTape, records[boundaryRecordIdx+1:]...)

	header := tape.ArchiveHeader{
		Kind: "compacted", SessionID: sessionID, CreatedAt: now,
		CheckpointEvent: checkpointID, Compacted: len(toArchive), Kept: compactKeepCount,
	}
	if err := c.store.Archive(c.archiveDir, sessionID, header, toArchive); err != nil {
		return Result{}, err
	}
	if err := c.store.Rewrite(sessionID, newTape); err != nil {
		return Result{}, err
	}

	c.lastRun[sessionID] = c.clock.Now()
	bytesAfter := c.store.Size(sessionID)

	res := Result{
		Ran: true, BytesBefore: bytesBefore, BytesAfter: bytesAfter,
		Compacted: len(toArchive), Kept: compactKeepCount,
		DurationMs: time.Since(start).Milliseconds(), CheckpointEventID: checkpointID,
	}
	c.log.Info("compacted session=%s compacted=%d kept=%d bytes=%d->%d", sessionID, res.Compacted, res.Kept, bytesBefore, bytesAfter)
	return res, nil
}

func toRecuderEvents(records []tape.Record) []Event {
	out := make([]Event, len(records))
	for i, r := range records {
		out[i] = Event{Type: r.Type, Payload: r.Payload, Timestamp: r.Timestamp}
	}
	return out
}

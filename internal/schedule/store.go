package schedule

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/agentcore/runtime/internal/corelog"
	"github.com/agentcore/runtime/internal/ports"
)

const projectionSchema = "schedule.projection.v1"

// projectionMeta is the mandatory first line of a projection file.
type projectionMeta struct {
	Schema          string `json:"schema"`
	Kind            string `json:"kind"` // "meta"
	GeneratedAt     int64  `json:"generatedAt"`
	WatermarkOffset int64  `json:"watermarkOffset"`
}

// projectionIntentLine is one intent record line in a projection file.
type projectionIntentLine struct {
	Schema string `json:"schema"`
	Kind   string `json:"kind"` // "intent"
	Record Intent `json:"record"`
}

// Store persists the scheduler's active-intent projection as JSONL: a meta
// header line recording the watermark offset the projection was built
// through, followed by one line per active intent. Recovery
// folds tape events after the watermark and atomically rewrites the file.
type Store struct {
	mu    sync.Mutex
	path  string
	clock ports.Clock
	log   *corelog.Logger
}

// NewStore creates a projection store backed by the file at path.
func NewStore(path string, clock ports.Clock) *Store {
	return &Store{path: path, clock: clock, log: corelog.Get(corelog.CategorySchedule)}
}

// Load reads the projection file, returning the watermark offset and the
// active intents it recorded. A missing file is not an error: it returns
// watermark 0 and an empty state, signaling recovery must fold from the
// beginning of the tape.
func (s *Store) Load() (watermarkOffset int64, state State, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return 0, State{Intents: map[string]Intent{}}, nil
	}
	if err != nil {
		return 0, State{}, fmt.Errorf("schedule: open projection: %w", err)
	}
	defer f.Close()

	state = State{Intents: map[string]Intent{}}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)

	sawMeta := false
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var kindProbe struct {
			Kind string `json:"kind"`
		}
		if err := json.Unmarshal(line, &kindProbe); err != nil {
			s.log.Warn("skipping corrupt projection line in %s: %v", s.path, err)
			continue
		}
		switch kindProbe.Kind {
		case "meta":
			var meta projectionMeta
			if err := json.Unmarshal(line, &meta); err != nil {
				s.log.Warn("skipping corrupt projection meta line in %s: %v", s.path, err)
				continue
			}
			watermarkOffset = meta.WatermarkOffset
			sawMeta = true
		case "intent":
			var rec projectionIntentLine
			if err := json.Unmarshal(line, &rec); err != nil {
				s.log.Warn("skipping corrupt projection intent line in %s: %v", s.path, err)
				continue
			}
			state.Intents[rec.Record.IntentID] = rec.Record
		default:
			s.log.Warn("skipping projection line with unknown kind %q in %s", kindProbe.Kind, s.path)
		}
	}
	if !sawMeta {
		s.log.Warn("projection file %s had no meta header; treating watermark as 0", s.path)
		watermarkOffset = 0
	}
	return watermarkOffset, state, nil
}

// Rewrite atomically replaces the projection file with a meta header at
// watermarkOffset followed by one line per active intent in state.
func (s *Store) Rewrite(watermarkOffset int64, state State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(out)
	meta := projectionMeta{
		Schema:          projectionSchema,
		Kind:            "meta",
		GeneratedAt:     s.clock.Now().UnixMilli(),
		WatermarkOffset: watermarkOffset,
	}
	mdata, err := json.Marshal(meta)
	if err != nil {
		_ = out.Close()
		return err
	}
	if _, err := w.Write(append(mdata, '\n')); err != nil {
		_ = out.Close()
		return err
	}

	for _, intent := range ActiveIntents(state) {
		line := projectionIntentLine{Schema: projectionSchema, Kind: "intent", Record: intent}
		data, err := json.Marshal(line)
		if err != nil {
			_ = out.Close()
			return err
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			_ = out.Close()
			return err
		}
	}

	if err := w.Flush(); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Recover loads the last projection, folds eventsAfterWatermark on top of it,
// and atomically rewrites the projection to the new watermark before
// returning the recovered state. eventsAfterWatermark must already be
// filtered to events whose offset is > the loaded watermark.
func (s *Store) Recover(eventsAfterWatermark []Event, newWatermarkOffset int64) (State, error) {
	_, state, err := s.Load()
	if err != nil {
		return State{}, err
	}
	for _, e := range eventsAfterWatermark {
		state = Reduce(state, e)
	}
	if err := s.Rewrite(newWatermarkOffset, state); err != nil {
		return State{}, err
	}
	return state, nil
}

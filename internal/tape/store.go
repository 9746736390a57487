package tape

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/agentcore/runtime/internal/corelog"
	"github.com/agentcore/runtime/internal/ports"
)

var sessionIDSanitizer = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

func sanitizeSessionID(sessionID string) string {
	return sessionIDSanitizer.ReplaceAllString(sessionID, "_")
}

// ListOptions filters a List query.
type ListOptions struct {
	Type string // empty = all types
	Last int    // 0 = unlimited; else last N matching records
}

// Store is a durable, append-only per-session event log on disk.
//
// Contract: append writes exactly one line; list returns
// events in append order; clearSessionCache drops in-memory caches without
// rewriting history except through explicit compaction. A disabled store
// (Enabled=false) makes Append a silent no-op returning a zero ID, so
// callers never need to special-case a disabled store.
type Store struct {
	mu      sync.Mutex
	dir     string
	enabled bool
	clock   ports.Clock
	ids     ports.IDGenerator
	files   map[string]*os.File
	log     *corelog.Logger
}

// Config configures a Store.
type Config struct {
	Dir     string
	Enabled bool
}

// NewStore creates an event store rooted at cfg.Dir. Dir is created lazily on
// first append.
func NewStore(cfg Config, clock ports.Clock, ids ports.IDGenerator) *Store {
	return &Store{
		dir:     cfg.Dir,
		enabled: cfg.Enabled,
		clock:   clock,
		ids:     ids,
		files:   make(map[string]*os.File),
		log:     corelog.Get(corelog.CategoryTape),
	}
}

func (s *Store) pathFor(sessionID string) string {
	return filepath.Join(s.dir, sanitizeSessionID(sessionID)+".jsonl")
}

// Append writes exactly one record line and returns its assigned id. If the
// store is disabled, Append is a no-op and returns "".
func (s *Store) Append(sessionID, eventType string, turn *int, payload json.RawMessage) (string, error) {
	if !s.enabled {
		return "", nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.ids.NewID()
	rec := Record{
		ID:        id,
		SessionID: sessionID,
		Type:      eventType,
		Timestamp: s.clock.Now().UnixMilli(),
		Turn:      turn,
		Payload:   payload,
	}

	f, err := s.fileFor(sessionID)
	if err != nil {
		return "", fmt.Errorf("tape: open session log: %w", err)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("tape: marshal record: %w", err)
	}
	data = append(data, '\n')
	if _, err := f.Write(data); err != nil {
		return "", fmt.Errorf("tape: append record: %w", err)
	}
	s.log.Debug("appended %s id=%s session=%s", eventType, id, sessionID)
	return id, nil
}

func (s *Store) fileFor(sessionID string) (*os.File, error) {
	path := s.pathFor(sessionID)
	if f, ok := s.files[path]; ok {
		return f, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	s.files[path] = f
	return f, nil
}

// List returns every record for sessionID in append order, optionally
// filtered by type and/or limited to the last N matches. A malformed line is
// skipped silently rather than aborting the whole read.
func (s *Store) List(sessionID string, opts ListOptions) ([]Record, error) {
	s.mu.Lock()
	path := s.pathFor(sessionID)
	// Flush the open handle's buffered writer state by relying on O_APPEND
	// semantics: we always write whole lines, so a concurrent reader sees only
	// complete lines.
	s.mu.Unlock()

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("tape: open for read: %w", err)
	}
	defer f.Close()

	var all []Record
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			s.log.Warn("skipping corrupt tape line in %s: %v", path, err)
			continue
		}
		if opts.Type != "" && rec.Type != opts.Type {
			continue
		}
		all = append(all, rec)
	}

	if opts.Last > 0 && len(all) > opts.Last {
		all = all[len(all)-opts.Last:]
	}
	return all, nil
}

// ClearSessionCache drops any in-memory file handle cached for sessionID. It
// never rewrites history; the next Append/List reopens the file.
func (s *Store) ClearSessionCache(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	path := s.pathFor(sessionID)
	if f, ok := s.files[path]; ok {
		_ = f.Close()
		delete(s.files, path)
	}
}

// Size returns the current on-disk size in bytes of sessionID's tape, or 0 if
// it does not exist yet.
func (s *Store) Size(sessionID string) int64 {
	info, err := os.Stat(s.pathFor(sessionID))
	if err != nil {
		return 0
	}
	return info.Size()
}

// Rewrite atomically replaces the on-disk tape for sessionID with records,
// used by compaction. It closes any cached handle first; the next Append
// reopens the file, so subsequent appends continue seamlessly.
func (s *Store) Rewrite(sessionID string, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.pathFor(sessionID)
	if f, ok := s.files[path]; ok {
		_ = f.Close()
		delete(s.files, path)
	}

	tmp := path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(out)
	for _, rec := range records {
		data, err := json.Marshal(rec)
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
	return os.Rename(tmp, path)
}

// ArchiveHeader is written as the first line of a compaction archive file.
type ArchiveHeader struct {
	Kind            string `json:"kind"`
	SessionID       string `json:"sessionId"`
	CreatedAt       int64  `json:"createdAt"`
	CheckpointEvent string `json:"checkpointEventId"`
	Compacted       int    `json:"compacted"`
	Kept            int    `json:"kept"`
}

// Archive writes compacted records (preceded by a header line) to
// <archiveDir>/<session>.jsonl, appending if the file already exists —
// mirrors the teacher's AuditFileLogger.Rotate timestamped-sidecar approach
// of never destructively overwriting history.
func (s *Store) Archive(archiveDir, sessionID string, header ArchiveHeader, records []Record) error {
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(archiveDir, sanitizeSessionID(sessionID)+".jsonl")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	hdata, err := json.Marshal(header)
	if err != nil {
		return err
	}
	if _, err := w.Write(append(hdata, '\n')); err != nil {
		return err
	}
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return err
		}
	}
	return w.Flush()
}

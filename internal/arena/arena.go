// Package arena implements the Context Arena: a per-session, append-only
// store of injection candidates keyed by (source,id), last-write-wins, with
// SLO eviction and a budget-aware planner.
package arena

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"sync"

	"github.com/agentcore/runtime/internal/corelog"
	"github.com/agentcore/runtime/internal/ports"
)

const (
	supersededTrimMinEntries    = 2048
	supersededTrimMinSuperseded = 512
	supersededTrimMinRatio      = 0.25
)

// Key identifies an arena entry.
type Key struct {
	Source string
	ID     string
}

func (k Key) String() string { return k.Source + ":" + k.ID }

// Entry is one arena entry.
type Entry struct {
	Key             Key
	Content         string
	Priority        Priority
	EstimatedTokens int
	Timestamp       int64
	OncePerSession  bool
	Truncated       bool
	Index           int
	Presented       bool
}

// AppendInput is the caller-supplied payload for Append.
type AppendInput struct {
	Source         string
	ID             string
	Content        string
	Priority       Priority
	OncePerSession bool
}

// SLOInfo describes an SLO-eviction decision taken during Append.
type SLOInfo struct {
	Dropped bool // the incoming entry itself was dropped to respect the ceiling
	Evicted bool // an existing entry was evicted to make room
}

// AppendResult is the outcome of Append.
type AppendResult struct {
	Accepted bool
	SLO      *SLOInfo
}

type sessionState struct {
	entries          []Entry
	latestIndexByKey map[Key]int
	onceKeys         map[Key]bool
	lastFingerprint  map[string]string // injectionScopeId -> sha256 hex
	reservedTokens   map[string]int    // injectionScopeId -> tokens held by the last accepted injection
}

func newSessionState() *sessionState {
	return &sessionState{
		latestIndexByKey: map[Key]int{},
		onceKeys:         map[Key]bool{},
		lastFingerprint:  map[string]string{},
		reservedTokens:   map[string]int{},
	}
}

// Config configures an Arena collector.
type Config struct {
	MaxEntriesPerSession int
	PerSourceTokenCap    map[string]int // optional; 0/absent means no cap
	Truncator            Truncator
	ZoneLayoutEnabled    bool
	ZoneBands            map[Zone]Band
}

// Arena is the per-session entry store and planner.
type Arena struct {
	mu       sync.Mutex
	cfg      Config
	sessions map[string]*sessionState
	clock    ports.Clock
	log      *corelog.Logger
}

func New(cfg Config, clock ports.Clock) *Arena {
	return &Arena{cfg: cfg, sessions: map[string]*sessionState{}, clock: clock, log: corelog.Get(corelog.CategoryArena)}
}

func (a *Arena) stateFor(sessionID string) *sessionState {
	s, ok := a.sessions[sessionID]
	if !ok {
		s = newSessionState()
		a.sessions[sessionID] = s
	}
	return s
}

// Append registers a new candidate entry.
func (a *Arena) Append(sessionID string, in AppendInput) AppendResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	source := strings.TrimSpace(in.Source)
	id := strings.TrimSpace(in.ID)
	if source == "" || id == "" {
		return AppendResult{Accepted: false}
	}
	key := Key{Source: source, ID: id}

	state := a.stateFor(sessionID)
	if in.OncePerSession && state.onceKeys[key] {
		return AppendResult{Accepted: false}
	}

	content := in.Content
	estimated := EstimateTokens(content)
	truncated := false
	if tokenCap, ok := a.cfg.PerSourceTokenCap[source]; ok && tokenCap > 0 && estimated > tokenCap {
		fitted, ok := a.cfg.Truncator.Refit(source, id, content, tokenCap)
		if !ok {
			return AppendResult{Accepted: false}
		}
		content = fitted
		estimated = EstimateTokens(content)
		truncated = true
	}
	if estimated == 0 {
		return AppendResult{Accepted: false}
	}

	var slo *SLOInfo
	isNewKey := true
	if _, exists := state.latestIndexByKey[key]; exists {
		isNewKey = false
	}

	if isNewKey && a.cfg.MaxEntriesPerSession > 0 && len(state.latestIndexByKey) >= a.cfg.MaxEntriesPerSession {
		slo = &SLOInfo{}
		a.compactToLatestLocked(state)
		if len(state.latestIndexByKey) >= a.cfg.MaxEntriesPerSession {
			evicted := a.evictOldestRecallDegradableLocked(state)
			if !evicted {
				if RecallDegradable[source] {
					slo.Dropped = true
					return AppendResult{Accepted: false, SLO: slo}
				}
				// No recall-degradable victim and the incoming entry is not
				// recall-degradable either: accept over the nominal ceiling
				// and record that SLO was invoked.
			} else {
				slo.Evicted = true
			}
		}
	}

	entry := Entry{
		Key: key, Content: content, Priority: in.Priority, EstimatedTokens: estimated,
		Timestamp: a.clock.Now().UnixMilli(), OncePerSession: in.OncePerSession, Truncated: truncated,
	}
	entry.Index = len(state.entries)
	state.entries = append(state.entries, entry)
	state.latestIndexByKey[key] = entry.Index

	a.runSupersededTrimLocked(state)

	a.log.Debug("append session=%s key=%s tokens=%d slo=%v", sessionID, key, estimated, slo)
	return AppendResult{Accepted: true, SLO: slo}
}

// compactToLatestLocked rebuilds entries to contain only the entry for each
// key's latest index, reassigning indices.
func (a *Arena) compactToLatestLocked(state *sessionState) {
	type kv struct {
		key Key
		idx int
	}
	kept := make([]kv, 0, len(state.latestIndexByKey))
	for k, idx := range state.latestIndexByKey {
		kept = append(kept, kv{k, idx})
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].idx < kept[j].idx })

	newEntries := make([]Entry, 0, len(kept))
	newLatest := make(map[Key]int, len(kept))
	for _, item := range kept {
		e := state.entries[item.idx]
		e.Index = len(newEntries)
		newEntries = append(newEntries, e)
		newLatest[item.key] = e.Index
	}
	state.entries = newEntries
	state.latestIndexByKey = newLatest
}

func (a *Arena) runSupersededTrimLocked(state *sessionState) {
	total := len(state.entries)
	if total < supersededTrimMinEntries {
		return
	}
	superseded := total - len(state.latestIndexByKey)
	if superseded < supersededTrimMinSuperseded {
		return
	}
	if float64(superseded) < supersededTrimMinRatio*float64(total) {
		return
	}
	a.compactToLatestLocked(state)
}

// evictOldestRecallDegradableLocked evicts the oldest active entry whose
// source is in the recall-degradable set. Returns true if one was evicted.
func (a *Arena) evictOldestRecallDegradableLocked(state *sessionState) bool {
	var victimKey Key
	found := false
	var oldestTs int64
	for key, idx := range state.latestIndexByKey {
		e := state.entries[idx]
		if !RecallDegradable[key.Source] {
			continue
		}
		if !found || e.Timestamp < oldestTs {
			victimKey = key
			oldestTs = e.Timestamp
			found = true
		}
	}
	if !found {
		return false
	}
	delete(state.latestIndexByKey, victimKey)
	return true
}

// MarkPresented marks consumedKeys as presented; keys with oncePerSession
// also join onceKeys so they never re-enter.
func (a *Arena) MarkPresented(sessionID string, consumedKeys []Key) {
	a.mu.Lock()
	defer a.mu.Unlock()
	state := a.stateFor(sessionID)
	for _, k := range consumedKeys {
		idx, ok := state.latestIndexByKey[k]
		if !ok {
			continue
		}
		state.entries[idx].Presented = true
		if state.entries[idx].OncePerSession {
			state.onceKeys[k] = true
		}
	}
}

// ClearPending rewinds the presented flag on non-once entries so a new turn
// may re-include them.
func (a *Arena) ClearPending(sessionID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	state := a.stateFor(sessionID)
	for i := range state.entries {
		if !state.entries[i].OncePerSession {
			state.entries[i].Presented = false
		}
	}
}

// ResetEpoch wipes a session's arena state entirely (triggered by
// compaction).
func (a *Arena) ResetEpoch(sessionID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.sessions, sessionID)
}

// Snapshot returns a defensive copy of a session's currently active entries
// (superseded and evicted entries are excluded), ordered by insertion index.
func (a *Arena) Snapshot(sessionID string) []Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	state := a.stateFor(sessionID)
	out := make([]Entry, 0, len(state.latestIndexByKey))
	for _, idx := range state.latestIndexByKey {
		out = append(out, state.entries[idx])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// PlanResult is the outcome of Plan.
type PlanResult struct {
	Text            string
	Entries         []Entry
	EstimatedTokens int
	Truncated       bool
	ConsumedKeys    []Key
	Reason          string // "" on success; "floor_unmet" on allocator failure
	Telemetry       PlanTelemetry
}

// PlanTelemetry carries diagnostic counters about a plan run.
type PlanTelemetry struct {
	CandidateCount int
	AcceptedCount  int
	DroppedCount   int
	TokensUsed     int
	ZoneCaps       map[Zone]int
}

var separatorTokenCost = EstimateTokens("\n\n")

// Plan builds the bounded, ordered injection text for a session.
func (a *Arena) Plan(sessionID string, totalTokenBudget int) PlanResult {
	a.mu.Lock()
	state := a.stateFor(sessionID)
	candidates := make([]Entry, 0, len(state.latestIndexByKey))
	for _, idx := range state.latestIndexByKey {
		e := state.entries[idx]
		if !e.Presented {
			candidates = append(candidates, e)
		}
	}
	zoneLayout := a.cfg.ZoneLayoutEnabled
	bands := a.cfg.ZoneBands
	truncator := a.cfg.Truncator
	a.mu.Unlock()

	if zoneLayout {
		sort.SliceStable(candidates, func(i, j int) bool {
			zi, zj := ZoneOrder(candidates[i].Key.Source), ZoneOrder(candidates[j].Key.Source)
			if zi != zj {
				return zi < zj
			}
			if candidates[i].Priority != candidates[j].Priority {
				return PriorityOrder(candidates[i].Priority) < PriorityOrder(candidates[j].Priority)
			}
			return candidates[i].Timestamp < candidates[j].Timestamp
		})
	} else {
		sort.SliceStable(candidates, func(i, j int) bool {
			if candidates[i].Priority != candidates[j].Priority {
				return PriorityOrder(candidates[i].Priority) < PriorityOrder(candidates[j].Priority)
			}
			return candidates[i].Timestamp < candidates[j].Timestamp
		})
	}

	zoneCaps := map[Zone]int{}
	if zoneLayout && bands != nil {
		demand := map[Zone]int{}
		for _, c := range candidates {
			z := Zone(c.Key.Source)
			demand[z] += c.EstimatedTokens
		}
		alloc := Allocate(totalTokenBudget, demand, bands)
		if alloc.FloorUnmet {
			return PlanResult{Reason: "floor_unmet"}
		}
		zoneCaps = alloc.Caps
	}

	var (
		accepted     []Entry
		consumedKeys []Key
		totalUsed    int
		anyTruncated bool
		globalRemaining = totalTokenBudget
	)

	zoneRemaining := map[Zone]int{}
	for z, c := range zoneCaps {
		zoneRemaining[z] = c
	}

	for _, cand := range candidates {
		sepCost := 0
		if len(accepted) > 0 {
			sepCost = separatorTokenCost
		}
		z := Zone(cand.Key.Source)
		budget := globalRemaining - sepCost
		if zoneLayout && bands != nil {
			if zr, ok := zoneRemaining[z]; ok && zr < budget {
				budget = zr
			}
		}
		if budget <= 0 {
			if a.cfg.Truncator.Strategy == StrategyTail {
				break
			}
			continue
		}

		content := cand.Content
		truncatedThis := cand.Truncated
		if cand.EstimatedTokens > budget {
			fitted, ok := truncator.Refit(cand.Key.Source, cand.Key.ID, cand.Content, budget)
			if !ok {
				if a.cfg.Truncator.Strategy == StrategyTail {
					break
				}
				continue
			}
			content = fitted
			truncatedThis = true
		}

		used := EstimateTokens(content) + sepCost
		cand.Content = content
		cand.Truncated = truncatedThis
		cand.EstimatedTokens = EstimateTokens(content)
		accepted = append(accepted, cand)
		consumedKeys = append(consumedKeys, cand.Key)
		globalRemaining -= used
		if zoneLayout && bands != nil {
			zoneRemaining[z] -= used
		}
		totalUsed += used
		if truncatedThis {
			anyTruncated = true
		}
	}

	var sb strings.Builder
	for i, e := range accepted {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(e.Content)
	}

	return PlanResult{
		Text: sb.String(), Entries: accepted, EstimatedTokens: EstimateTokens(sb.String()),
		Truncated: anyTruncated, ConsumedKeys: consumedKeys,
		Telemetry: PlanTelemetry{CandidateCount: len(candidates), AcceptedCount: len(accepted), DroppedCount: len(candidates) - len(accepted), TokensUsed: totalUsed, ZoneCaps: zoneCaps},
	}
}

// Fingerprint computes the SHA-256 hex digest of text, for the injection
// orchestrator's duplicate-content suppression.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// LastFingerprint returns the previously stored fingerprint for
// (sessionID, scopeID), and whether one existed.
func (a *Arena) LastFingerprint(sessionID, scopeID string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	state := a.stateFor(sessionID)
	fp, ok := state.lastFingerprint[scopeID]
	return fp, ok
}

// StoreFingerprint records the fingerprint for (sessionID, scopeID).
func (a *Arena) StoreFingerprint(sessionID, scopeID, fingerprint string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	state := a.stateFor(sessionID)
	state.lastFingerprint[scopeID] = fingerprint
}

// ReservedTokens returns the token count reserved by the last accepted
// injection for (sessionID, scopeID).
func (a *Arena) ReservedTokens(sessionID, scopeID string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	state := a.stateFor(sessionID)
	return state.reservedTokens[scopeID]
}

// SetReservedTokens records the token count reserved by an accepted
// injection for (sessionID, scopeID); a duplicate-content drop resets it to
// zero since nothing new was actually injected.
func (a *Arena) SetReservedTokens(sessionID, scopeID string, tokens int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	state := a.stateFor(sessionID)
	state.reservedTokens[scopeID] = tokens
}

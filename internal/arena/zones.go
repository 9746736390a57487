package arena

// Zone is a coarse partition over arena entries used for clustering and
// token budgeting.
type Zone string

const (
	ZoneIdentity      Zone = "identity"
	ZoneTruth         Zone = "truth"
	ZoneTaskState     Zone = "task_state"
	ZoneToolFailures  Zone = "tool_failures"
	ZoneMemoryWorking Zone = "memory_working"
	ZoneMemoryRecall  Zone = "memory_recall"
)

// zoneSequence is the fixed zone order used to cluster entries before
// priority ordering.
var zoneSequence = []Zone{ZoneIdentity, ZoneTruth, ZoneTaskState, ZoneToolFailures, ZoneMemoryWorking, ZoneMemoryRecall}

var zoneRank = func() map[Zone]int {
	m := make(map[Zone]int, len(zoneSequence))
	for i, z := range zoneSequence {
		m[z] = i
	}
	return m
}()

// ZoneOrder returns a stable sort rank for zone-by-source clustering. Sources
// that are not one of the fixed zone tags all share one rank, placed after
// every known zone; ZoneOrder does not order them among themselves.
func ZoneOrder(source string) int {
	if r, ok := zoneRank[Zone(source)]; ok {
		return r
	}
	return len(zoneSequence)
}

// Priority is the urgency tier of an arena entry.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityNormal   Priority = "normal"
	PriorityLow      Priority = "low"
)

var priorityRank = map[Priority]int{PriorityCritical: 0, PriorityHigh: 1, PriorityNormal: 2, PriorityLow: 3}

// PriorityOrder returns a stable sort rank, lower sorts first (more urgent).
func PriorityOrder(p Priority) int {
	if r, ok := priorityRank[p]; ok {
		return r
	}
	return len(priorityRank)
}

// Band is an optional {min,max} token range for a zone.
type Band struct {
	Min int
	Max int // 0 means unbounded
}

// RecallDegradable is the SLO-eviction-eligible source set.
var RecallDegradable = map[string]bool{
	"memory-recall": true,
	"external-rag":  true,
}

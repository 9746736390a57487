// Package evidence implements the Evidence Ledger slice folded by the
// Turn-Replay Engine: tool-result failures, anchor epochs, and pruning.
package evidence

import "encoding/json"

// Verdict is the outcome of a tool invocation as judged by the runtime.
type Verdict string

const (
	VerdictPass         Verdict = "pass"
	VerdictFail         Verdict = "fail"
	VerdictInconclusive Verdict = "inconclusive"
)

// Failure is a recorded failing tool result.
type Failure struct {
	ToolName    string `json:"toolName"`
	Args        string `json:"args"`
	OutputText  string `json:"outputText"`
	Turn        int    `json:"turn"`
	AnchorEpoch int    `json:"anchorEpoch"`
	Timestamp   int64  `json:"timestamp"`
}

// State is the folded evidence slice.
type State struct {
	TotalRecords    int       `json:"totalRecords"`
	FailureRecords  int       `json:"failureRecords"`
	AnchorEpoch     int       `json:"anchorEpoch"`
	RecentFailures  []Failure `json:"recentFailures"`
}

const maxRecentFailures = 48
const pruneWindow = 3

func (s State) Clone() State {
	out := s
	out.RecentFailures = append([]Failure(nil), s.RecentFailures...)
	return out
}

func prune(state State) State {
	cutoff := state.AnchorEpoch - pruneWindow
	kept := state.RecentFailures[:0:0]
	for _, f := range state.RecentFailures {
		if f.AnchorEpoch >= cutoff {
			kept = append(kept, f)
		}
	}
	state.RecentFailures = kept
	return state
}

// InfrastructureTools are tools whose failures never become failure records.
var InfrastructureTools = map[string]bool{
	"skill_load": true, "skill_route_override": true, "session_compact": true,
}

// ToolResult is the minimal shape needed to fold a tool-result event.
type ToolResult struct {
	ToolName   string  `json:"toolName"`
	Args       string  `json:"args"`
	OutputText string  `json:"outputText"`
	Verdict    Verdict `json:"verdict"`
}

// Reduce folds one evidence-related tape event.
func Reduce(state State, eventType string, payload json.RawMessage, turn int, timestamp int64) State {
	switch eventType {
	case "evidence.tool_result":
		var r ToolResult
		if json.Unmarshal(payload, &r) != nil {
			return state
		}
		state.TotalRecords++
		if r.Verdict == VerdictFail && !InfrastructureTools[r.ToolName] {
			state.FailureRecords++
			state.RecentFailures = append(state.RecentFailures, Failure{
				ToolName: r.ToolName, Args: r.Args, OutputText: r.OutputText,
				Turn: turn, AnchorEpoch: state.AnchorEpoch, Timestamp: timestamp,
			})
			if len(state.RecentFailures) > maxRecentFailures {
				state.RecentFailures = state.RecentFailures[len(state.RecentFailures)-maxRecentFailures:]
			}
		}

	case "evidence.anchor":
		state.AnchorEpoch++
		state = prune(state)
	}
	return state
}

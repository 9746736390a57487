package skills

import "fmt"

// maxObservedScore bounds the confidence interpolation above autoThreshold.
// The scorer has no fixed ceiling (it sums weighted signal hits), so this is
// a practical cap chosen to keep confidence meaningful past the auto band;
// real scores rarely exceed it given the weight table in selector.go.
const maxObservedScore = 30.0

// Decision is the resolved dispatch outcome for a turn.
type Decision struct {
	Mode       DispatchMode
	Confidence float64
	Reason     string
	Skill      string
	Score      float64
}

// Resolve computes mode/confidence/reason for the top selection against the
// primary's dispatch policy.
func Resolve(selections []Selection, policy DispatchPolicy) Decision {
	if len(selections) == 0 {
		return Decision{Mode: ModeNone, Confidence: 0, Reason: "no candidate skills matched"}
	}

	top := selections[0]
	switch {
	case top.Score >= policy.AutoThreshold:
		return Decision{
			Mode:       ModeAuto,
			Confidence: lerp(top.Score, policy.AutoThreshold, maxObservedScore, 0.85, 1.0),
			Reason:     fmt.Sprintf("score %.2f >= autoThreshold %.2f", top.Score, policy.AutoThreshold),
			Skill:      top.Name,
			Score:      top.Score,
		}
	case top.Score >= policy.GateThreshold:
		return Decision{
			Mode:       ModeGate,
			Confidence: lerp(top.Score, policy.GateThreshold, policy.AutoThreshold, 0.55, 0.85),
			Reason:     fmt.Sprintf("score %.2f >= gateThreshold %.2f, below autoThreshold %.2f", top.Score, policy.GateThreshold, policy.AutoThreshold),
			Skill:      top.Name,
			Score:      top.Score,
		}
	default:
		mode := policy.DefaultMode
		if mode == "" {
			mode = ModeSuggest
		}
		return Decision{
			Mode:       mode,
			Confidence: lerp(top.Score, 0, policy.GateThreshold, 0.1, 0.5),
			Reason:     fmt.Sprintf("score %.2f below gateThreshold %.2f", top.Score, policy.GateThreshold),
			Skill:      top.Name,
			Score:      top.Score,
		}
	}
}

// lerp maps x from [lo,hi] to [outLo,outHi], clamped at the output bounds.
func lerp(x, lo, hi, outLo, outHi float64) float64 {
	if hi <= lo {
		return outLo
	}
	t := (x - lo) / (hi - lo)
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return outLo + t*(outHi-outLo)
}

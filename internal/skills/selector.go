package skills

import (
	"sort"
	"strings"
)

const (
	weightNameMatch        = 10.0
	weightIntentMatch      = 8.0
	weightIntentBodyMatch  = 4.0
	weightPhraseMatch      = 7.0
	weightTagMatch         = 3.0
	maxTagMatches          = 3
	weightAntiTagPenalty   = -3.0
	minSubstringMatchChars = 3
)

func costAdjustment(c CostHint) float64 {
	switch c {
	case CostLow:
		return 1
	case CostHigh:
		return -1
	default:
		return 0
	}
}

// Signal is one contributing term in a score breakdown.
type Signal struct {
	Kind   string
	Term   string
	Weight float64
}

// Selection is one scored candidate skill.
type Selection struct {
	Name      string
	Score     float64
	Reason    string
	Breakdown []Signal
}

// normalizedSet builds the normalized-token set for a region of text.
func normalizedSet(text string) map[string]bool {
	out := map[string]bool{}
	for _, tok := range tokenize(text) {
		out[normalize(tok)] = true
	}
	return out
}

// termMatches reports whether term (possibly multi-token) appears in text,
// per the spec's matching rules: single tokens match by normalized set
// membership or (if >=3 ASCII chars) bounded substring; multi-token terms
// must appear as an ordered sequence.
func termMatches(term string, text string, tokenSet map[string]bool) bool {
	termTokens := tokenize(term)
	if len(termTokens) == 0 {
		return false
	}
	if len(termTokens) == 1 {
		nt := normalize(termTokens[0])
		if tokenSet[nt] {
			return true
		}
		if len(termTokens[0]) >= minSubstringMatchChars && isASCII(termTokens[0]) {
			return strings.Contains(strings.ToLower(text), strings.ToLower(termTokens[0]))
		}
		return false
	}
	// Multi-token: ordered sequence match against the tokenized text.
	textTokens := tokenize(text)
	return containsSubsequenceInOrder(textTokens, termTokens)
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > 127 {
			return false
		}
	}
	return true
}

func containsSubsequenceInOrder(haystack, needle []string) bool {
	if len(needle) == 0 || len(haystack) < len(needle) {
		return false
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j, n := range needle {
			if normalize(haystack[i+j]) != normalize(n) {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func negativeHits(neg []NegativeRule, intentText, fullText string) bool {
	for _, rule := range neg {
		scopeText := fullText
		if rule.Scope == "intent" {
			scopeText = intentText
		}
		scopeSet := normalizedSet(scopeText)
		for _, term := range rule.Terms {
			if termMatches(term, scopeText, scopeSet) {
				return true
			}
		}
	}
	return false
}

// Score evaluates one contract against a prompt, already split into intent
// and body regions.
func Score(c Contract, prompt, intentRegion, bodyRegion string) (float64, []Signal, bool) {
	intentSet := normalizedSet(intentRegion)
	bodySet := normalizedSet(bodyRegion)
	fullSet := normalizedSet(prompt)

	if negativeHits(c.Triggers.Negatives, intentRegion, prompt) {
		return 0, nil, false
	}

	intents := c.Triggers.Intents
	if len(intents) == 0 {
		intents = []string{c.Name}
	}

	var score float64
	var signals []Signal

	for _, intent := range intents {
		if termMatches(intent, prompt, fullSet) {
			score += weightNameMatch
			signals = append(signals, Signal{Kind: "name_match", Term: intent, Weight: weightNameMatch})
			break
		}
	}

	intentHit := false
	for _, intent := range intents {
		if termMatches(intent, intentRegion, intentSet) {
			score += weightIntentMatch
			signals = append(signals, Signal{Kind: "intent_match", Term: intent, Weight: weightIntentMatch})
			intentHit = true
			break
		}
	}
	if !intentHit {
		for _, intent := range intents {
			if termMatches(intent, bodyRegion, bodySet) {
				score += weightIntentBodyMatch
				signals = append(signals, Signal{Kind: "intent_body_match", Term: intent, Weight: weightIntentBodyMatch})
				break
			}
		}
	}

	for _, phrase := range c.Triggers.Phrases {
		if termMatches(phrase, prompt, fullSet) {
			score += weightPhraseMatch
			signals = append(signals, Signal{Kind: "phrase_match", Term: phrase, Weight: weightPhraseMatch})
		}
	}

	tagHits := 0
	for _, tag := range c.Tags {
		if tagHits >= maxTagMatches {
			break
		}
		if termMatches(tag, prompt, fullSet) {
			score += weightTagMatch
			signals = append(signals, Signal{Kind: "tag_match", Term: tag, Weight: weightTagMatch})
			tagHits++
		}
	}

	for _, anti := range c.AntiTags {
		if termMatches(anti, prompt, fullSet) {
			score += weightAntiTagPenalty
			signals = append(signals, Signal{Kind: "anti_tag_penalty", Term: anti, Weight: weightAntiTagPenalty})
		}
	}

	adj := costAdjustment(c.CostHint)
	if adj != 0 {
		score += adj
		signals = append(signals, Signal{Kind: "cost_adjustment", Term: string(c.CostHint), Weight: adj})
	}

	return score, signals, true
}

// Select scores every candidate against prompt and returns the top K,
// ordered by score descending then name ascending.
func Select(candidates []Contract, prompt string, topK int) []Selection {
	intentRegion, bodyRegion := splitIntentBody(prompt)

	out := make([]Selection, 0, len(candidates))
	for _, c := range candidates {
		score, signals, ok := Score(c, prompt, intentRegion, bodyRegion)
		if !ok {
			continue
		}
		if score <= 0 {
			continue
		}
		out = append(out, Selection{Name: c.Name, Score: score, Reason: reasonFor(signals), Breakdown: signals})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Name < out[j].Name
	})

	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out
}

func reasonFor(signals []Signal) string {
	if len(signals) == 0 {
		return "no matching signals"
	}
	parts := make([]string, 0, len(signals))
	for _, s := range signals {
		parts = append(parts, s.Kind+"("+s.Term+")")
	}
	return strings.Join(parts, ", ")
}

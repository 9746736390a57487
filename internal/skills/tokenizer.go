package skills

import "strings"

// tokenize splits on runs of non-word characters (Unicode letters, digits,
// '_', '-'), lowercases, and drops ASCII tokens shorter than 2 characters.
func tokenize(s string) []string {
	var tokens []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() == 0 {
			return
		}
		tok := strings.ToLower(cur.String())
		cur.Reset()
		if isShortASCII(tok) {
			return
		}
		tokens = append(tokens, tok)
	}
	for _, r := range s {
		if isWordRune(r) {
			cur.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

func isWordRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '_' || r == '-':
		return true
	case r > 127:
		return true // treat every non-ASCII rune as a word rune
	}
	return false
}

func isShortASCII(tok string) bool {
	if len(tok) >= 2 {
		return false
	}
	for _, r := range tok {
		if r > 127 {
			return false
		}
	}
	return true
}

var imperativePrefixes = []string{
	"please ", "can you ", "could you ", "help me ", "i need you to ", "i want you to ", "would you ",
}

// splitIntentBody strips a leading imperative prefix, takes the first
// sentence as the intent region (capped at 24 tokens), and returns the
// remainder as the body region.
func splitIntentBody(prompt string) (intent string, body string) {
	trimmed := strings.TrimSpace(prompt)
	lower := strings.ToLower(trimmed)
	for _, p := range imperativePrefixes {
		if strings.HasPrefix(lower, p) {
			trimmed = trimmed[len(p):]
			lower = lower[len(p):]
			break
		}
	}

	end := len(trimmed)
	for _, sep := range []string{".", "!", "?", "\n"} {
		if idx := strings.Index(trimmed, sep); idx >= 0 && idx < end {
			end = idx
		}
	}
	firstSentence := trimmed[:end]
	rest := strings.TrimSpace(trimmed[end:])

	toks := tokenize(firstSentence)
	if len(toks) > 24 {
		// Cap the intent region by cutting the original sentence after its
		// 24th word; the words past the cut are dropped and do not move into
		// the body region.
		firstSentence = capToTokens(firstSentence, 24)
	}
	return firstSentence, rest
}

func capToTokens(s string, n int) string {
	count := 0
	inWord := false
	for i, r := range s {
		if isWordRune(r) {
			if !inWord {
				count++
				inWord = true
			}
			if count > n {
				return s[:i]
			}
		} else {
			inWord = false
		}
	}
	return s
}

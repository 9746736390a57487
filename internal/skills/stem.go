package skills

import "strings"

// stem collapses a small set of common English suffixes so that surface
// variants of the same word score alike. It is intentionally minimal — not a
// full Porter stemmer — matching the spec's "minimal stemmer" contract.
func stem(word string) string {
	switch {
	case strings.HasSuffix(word, "ies") && len(word) > 4:
		return word[:len(word)-3] + "y"
	case strings.HasSuffix(word, "ing") && len(word) > 5:
		return word[:len(word)-3]
	case strings.HasSuffix(word, "ed") && len(word) > 4:
		return word[:len(word)-2]
	case strings.HasSuffix(word, "s") && !strings.HasSuffix(word, "ss") && len(word)-1 > 3:
		return word[:len(word)-1]
	default:
		return word
	}
}

// aliasGroups is a small fixed table of English intent synonyms. Each group
// normalizes to its first member.
var aliasGroups = [][]string{
	{"review", "audit", "assess", "evaluate"},
	{"fix", "repair", "resolve"},
	{"create", "build", "generate", "make"},
	{"delete", "remove", "drop"},
	{"explain", "describe", "clarify"},
	{"test", "verify", "validate"},
	{"write", "draft", "compose"},
	{"optimize", "improve", "refactor"},
	{"find", "search", "locate"},
}

var aliasCanonical = func() map[string]string {
	m := make(map[string]string)
	for _, g := range aliasGroups {
		canon := g[0]
		for _, term := range g {
			m[term] = canon
		}
	}
	return m
}()

// normalize stems a token then resolves it through the alias table.
func normalize(token string) string {
	s := stem(token)
	if canon, ok := aliasCanonical[s]; ok {
		return canon
	}
	return s
}

package main

import "strings"

const edgePunct = ".,;:!?\"'`()[]{}<>/"

// normalizeKey folds a name token for lookup: lowercase, trimmed, edge
// punctuation stripped, internal whitespace runs collapsed. Chat text leaves
// trailing commas and brackets on names all the time.
func normalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Trim(s, edgePunct)
	return strings.Join(strings.Fields(s), " ")
}

// normalizeBossKey folds a boss token without stripping punctuation; boss
// names can legitimately start with symbols like "/".
func normalizeBossKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), " ")
}

func splitWords(s string) []string {
	return strings.Fields(s)
}

// dedupePreserveOrder drops later duplicates by normalized-name key, keeping
// first-seen order so repeated input never reorders output.
func dedupePreserveOrder(names []string) []string {
	seen := make(map[string]bool, len(names))
	var out []string
	for _, n := range names {
		key := normalizeKey(n)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	return out
}

func isNumericToken(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

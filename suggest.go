package main

import "sort"

const (
	suggestMaxDistance  = 2
	suggestDefaultLimit = 5
)

// SuggestNames returns up to limit roster names closest to the unresolved
// token, nearest first, ties broken alphabetically.
func SuggestNames(lk *Lookup, token string, limit int) []string {
	return suggest(token, lk.CanonicalUsers(), normalizeKey, limit)
}

func SuggestBosses(lk *Lookup, token string, limit int) []string {
	return suggest(token, lk.CanonicalBosses(), normalizeBossKey, limit)
}

func suggest(token string, candidates []string, normalize func(string) string, limit int) []string {
	if limit <= 0 {
		limit = suggestDefaultLimit
	}
	key := normalize(token)
	if key == "" {
		return nil
	}

	type scored struct {
		name string
		dist int
	}
	var matches []scored
	for _, cand := range candidates {
		d := boundedLevenshtein(key, normalize(cand), suggestMaxDistance)
		if d < 0 {
			continue
		}
		matches = append(matches, scored{name: cand, dist: d})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].dist != matches[j].dist {
			return matches[i].dist < matches[j].dist
		}
		return matches[i].name < matches[j].name
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.name
	}
	return out
}

// boundedLevenshtein returns the edit distance between a and b, or -1 when it
// exceeds max. The length check prunes rows that cannot come back under the
// cap.
func boundedLevenshtein(a, b string, max int) int {
	ra, rb := []rune(a), []rune(b)
	if diff := len(ra) - len(rb); diff > max || -diff > max {
		return -1
	}
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		rowMin := curr[0]
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
			if curr[j] < rowMin {
				rowMin = curr[j]
			}
		}
		if rowMin > max {
			return -1
		}
		prev, curr = curr, prev
	}
	if prev[len(rb)] > max {
		return -1
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

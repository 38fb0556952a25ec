package store

import "strings"

// similar implements the pattern-merge predicate from spec §3/§9: two
// descriptions are "similar" if their first prefixLen characters match
// case-insensitively, or their word sets overlap (Jaccard) above the given
// threshold. Both thresholds are tuneable (config.TuningConfig).
func similar(a, b string, prefixLen int, jaccardThreshold float64) bool {
	if prefixEqual(a, b, prefixLen) {
		return true
	}
	return jaccard(a, b) > jaccardThreshold
}

func prefixEqual(a, b string, n int) bool {
	al, bl := strings.ToLower(a), strings.ToLower(b)
	return truncate(al, n) == truncate(bl, n)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func jaccard(a, b string) float64 {
	wordsA := wordSet(a)
	wordsB := wordSet(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}
	overlap := 0
	for w := range wordsA {
		if wordsB[w] {
			overlap++
		}
	}
	union := len(wordsA) + len(wordsB) - overlap
	return float64(overlap) / float64(union)
}

func wordSet(s string) map[string]bool {
	fields := strings.Fields(strings.ToLower(s))
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}

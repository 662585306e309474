package resolver

import (
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Normalize lowercases a raw column header, strips punctuation, and
// collapses whitespace so that "Promoter Pledge (%)" and "promoter_pledge"
// normalize identically.
func Normalize(header string) string {
	n := strings.ToLower(strings.TrimSpace(header))
	n = nonAlnum.ReplaceAllString(n, " ")
	return strings.TrimSpace(n)
}

// trigrams returns the set of letter trigrams of a normalized string, with
// the same word-boundary padding Postgres pg_trgm uses ("  w", " wo", ...,
// "rd ").
func trigrams(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, word := range strings.Fields(s) {
		padded := "  " + word + " "
		for i := 0; i+3 <= len(padded); i++ {
			set[padded[i:i+3]] = struct{}{}
		}
	}
	return set
}

// Similarity computes trigram set similarity between two normalized strings
// (shared trigrams over the union), mirroring pg_trgm's similarity().
// Returns 0 for empty inputs and 1 for identical non-empty inputs.
func Similarity(a, b string) float64 {
	ta, tb := trigrams(a), trigrams(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	shared := 0
	for t := range ta {
		if _, ok := tb[t]; ok {
			shared++
		}
	}
	union := len(ta) + len(tb) - shared
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}

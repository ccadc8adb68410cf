package search

import (
	"sort"

	"github.com/hbollon/go-edlib"

	"moviefinder-tg-bot/internal/catalog"
)

// Scored pairs a candidate entry with its similarity score.
type Scored struct {
	Entry catalog.Entry
	Score int
}

// Score returns a 0-100 similarity between a normalized query and a
// normalized catalog key. Keys carry trailing noise the query never has
// (year, language tag, quality markers), so a query shorter than the key is
// additionally scored against every key substring of the same length and the
// best window wins. Damerau-Levenshtein handles the transposition typos users
// actually make.
func Score(query, key string) int {
	if query == "" || key == "" {
		return 0
	}
	best := similarity(query, key)
	if len(query) < len(key) {
		for i := 0; i+len(query) <= len(key) && best < 1; i++ {
			if s := similarity(query, key[i:i+len(query)]); s > best {
				best = s
			}
		}
	}
	return int(best*100 + 0.5)
}

func similarity(a, b string) float32 {
	sim, err := edlib.StringsSimilarity(a, b, edlib.DamerauLevenshtein)
	if err != nil {
		return 0
	}
	return sim
}

// Match scores every candidate key against the query, drops candidates under
// cutoff, and returns the top limit sorted by descending score. Ties keep the
// original candidate order. An empty query or candidate set yields nothing:
// similarity against an empty string is degenerate and is never attempted.
func Match(query string, candidates []catalog.Entry, cutoff, limit int) []Scored {
	if query == "" || len(candidates) == 0 || limit <= 0 {
		return nil
	}
	matches := make([]Scored, 0, len(candidates))
	for _, c := range candidates {
		score := Score(query, c.Key)
		if score >= cutoff {
			matches = append(matches, Scored{Entry: c, Score: score})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

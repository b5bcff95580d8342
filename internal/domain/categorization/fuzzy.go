package categorization

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// nearMissThreshold is the minimum similarity score for a cache near-miss.
const nearMissThreshold = 80

// nearMissConfidence keeps fuzzy suggestions below the auto-apply threshold.
const nearMissConfidence = 0.6

// FuzzyMatch is a cached fingerprint similar to, but not equal to, the input.
type FuzzyMatch struct {
	Entry CacheEntry
	Score int // 0-100, higher is closer
}

// FuzzyMatcher finds cached merchants whose fingerprint is close to a new one,
// catching variations like "posto shell 01" vs "posto shell 02".
type FuzzyMatcher struct {
	entries []CacheEntry
}

// NewFuzzyMatcher indexes the cache entries by fingerprint.
func NewFuzzyMatcher(entries []CacheEntry) *FuzzyMatcher {
	fm := &FuzzyMatcher{entries: make([]CacheEntry, 0, len(entries))}
	for _, e := range entries {
		if strings.TrimSpace(e.Fingerprint) == "" {
			continue
		}
		fm.entries = append(fm.entries, e)
	}
	return fm
}

// Match returns the closest entry scoring at least threshold. Exact
// fingerprint matches are cache hits and are never returned here.
func (fm *FuzzyMatcher) Match(fingerprint string, threshold int) (FuzzyMatch, bool) {
	all := fm.MatchAll(fingerprint, threshold)
	if len(all) == 0 {
		return FuzzyMatch{}, false
	}
	return all[0], true
}

// MatchAll returns every entry scoring at least threshold, best first.
func (fm *FuzzyMatcher) MatchAll(fingerprint string, threshold int) []FuzzyMatch {
	if fm == nil || fingerprint == "" {
		return nil
	}

	var results []FuzzyMatch
	for _, e := range fm.entries {
		if e.Fingerprint == fingerprint {
			continue
		}
		if score := fuzzyScore(fingerprint, e.Fingerprint); score >= threshold {
			results = append(results, FuzzyMatch{Entry: e, Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

// Len returns the number of indexed fingerprints.
func (fm *FuzzyMatcher) Len() int {
	if fm == nil {
		return 0
	}
	return len(fm.entries)
}

// fuzzyScore calculates a similarity score between two strings (0-100)
// from containment, edit distance and subsequence rank.
func fuzzyScore(s1, s2 string) int {
	if s1 == s2 {
		return 100
	}

	// one containing the other is common for merchant variations
	if strings.Contains(s1, s2) {
		return 75 + (25 * len(s2) / len(s1))
	}
	if strings.Contains(s2, s1) {
		return 75 + (25 * len(s1) / len(s2))
	}

	maxLen := max(len(s1), len(s2))
	if maxLen == 0 {
		return 0
	}
	distance := fuzzy.LevenshteinDistance(s1, s2)
	levenshteinScore := 100 * (maxLen - distance) / maxLen

	// Rank is the number of characters skipped when s2 is a subsequence of s1
	rankScore := 0
	if rank := fuzzy.RankMatch(s2, s1); rank >= 0 && rank < len(s1) {
		rankScore = 60 - (rank * 40 / len(s1))
	}

	return max(levenshteinScore, rankScore)
}

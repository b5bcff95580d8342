package categorization

import (
	"sync"

	"github.com/FACorreiaa/statement-ingest/internal/domain/common"
	"github.com/FACorreiaa/statement-ingest/internal/domain/import/normalizer"
)

// Engine resolves categories locally from one household's merchant cache,
// rules and the built-in heuristics, in that order.
type Engine struct {
	mu         sync.RWMutex
	cache      map[string]CacheEntry
	rules      *ruleSet
	heuristics *Heuristics
	fuzzy      *FuzzyMatcher
}

// NewEngine builds an engine over a household's rules and cache entries.
func NewEngine(rules []Rule, cache []CacheEntry) *Engine {
	e := &Engine{heuristics: NewHeuristics()}
	e.Build(rules, cache)
	return e
}

// WithHeuristics replaces the built-in table.
func (e *Engine) WithHeuristics(h *Heuristics) *Engine {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.heuristics = h
	return e
}

// Build replaces the rules and cache the engine resolves against.
func (e *Engine) Build(rules []Rule, cache []CacheEntry) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cache = make(map[string]CacheEntry, len(cache))
	for _, c := range cache {
		if c.Fingerprint == "" {
			continue
		}
		e.cache[c.Fingerprint] = c
	}
	e.rules = newRuleSet(rules)
	e.fuzzy = NewFuzzyMatcher(cache)
}

// Resolve returns the first local resolution for description: a cache hit,
// then the best matching rule, then the highest-priority heuristic.
func (e *Engine) Resolve(description string) (Resolution, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.resolve(description)
}

// ResolveBatch resolves many descriptions under a single read lock.
// Unresolved positions are nil.
func (e *Engine) ResolveBatch(descriptions []string) []*Resolution {
	e.mu.RLock()
	defer e.mu.RUnlock()

	results := make([]*Resolution, len(descriptions))
	for i, desc := range descriptions {
		if res, ok := e.resolve(desc); ok {
			results[i] = &res
		}
	}
	return results
}

func (e *Engine) resolve(description string) (Resolution, bool) {
	fp := normalizer.Fingerprint(description)

	if entry, ok := e.cache[fp]; ok && fp != "" {
		return Resolution{
			Category:    entry.Category,
			Confidence:  cacheHitConfidence,
			Source:      SourceCache,
			Fingerprint: fp,
		}, true
	}

	if m, ok := bestRuleMatch(e.rules.match(description)); ok {
		id := m.rule.ID
		return Resolution{
			Category:    m.rule.Category,
			Confidence:  ruleConfidence(m.rule),
			Source:      SourceRule,
			Fingerprint: fp,
			RuleID:      &id,
			Pattern:     m.rule.Pattern,
		}, true
	}

	if h, ok := e.heuristics.Match(description); ok {
		return Resolution{
			Category:    common.Fixed(h.Category),
			Confidence:  h.Confidence,
			Source:      SourceHeuristic,
			Fingerprint: fp,
			Pattern:     h.Pattern.String(),
		}, true
	}
	return Resolution{}, false
}

// NearMiss suggests the category of a cached merchant with a similar
// fingerprint. It is never confident enough to auto-apply.
func (e *Engine) NearMiss(description string) (Resolution, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	fp := normalizer.Fingerprint(description)
	m, ok := e.fuzzy.Match(fp, nearMissThreshold)
	if !ok {
		return Resolution{}, false
	}
	return Resolution{
		Category:    m.Entry.Category,
		Confidence:  nearMissConfidence,
		Source:      SourceFuzzy,
		Fingerprint: fp,
		Pattern:     m.Entry.Fingerprint,
	}, true
}

// Cached reports whether fingerprint already has a cache entry.
func (e *Engine) Cached(fingerprint string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.cache[fingerprint]
	return ok
}

// RuleCount returns the number of rules loaded, including skipped ones.
func (e *Engine) RuleCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.rules.rules)
}

// InvalidRules returns how many rules were skipped for a bad pattern or match type.
func (e *Engine) InvalidRules() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.rules.invalid
}

// Package categorization resolves spending categories for imported
// transactions from the household's merchant cache, its own rules, a
// built-in heuristic table and, as a last resort, a remote AI classifier.
package categorization

import (
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/statement-ingest/internal/domain/common"
)

// AutoApplyThreshold is the confidence at which a match is written without review.
const AutoApplyThreshold = 0.85

// cacheHitConfidence is reported for every merchant cache hit.
const cacheHitConfidence = 0.95

// defaultRuleConfidence applies to rules stored without a confidence.
const defaultRuleConfidence = 0.9

// MatchType selects how a rule pattern is compared with a description.
type MatchType string

const (
	MatchEquals     MatchType = "equals"
	MatchStartsWith MatchType = "startsWith"
	MatchContains   MatchType = "contains"
	MatchRegex      MatchType = "regex"
)

// specificity ranks match types, most specific first.
func (m MatchType) specificity() int {
	switch m {
	case MatchEquals:
		return 4
	case MatchStartsWith:
		return 3
	case MatchContains:
		return 2
	case MatchRegex:
		return 1
	}
	return 0
}

// Source records which layer produced a category.
type Source string

const (
	SourceManual    Source = "manual"
	SourceCache     Source = "cache"
	SourceRule      Source = "rule"
	SourceHeuristic Source = "heuristic"
	SourceAI        Source = "ai"
	SourceFuzzy     Source = "fuzzy"
)

// Rule is a household-defined categorization rule. Rules are owned by the
// settings surface and only read here.
type Rule struct {
	ID          uuid.UUID       `json:"id"`
	HouseholdID uuid.UUID       `json:"household_id"`
	Pattern     string          `json:"pattern"`
	MatchType   MatchType       `json:"match_type"`
	Category    common.Category `json:"category"`
	Priority    int             `json:"priority"`
	Confidence  float64         `json:"confidence"`
}

// CacheEntry remembers the category last assigned to a merchant fingerprint.
type CacheEntry struct {
	HouseholdID uuid.UUID       `json:"household_id"`
	Fingerprint string          `json:"fingerprint"`
	Category    common.Category `json:"category"`
	Confidence  float64         `json:"confidence"`
	Source      Source          `json:"source"`
	LastUsedAt  time.Time       `json:"last_used_at"`
}

// Transaction is the minimal view of a row submitted for categorization.
type Transaction struct {
	ID          uuid.UUID
	Description string
	Category    common.Category
}

// Resolution is the outcome of resolving one description.
type Resolution struct {
	Category    common.Category `json:"category"`
	Confidence  float64         `json:"confidence"`
	Source      Source          `json:"source"`
	Fingerprint string          `json:"fingerprint"`
	RuleID      *uuid.UUID      `json:"rule_id,omitempty"`
	Pattern     string          `json:"pattern,omitempty"`
}

// AutoApply reports whether the resolution clears the auto-apply threshold.
func (r Resolution) AutoApply() bool {
	return r.Confidence >= AutoApplyThreshold
}

// Update is a category assignment applied to a transaction.
type Update struct {
	TransactionID uuid.UUID  `json:"transaction_id"`
	Description   string     `json:"description"`
	Resolution    Resolution `json:"resolution"`
}

// Report summarizes one categorization run.
type Report struct {
	Applied     []Update `json:"applied"`
	Suggestions []Update `json:"suggestions"`
	NearMisses  []Update `json:"near_misses"`
	// Untouched counts transactions that already carried a category.
	Untouched int `json:"untouched"`
	// Remaining counts transactions left uncategorized.
	Remaining int `json:"remaining"`
	// AIError is the single aggregated AI failure for the run, if any.
	AIError string `json:"ai_error,omitempty"`
}

// AppliedByID indexes applied updates by transaction id.
func (r *Report) AppliedByID() map[uuid.UUID]Resolution {
	out := make(map[uuid.UUID]Resolution, len(r.Applied))
	for _, u := range r.Applied {
		out[u.TransactionID] = u.Resolution
	}
	return out
}

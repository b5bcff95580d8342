package categorization

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/statement-ingest/internal/domain/common"
	"github.com/FACorreiaa/statement-ingest/internal/domain/import/normalizer"
)

func rule(pattern string, mt MatchType, cat common.Category, priority int, confidence float64) Rule {
	return Rule{
		ID:         uuid.New(),
		Pattern:    pattern,
		MatchType:  mt,
		Category:   cat,
		Priority:   priority,
		Confidence: confidence,
	}
}

func TestEngine_Resolve(t *testing.T) {
	leisure := common.Fixed(common.Leisure)
	shopping := common.Fixed(common.Shopping)
	streaming := common.Custom("streaming")

	cache := []CacheEntry{
		{Fingerprint: normalizer.Fingerprint("PADARIA BOM PAO 123456"), Category: common.Fixed(common.Food), Confidence: 0.7},
	}
	rules := []Rule{
		rule("NETFLIX", MatchContains, leisure, 10, 0.9),
		rule("SPOTIFY", MatchContains, streaming, 5, 0.95),
		rule("UBER", MatchContains, shopping, 0, 1),
		rule("IFOOD", MatchContains, common.Fixed(common.Other), 5, 1),
		rule(`^amzn\s+mktp`, MatchRegex, shopping, 3, 0.9),
		rule("RAPPI", MatchContains, shopping, 2, 0.5),
		rule("CASA", MatchContains, shopping, 10, 0.9),
		rule("CASA DO CHA", MatchEquals, common.Fixed(common.Food), 1, 0.9),
	}
	engine := NewEngine(rules, cache)

	tests := []struct {
		name        string
		description string
		category    string
		source      Source
		confidence  float64
		found       bool
	}{
		{"heuristic ride", "UBER *TRIP 12345678", "transport", SourceHeuristic, 0.95, true},
		{"rule beats heuristic", "NETFLIX.COM 0800", "leisure", SourceRule, 0.9, true},
		{"custom category from rule", "SPOTIFY P1234", "custom:streaming", SourceRule, 0.95, true},
		{"cache hit ignores stored confidence", "Padaria Bom Pao 77777", "food", SourceCache, 0.95, true},
		{"regex is case-insensitive on raw text", "AMZN Mktp BR*1A2B3", "shopping", SourceRule, 0.9, true},
		{"rule with other category is ignored", "IFOOD *RESTAURANTE", "food", SourceHeuristic, 0.95, true},
		{"low confidence rule still resolves", "RAPPI*LOJA", "shopping", SourceRule, 0.5, true},
		{"equals beats higher priority contains", "Casa do Cha", "food", SourceRule, 0.9, true},
		{"unknown", "XPTO COMERCIO LTDA", "", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, ok := engine.Resolve(tt.description)
			require.Equal(t, tt.found, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.category, res.Category.String())
			assert.Equal(t, tt.source, res.Source)
			assert.InDelta(t, tt.confidence, res.Confidence, 1e-9)
			assert.Equal(t, normalizer.Fingerprint(tt.description), res.Fingerprint)
		})
	}
}

func TestEngine_ResolveBatch(t *testing.T) {
	engine := NewEngine(nil, nil)
	results := engine.ResolveBatch([]string{"UBER TRIP", "XPTO", "Drogasil 123"})
	require.Len(t, results, 3)
	require.NotNil(t, results[0])
	assert.Nil(t, results[1])
	require.NotNil(t, results[2])
	assert.Equal(t, "health", results[2].Category.String())
}

func TestEngine_InvalidRules(t *testing.T) {
	engine := NewEngine([]Rule{
		rule("([", MatchRegex, common.Fixed(common.Food), 1, 1),
		rule("X", MatchType("fuzzy"), common.Fixed(common.Food), 1, 1),
		rule("MERCADO", MatchContains, common.Fixed(common.Food), 1, 1),
	}, nil)
	assert.Equal(t, 2, engine.InvalidRules())
	assert.Equal(t, 3, engine.RuleCount())
}

func TestBestRuleMatch(t *testing.T) {
	food := common.Fixed(common.Food)
	equals := rule("PADARIA", MatchEquals, food, 1, 0.9)
	prefix := rule("PADARIA", MatchStartsWith, food, 1, 0.9)
	contains := rule("PADARIA", MatchContains, food, 1, 0.9)
	twin := rule("PADARIA", MatchContains, food, 1, 0.9)
	confident := rule("PADARIA", MatchContains, food, 1, 0.99)
	longer := rule("PADARIA CENTRAL", MatchContains, food, 1, 0.9)
	regex := rule("padaria", MatchRegex, food, 1, 1)
	urgent := rule("PAD", MatchRegex, food, 9, 0.5)
	urgentTwin := rule("PADARIA", MatchContains, food, 9, 0.9)

	tests := []struct {
		name    string
		matches []ruleMatch
		want    *Rule
	}{
		{"specificity first", []ruleMatch{{rule: &contains, index: 0, length: 7}, {rule: &equals, index: 1, length: 7}, {rule: &prefix, index: 2, length: 7}}, &equals},
		{"regex is least specific", []ruleMatch{{rule: &regex, index: 0, length: 7}, {rule: &contains, index: 1, length: 7}}, &contains},
		{"then confidence", []ruleMatch{{rule: &contains, index: 0, length: 7}, {rule: &confident, index: 1, length: 7}}, &confident},
		{"then match length", []ruleMatch{{rule: &contains, index: 0, length: 7}, {rule: &longer, index: 1, length: 15}}, &longer},
		{"then declaration order", []ruleMatch{{rule: &contains, index: 3, length: 7}, {rule: &twin, index: 1, length: 7}}, &twin},
		{"priority does not outrank specificity", []ruleMatch{{rule: &urgent, index: 0, length: 3}, {rule: &equals, index: 1, length: 7}}, &equals},
		{"priority breaks remaining ties", []ruleMatch{{rule: &contains, index: 0, length: 7}, {rule: &urgentTwin, index: 1, length: 7}}, &urgentTwin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := bestRuleMatch(tt.matches)
			require.True(t, ok)
			assert.Same(t, tt.want, got.rule)
		})
	}

	_, ok := bestRuleMatch(nil)
	assert.False(t, ok)
}

func TestRuleSet_MatchTypes(t *testing.T) {
	food := common.Fixed(common.Food)
	rs := newRuleSet([]Rule{
		rule("padaria", MatchEquals, food, 1, 1),
		rule("padaria", MatchStartsWith, food, 1, 1),
		rule("central", MatchContains, food, 1, 1),
	})

	tests := []struct {
		description string
		matched     int
	}{
		{"PADARIA", 2},
		{"  padaria  ", 2},
		{"PADARIA CENTRAL", 2},
		{"NOVA PADARIA", 0},
		{"CENTRAL PARK", 1},
	}
	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			assert.Len(t, rs.match(tt.description), tt.matched)
		})
	}
}

func BenchmarkEngine_Resolve(b *testing.B) {
	engine := NewEngine([]Rule{
		rule("NETFLIX", MatchContains, common.Fixed(common.Leisure), 10, 0.9),
		rule("DROGA", MatchStartsWith, common.Fixed(common.Health), 5, 0.9),
	}, nil)
	descriptions := []string{"UBER *TRIP 12345678", "NETFLIX.COM", "PIX QR 123 SUPERMERCADO", "XPTO LTDA"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		engine.Resolve(descriptions[i%len(descriptions)])
	}
}

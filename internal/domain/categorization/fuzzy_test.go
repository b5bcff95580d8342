package categorization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/statement-ingest/internal/domain/common"
)

func TestFuzzyScore(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		min  int
		max  int
	}{
		{"identical", "posto shell", "posto shell", 100, 100},
		{"contained", "uber trip", "uber", 80, 90},
		{"near spelling", "padaria bom paes", "padaria bom pao", 85, 90},
		{"unrelated", "netflix", "padaria bom pao", 0, 40},
		{"empty", "", "", 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fuzzyScore(tt.a, tt.b)
			assert.GreaterOrEqual(t, got, tt.min)
			assert.LessOrEqual(t, got, tt.max)
		})
	}
}

func TestFuzzyMatcher_Match(t *testing.T) {
	fm := NewFuzzyMatcher([]CacheEntry{
		{Fingerprint: "padaria bom pao", Category: common.Fixed(common.Food)},
		{Fingerprint: "posto shell centro", Category: common.Fixed(common.Transport)},
		{Fingerprint: ""},
	})
	assert.Equal(t, 2, fm.Len())

	m, ok := fm.Match("padaria bom paes", nearMissThreshold)
	require.True(t, ok)
	assert.Equal(t, "food", m.Entry.Category.String())

	_, ok = fm.Match("padaria bom pao", nearMissThreshold)
	assert.False(t, ok, "exact fingerprints are cache hits, not near-misses")

	_, ok = fm.Match("academia corpo", nearMissThreshold)
	assert.False(t, ok)
}

func TestEngine_NearMiss(t *testing.T) {
	engine := NewEngine(nil, []CacheEntry{
		{Fingerprint: "padaria bom pao", Category: common.Fixed(common.Food)},
	})

	res, ok := engine.NearMiss("PADARIA BOM PAES")
	require.True(t, ok)
	assert.Equal(t, SourceFuzzy, res.Source)
	assert.False(t, res.AutoApply())
}

package normalizer

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDedupHash(t *testing.T) {
	date := Date{Year: 2024, Month: 3, Day: 15}
	base := DedupHash(date, decimal.RequireFromString("-150.00"), "Supermercado Extra")

	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, base, DedupHash(date, decimal.RequireFromString("-150.00"), "Supermercado Extra"))
	})

	t.Run("case and surrounding space insensitive", func(t *testing.T) {
		assert.Equal(t, base, DedupHash(date, decimal.RequireFromString("-150"), "  supermercado extra "))
	})

	t.Run("sub-cent difference rounds away", func(t *testing.T) {
		assert.Equal(t, base, DedupHash(date, decimal.RequireFromString("-150.001"), "Supermercado Extra"))
	})

	t.Run("different amount", func(t *testing.T) {
		assert.NotEqual(t, base, DedupHash(date, decimal.RequireFromString("-150.01"), "Supermercado Extra"))
	})

	t.Run("different date", func(t *testing.T) {
		assert.NotEqual(t, base, DedupHash(Date{Year: 2024, Month: 3, Day: 16}, decimal.RequireFromString("-150"), "Supermercado Extra"))
	})
}

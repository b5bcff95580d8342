package categorization

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/FACorreiaa/statement-ingest/internal/domain/common"
)

func TestHeuristics_Match(t *testing.T) {
	h := NewHeuristics()

	tests := []struct {
		name        string
		description string
		want        common.FixedCategory
		found       bool
	}{
		{"uber trip", "UBER *TRIP 12345678", common.Transport, true},
		{"99 app", "99APP *RIDE", common.Transport, true},
		{"99 pop", "99 POP 0001", common.Transport, true},
		{"fuel", "AUTO POSTO IPIRANGA", common.Transport, true},
		{"delivery", "IFOOD *PEDIDO", common.Food, true},
		{"supermarket with accents", "SUPERMERCADO SÃO VICENTE", common.Food, true},
		{"rent", "PAGTO ALUGUEL MARÇO", common.Bills, true},
		{"pharmacy", "DROGARIA SAO PAULO", common.Health, true},
		{"gym", "SMARTFIT MENSAL", common.Health, true},
		{"bookstore", "LIVRARIA CULTURA", common.Education, true},
		{"streaming", "NETFLIX.COM", common.Leisure, true},
		{"marketplace", "MERCADOLIVRE*VENDEDOR", common.Shopping, true},
		{"apparel with symbol", "C&A MODAS", common.Shopping, true},
		{"tax", "IOF COMPRA INTERNACIONAL", common.Other, true},
		{"nothing", "XPTO COMERCIO", "", false},
		{"blank", "   ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := h.Match(tt.description)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got.Category)
		})
	}
}

func TestHeuristics_PriorityOrder(t *testing.T) {
	h := NewHeuristicsFrom([]Heuristic{
		{regexp.MustCompile(`mercado`), common.Food, 10, 0.8},
		{regexp.MustCompile(`mercado livre`), common.Shopping, 100, 0.95},
		{regexp.MustCompile(`livre`), common.Leisure, 100, 0.9},
	})

	got, ok := h.Match("Mercado Livre")
	assert.True(t, ok)
	assert.Equal(t, common.Shopping, got.Category)
	assert.InDelta(t, 0.95, got.Confidence, 1e-9)
}

package categorization

import (
	"regexp"
	"sort"
	"strings"

	"github.com/FACorreiaa/statement-ingest/internal/domain/common"
	"github.com/FACorreiaa/statement-ingest/internal/domain/import/normalizer"
)

// Heuristic is one built-in pattern. Patterns run against the normalized
// description followed by the lowercased, accent-free raw description.
type Heuristic struct {
	Pattern    *regexp.Regexp
	Category   common.FixedCategory
	Priority   int
	Confidence float64
}

// Heuristics is a priority-ordered built-in table.
type Heuristics struct {
	table []Heuristic
}

var builtin = NewHeuristicsFrom(defaultHeuristics())

// NewHeuristics returns the default table. It is shared and read-only.
func NewHeuristics() *Heuristics {
	return builtin
}

// NewHeuristicsFrom orders table by descending priority, keeping table order on ties.
func NewHeuristicsFrom(table []Heuristic) *Heuristics {
	sorted := make([]Heuristic, len(table))
	copy(sorted, table)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})
	return &Heuristics{table: sorted}
}

// Match returns the highest-priority heuristic matching description.
func (h *Heuristics) Match(description string) (Heuristic, bool) {
	if h == nil || strings.TrimSpace(description) == "" {
		return Heuristic{}, false
	}
	text := normalizer.Normalize(description) + " | " + strings.ToLower(normalizer.StripDiacritics(description))
	for _, p := range h.table {
		if p.Pattern.MatchString(text) {
			return p, true
		}
	}
	return Heuristic{}, false
}

func defaultHeuristics() []Heuristic {
	strong, medium, weak := 100, 50, 10
	return []Heuristic{
		// Ride hailing, fuel and transit
		{regexp.MustCompile(`\buber\b|\b99 ?(app|pop|taxi)\b|\bcabify\b|\bindriver\b`), common.Transport, strong, 0.95},
		{regexp.MustCompile(`\b(shell|ipiranga|petrobras|br distribuidora|posto|auto posto)\b|combustiv|gasolina|etanol`), common.Transport, strong, 0.95},
		{regexp.MustCompile(`estacionamento|\bestapar\b|\bzona azul\b|\bsem parar\b|\bconectcar\b|pedagio`), common.Transport, medium, 0.9},
		{regexp.MustCompile(`\b(metro|cptm|sptrans|bilhete unico|onibus|brt)\b`), common.Transport, medium, 0.9},

		// Delivery, markets and restaurants
		{regexp.MustCompile(`\bifood\b|\brappi\b|\bze delivery\b|\baiqfome\b`), common.Food, strong, 0.95},
		{regexp.MustCompile(`supermercado|hipermercado|\bcarrefour\b|\bassai\b|\batacadao\b|\bpao de acucar\b|hortifruti|sacolao|acougue`), common.Food, strong, 0.95},
		{regexp.MustCompile(`restaurante|lanchonete|pizzaria|hamburgueria|churrascaria|padaria|panificadora|\bmcdonalds?\b|\bburger king\b|\bbk\b|\bsubway\b|\boutback\b`), common.Food, medium, 0.9},
		{regexp.MustCompile(`\bmercado\b|\bcafe\b|cafeteria|\bsorveteria\b`), common.Food, weak, 0.8},

		// Rent, utilities and telecom
		{regexp.MustCompile(`\baluguel\b|condominio|\bimobiliaria\b`), common.Bills, strong, 0.95},
		{regexp.MustCompile(`\b(enel|cemig|copel|light|celesc|coelba|sabesp|copasa|cedae|comgas|naturgy)\b`), common.Bills, strong, 0.95},
		{regexp.MustCompile(`\b(vivo|claro|tim|oi fibra|net servicos|sky)\b|telefonica|internet`), common.Bills, medium, 0.9},
		{regexp.MustCompile(`energia eletrica|\bconta de (luz|agua|gas)\b|saneamento`), common.Bills, medium, 0.9},

		// Pharmacies, clinics and gyms
		{regexp.MustCompile(`farmacia|drogaria|\bdrogasil\b|\bdroga raia\b|\bpague menos\b|\bpanvel\b`), common.Health, strong, 0.95},
		{regexp.MustCompile(`hospital|clinica|laboratorio|\bodonto|dentista|\bunimed\b|\bamil\b|\bhapvida\b`), common.Health, medium, 0.9},
		{regexp.MustCompile(`\bsmart ?fit\b|\bacademia\b|\bbluefit\b|\bgympass\b|\bwellhub\b`), common.Health, medium, 0.9},

		// Schools and bookstores
		{regexp.MustCompile(`\bescola\b|\bcolegio\b|faculdade|universidade|mensalidade escolar`), common.Education, strong, 0.95},
		{regexp.MustCompile(`livraria|papelaria|\budemy\b|\balura\b|\bcoursera\b|\bduolingo\b`), common.Education, medium, 0.9},
		{regexp.MustCompile(`\bcurso\b`), common.Education, weak, 0.75},

		// Streaming, app stores, cinema and bars
		{regexp.MustCompile(`\bnetflix\b|\bspotify\b|\bdisney\b|\bhbo ?max\b|\bprime video\b|\bdeezer\b|\bgloboplay\b|\bparamount\b`), common.Leisure, strong, 0.95},
		{regexp.MustCompile(`\bsteam\b|\bplaystation\b|\bpsn\b|\bxbox\b|\bnintendo\b|\bgoogle play\b|\bapple\.com/bill\b|\bapp store\b`), common.Leisure, strong, 0.95},
		{regexp.MustCompile(`cinema|\bcinemark\b|\bingresso|\bsympla\b|\bteatro\b`), common.Leisure, medium, 0.9},
		{regexp.MustCompile(`\bbar\b|\bboteco\b|\bchopp|\bcervejaria\b|\bpub\b`), common.Leisure, weak, 0.8},

		// Marketplaces and apparel
		{regexp.MustCompile(`\bamazon\b|\bmercado ?livre\b|\bmercadolivre\b|\bshopee\b|\bshein\b|\baliexpress\b|\bmagalu\b|\bmagazine luiza\b|\bamericanas\b`), common.Shopping, strong, 0.95},
		{regexp.MustCompile(`\brenner\b|\briachuelo\b|\bc ?& ?a\b|\bzara\b|\bcentauro\b|\bnetshoes\b|\bdecathlon\b`), common.Shopping, medium, 0.9},
		{regexp.MustCompile(`\bloja\b|\blojas\b|\bshopping\b`), common.Shopping, weak, 0.6},

		// Taxes, fees and interest
		{regexp.MustCompile(`\biof\b|\biptu\b|\bipva\b|\bdarf\b|\bimposto\b|\btarifa\b|\banuidade\b|\bjuros\b|\bmulta\b|\bencargos\b`), common.Other, medium, 0.9},
	}
}

package parser

import (
	"strings"

	"github.com/cloudflare/ahocorasick"

	"github.com/FACorreiaa/statement-ingest/internal/domain/common"
	"github.com/FACorreiaa/statement-ingest/internal/domain/import/normalizer"
)

// defaultKeywords are whole-word hints over normalized descriptions.
var defaultKeywords = map[common.FixedCategory][]string{
	common.Food: {
		"supermercado", "mercado", "hipermercado", "atacadao", "assai", "carrefour", "pao de acucar",
		"padaria", "panificadora", "restaurante", "lanchonete", "pizzaria", "hamburgueria", "acougue",
		"hortifruti", "sacolao", "ifood", "rappi", "mcdonalds", "burger king", "cafe", "cafeteria",
	},
	common.Transport: {
		"uber", "99", "99app", "cabify", "taxi", "posto", "combustivel", "gasolina", "etanol",
		"estacionamento", "metro", "onibus", "pedagio", "sem parar", "shell", "ipiranga", "petrobras",
	},
	common.Bills: {
		"aluguel", "condominio", "energia", "luz", "agua", "saneamento", "gas", "internet",
		"telefone", "celular", "vivo", "claro", "tim", "oi", "enel", "sabesp", "cemig", "copel",
	},
	common.Health: {
		"farmacia", "drogaria", "drogasil", "droga raia", "pague menos", "hospital", "clinica",
		"laboratorio", "exame", "consulta", "dentista", "odonto", "academia", "smart fit", "unimed",
	},
	common.Education: {
		"escola", "colegio", "faculdade", "universidade", "curso", "mensalidade escolar",
		"livraria", "papelaria", "udemy", "alura", "coursera",
	},
	common.Leisure: {
		"netflix", "spotify", "disney", "hbo", "prime video", "youtube premium", "cinema",
		"ingresso", "teatro", "show", "bar", "boteco", "steam", "playstation", "xbox",
	},
	common.Shopping: {
		"amazon", "mercado livre", "mercadolivre", "magazine luiza", "magalu", "shopee", "shein",
		"americanas", "renner", "riachuelo", "zara", "centauro", "loja", "shopping",
	},
}

// KeywordMatcher infers a category from description keywords in a single pass.
type KeywordMatcher struct {
	matcher  *ahocorasick.Matcher
	keywords []string
	category []common.FixedCategory
}

// NewKeywordMatcher builds a matcher over the given table; nil uses the default table.
func NewKeywordMatcher(table map[common.FixedCategory][]string) *KeywordMatcher {
	if table == nil {
		table = defaultKeywords
	}

	km := &KeywordMatcher{}
	seen := make(map[string]bool)
	// iterate categories in a fixed order so duplicate keywords resolve deterministically
	for _, cat := range common.FixedCategories {
		for _, kw := range table[cat] {
			key := " " + normalizer.Normalize(kw) + " "
			if strings.TrimSpace(key) == "" || seen[key] {
				continue
			}
			seen[key] = true
			km.keywords = append(km.keywords, key)
			km.category = append(km.category, cat)
		}
	}

	patterns := make([][]byte, len(km.keywords))
	for i, kw := range km.keywords {
		patterns[i] = []byte(kw)
	}
	km.matcher = ahocorasick.NewMatcher(patterns)
	return km
}

// Infer returns the category of the longest keyword found in description.
func (k *KeywordMatcher) Infer(description string) (common.FixedCategory, bool) {
	if k == nil || len(k.keywords) == 0 {
		return "", false
	}
	text := " " + normalizer.Normalize(description) + " "
	hits := k.matcher.Match([]byte(text))
	if len(hits) == 0 {
		return "", false
	}

	best := -1
	for _, idx := range hits {
		if best < 0 || len(k.keywords[idx]) > len(k.keywords[best]) ||
			len(k.keywords[idx]) == len(k.keywords[best]) && idx < best {
			best = idx
		}
	}
	return k.category[best], true
}

// categoryLabels maps common statement category labels to the fixed vocabulary.
var categoryLabels = map[string]common.FixedCategory{
	"alimentacao":    common.Food,
	"alimentos":      common.Food,
	"mercado":        common.Food,
	"restaurante":    common.Food,
	"restaurantes":   common.Food,
	"transporte":     common.Transport,
	"combustivel":    common.Transport,
	"viagem":         common.Transport,
	"contas":         common.Bills,
	"moradia":        common.Bills,
	"casa":           common.Bills,
	"servicos":       common.Bills,
	"saude":          common.Health,
	"educacao":       common.Education,
	"lazer":          common.Leisure,
	"entretenimento": common.Leisure,
	"compras":        common.Shopping,
	"vestuario":      common.Shopping,
	"outros":         common.Other,
	"outro":          common.Other,
}

// categoryFromCell interprets an explicit category value from the file.
func categoryFromCell(v string) (common.Category, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return common.Category{}, false
	}
	if c, err := common.ParseCategory(v); err == nil {
		return c, true
	}
	if fc, ok := categoryLabels[normalizer.Normalize(v)]; ok {
		return common.Fixed(fc), true
	}
	return common.Category{}, false
}

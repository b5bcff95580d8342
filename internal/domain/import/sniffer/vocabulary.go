package sniffer

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/FACorreiaa/statement-ingest/internal/domain/import/normalizer"
)

// headerRule maps a header-name pattern to a semantic field. Lower rules
// rank first when two columns compete for the same field.
type headerRule struct {
	field   Field
	pattern *regexp.Regexp
}

// Patterns run against lowercased, accent-free header text.
var headerRules = []headerRule{
	{FieldIgnore, regexp.MustCompile(`\b(saldo|balance)\b`)},
	{FieldDate, regexp.MustCompile(`^(data|date|dia|dt)\b`)},
	{FieldCredit, regexp.MustCompile(`\b(entradas?|creditos?|credits?|abono|recebimentos?)\b`)},
	{FieldDebit, regexp.MustCompile(`\b(saidas?|debitos?|debits?|cargo)\b`)},
	{FieldAmount, regexp.MustCompile(`\b(valor|valores|amount|total|preco|custo|importe|montante|value)\b`)},
	{FieldDescription, regexp.MustCompile(`descri|\bnome\b|historico|estabelecimento|merchant|\bmemo\b|detalhe|\bname\b|payee`)},
	{FieldDate, regexp.MustCompile(`\b(data|date|dt)\b|lancamento|vencimento|\bcompra\b|transac|fecha`)},
	{FieldCategory, regexp.MustCompile(`categ`)},
	{FieldTransactionType, regexp.MustCompile(`^tipo\b|\btype\b|forma de pagamento|meio de pagamento|payment method`)},
	{FieldNotes, regexp.MustCompile(`\b(obs|observacao|observacoes|notas?|notes?|comentarios?)\b`)},
}

// amountRank is the rank of the amount header rule.
var amountRank = func() int {
	for i, r := range headerRules {
		if r.field == FieldAmount {
			return i
		}
	}
	return len(headerRules)
}()

// headerMatch is one rule hit for a header cell.
type headerMatch struct {
	field Field
	rank  int
}

// cardDateHeader is the broader vocabulary tried for credit-card statements.
var cardDateHeader = regexp.MustCompile(`data|date|\bdia\b|\bdt\b|lanc|venc|compra|transa|movim|emissao|ocorr|posted|post date`)

var categoryVocabulary = toSet(
	"bills", "food", "leisure", "shopping", "transport", "health", "education", "other",
	"contas", "moradia", "alimentacao", "mercado", "restaurante", "lazer", "compras",
	"transporte", "saude", "educacao", "outros", "outro", "servicos", "viagem",
)

var paymentMethodVocabulary = toSet(
	"pix", "boleto", "debito", "credito", "cartao", "cartao de credito", "cartao de debito",
	"dinheiro", "transferencia", "ted", "doc", "card", "cash", "transfer", "debit", "credit",
)

// headerKey lowercases and strips accents and surrounding punctuation.
func headerKey(cell string) string {
	s := strings.ToLower(normalizer.StripDiacritics(strings.TrimSpace(cell)))
	return strings.Trim(s, " .:;*#()[]")
}

// matchHeader returns every rule hit for the cell, in rule order.
func matchHeader(cell string) []headerMatch {
	key := headerKey(cell)
	if key == "" || len(key) > 40 || IsValueLike(cell) {
		return nil
	}
	var hits []headerMatch
	for i, r := range headerRules {
		if r.pattern.MatchString(key) {
			hits = append(hits, headerMatch{field: r.field, rank: i})
		}
	}
	return hits
}

// IsHeaderLabel reports whether the cell reads like a column label.
func IsHeaderLabel(cell string) bool {
	return len(matchHeader(cell)) > 0
}

// IsValueLike reports whether a cell holds an amount or date rather than a label.
func IsValueLike(cell string) bool {
	return isAmountLike(cell) || isDateLike(cell)
}

func isAmountLike(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" || isDateText(v) {
		return false
	}
	_, ok := normalizer.ParseAmount(v)
	return ok
}

// isDateText matches textual dates only.
func isDateText(v string) bool {
	if !strings.ContainsAny(v, "/-") {
		return false
	}
	_, ok := normalizer.ParseDateString(v)
	return ok
}

// isDateLike accepts textual dates and integer Excel serials in a range
// that excludes ordinary small amounts.
func isDateLike(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	if isDateText(v) {
		return true
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil || strings.ContainsAny(v, ",") {
		return false
	}
	if n < 20000 || n > 80000 {
		return false
	}
	_, ok := normalizer.FromExcelSerial(n)
	return ok
}

func isCategoryLike(v string) bool {
	_, ok := categoryVocabulary[headerKey(v)]
	return ok
}

func isPaymentMethodLike(v string) bool {
	_, ok := paymentMethodVocabulary[headerKey(v)]
	return ok
}

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

package parser

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/FACorreiaa/statement-ingest/internal/domain/common"
	"github.com/FACorreiaa/statement-ingest/internal/domain/import/normalizer"
	"github.com/FACorreiaa/statement-ingest/internal/domain/import/sniffer"
)

const shortCellLimit = 40

var (
	// matched against whole normalized cells; only trailing numbers may follow the label
	metadataPattern = regexp.MustCompile(`^(saldo( anterior| do dia| final| disponivel| em conta| bloqueado| total)?|agencia|conta corrente|conta poupanca|periodo|cliente|titular|cpf|cnpj|extrato( de conta( corrente| poupanca)?| bancario)?|data de emissao|emitido em|lancamentos futuros|balance|opening balance|closing balance)( [0-9 ]+)?$`)

	// matched against lowercased accent-free raw cells
	labelledMetadata = regexp.MustCompile(`^(ag|agencia|conta|c/c|periodo|cliente|nome|titular|cpf|cnpj|account|period)\s*[:.]`)

	// credit-card only, matched against whole normalized cells like metadataPattern
	cardSummaryPattern = regexp.MustCompile(`^(total( da fatura| de compras| a pagar| geral| nacional| internacional)?|subtotal|pagamento minimo|valor minimo|juros|encargos|anuidade|iof|multa|limite( disponivel| total| de credito| utilizado)?|saldo (anterior|em aberto|devedor)|fatura anterior|credito rotativo|parcelamento de fatura|vencimento da fatura|melhor dia de compra)( [0-9 ]+)?$`)
)

type filterVerdict struct {
	reason  Reason
	message string
}

// nonTransaction reports why a row is not a transaction, or nil when it may be one.
func nonTransaction(row sniffer.RawRow, source common.SourceType) *filterVerdict {
	cells := row.NonEmpty()
	if len(cells) == 0 {
		return &filterVerdict{ReasonNoiseLine, "empty line"}
	}

	if allHeaderLabels(cells) {
		return &filterVerdict{ReasonHeaderRepeat, "repeated header line"}
	}

	for _, c := range cells {
		if sniffer.IsValueLike(c) {
			continue
		}
		norm := normalizer.Normalize(c)
		raw := strings.ToLower(normalizer.StripDiacritics(c))
		if metadataPattern.MatchString(norm) || labelledMetadata.MatchString(raw) {
			return &filterVerdict{ReasonStatementMetadata, "statement metadata line: " + c}
		}
		if source.IsCreditCard() && cardSummaryPattern.MatchString(norm) {
			return &filterVerdict{ReasonCardSummary, "card statement summary line: " + c}
		}
	}

	if len(cells) == 1 {
		c := cells[0]
		if utf8.RuneCountInString(c) <= shortCellLimit && !sniffer.IsValueLike(c) {
			return &filterVerdict{ReasonNoiseLine, "single short non-numeric cell: " + c}
		}
	}
	return nil
}

func allHeaderLabels(cells []string) bool {
	for _, c := range cells {
		if !sniffer.IsHeaderLabel(c) {
			return false
		}
	}
	return true
}

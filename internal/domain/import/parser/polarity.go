package parser

import (
	"github.com/FACorreiaa/statement-ingest/internal/domain/common"
	"github.com/FACorreiaa/statement-ingest/internal/domain/import/normalizer"
	"github.com/FACorreiaa/statement-ingest/internal/domain/import/sniffer"
)

const polaritySampleRows = 200

// Polarity is the per-file sign convention of a credit-card statement.
// It is computed once and passed into classification unchanged.
type Polarity struct {
	// Applies is false for bank accounts and dual-column files.
	Applies              bool `json:"applies"`
	PurchasesArePositive bool `json:"purchases_are_positive"`
	Positives            int  `json:"positives"`
	Negatives            int  `json:"negatives"`
}

// DecidePolarity is the majority vote: ties favour positive purchases.
func DecidePolarity(positives, negatives int) bool {
	return positives >= negatives
}

// ResolvePolarity samples up to 200 candidate rows with a non-zero amount and
// a description and votes on the purchase sign. Only single-amount
// credit-card files have a polarity.
func ResolvePolarity(a *sniffer.CSVAnalysis, source common.SourceType) Polarity {
	m := a.Mapping
	if !source.IsCreditCard() || !m.Has(sniffer.FieldAmount) {
		return Polarity{}
	}

	amountCol := m.Index(sniffer.FieldAmount)
	descCol := m.Index(sniffer.FieldDescription)

	p := Polarity{Applies: true}
	sampled := 0
	for _, row := range a.Rows {
		if sampled >= polaritySampleRows {
			break
		}
		if nonTransaction(row, source) != nil {
			continue
		}
		if descCol >= 0 && row.Cell(descCol) == "" {
			continue
		}
		amount, ok := normalizer.ParseAmount(row.Cell(amountCol))
		if !ok || amount.IsZero() {
			continue
		}
		sampled++
		if amount.IsPositive() {
			p.Positives++
		} else {
			p.Negatives++
		}
	}
	p.PurchasesArePositive = DecidePolarity(p.Positives, p.Negatives)
	return p
}

package parser

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/statement-ingest/internal/domain/common"
	"github.com/FACorreiaa/statement-ingest/internal/domain/import/normalizer"
	"github.com/FACorreiaa/statement-ingest/internal/domain/import/sniffer"
)

// Config configures a Classifier.
type Config struct {
	Source common.SourceType
	// DefaultCategory applies when the file has no usable category value.
	DefaultCategory *common.Category
	// Keywords infers categories from descriptions; nil uses the built-in table.
	Keywords *KeywordMatcher
}

// Classifier applies a column mapping and polarity to statement rows.
type Classifier struct {
	source          common.SourceType
	defaultCategory *common.Category
	keywords        *KeywordMatcher
}

// NewClassifier creates a classifier for one source type.
func NewClassifier(cfg Config) *Classifier {
	kw := cfg.Keywords
	if kw == nil {
		kw = NewKeywordMatcher(nil)
	}
	source := cfg.Source
	if source == "" {
		source = common.SourceBankAccount
	}
	return &Classifier{source: source, defaultCategory: cfg.DefaultCategory, keywords: kw}
}

// Classify classifies every data row of the analysis.
func (c *Classifier) Classify(a *sniffer.CSVAnalysis, pol Polarity) []ParsedRow {
	rows := make([]ParsedRow, 0, len(a.Rows))
	for _, r := range a.Rows {
		rows = append(rows, c.ClassifyRow(r, a.Mapping, pol))
	}
	return rows
}

// ClassifyRow runs the per-row state machine: non-transaction filter,
// expense decision, date resolution, category resolution, finalization.
func (c *Classifier) ClassifyRow(row sniffer.RawRow, m *sniffer.Mapping, pol Polarity) ParsedRow {
	idx, raw := row.LineNumber, row.Line

	if v := nonTransaction(row, c.source); v != nil {
		return skippedRow(idx, raw, v.reason, "%s", v.message)
	}

	amount, outcome := c.expenseAmount(row, m, pol)
	if outcome != nil {
		outcome.RowIndex, outcome.RawText = idx, raw
		return *outcome
	}

	dateCell := row.Cell(m.Index(sniffer.FieldDate))
	if dateCell == "" {
		out := errorRow(idx, raw, ReasonMissingDate, "row has an amount but no date")
		out.RequiresDateConfirmation = true
		return out
	}
	date, ok := normalizer.ParseDateString(dateCell)
	if !ok {
		return errorRow(idx, raw, ReasonInvalidDate, "invalid date %q", dateCell)
	}

	desc := normalizer.CleanDescription(row.Cell(m.Index(sniffer.FieldDescription)))
	if desc == "" {
		return errorRow(idx, raw, ReasonMissingDescription, "row has no description")
	}

	expense := &ParsedExpense{
		Date:            date,
		Description:     desc,
		Amount:          amount,
		Category:        c.resolveCategory(row.Cell(m.Index(sniffer.FieldCategory)), desc),
		Notes:           row.Cell(m.Index(sniffer.FieldNotes)),
		TransactionType: row.Cell(m.Index(sniffer.FieldTransactionType)),
	}
	return okRow(idx, raw, finalize(expense))
}

// expenseAmount decides whether the row is an expense. It returns the
// absolute amount, or a SKIPPED/ERROR row when it is not importable.
func (c *Classifier) expenseAmount(row sniffer.RawRow, m *sniffer.Mapping, pol Polarity) (decimal.Decimal, *ParsedRow) {
	if m.IsDual() {
		return dualAmount(row, m)
	}

	cell := row.Cell(m.Index(sniffer.FieldAmount))
	if cell == "" {
		return decimal.Zero, &ParsedRow{Status: StatusSkipped, Reason: ReasonNoAmount, Message: "row has no amount"}
	}
	amount, ok := normalizer.ParseAmount(cell)
	if !ok {
		return decimal.Zero, &ParsedRow{Status: StatusError, Reason: ReasonInvalidAmount, Message: "invalid amount " + strconv.Quote(cell)}
	}
	if amount.IsZero() {
		return decimal.Zero, &ParsedRow{Status: StatusSkipped, Reason: ReasonZeroValue, Message: "amount is zero"}
	}

	if c.source.IsCreditCard() {
		purchasesPositive := !pol.Applies || pol.PurchasesArePositive
		switch {
		case amount.IsPositive() && !purchasesPositive:
			return decimal.Zero, &ParsedRow{Status: StatusSkipped, Reason: ReasonCardPositiveValue, Message: "payment or refund on card statement"}
		case amount.IsNegative() && purchasesPositive:
			return decimal.Zero, &ParsedRow{Status: StatusSkipped, Reason: ReasonCardNegativeValue, Message: "payment or refund on card statement"}
		}
		return amount.Abs(), nil
	}

	if amount.IsPositive() {
		return decimal.Zero, &ParsedRow{Status: StatusSkipped, Reason: ReasonIncomePositiveValue, Message: "positive value on bank account is income"}
	}
	return amount.Abs(), nil
}

func dualAmount(row sniffer.RawRow, m *sniffer.Mapping) (decimal.Decimal, *ParsedRow) {
	debit, debitOK, debitErr := optionalAmount(row.Cell(m.Index(sniffer.FieldDebit)))
	if debitErr != nil {
		return decimal.Zero, debitErr
	}
	if debitOK && !debit.IsZero() {
		return debit.Abs(), nil
	}

	credit, creditOK, creditErr := optionalAmount(row.Cell(m.Index(sniffer.FieldCredit)))
	if creditErr != nil {
		return decimal.Zero, creditErr
	}
	if creditOK && !credit.IsZero() {
		return decimal.Zero, &ParsedRow{Status: StatusSkipped, Reason: ReasonIncomeCredit, Message: "credit column holds income"}
	}
	return decimal.Zero, &ParsedRow{Status: StatusSkipped, Reason: ReasonNoAmount, Message: "debit and credit are both empty"}
}

// optionalAmount parses a possibly empty cell. Empty is not an error.
func optionalAmount(cell string) (decimal.Decimal, bool, *ParsedRow) {
	if cell == "" {
		return decimal.Zero, false, nil
	}
	d, ok := normalizer.ParseAmount(cell)
	if !ok {
		return decimal.Zero, false, &ParsedRow{Status: StatusError, Reason: ReasonInvalidAmount, Message: "invalid amount " + strconv.Quote(cell)}
	}
	return d, true, nil
}

// resolveCategory: explicit value, then caller default, then keywords, then other.
func (c *Classifier) resolveCategory(cell, description string) common.Category {
	if cat, ok := categoryFromCell(cell); ok {
		return cat
	}
	if c.defaultCategory != nil {
		return *c.defaultCategory
	}
	if fc, ok := c.keywords.Infer(description); ok {
		return common.Fixed(fc)
	}
	return common.Fixed(common.Other)
}

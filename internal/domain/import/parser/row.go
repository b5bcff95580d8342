// Package parser turns inferred statement rows into classified expense rows.
// Every row ends as OK, SKIPPED or ERROR with a machine-checkable reason.
package parser

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/statement-ingest/internal/domain/common"
	"github.com/FACorreiaa/statement-ingest/internal/domain/import/normalizer"
)

// Status is the terminal state of a classified row.
type Status string

const (
	StatusOK      Status = "OK"
	StatusSkipped Status = "SKIPPED"
	StatusError   Status = "ERROR"
)

// Reason explains a SKIPPED or ERROR outcome.
type Reason string

const (
	ReasonIncomeCredit        Reason = "income_credit"
	ReasonNoAmount            Reason = "no_amount"
	ReasonIncomePositiveValue Reason = "income_positive_value"
	ReasonZeroValue           Reason = "zero_value"
	ReasonCardPositiveValue   Reason = "positive_value_cartao"
	ReasonCardNegativeValue   Reason = "negative_value_cartao"
	ReasonStatementMetadata   Reason = "statement_metadata"
	ReasonCardSummary         Reason = "card_summary"
	ReasonHeaderRepeat        Reason = "header_repeat"
	ReasonNoiseLine           Reason = "noise_line"

	ReasonInvalidAmount      Reason = "invalid_amount"
	ReasonMissingDate        Reason = "missing_date"
	ReasonInvalidDate        Reason = "invalid_date"
	ReasonMissingDescription Reason = "missing_description"
)

// ParsedExpense is an accepted row. Amount is always strictly negative.
type ParsedExpense struct {
	Date            normalizer.Date `json:"date"`
	Description     string          `json:"description"`
	Amount          decimal.Decimal `json:"amount"`
	Category        common.Category `json:"category"`
	Notes           string          `json:"notes,omitempty"`
	TransactionType string          `json:"transaction_type,omitempty"`
	DedupHash       string          `json:"dedup_hash"`
	DateDefaulted   bool            `json:"date_defaulted,omitempty"`
}

// ParsedRow is the classifier output for one input row. OK rows carry an
// Expense and no Reason; SKIPPED and ERROR rows carry a Reason and no Expense.
type ParsedRow struct {
	RowIndex int            `json:"row_index"`
	RawText  string         `json:"raw_text"`
	Status   Status         `json:"status"`
	Reason   Reason         `json:"reason,omitempty"`
	Message  string         `json:"message,omitempty"`
	Expense  *ParsedExpense `json:"expense,omitempty"`

	// RequiresDateConfirmation marks statement rows that have an amount but
	// no date. They stay ERROR until the user supplies one.
	RequiresDateConfirmation bool `json:"requires_date_confirmation,omitempty"`
}

func okRow(index int, raw string, e *ParsedExpense) ParsedRow {
	return ParsedRow{RowIndex: index, RawText: raw, Status: StatusOK, Expense: e}
}

func skippedRow(index int, raw string, reason Reason, format string, args ...any) ParsedRow {
	return ParsedRow{RowIndex: index, RawText: raw, Status: StatusSkipped, Reason: reason, Message: fmt.Sprintf(format, args...)}
}

func errorRow(index int, raw string, reason Reason, format string, args ...any) ParsedRow {
	return ParsedRow{RowIndex: index, RawText: raw, Status: StatusError, Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// finalize applies the expense sign convention and computes the dedup hash.
func finalize(e *ParsedExpense) *ParsedExpense {
	e.Amount = e.Amount.Abs().Neg()
	e.DedupHash = normalizer.DedupHash(e.Date, e.Amount, e.Description)
	return e
}

// Summary counts outcomes across rows.
type Summary struct {
	OK      int `json:"ok"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

// Summarize counts rows by status.
func Summarize(rows []ParsedRow) Summary {
	var s Summary
	for _, r := range rows {
		switch r.Status {
		case StatusOK:
			s.OK++
		case StatusSkipped:
			s.Skipped++
		case StatusError:
			s.Errors++
		}
	}
	return s
}

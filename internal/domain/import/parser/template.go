package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/FACorreiaa/statement-ingest/internal/domain/common"
	"github.com/FACorreiaa/statement-ingest/internal/domain/import/normalizer"
)

// TemplateRow is one line of the fixed import template
// (data;descricao;valor;categoria).
type TemplateRow struct {
	Date        string `csv:"data"`
	Description string `csv:"descricao"`
	Amount      string `csv:"valor"`
	Category    string `csv:"categoria"`
}

// TemplateOptions controls the fixed-template importer.
type TemplateOptions struct {
	// Today replaces missing dates, defaulting to the current day. Rows that
	// use it are flagged DateDefaulted.
	Today    normalizer.Date
	Keywords *KeywordMatcher
}

// ParseTemplate reads the fixed template importer format. Every non-zero
// value is an expense; the sign in the file is ignored.
func ParseTemplate(r io.Reader, opts TemplateOptions) ([]ParsedRow, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}
	text := normalizeTemplateHeader(normalizer.DecodeText(data))

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = templateSeparator(text)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	var records []TemplateRow
	if err := gocsv.UnmarshalCSV(reader, &records); err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	kw := opts.Keywords
	if kw == nil {
		kw = NewKeywordMatcher(nil)
	}
	if opts.Today.IsZero() {
		opts.Today = normalizer.NewDate(time.Now())
	}

	rows := make([]ParsedRow, 0, len(records))
	for i, rec := range records {
		rows = append(rows, classifyTemplateRow(i+2, rec, opts, kw))
	}
	return rows, nil
}

func classifyTemplateRow(index int, rec TemplateRow, opts TemplateOptions, kw *KeywordMatcher) ParsedRow {
	raw := strings.Join([]string{rec.Date, rec.Description, rec.Amount, rec.Category}, ";")

	amountCell := strings.TrimSpace(rec.Amount)
	if amountCell == "" {
		return skippedRow(index, raw, ReasonNoAmount, "row has no amount")
	}
	amount, ok := normalizer.ParseAmount(amountCell)
	if !ok {
		return errorRow(index, raw, ReasonInvalidAmount, "invalid amount %q", amountCell)
	}
	if amount.IsZero() {
		return skippedRow(index, raw, ReasonZeroValue, "amount is zero")
	}

	desc := normalizer.CleanDescription(rec.Description)
	if desc == "" {
		return errorRow(index, raw, ReasonMissingDescription, "row has no description")
	}

	expense := &ParsedExpense{Description: desc, Amount: amount}

	// legacy behaviour: a missing date is today, an unreadable one is an error
	if dateCell := strings.TrimSpace(rec.Date); dateCell == "" {
		expense.Date = opts.Today
		expense.DateDefaulted = true
	} else {
		date, ok := normalizer.ParseDateString(dateCell)
		if !ok {
			return errorRow(index, raw, ReasonInvalidDate, "invalid date %q", dateCell)
		}
		expense.Date = date
	}

	if cat, ok := categoryFromCell(rec.Category); ok {
		expense.Category = cat
	} else if fc, found := kw.Infer(desc); found {
		expense.Category = common.Fixed(fc)
	} else {
		expense.Category = common.Fixed(common.Other)
	}
	return okRow(index, raw, finalize(expense))
}

// normalizeTemplateHeader lowercases and strips accents from the header line
// so "Descrição" matches the descricao tag.
func normalizeTemplateHeader(text string) string {
	header, rest, _ := strings.Cut(text, "\n")
	header = strings.ToLower(normalizer.StripDiacritics(header))
	if rest == "" {
		return header
	}
	return header + "\n" + rest
}

func templateSeparator(text string) rune {
	header, _, _ := strings.Cut(text, "\n")
	if strings.Count(header, ",") > strings.Count(header, ";") {
		return ','
	}
	return ';'
}

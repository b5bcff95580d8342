// Package sniffer infers the structure of delimited statement exports.
// It detects the separator and header row, then maps columns to semantic
// fields using header names first and value shapes as a fallback.
package sniffer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"strings"

	"github.com/FACorreiaa/statement-ingest/internal/domain/common"
)

const (
	maxHeaderSearch     = 20
	separatorProbeLines = 10
	emptyProbeRows      = 50
	contentSampleRows   = 5
	dateSampleRows      = 50
	previewRows         = 15

	headerConfidence = 0.9
	contentWeight    = 0.8
)

var (
	ErrEmptyFile        = errors.New("file is empty")
	ErrTooFewLines      = errors.New("file needs a header and at least one data row")
	ErrInvalidDelimiter = errors.New("could not detect valid delimiter")
)

// RawRow is one split line of the input.
type RawRow struct {
	Cells      []string
	Line       string
	LineNumber int // 1-based line in the original text
}

// Cell returns the trimmed cell at i, or "" when the row is shorter.
func (r RawRow) Cell(i int) string {
	if i < 0 || i >= len(r.Cells) {
		return ""
	}
	return r.Cells[i]
}

// NonEmpty returns the non-blank cells.
func (r RawRow) NonEmpty() []string {
	var out []string
	for _, c := range r.Cells {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

// Options tune Analyze. The zero value auto-detects everything.
type Options struct {
	Source common.SourceType
	// Separator overrides detection when non-zero.
	Separator rune
	// Overrides are applied on top of the inferred mapping.
	Overrides []ColumnMapping
}

// CSVAnalysis is the inferred structure of a statement file.
type CSVAnalysis struct {
	Separator  rune               `json:"separator"`
	HasHeader  bool               `json:"has_header"`
	HeaderLine int                `json:"header_line,omitempty"`
	Headers    []string           `json:"headers"`
	Mapping    *Mapping           `json:"-"`
	Rows       []RawRow           `json:"-"`
	Samples    []map[Field]string `json:"samples"`
}

// Mappings exposes the mapping list for serialization.
func (a *CSVAnalysis) Mappings() []ColumnMapping {
	return a.Mapping.Columns()
}

// Analyze infers separator, header and column mapping for text.
// The result may lack an amount column; callers decide whether that is fatal.
func Analyze(text string, opts Options) (*CSVAnalysis, error) {
	lines := nonEmptyLines(text)
	if len(lines) == 0 {
		return nil, ErrEmptyFile
	}
	if len(lines) < 2 {
		return nil, ErrTooFewLines
	}

	sep := opts.Separator
	if sep == 0 {
		texts := make([]string, len(lines))
		for i, l := range lines {
			texts[i] = l.Line
		}
		sep = DetectSeparator(texts)
	}
	if !validSeparator(sep) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDelimiter, sep)
	}

	rows := make([]RawRow, len(lines))
	for i, l := range lines {
		rows[i] = RawRow{Cells: splitLine(l.Line, sep), Line: l.Line, LineNumber: l.LineNumber}
	}

	analysis := &CSVAnalysis{Separator: sep}
	data := rows
	if idx := DetectHeader(rows); idx >= 0 {
		analysis.HasHeader = true
		analysis.HeaderLine = rows[idx].LineNumber
		analysis.Headers = rows[idx].Cells
		data = rows[idx+1:]
	}
	if len(data) == 0 {
		return nil, ErrTooFewLines
	}
	analysis.Rows = data
	analysis.Headers = labelColumns(analysis.Headers, data)

	analysis.Mapping = InferMapping(analysis.Headers, analysis.HasHeader, data)
	for _, o := range opts.Overrides {
		if o.SourceLabel == "" && o.ColumnIndex < len(analysis.Headers) {
			o.SourceLabel = analysis.Headers[o.ColumnIndex]
		}
		analysis.Mapping.Set(o)
	}
	if opts.Source.IsCreditCard() {
		InferCardDateColumn(analysis)
	}
	analysis.Samples = BuildSamples(analysis.Mapping, data, previewRows)
	return analysis, nil
}

// DetectSeparator counts ',', ';' and tab outside quotes over the first lines
// and returns the most frequent one. Ties keep the earlier candidate.
func DetectSeparator(lines []string) rune {
	candidates := []rune{';', '\t', ','}
	counts := make(map[rune]int, len(candidates))
	for i, line := range lines {
		if i >= separatorProbeLines {
			break
		}
		for _, c := range candidates {
			counts[c] += countOutsideQuotes(line, c)
		}
	}

	best, bestCount := ',', 0
	for _, c := range candidates {
		if counts[c] > bestCount {
			best, bestCount = c, counts[c]
		}
	}
	return best
}

// DetectHeader returns the index of the header row within rows, or -1.
// The row with the most header-vocabulary cells among the first lines wins;
// it must have two or more cells and no cell that reads as a value.
func DetectHeader(rows []RawRow) int {
	bestIdx, bestScore := -1, 0
	for i, row := range rows {
		if i >= maxHeaderSearch {
			break
		}
		cells := row.NonEmpty()
		if len(cells) < 2 {
			continue
		}
		score := 0
		for _, c := range cells {
			if IsValueLike(c) {
				score = 0
				break
			}
			if IsHeaderLabel(c) {
				score++
			}
		}
		if score > bestScore {
			bestIdx, bestScore = i, score
		}
	}
	return bestIdx
}

// BuildSamples renders up to limit rows keyed by semantic field.
func BuildSamples(m *Mapping, rows []RawRow, limit int) []map[Field]string {
	var samples []map[Field]string
	for i, row := range rows {
		if i >= limit {
			break
		}
		sample := make(map[Field]string)
		for _, c := range m.Columns() {
			if c.Field == FieldIgnore {
				continue
			}
			sample[c.Field] = row.Cell(c.ColumnIndex)
		}
		samples = append(samples, sample)
	}
	return samples
}

type numberedLine struct {
	Line       string
	LineNumber int
}

func nonEmptyLines(text string) []numberedLine {
	var out []numberedLine
	for i, raw := range strings.Split(text, "\n") {
		line := cleanLine(raw, i == 0)
		if line == "" {
			continue
		}
		out = append(out, numberedLine{Line: line, LineNumber: i + 1})
	}
	return out
}

func cleanLine(line string, firstLine bool) string {
	line = strings.TrimRight(line, "\r")
	if firstLine {
		line = strings.TrimPrefix(line, "\uFEFF")
	}
	return strings.TrimSpace(line)
}

func validSeparator(r rune) bool {
	switch r {
	case ',', ';', '\t', '|':
		return true
	}
	return false
}

func countOutsideQuotes(line string, sep rune) int {
	count := 0
	quoted := false
	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
		case r == sep && !quoted:
			count++
		}
	}
	return count
}

// splitLine splits one line honoring quoted cells; malformed quoting falls
// back to a plain split.
func splitLine(line string, sep rune) []string {
	reader := csv.NewReader(strings.NewReader(line))
	reader.Comma = sep
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	cells, err := reader.Read()
	if err != nil {
		cells = strings.Split(line, string(sep))
	}
	for i, c := range cells {
		cells[i] = strings.TrimSpace(c)
	}
	return cells
}

// labelColumns pads headers so every data column has a label.
func labelColumns(headers []string, rows []RawRow) []string {
	width := len(headers)
	for _, r := range rows {
		if len(r.Cells) > width {
			width = len(r.Cells)
		}
	}
	labels := make([]string, width)
	for i := range labels {
		if i < len(headers) && headers[i] != "" {
			labels[i] = headers[i]
			continue
		}
		labels[i] = fmt.Sprintf("column_%d", i+1)
	}
	return labels
}

package sniffer

import (
	"sort"
	"unicode/utf8"
)

// candidate is a column competing for a semantic field.
type candidate struct {
	column int
	score  float64
}

// better orders candidates by score, then by scan order.
func better(a, b candidate) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	return a.column < b.column
}

// bestCandidate reduces candidates to the winner; zero scores never win.
func bestCandidate(cands []candidate) (candidate, bool) {
	var best candidate
	found := false
	for _, c := range cands {
		if c.score <= 0 {
			continue
		}
		if !found || better(c, best) {
			best, found = c, true
		}
	}
	return best, found
}

// contentRule scores a column for a field by value shape.
type contentRule struct {
	field     Field
	sample    int
	predicate func(string) bool
}

var contentRules = []contentRule{
	{FieldDate, dateSampleRows, isDateLike},
	{FieldAmount, contentSampleRows, isAmountLike},
	{FieldCategory, contentSampleRows, isCategoryLike},
	{FieldTransactionType, contentSampleRows, isPaymentMethodLike},
}

// InferMapping runs the header pass followed by the content-shape pass.
func InferMapping(headers []string, hasHeader bool, rows []RawRow) *Mapping {
	m := &Mapping{}
	excluded := emptyColumns(len(headers), rows)

	if hasHeader {
		mapHeaders(m, headers, excluded)
	}
	mapByContent(m, headers, rows, excluded)
	mapDescription(m, headers, rows, excluded)
	return m
}

// emptyColumns flags columns blank in at least rows-1 of the probed rows.
func emptyColumns(width int, rows []RawRow) []bool {
	n := len(rows)
	if n > emptyProbeRows {
		n = emptyProbeRows
	}
	threshold := n - 1
	if threshold < 1 {
		threshold = 1
	}

	excluded := make([]bool, width)
	for col := 0; col < width; col++ {
		empty := 0
		for _, r := range rows[:n] {
			if r.Cell(col) == "" {
				empty++
			}
		}
		excluded[col] = empty >= threshold
	}
	return excluded
}

type headerHit struct {
	column int
	headerMatch
}

func mapHeaders(m *Mapping, headers []string, excluded []bool) {
	var hits []headerHit
	hasCredit, hasDebit := false, false
	for col, h := range headers {
		if excluded[col] {
			continue
		}
		matches := signedColumn(matchHeader(h))
		for _, hm := range matches {
			hits = append(hits, headerHit{column: col, headerMatch: hm})
			switch hm.field {
			case FieldCredit:
				hasCredit = true
			case FieldDebit:
				hasDebit = true
			}
		}
	}
	// Credit and debit only describe a dual layout when they are separate columns.
	dual := hasCredit && hasDebit

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].rank != hits[j].rank {
			return hits[i].rank < hits[j].rank
		}
		return hits[i].column < hits[j].column
	})

	for _, hit := range hits {
		if hit.field == FieldAmount && dual {
			continue
		}
		if _, used := m.FieldOf(hit.column); used {
			continue
		}
		if hit.field != FieldIgnore && m.Has(hit.field) {
			continue
		}
		m.Set(ColumnMapping{
			SourceLabel: headers[hit.column],
			ColumnIndex: hit.column,
			Field:       hit.field,
			Confidence:  headerConfidence,
		})
	}
}

// signedColumn folds a header naming both credit and debit, such as
// "Crédito/Débito", into a single signed amount column.
func signedColumn(matches []headerMatch) []headerMatch {
	credit, debit := false, false
	for _, hm := range matches {
		credit = credit || hm.field == FieldCredit
		debit = debit || hm.field == FieldDebit
	}
	if !credit || !debit {
		return matches
	}

	out := make([]headerMatch, 0, len(matches))
	hasAmount := false
	for _, hm := range matches {
		switch hm.field {
		case FieldCredit, FieldDebit:
			continue
		case FieldAmount:
			hasAmount = true
		}
		out = append(out, hm)
	}
	if !hasAmount {
		out = append(out, headerMatch{field: FieldAmount, rank: amountRank})
	}
	return out
}

func mapByContent(m *Mapping, headers []string, rows []RawRow, excluded []bool) {
	for _, rule := range contentRules {
		if m.Has(rule.field) {
			continue
		}
		if rule.field == FieldAmount && m.IsDual() {
			continue
		}

		sample := rows
		if len(sample) > rule.sample {
			sample = sample[:rule.sample]
		}

		var cands []candidate
		for col := range headers {
			if excluded[col] {
				continue
			}
			if _, used := m.FieldOf(col); used {
				continue
			}
			score := 0
			for _, r := range sample {
				if rule.predicate(r.Cell(col)) {
					score++
				}
			}
			cands = append(cands, candidate{column: col, score: float64(score)})
		}

		if best, ok := bestCandidate(cands); ok {
			m.Set(ColumnMapping{
				SourceLabel: headers[best.column],
				ColumnIndex: best.column,
				Field:       rule.field,
				Confidence:  contentWeight * best.score / float64(len(sample)),
			})
		}
	}
}

// mapDescription picks the unused column with the longest average text.
func mapDescription(m *Mapping, headers []string, rows []RawRow, excluded []bool) {
	if m.Has(FieldDescription) {
		return
	}
	sample := rows
	if len(sample) > emptyProbeRows {
		sample = sample[:emptyProbeRows]
	}

	var cands []candidate
	for col := range headers {
		if excluded[col] {
			continue
		}
		if _, used := m.FieldOf(col); used {
			continue
		}
		total, values, textual := 0, 0, 0
		for _, r := range sample {
			v := r.Cell(col)
			if v == "" {
				continue
			}
			values++
			total += utf8.RuneCountInString(v)
			if !IsValueLike(v) {
				textual++
			}
		}
		if values == 0 || textual*2 < values {
			continue
		}
		cands = append(cands, candidate{column: col, score: float64(total) / float64(values)})
	}

	if best, ok := bestCandidate(cands); ok {
		m.Set(ColumnMapping{
			SourceLabel: headers[best.column],
			ColumnIndex: best.column,
			Field:       FieldDescription,
			Confidence:  contentWeight / 2,
		})
	}
}

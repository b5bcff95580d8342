package sniffer

const (
	cardDateSampleRows = 50
	cardDateMinMatches = 3
)

// InferCardDateColumn maps a date column for credit-card statements when
// the regular passes found none. It tries a broader header vocabulary and
// then looks for a column with at least three parseable dates in the first
// rows. It reports whether a column was mapped.
func InferCardDateColumn(a *CSVAnalysis) bool {
	if a.Mapping.Has(FieldDate) {
		return false
	}

	free := func(col int) bool {
		_, used := a.Mapping.FieldOf(col)
		return !used
	}

	if a.HasHeader {
		for col, h := range a.Headers {
			if !free(col) || IsValueLike(h) {
				continue
			}
			if cardDateHeader.MatchString(headerKey(h)) {
				a.Mapping.Set(ColumnMapping{SourceLabel: h, ColumnIndex: col, Field: FieldDate, Confidence: 0.7})
				return true
			}
		}
	}

	sample := a.Rows
	if len(sample) > cardDateSampleRows {
		sample = sample[:cardDateSampleRows]
	}
	var cands []candidate
	for col := range a.Headers {
		if !free(col) {
			continue
		}
		matches := 0
		for _, r := range sample {
			if isDateLike(r.Cell(col)) {
				matches++
			}
		}
		if matches >= cardDateMinMatches {
			cands = append(cands, candidate{column: col, score: float64(matches)})
		}
	}
	best, ok := bestCandidate(cands)
	if !ok {
		return false
	}
	a.Mapping.Set(ColumnMapping{
		SourceLabel: a.Headers[best.column],
		ColumnIndex: best.column,
		Field:       FieldDate,
		Confidence:  contentWeight * best.score / float64(len(sample)),
	})
	return true
}

package sniffer

import (
	"testing"

	"github.com/FACorreiaa/statement-ingest/internal/domain/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cardAnalysis(headers []string, rows ...[]string) *CSVAnalysis {
	a := &CSVAnalysis{HasHeader: true, Headers: headers, Mapping: NewMapping(
		ColumnMapping{ColumnIndex: 1, Field: FieldDescription},
		ColumnMapping{ColumnIndex: 2, Field: FieldAmount},
	)}
	for i, r := range rows {
		a.Rows = append(a.Rows, RawRow{Cells: r, LineNumber: i + 2})
	}
	return a
}

func TestInferCardDateColumn_ExpandedHeader(t *testing.T) {
	a := cardAnalysis([]string{"Lançto.", "Estabelecimento", "Valor"},
		[]string{"15/03", "Netflix", "39,90"},
	)

	require.True(t, InferCardDateColumn(a))
	assert.Equal(t, 0, a.Mapping.Index(FieldDate))
}

func TestInferCardDateColumn_ByContent(t *testing.T) {
	a := cardAnalysis([]string{"Quando", "Estabelecimento", "Valor"},
		[]string{"15/03/2024", "Netflix", "39,90"},
		[]string{"16/03/2024", "Uber", "21,00"},
		[]string{"", "Ajuste", "1,00"},
		[]string{"18/03/2024", "iFood", "55,00"},
	)

	require.True(t, InferCardDateColumn(a))
	assert.Equal(t, 0, a.Mapping.Index(FieldDate))
}

func TestInferCardDateColumn_NeedsThreeMatches(t *testing.T) {
	a := cardAnalysis([]string{"Quando", "Estabelecimento", "Valor"},
		[]string{"15/03/2024", "Netflix", "39,90"},
		[]string{"16/03/2024", "Uber", "21,00"},
		[]string{"ontem", "iFood", "55,00"},
	)

	assert.False(t, InferCardDateColumn(a))
	assert.False(t, a.Mapping.Has(FieldDate))
}

func TestInferCardDateColumn_KeepsExistingDate(t *testing.T) {
	a := cardAnalysis([]string{"Data", "Estabelecimento", "Valor"})
	a.Mapping.Set(ColumnMapping{ColumnIndex: 0, Field: FieldDate})
	assert.False(t, InferCardDateColumn(a))
}

func TestAnalyze_CreditCardRunsDateInference(t *testing.T) {
	text := "Lançto.;Estabelecimento;Valor\n15/03;Netflix;39,90\n16/03;Uber;21,00"

	a, err := Analyze(text, Options{Source: common.SourceCreditCard})
	require.NoError(t, err)
	assert.Equal(t, 0, a.Mapping.Index(FieldDate))

	b, err := Analyze(text, Options{Source: common.SourceBankAccount})
	require.NoError(t, err)
	assert.False(t, b.Mapping.Has(FieldDate))
}

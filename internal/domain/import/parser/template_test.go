package parser

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/statement-ingest/internal/domain/import/normalizer"
)

const templateCSV = `Data;Descrição;Valor;Categoria
15/03/2024;Mercado;150,00;alimentação
;Padaria;12,00;
16/03/2024;Uber;0;
xx/03/2024;Cinema;40,00;lazer`

func TestParseTemplate_Rows(t *testing.T) {
	rows, err := ParseTemplate(strings.NewReader(templateCSV), TemplateOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, StatusOK, rows[0].Status)
	assert.True(t, decimal.RequireFromString("-150").Equal(rows[0].Expense.Amount))
	assert.Equal(t, "food", rows[0].Expense.Category.String())
	assert.False(t, rows[0].Expense.DateDefaulted)

	assert.Equal(t, StatusOK, rows[1].Status)
	assert.True(t, rows[1].Expense.DateDefaulted)

	assert.Equal(t, ReasonZeroValue, rows[2].Reason)
	assert.Equal(t, ReasonInvalidDate, rows[3].Reason)
}

func TestParseTemplate_MissingDateDefaultsToToday(t *testing.T) {
	today := normalizer.Date{Year: 2024, Month: 4, Day: 2}
	rows, err := ParseTemplate(strings.NewReader(templateCSV), TemplateOptions{Today: today})
	require.NoError(t, err)

	row := rows[1]
	require.Equal(t, StatusOK, row.Status)
	assert.Equal(t, today, row.Expense.Date)
	assert.True(t, row.Expense.DateDefaulted)
	assert.False(t, row.RequiresDateConfirmation)
	assert.Equal(t, "food", row.Expense.Category.String())
	assert.True(t, row.Expense.Amount.IsNegative())

	// an unparseable date is never defaulted
	assert.Equal(t, ReasonInvalidDate, rows[3].Reason)
}

func TestParseTemplate_CommaSeparated(t *testing.T) {
	rows, err := ParseTemplate(strings.NewReader("data,descricao,valor,categoria\n2024-03-15,Netflix,39.90,\n"), TemplateOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, StatusOK, rows[0].Status)
	assert.Equal(t, "leisure", rows[0].Expense.Category.String())
}

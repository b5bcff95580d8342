package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	zipMagic      = []byte("PK\x03\x04")
	cellFlattener = strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")
)

// IsXLSX reports whether data looks like an Office Open XML workbook.
func IsXLSX(data []byte) bool {
	return bytes.HasPrefix(data, zipMagic)
}

// XLSXToText renders the statement sheet as tab-separated text so it can go
// through the same inference as delimited exports. Raw cell values are used,
// so date cells come out as Excel serials.
func XLSXToText(r io.Reader) (string, error) {
	f, err := excelize.OpenReader(r, excelize.Options{RawCellValue: true})
	if err != nil {
		return "", fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := findStatementSheet(f.GetSheetList())
	if sheet == "" {
		return "", fmt.Errorf("no suitable sheet found")
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		return "", fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	defer rows.Close()

	var b strings.Builder
	for rows.Next() {
		cols, err := rows.Columns()
		if err != nil {
			return "", fmt.Errorf("failed to read row: %w", err)
		}
		for i, c := range cols {
			cols[i] = cellFlattener.Replace(c)
		}
		b.WriteString(strings.Join(cols, "\t"))
		b.WriteByte('\n')
	}
	if err := rows.Error(); err != nil {
		return "", fmt.Errorf("failed to iterate rows: %w", err)
	}
	return b.String(), nil
}

// findStatementSheet prefers sheets named like a statement, else the first one.
func findStatementSheet(sheets []string) string {
	if len(sheets) == 0 {
		return ""
	}
	preferred := []string{"extrato", "fatura", "transactions", "transacoes", "movimentos", "lancamentos", "statement"}
	for _, p := range preferred {
		for _, sheet := range sheets {
			if strings.Contains(strings.ToLower(sheet), p) {
				return sheet
			}
		}
	}
	return sheets[0]
}

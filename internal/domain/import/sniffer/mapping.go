package sniffer

import "sort"

// Field is the semantic meaning assigned to a source column.
type Field string

const (
	FieldDescription     Field = "description"
	FieldAmount          Field = "amount"
	FieldCredit          Field = "credit" // entrada / crédito
	FieldDebit           Field = "debit"  // saída / débito
	FieldDate            Field = "date"
	FieldCategory        Field = "category"
	FieldNotes           Field = "notes"
	FieldTransactionType Field = "transaction_type"
	FieldIgnore          Field = "ignore"
)

// ColumnMapping binds one source column to a semantic field.
type ColumnMapping struct {
	SourceLabel string  `json:"source_label"`
	ColumnIndex int     `json:"column_index"`
	Field       Field   `json:"field"`
	Confidence  float64 `json:"confidence"`
}

// Mapping holds at most one active column per semantic field and at most
// one field per column. FieldIgnore may be assigned to any number of columns.
type Mapping struct {
	columns []ColumnMapping
}

// NewMapping builds a mapping by applying Set to each entry in order.
func NewMapping(entries ...ColumnMapping) *Mapping {
	m := &Mapping{}
	for _, e := range entries {
		m.Set(e)
	}
	return m
}

// Set assigns a column to a field. Any column previously mapped to the same
// field is evicted, as is any previous field of the same column.
func (m *Mapping) Set(cm ColumnMapping) {
	kept := m.columns[:0]
	for _, existing := range m.columns {
		if existing.ColumnIndex == cm.ColumnIndex {
			continue
		}
		if cm.Field != FieldIgnore && existing.Field == cm.Field {
			continue
		}
		kept = append(kept, existing)
	}
	m.columns = append(kept, cm)
}

// Remove unmaps a column.
func (m *Mapping) Remove(column int) {
	kept := m.columns[:0]
	for _, existing := range m.columns {
		if existing.ColumnIndex != column {
			kept = append(kept, existing)
		}
	}
	m.columns = kept
}

// Index returns the column mapped to field, or -1.
func (m *Mapping) Index(field Field) int {
	if m == nil {
		return -1
	}
	for _, c := range m.columns {
		if c.Field == field {
			return c.ColumnIndex
		}
	}
	return -1
}

// Has reports whether field is mapped.
func (m *Mapping) Has(field Field) bool {
	return m.Index(field) >= 0
}

// FieldOf returns the field assigned to column, if any.
func (m *Mapping) FieldOf(column int) (Field, bool) {
	if m == nil {
		return "", false
	}
	for _, c := range m.columns {
		if c.ColumnIndex == column {
			return c.Field, true
		}
	}
	return "", false
}

// IsDual reports whether amounts come from separate credit/debit columns.
func (m *Mapping) IsDual() bool {
	return !m.Has(FieldAmount) && (m.Has(FieldCredit) || m.Has(FieldDebit))
}

// HasAmount reports whether any amount-bearing column is mapped.
func (m *Mapping) HasAmount() bool {
	return m.Has(FieldAmount) || m.Has(FieldCredit) || m.Has(FieldDebit)
}

// Columns returns the mappings ordered by column index.
func (m *Mapping) Columns() []ColumnMapping {
	if m == nil {
		return nil
	}
	out := make([]ColumnMapping, len(m.columns))
	copy(out, m.columns)
	sort.Slice(out, func(i, j int) bool { return out[i].ColumnIndex < out[j].ColumnIndex })
	return out
}

// Clone returns an independent copy.
func (m *Mapping) Clone() *Mapping {
	return &Mapping{columns: m.Columns()}
}
